package journal

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatEventOrg(t *testing.T) {
	t.Parallel()

	detected := time.Date(2026, 8, 23, 10, 30, 45, 0, time.UTC)

	ev := EventRecord{
		EventID:      "01J5XK3ZM9QWERTYUIOP123456",
		DetectedAt:   detected,
		Model:        "DEEPSEEK CHAT V3.1",
		Positions:    "ETH SHORT 2X 3,412.50 +$25.00",
		AggregatePnl: sql.NullFloat64{Float64: 25.0, Valid: true},
		PnlDelta:     sql.NullFloat64{Float64: 15.0, Valid: true},
	}

	result := FormatEventOrg(ev)

	assert.Contains(t, result, "** Change: DEEPSEEK CHAT V3.1 (01J5XK3Z)")

	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":EVENT_ID: 01J5XK3ZM9QWERTYUIOP123456")
	assert.Contains(t, result, ":MODEL: DEEPSEEK CHAT V3.1")
	assert.Contains(t, result, ":DETECTED_AT: 2026-08-23T10:30:45Z")
	assert.Contains(t, result, ":AGGREGATE_PNL: 25.00")
	assert.Contains(t, result, ":PNL_DELTA: +15.00")
	assert.Contains(t, result, ":END:")

	assert.Contains(t, result, "*** Positions")
	assert.Contains(t, result, "ETH SHORT 2X 3,412.50 +$25.00")
	assert.Contains(t, result, "*** Notes")
}

func TestFormatEventOrgOmitsMissingMetrics(t *testing.T) {
	t.Parallel()

	ev := EventRecord{
		EventID:    "short",
		DetectedAt: time.Now(),
		Model:      "m",
		Positions:  "p",
	}

	result := FormatEventOrg(ev)

	assert.Contains(t, result, "** Change: m (short)")
	assert.NotContains(t, result, ":AGGREGATE_PNL:")
	assert.NotContains(t, result, ":PNL_DELTA:")
}

func TestFormatEventsOrg(t *testing.T) {
	t.Parallel()

	evs := []EventRecord{
		{EventID: "E1", DetectedAt: time.Now(), Model: "m", Positions: "a"},
		{EventID: "E2", DetectedAt: time.Now(), Model: "m", Positions: "b"},
	}

	result := FormatEventsOrg(evs)

	assert.Equal(t, 2, strings.Count(result, "** Change:"))
}
