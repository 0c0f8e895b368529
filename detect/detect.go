// Package detect decides whether an observed positions state meaningfully
// differs from the last accepted one.
//
// The detector has two logical states: no baseline (before the first
// successful poll) and tracking. The first valid state becomes the baseline
// without producing an event; after that, byte-for-byte key inequality is
// the one and only change criterion.
package detect

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/poswatch/pkg/id"
	"github.com/rustyeddy/poswatch/positions"
)

// Event is produced exactly once per detected change and consumed by the
// dispatcher and the persistence writers.
type Event struct {
	ID         string
	Previous   *positions.State
	Current    positions.State
	Delta      *decimal.Decimal
	DetectedAt time.Time
}

// Detector owns the single baseline cell. It is driven by one goroutine
// (the poll loop serializes iterations) so no locking is needed.
type Detector struct {
	baseline *positions.State
}

func New() *Detector {
	return &Detector{}
}

// Baseline returns the last accepted state, or nil before the first
// observation.
func (d *Detector) Baseline() *positions.State {
	return d.baseline
}

// Observe compares st against the baseline. It returns (event, true) only
// on a change; the baseline is swapped atomically with the new state in the
// same call. The very first observation seeds the baseline silently.
func (d *Detector) Observe(st positions.State) (Event, bool) {
	if d.baseline == nil {
		b := st
		d.baseline = &b
		return Event{}, false
	}

	if d.baseline.Key == st.Key {
		return Event{}, false
	}

	prev := d.baseline
	b := st
	d.baseline = &b

	return Event{
		ID:         id.New(),
		Previous:   prev,
		Current:    st,
		Delta:      PnlDelta(prev.AggregatePnl, st.AggregatePnl),
		DetectedAt: time.Now().UTC(),
	}, true
}

// PnlDelta returns current - previous when both aggregates are available,
// nil otherwise. Absence of data is a legitimate, silent outcome.
func PnlDelta(prev, cur *decimal.Decimal) *decimal.Decimal {
	if prev == nil || cur == nil {
		return nil
	}
	d := cur.Sub(*prev)
	return &d
}
