// Package journal persists the monitor's audit trail: an append-only JSONL
// change log, a SQLite event journal for querying, per-change snapshot
// artifacts, and an overwritten latest-state view. Every writer fails
// independently; none of them may halt the poll loop.
package journal

import (
	"database/sql"
	"time"
)

// Record is one line of the append-only change log. The wire shape is fixed:
// {"timestamp": <ISO-8601 UTC>, "model": <string>, "active_positions": <string>}.
type Record struct {
	Timestamp       string `json:"timestamp"`
	Model           string `json:"model"`
	ActivePositions string `json:"active_positions"`
}

// NewRecord stamps a record at second resolution in UTC.
func NewRecord(model, activePositions string, at time.Time) Record {
	return Record{
		Timestamp:       at.UTC().Truncate(time.Second).Format(time.RFC3339),
		Model:           model,
		ActivePositions: activePositions,
	}
}

// EventRecord mirrors the events table.
type EventRecord struct {
	EventID      string
	DetectedAt   time.Time
	Model        string
	Positions    string
	AggregatePnl sql.NullFloat64
	PnlDelta     sql.NullFloat64
}
