package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetEvent returns a single change event by ID.
func (j *SQLite) GetEvent(eventID string) (EventRecord, error) {
	var rec EventRecord

	row := j.db.QueryRow(`
		SELECT event_id, detected_at, model, positions, aggregate_pnl, pnl_delta
		FROM events
		WHERE event_id = ?`, eventID)

	err := row.Scan(
		&rec.EventID,
		&rec.DetectedAt,
		&rec.Model,
		&rec.Positions,
		&rec.AggregatePnl,
		&rec.PnlDelta,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return EventRecord{}, fmt.Errorf("event %q not found", eventID)
		}
		return EventRecord{}, err
	}
	return rec, nil
}

// ListEventsBetween returns events whose detected_at is within [start, end).
func (j *SQLite) ListEventsBetween(start, end time.Time) ([]EventRecord, error) {
	rows, err := j.db.Query(`
		SELECT event_id, detected_at, model, positions, aggregate_pnl, pnl_delta
		FROM events
		WHERE detected_at >= ? AND detected_at < ?
		ORDER BY detected_at ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var rec EventRecord
		if err := rows.Scan(
			&rec.EventID,
			&rec.DetectedAt,
			&rec.Model,
			&rec.Positions,
			&rec.AggregatePnl,
			&rec.PnlDelta,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
