package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordEvent(e EventRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO events
		(event_id, detected_at, model, positions, aggregate_pnl, pnl_delta)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.EventID, e.DetectedAt, e.Model, e.Positions, e.AggregatePnl, e.PnlDelta,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
