// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id TEXT PRIMARY KEY,
	detected_at DATETIME NOT NULL,
	model TEXT NOT NULL,
	positions TEXT NOT NULL,
	aggregate_pnl REAL,
	pnl_delta REAL
);

CREATE INDEX IF NOT EXISTS idx_events_detected_at ON events(detected_at);
`
