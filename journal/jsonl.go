package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// JSONL appends change records to a durable log, one JSON object per line.
// Records are written with a single Write call on an O_APPEND descriptor so
// readers never see a torn line.
type JSONL struct {
	mu sync.Mutex
	f  *os.File
}

func OpenJSONL(path string) (*JSONL, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open change log: %w", err)
	}
	return &JSONL{f: f}, nil
}

func (j *JSONL) Append(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.f.Write(data); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (j *JSONL) Close() error {
	return j.f.Close()
}
