package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SnapshotDir stores per-change snapshot artifacts, one file per event,
// named by capture time at second resolution. Files appear atomically:
// content is staged to a temp file and renamed into place.
type SnapshotDir struct {
	dir string
}

func NewSnapshotDir(dir string) (*SnapshotDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &SnapshotDir{dir: dir}, nil
}

// Write stores artifact under positions_<timestamp><ext> and returns the
// final path. ext must include the leading dot; empty defaults to ".txt".
func (s *SnapshotDir) Write(artifact []byte, ext string, at time.Time) (string, error) {
	if ext == "" {
		ext = ".txt"
	}
	name := fmt.Sprintf("positions_%s%s", at.Format("20060102_150405"), ext)
	path := filepath.Join(s.dir, name)
	if err := writeAtomic(path, artifact); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LatestView maintains a single human-viewable file reflecting the most
// recent state. Overwrite semantics, atomically replaced.
type LatestView struct {
	path string
}

func NewLatestView(path string) *LatestView {
	return &LatestView{path: path}
}

func (v *LatestView) Write(doc []byte) error {
	if err := writeAtomic(v.path, doc); err != nil {
		return fmt.Errorf("write latest view: %w", err)
	}
	return nil
}

func (v *LatestView) Path() string { return v.path }

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".poswatch-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
