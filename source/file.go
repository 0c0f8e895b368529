package source

import (
	"context"
	"os"
	"time"
)

// FileSource reads snapshots from a plain text file. Useful for driving the
// monitor from another capture tool that refreshes the file, and for
// exercising the pipeline without a live page.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, &FetchError{Transient: true, Err: err}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return Snapshot{}, &FetchError{Transient: true, Err: err}
	}

	return Snapshot{
		Text:        string(data),
		Artifact:    data,
		ArtifactExt: ".txt",
		CapturedAt:  time.Now().UTC(),
	}, nil
}
