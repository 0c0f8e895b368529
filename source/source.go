package source

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Snapshot is one point-in-time capture of the watched page section.
// Text is what the normalizer parses; Artifact is an optional source-defined
// blob (section HTML, image bytes, ...) preserved by the persistence layer.
type Snapshot struct {
	Text        string
	Artifact    []byte
	ArtifactExt string
	CapturedAt  time.Time
}

// Source produces snapshots of the watched page on demand.
type Source interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// FetchError wraps a failed fetch. The monitor loop retries transient
// failures after a cooldown; it never inspects the cause beyond that.
type FetchError struct {
	Transient bool
	Err       error
}

func (e *FetchError) Error() string {
	if e.Transient {
		return fmt.Sprintf("fetch failed (transient): %v", e.Err)
	}
	return fmt.Sprintf("fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be retried. Errors that are not
// FetchError at all count as transient: the loop never gives up on a
// flaky page source.
func IsTransient(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient
	}
	return true
}
