package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourceFetch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "positions.txt")
	require.NoError(t, os.WriteFile(path, []byte("Entry Time: 10:00:00\nETH Side: Short"), 0o644))

	s := NewFileSource(path)
	snap, err := s.Fetch(context.Background())
	require.NoError(t, err)

	assert.Contains(t, snap.Text, "ETH Side: Short")
	assert.Equal(t, ".txt", snap.ArtifactExt)
	assert.False(t, snap.CapturedAt.IsZero())
}

func TestFileSourceMissingFileIsTransient(t *testing.T) {
	t.Parallel()

	s := NewFileSource(filepath.Join(t.TempDir(), "nope.txt"))
	_, err := s.Fetch(context.Background())

	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTransient(&FetchError{Transient: true, Err: os.ErrNotExist}))
	assert.False(t, IsTransient(&FetchError{Transient: false, Err: os.ErrInvalid}))
	// Unknown errors default to transient.
	assert.True(t, IsTransient(os.ErrClosed))
}
