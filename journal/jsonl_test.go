package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLAppendWireShape(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "positions-log.txt")
	j, err := OpenJSONL(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	at := time.Date(2026, 8, 23, 14, 30, 45, 123456789, time.UTC)
	rec := NewRecord("DEEPSEEK CHAT V3.1", "ETH SHORT 2X", at)
	require.NoError(t, j.Append(rec))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	// Exact wire keys, second-resolution UTC timestamp.
	assert.Equal(t, "2026-08-23T14:30:45Z", got["timestamp"])
	assert.Equal(t, "DEEPSEEK CHAT V3.1", got["model"])
	assert.Equal(t, "ETH SHORT 2X", got["active_positions"])
	assert.Len(t, got, 3)
}

func TestJSONLAppendsAcrossReopens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.txt")
	at := time.Now().UTC()

	j1, err := OpenJSONL(path)
	require.NoError(t, err)
	require.NoError(t, j1.Append(NewRecord("m", "one", at)))
	require.NoError(t, j1.Close())

	j2, err := OpenJSONL(path)
	require.NoError(t, err)
	require.NoError(t, j2.Append(NewRecord("m", "two", at)))
	require.NoError(t, j2.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.NoError(t, sc.Err())

	require.Len(t, lines, 2)
	assert.Equal(t, "one", lines[0].ActivePositions)
	assert.Equal(t, "two", lines[1].ActivePositions)
}
