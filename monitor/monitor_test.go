package monitor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rustyeddy/poswatch/journal"
	"github.com/rustyeddy/poswatch/notify"
	"github.com/rustyeddy/poswatch/source"
)

const (
	snapOne = "Entry Time: 10:00:00\nETH\nSide: Short\nLeverage: 2X\nEntry Price: $3,412.50\nUnrealized P&L: +$10.00"
	snapTwo = "Entry Time: 10:00:00\nETH\nSide: Short\nLeverage: 2X\nEntry Price: $3,412.50\nUnrealized P&L: +$25.00"
)

type step struct {
	text string
	err  error
}

// scriptedSource plays back a fixed fetch sequence, then repeats its last
// step forever. Capture times advance one second per call so snapshot
// artifacts get distinct names even at test-speed intervals.
type scriptedSource struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (s *scriptedSource) Fetch(ctx context.Context) (source.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.steps[len(s.steps)-1]
	if s.calls < len(s.steps) {
		st = s.steps[s.calls]
	}
	at := time.Date(2026, 8, 23, 14, 0, 0, 0, time.UTC).Add(time.Duration(s.calls) * time.Second)
	s.calls++

	if st.err != nil {
		return source.Snapshot{}, st.err
	}
	return source.Snapshot{
		Text:        st.text,
		Artifact:    []byte(st.text),
		ArtifactExt: ".txt",
		CapturedAt:  at,
	}, nil
}

type chanSink struct {
	ch chan notify.Summary
}

func (s *chanSink) Name() string { return "test" }

func (s *chanSink) Notify(_ context.Context, sum notify.Summary) error {
	s.ch <- sum
	return nil
}

func fastOpts(model string) Options {
	return Options{
		Model:    model,
		Interval: time.Millisecond,
		Cooldown: time.Millisecond,
		Out:      io.Discard,
	}
}

func runLoop(t *testing.T, l *Loop) (cancel func(), done chan error) {
	t.Helper()

	ctx, stop := context.WithCancel(context.Background())
	done = make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	return stop, done
}

func waitSummary(t *testing.T, ch chan notify.Summary) notify.Summary {
	t.Helper()

	select {
	case sum := <-ch:
		return sum
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a change notification")
		return notify.Summary{}
	}
}

func TestLoopEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "positions-log.txt")
	snapDir := filepath.Join(dir, "snaps")
	latestPath := filepath.Join(dir, "latest.html")

	log, err := journal.OpenJSONL(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	events, err := journal.NewSQLite(filepath.Join(dir, "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close() })

	snaps, err := journal.NewSnapshotDir(snapDir)
	require.NoError(t, err)

	src := &scriptedSource{steps: []step{{text: snapOne}, {text: snapOne}, {text: snapTwo}}}
	sink := &chanSink{ch: make(chan notify.Summary, 4)}
	disp := notify.NewDispatcher([]notify.Sink{sink}, time.Second, zap.NewNop())

	l := New(src, disp, Writers{
		Log:       log,
		Events:    events,
		Snapshots: snaps,
		Latest:    journal.NewLatestView(latestPath),
	}, fastOpts("DEEPSEEK CHAT V3.1"), zap.NewNop())

	cancel, done := runLoop(t, l)

	// snapshot1 seeds the baseline (no event), snapshot2 is identical
	// (no event), snapshot3 changes the P&L: exactly one notification.
	sum := waitSummary(t, sink.ch)
	assert.Equal(t, "DEEPSEEK CHAT V3.1 Positions Updated", sum.Title)
	assert.Equal(t, "Δ Unrealized P&L: +15.00", sum.Headline)
	require.Len(t, sum.Entries, 1)
	assert.Equal(t, "ETH", sum.Entries[0].Symbol)

	cancel()
	require.NoError(t, <-done)

	assert.Empty(t, sink.ch, "steady state must not produce further events")

	// Exactly one record in the change log.
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"model":"DEEPSEEK CHAT V3.1"`)

	// One row in the event journal, delta recorded.
	recs, err := events.ListEventsBetween(time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.True(t, recs[0].PnlDelta.Valid)
	assert.InDelta(t, 15.0, recs[0].PnlDelta.Float64, 1e-9)

	// Cold-start snapshot plus the change snapshot.
	files, err := os.ReadDir(snapDir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	// Latest view reflects the new state.
	view, err := os.ReadFile(latestPath)
	require.NoError(t, err)
	assert.Contains(t, string(view), "+$25.00")
}

func TestLoopFetchFailureKeepsBaseline(t *testing.T) {
	t.Parallel()

	fetchErr := &source.FetchError{Transient: true, Err: errors.New("page timeout")}
	src := &scriptedSource{steps: []step{{text: snapOne}, {err: fetchErr}, {text: snapTwo}}}
	sink := &chanSink{ch: make(chan notify.Summary, 4)}
	disp := notify.NewDispatcher([]notify.Sink{sink}, time.Second, zap.NewNop())

	l := New(src, disp, Writers{}, fastOpts("m"), zap.NewNop())
	cancel, done := runLoop(t, l)

	// The failed fetch between the two snapshots must not disturb the
	// baseline: the change is still computed against snapshot one.
	sum := waitSummary(t, sink.ch)
	assert.Equal(t, "Δ Unrealized P&L: +15.00", sum.Headline)

	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, sink.ch)
}

func TestLoopUnchangedProducesNoEvent(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: []step{{text: snapOne}}}
	sink := &chanSink{ch: make(chan notify.Summary, 4)}
	disp := notify.NewDispatcher([]notify.Sink{sink}, time.Second, zap.NewNop())

	l := New(src, disp, Writers{}, fastOpts("m"), zap.NewNop())
	cancel, done := runLoop(t, l)

	// Give the loop several identical iterations.
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Empty(t, sink.ch, "identical snapshots must never notify")
}

func TestLoopEchoesInitialRecord(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: []step{{text: snapOne}, {text: snapTwo}}}
	sink := &chanSink{ch: make(chan notify.Summary, 4)}
	disp := notify.NewDispatcher([]notify.Sink{sink}, time.Second, zap.NewNop())

	var buf bytes.Buffer
	opts := fastOpts("m")
	opts.Out = &buf

	l := New(src, disp, Writers{}, opts, zap.NewNop())
	cancel, done := runLoop(t, l)

	// The change notification proves the cold start already completed.
	waitSummary(t, sink.ch)
	cancel()
	require.NoError(t, <-done)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "only the initial state is echoed")
	assert.Contains(t, lines[0], `"model":"m"`)
	assert.Contains(t, lines[0], `"active_positions"`)
	assert.Contains(t, lines[0], "+$10.00")
}

func TestLoopStartupFailureExhaustsAttempts(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: []step{{err: errors.New("unreachable")}}}
	disp := notify.NewDispatcher(nil, time.Second, zap.NewNop())

	opts := fastOpts("m")
	opts.StartupAttempts = 2

	l := New(src, disp, Writers{}, opts, zap.NewNop())
	err := l.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestLoopCancelDuringStartupIsClean(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: []step{{err: errors.New("unreachable")}}}
	disp := notify.NewDispatcher(nil, time.Second, zap.NewNop())

	opts := fastOpts("m")
	opts.Cooldown = time.Hour // park the loop in its retry wait

	l := New(src, disp, Writers{}, opts, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not exit after cancellation")
	}
}
