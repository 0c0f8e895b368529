package notify

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rustyeddy/poswatch/positions"
)

type recordingSink struct {
	name string
	err  error

	mu    sync.Mutex
	calls int
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Notify(_ context.Context, _ Summary) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.err
}

func (s *recordingSink) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// blockingSink waits for the per-sink context to expire.
type blockingSink struct{}

func (s *blockingSink) Name() string { return "blocking" }

func (s *blockingSink) Notify(ctx context.Context, _ Summary) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatchReachesAllSinks(t *testing.T) {
	t.Parallel()

	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	d := NewDispatcher([]Sink{a, b}, time.Second, zap.NewNop())

	d.Dispatch(context.Background(), Summary{Headline: "changed"})

	assert.Equal(t, 1, a.Calls())
	assert.Equal(t, 1, b.Calls())
}

func TestSinkFailureIsIsolated(t *testing.T) {
	t.Parallel()

	failing := &recordingSink{name: "failing", err: errors.New("boom")}
	b := &recordingSink{name: "b"}
	c := &recordingSink{name: "c"}
	d := NewDispatcher([]Sink{failing, b, c}, time.Second, zap.NewNop())

	d.Dispatch(context.Background(), Summary{})

	assert.Equal(t, 1, failing.Calls())
	assert.Equal(t, 1, b.Calls())
	assert.Equal(t, 1, c.Calls())
}

func TestSlowSinkIsTimedOut(t *testing.T) {
	t.Parallel()

	slow := &blockingSink{}
	fast := &recordingSink{name: "fast"}
	d := NewDispatcher([]Sink{slow, fast}, 20*time.Millisecond, zap.NewNop())

	start := time.Now()
	d.Dispatch(context.Background(), Summary{})
	elapsed := time.Since(start)

	assert.Equal(t, 1, fast.Calls())
	assert.Less(t, elapsed, 2*time.Second, "dispatch must not block on a stuck sink")
}

func TestBuildSinksDefaultsToDesktop(t *testing.T) {
	t.Parallel()

	sinks, err := BuildSinks(nil, nil)
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	assert.Equal(t, string(Desktop), sinks[0].Name())
}

func TestBuildSinksDeduplicates(t *testing.T) {
	t.Parallel()

	sinks, err := BuildSinks([]Capability{Table, Table, Sound}, nil)
	require.NoError(t, err)
	assert.Len(t, sinks, 2)
}

func TestBuildSinksRejectsUnknownCapability(t *testing.T) {
	t.Parallel()

	_, err := BuildSinks([]Capability{"carrier-pigeon"}, nil)
	assert.Error(t, err)
}

func TestTableSinkWritesTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := &TableSink{Out: &buf}

	err := sink.Notify(context.Background(), Summary{
		Title:    "DEEPSEEK CHAT V3.1 Positions Updated",
		Headline: "Δ Unrealized P&L: +15.00",
		Entries: []positions.Entry{
			{Symbol: "ETH", Side: positions.Short, Leverage: "2X", EntryPrice: "3,412.50", PnlText: "+$25.00"},
		},
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "ETH")
	assert.Contains(t, out, "Δ Unrealized P&L: +15.00")
}

func TestTableSinkEmptyEntries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := &TableSink{Out: &buf}

	err := sink.Notify(context.Background(), Summary{Title: "t", Headline: "h"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no positions parsed")
}
