// Package notify fans a change event out to a closed set of alert sinks,
// each with its own failure domain. A sink that errors or times out is
// reported and skipped; it never blocks the other sinks or the poll loop.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/poswatch/positions"
)

// Capability names one enabled alert channel.
type Capability string

const (
	Desktop Capability = "desktop"
	Sound   Capability = "sound"
	Popup   Capability = "popup"
	Table   Capability = "table"
)

// Summary is the rendered, sink-agnostic view of one change event. Each
// sink shows the subset appropriate to its medium.
type Summary struct {
	Model        string
	Title        string
	Headline     string
	Entries      []positions.Entry
	AggregatePnl *decimal.Decimal
	Delta        *decimal.Decimal
}

// Sink delivers a summary over one channel.
type Sink interface {
	Name() string
	Notify(ctx context.Context, s Summary) error
}

// Dispatcher invokes every configured sink for each event, concurrently and
// independently, bounding each call with a per-sink timeout.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	log     *zap.Logger
}

const defaultSinkTimeout = 10 * time.Second

func NewDispatcher(sinks []Sink, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSinkTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{sinks: sinks, timeout: timeout, log: log}
}

// Dispatch fans s out to all sinks and waits for every call to finish or
// time out. Failures are logged, never returned: nothing downstream of a
// sink may abort persistence or polling.
func (d *Dispatcher) Dispatch(ctx context.Context, s Summary) {
	var wg sync.WaitGroup
	for _, sink := range d.sinks {
		wg.Add(1)
		go func(sk Sink) {
			defer wg.Done()

			sctx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			if err := sk.Notify(sctx, s); err != nil {
				d.log.Warn("alert sink failed",
					zap.String("sink", sk.Name()),
					zap.Error(err))
			}
		}(sink)
	}
	wg.Wait()
}

// BuildSinks constructs the sinks for the enabled capability set. With no
// capabilities enabled the desktop notification is the default channel.
// out receives the table sink's output (normally stdout).
func BuildSinks(caps []Capability, out io.Writer) ([]Sink, error) {
	if len(caps) == 0 {
		caps = []Capability{Desktop}
	}

	seen := make(map[Capability]bool, len(caps))
	var sinks []Sink
	for _, c := range caps {
		if seen[c] {
			continue
		}
		seen[c] = true

		switch c {
		case Desktop:
			sinks = append(sinks, &DesktopSink{})
		case Sound:
			sinks = append(sinks, &SoundSink{Out: out})
		case Popup:
			sinks = append(sinks, &PopupSink{})
		case Table:
			sinks = append(sinks, &TableSink{Out: out})
		default:
			return nil, fmt.Errorf("unknown alert capability %q", c)
		}
	}
	return sinks, nil
}
