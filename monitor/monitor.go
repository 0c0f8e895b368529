// Package monitor drives the watch pipeline: fetch, normalize, detect, then
// fan out notifications and persist on every detected change. One iteration
// runs at a time, so change events are totally ordered and the detector's
// baseline needs no locking.
package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/poswatch/detect"
	"github.com/rustyeddy/poswatch/journal"
	"github.com/rustyeddy/poswatch/notify"
	"github.com/rustyeddy/poswatch/positions"
	"github.com/rustyeddy/poswatch/render"
	"github.com/rustyeddy/poswatch/source"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultCooldown = 30 * time.Second
)

// Writers are the persistence targets. Any of them may be nil (disabled);
// each fails independently and a failure never stops the loop.
type Writers struct {
	Log       *journal.JSONL
	Events    *journal.SQLite
	Snapshots *journal.SnapshotDir
	Latest    *journal.LatestView
}

// Options tune the loop.
type Options struct {
	Model    string
	Interval time.Duration // delay between completed iterations
	Cooldown time.Duration // delay after a failed fetch

	// StartupAttempts bounds the initial fetch; once the source has
	// succeeded at least once the loop retries forever. Zero means retry
	// forever from the start.
	StartupAttempts int

	// Out receives the echoed initial record line; defaults to stdout.
	Out io.Writer
}

// Loop owns the detector baseline and serializes iterations.
type Loop struct {
	src  source.Source
	disp *notify.Dispatcher
	det  *detect.Detector
	w    Writers
	opts Options
	log  *zap.Logger
}

func New(src source.Source, disp *notify.Dispatcher, w Writers, opts Options, log *zap.Logger) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		src:  src,
		disp: disp,
		det:  detect.New(),
		w:    w,
		opts: opts,
		log:  log,
	}
}

// Run polls until ctx is cancelled. It returns nil on cancellation (a clean
// shutdown after the in-flight iteration) and an error only when the source
// never produced a snapshot within the configured startup attempts.
func (l *Loop) Run(ctx context.Context) error {
	snap, err := l.initialFetch(ctx)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}

	st := positions.Normalize(snap)
	l.det.Observe(st) // seeds the baseline; cold start emits no event
	l.recordInitial(st, snap)

	delay := l.opts.Interval
	for {
		if !sleepCtx(ctx, delay) {
			return nil
		}

		snap, err := l.src.Fetch(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			l.log.Warn("fetch failed, retrying",
				zap.Duration("cooldown", l.opts.Cooldown),
				zap.Bool("transient", source.IsTransient(err)),
				zap.Error(err))
			delay = l.opts.Cooldown
			continue
		}
		delay = l.opts.Interval

		st := positions.Normalize(snap)
		ev, changed := l.det.Observe(st)
		if !changed {
			l.log.Info("no change", zap.Time("captured_at", st.CapturedAt))
			continue
		}
		l.handleChange(ctx, ev, snap)
	}
}

// initialFetch retries the first snapshot with the fetch cooldown. The
// detector stays in its no-baseline state across failures.
func (l *Loop) initialFetch(ctx context.Context) (source.Snapshot, error) {
	attempts := 0
	for {
		snap, err := l.src.Fetch(ctx)
		if err == nil {
			return snap, nil
		}
		if ctx.Err() != nil {
			return source.Snapshot{}, nil
		}

		attempts++
		if l.opts.StartupAttempts > 0 && attempts >= l.opts.StartupAttempts {
			return source.Snapshot{}, fmt.Errorf("source unreachable after %d attempts: %w", attempts, err)
		}

		l.log.Warn("initial fetch failed, retrying",
			zap.Int("attempt", attempts),
			zap.Duration("cooldown", l.opts.Cooldown),
			zap.Error(err))
		if !sleepCtx(ctx, l.opts.Cooldown) {
			return source.Snapshot{}, nil
		}
	}
}

// recordInitial reports the cold-start observation and saves its artifact.
// No change event is emitted and nothing is appended to the change log; the
// initial record is echoed to Out so the starting state shows up alongside
// the banner.
func (l *Loop) recordInitial(st positions.State, snap source.Snapshot) {
	if st.Degraded() {
		l.log.Warn("no recognizable positions content on first load")
	}
	l.log.Info("baseline established",
		zap.Int("positions", len(st.Entries)),
		zap.String("aggregate_pnl", render.Signed(st.AggregatePnl)),
		zap.Time("captured_at", st.CapturedAt))

	rec := journal.NewRecord(l.opts.Model, st.Key, st.CapturedAt)
	if data, err := json.Marshal(rec); err == nil {
		out := l.opts.Out
		if out == nil {
			out = os.Stdout
		}
		fmt.Fprintln(out, string(data))
	}

	if l.w.Snapshots != nil && len(snap.Artifact) > 0 {
		if path, err := l.w.Snapshots.Write(snap.Artifact, snap.ArtifactExt, snap.CapturedAt); err != nil {
			l.log.Warn("snapshot write failed", zap.Error(err))
		} else {
			l.log.Info("snapshot saved", zap.String("path", path))
		}
	}
}

// handleChange fans the event out to the sinks and the persistence writers.
// The two run concurrently: they read the same event and touch disjoint
// resources. Both complete before the iteration ends.
func (l *Loop) handleChange(ctx context.Context, ev detect.Event, snap source.Snapshot) {
	l.log.Info("positions changed",
		zap.String("event_id", ev.ID),
		zap.Int("positions", len(ev.Current.Entries)),
		zap.String("pnl_delta", render.Signed(ev.Delta)))

	sum := notify.Summary{
		Model:        l.opts.Model,
		Title:        fmt.Sprintf("%s Positions Updated", l.opts.Model),
		Headline:     render.Headline(ev.Delta),
		Entries:      ev.Current.Entries,
		AggregatePnl: ev.Current.AggregatePnl,
		Delta:        ev.Delta,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		l.disp.Dispatch(ctx, sum)
	}()
	go func() {
		defer wg.Done()
		l.persist(ev, snap)
	}()
	wg.Wait()
}

// persist writes the audit trail for one event. Log, event journal,
// snapshot artifact, and latest view are independent failure domains.
func (l *Loop) persist(ev detect.Event, snap source.Snapshot) {
	if l.w.Log != nil {
		rec := journal.NewRecord(l.opts.Model, ev.Current.Key, ev.DetectedAt)
		if err := l.w.Log.Append(rec); err != nil {
			l.log.Warn("change log append failed", zap.Error(err))
		}
	}

	if l.w.Events != nil {
		err := l.w.Events.RecordEvent(journal.EventRecord{
			EventID:      ev.ID,
			DetectedAt:   ev.DetectedAt,
			Model:        l.opts.Model,
			Positions:    ev.Current.Key,
			AggregatePnl: nullFloat(ev.Current.AggregatePnl),
			PnlDelta:     nullFloat(ev.Delta),
		})
		if err != nil {
			l.log.Warn("event journal write failed", zap.Error(err))
		}
	}

	if l.w.Snapshots != nil && len(snap.Artifact) > 0 {
		if _, err := l.w.Snapshots.Write(snap.Artifact, snap.ArtifactExt, snap.CapturedAt); err != nil {
			l.log.Warn("snapshot write failed", zap.Error(err))
		}
	}

	if l.w.Latest != nil {
		doc, err := render.HTML(ev.Current.Entries, l.opts.Model, ev.DetectedAt)
		if err == nil {
			err = l.w.Latest.Write(doc)
		}
		if err != nil {
			l.log.Warn("latest view write failed", zap.Error(err))
		}
	}
}

func nullFloat(d *decimal.Decimal) sql.NullFloat64 {
	if d == nil {
		return sql.NullFloat64{}
	}
	f, _ := d.Float64()
	return sql.NullFloat64{Float64: f, Valid: true}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
