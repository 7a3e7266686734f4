// Package journal records the combat feed and flushes it to a store.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/arpgcore/internal/db"
	"github.com/udisondev/arpgcore/internal/event"
)

// Store persists journaled rows. db.CombatLogRepository implements it.
type Store interface {
	Append(ctx context.Context, rows []db.CombatLogRow) (int64, error)
}

// StageSource reports the active stage and combat time. clock.Clock
// implements it.
type StageSource interface {
	Stage() (string, bool)
	Now() time.Duration
}

// Recorder is a feed observer that buffers notifications as rows.
// Observe runs on the tick goroutine and Flush on the flush loop, so the
// buffer is guarded by mu.
type Recorder struct {
	run         string
	clock       StageSource
	store       Store
	maxBuffered int

	mu      sync.Mutex
	seq     int64
	buf     []db.CombatLogRow
	dropped uint64
	written uint64
}

// NewRecorder creates a recorder for one run. maxBuffered <= 0 means
// unbounded.
func NewRecorder(run string, clock StageSource, store Store, maxBuffered int) *Recorder {
	return &Recorder{
		run:         run,
		clock:       clock,
		store:       store,
		maxBuffered: maxBuffered,
	}
}

// Run returns the run label rows are written under.
func (r *Recorder) Run() string {
	return r.run
}

// Observe implements event.Observer.
func (r *Recorder) Observe(n event.Notification) {
	row := r.row(n)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxBuffered > 0 && len(r.buf) >= r.maxBuffered {
		r.dropped++
		return
	}
	r.seq++
	row.Seq = r.seq
	r.buf = append(r.buf, row)
}

func (r *Recorder) row(n event.Notification) db.CombatLogRow {
	row := db.CombatLogRow{
		Run:      r.run,
		Event:    n.Type.String(),
		SourceID: entityID(n.Source),
		TargetID: entityID(n.Target),
	}
	if stage, ok := r.clock.Stage(); ok {
		row.Stage = stage
		row.At = r.clock.Now()
	}
	if n.Payload == nil {
		return row
	}
	row.SubjectID = entityID(n.Payload.Subject())

	switch p := n.Payload.(type) {
	case event.Strike:
		row.Amount = p.Result.TotalDamage
		row.Critical = p.Result.Critical
		row.Evaded = p.Result.Evaded
	case event.Heal:
		row.Amount = p.Amount
	case event.Level:
		row.Amount = int64(p.Level)
	case event.Battle:
		row.Stage = p.Stage
	}
	if n.Type == event.Evaded {
		row.Evaded = true
	}
	return row
}

func entityID(e event.Entity) uint32 {
	if e == nil {
		return 0
	}
	return uint32(e.ID())
}

// Buffered returns the number of rows waiting for a flush.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

// Stats returns the rows written so far and the rows dropped on overflow.
func (r *Recorder) Stats() (written, dropped uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written, r.dropped
}

// Flush hands buffered rows to the store. On failure the rows go back to
// the front of the buffer and the next flush retries them.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	batch := r.buf
	r.buf = nil
	r.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	n, err := r.store.Append(ctx, batch)
	if err != nil {
		r.mu.Lock()
		r.buf = append(batch, r.buf...)
		r.mu.Unlock()
		return fmt.Errorf("flushing %d journal rows: %w", len(batch), err)
	}

	r.mu.Lock()
	r.written += uint64(n)
	dropped := r.dropped
	r.mu.Unlock()

	slog.Debug("journal flushed", "run", r.run, "rows", n, "dropped", dropped)
	return nil
}

// RunFlushLoop flushes every interval until ctx is cancelled, then makes a
// final flush.
func (r *Recorder) RunFlushLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := r.Flush(context.Background()); err != nil {
				slog.Error("final journal flush", "error", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if err := r.Flush(ctx); err != nil {
				slog.Error("periodic journal flush", "error", err)
			}
		}
	}
}
