// Package tracker schedules risk evaluation ticks. Each tracked subject gets
// its own loop, so ticks for one subject run strictly in sequence while
// different subjects are evaluated in parallel.
package tracker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/metrics"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/model"
)

const DefaultInterval = 15 * time.Second

// Source supplies the per-tick snapshot for a subject.
type Source interface {
	Snapshot(subjectID string) (subject model.VesselUpdate, nearby []model.VesselUpdate, ok bool)
}

// Evaluator runs one tick. *collision.Engine satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, in collision.TickInput) (collision.TickOutput, error)
}

type loop struct {
	cancel  context.CancelFunc
	trigger chan struct{}
	done    chan struct{}
}

type Tracker struct {
	src      Source
	eval     Evaluator
	interval time.Duration
	logger   logging.Logger
	metrics  *metrics.Metrics

	root   context.Context
	stop   context.CancelFunc
	mu     sync.Mutex
	loops  map[string]*loop
	closed bool
}

func New(src Source, eval Evaluator, interval time.Duration, logger logging.Logger, m *metrics.Metrics) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	root, stop := context.WithCancel(context.Background())
	return &Tracker{
		src:      src,
		eval:     eval,
		interval: interval,
		logger:   logger,
		metrics:  m,
		root:     root,
		stop:     stop,
		loops:    make(map[string]*loop),
	}
}

// Track starts a tick loop for id. The first tick runs immediately. It
// returns false if id is already tracked or the tracker is closed.
func (t *Tracker) Track(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	if _, ok := t.loops[id]; ok {
		return false
	}
	ctx, cancel := context.WithCancel(t.root)
	l := &loop{cancel: cancel, trigger: make(chan struct{}, 1), done: make(chan struct{})}
	t.loops[id] = l
	t.metrics.SetTracked(len(t.loops))

	go t.run(ctx, id, l)
	t.logger.Info("tracking subject", logging.String("subject", id))
	return true
}

// Untrack stops the loop for id. A tick already running completes; no
// further ticks are scheduled. It blocks until the loop has exited.
func (t *Tracker) Untrack(id string) bool {
	t.mu.Lock()
	l, ok := t.loops[id]
	if ok {
		delete(t.loops, id)
		t.metrics.SetTracked(len(t.loops))
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	l.cancel()
	<-l.done
	t.logger.Info("stopped tracking subject", logging.String("subject", id))
	return true
}

// Notify asks for an extra tick for id, typically after its position
// changed. Requests arriving while a tick is pending are coalesced.
func (t *Tracker) Notify(id string) {
	t.mu.Lock()
	l, ok := t.loops[id]
	t.mu.Unlock()
	if !ok {
		return
	}
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// Tracked returns the tracked subject ids, sorted.
func (t *Tracker) Tracked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.loops))
	for id := range t.loops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close stops every loop and waits for in-flight ticks to finish.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	loops := t.loops
	t.loops = make(map[string]*loop)
	t.metrics.SetTracked(0)
	t.mu.Unlock()

	t.stop()
	for _, l := range loops {
		<-l.done
	}
}

func (t *Tracker) run(ctx context.Context, id string, l *loop) {
	defer close(l.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.tick(ctx, id)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-l.trigger:
		}
		if ctx.Err() != nil {
			return
		}
		t.tick(ctx, id)
	}
}

func (t *Tracker) tick(ctx context.Context, id string) {
	subject, nearby, ok := t.src.Snapshot(id)
	if !ok {
		t.logger.Debug("no position for subject", logging.String("subject", id))
		return
	}
	// A tick that has started runs to completion even if the subject is
	// untracked meanwhile.
	_, err := t.eval.Evaluate(context.WithoutCancel(ctx), collision.TickInput{Subject: subject, Nearby: nearby})
	if err != nil {
		t.logger.Warn("tick skipped", logging.String("subject", id), logging.Err(err))
	}
}
