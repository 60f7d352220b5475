package tracker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/model"
)

type staticSource struct{}

func (staticSource) Snapshot(id string) (model.VesselUpdate, []model.VesselUpdate, bool) {
	if id == "unknown" {
		return model.VesselUpdate{}, nil, false
	}
	return model.VesselUpdate{ID: id, Lat: model.Float(0), Lng: model.Float(0)}, nil, true
}

// slowEvaluator records calls per subject and flags overlapping ticks.
type slowEvaluator struct {
	delay time.Duration

	mu       sync.Mutex
	calls    map[string]int
	inFlight map[string]int
	overlap  atomic.Bool
	ctxErrs  atomic.Int32
}

func newSlowEvaluator(delay time.Duration) *slowEvaluator {
	return &slowEvaluator{delay: delay, calls: map[string]int{}, inFlight: map[string]int{}}
}

func (e *slowEvaluator) Evaluate(ctx context.Context, in collision.TickInput) (collision.TickOutput, error) {
	id := in.Subject.ID
	e.mu.Lock()
	e.inFlight[id]++
	if e.inFlight[id] > 1 {
		e.overlap.Store(true)
	}
	e.mu.Unlock()

	time.Sleep(e.delay)
	if ctx.Err() != nil {
		e.ctxErrs.Add(1)
	}

	e.mu.Lock()
	e.inFlight[id]--
	e.calls[id]++
	e.mu.Unlock()
	return collision.TickOutput{SubjectID: id}, nil
}

func (e *slowEvaluator) count(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[id]
}

func TestTracker_FirstTickIsImmediate(t *testing.T) {
	ev := newSlowEvaluator(0)
	tr := New(staticSource{}, ev, time.Hour, logging.NewNopLogger(), nil)
	defer tr.Close()

	require.True(t, tr.Track("A"))
	assert.Eventually(t, func() bool { return ev.count("A") == 1 }, time.Second, time.Millisecond)
}

func TestTracker_TrackTwice(t *testing.T) {
	tr := New(staticSource{}, newSlowEvaluator(0), time.Hour, logging.NewNopLogger(), nil)
	defer tr.Close()

	assert.True(t, tr.Track("A"))
	assert.False(t, tr.Track("A"))
	assert.True(t, tr.Track("B"))
	assert.Equal(t, []string{"A", "B"}, tr.Tracked())
}

func TestTracker_TicksNeverOverlapPerSubject(t *testing.T) {
	ev := newSlowEvaluator(5 * time.Millisecond)
	tr := New(staticSource{}, ev, time.Millisecond, logging.NewNopLogger(), nil)

	tr.Track("A")
	tr.Track("B")
	for i := 0; i < 20; i++ {
		tr.Notify("A")
		tr.Notify("B")
		time.Sleep(time.Millisecond)
	}
	tr.Close()

	assert.False(t, ev.overlap.Load())
	assert.Greater(t, ev.count("A"), 1)
	assert.Greater(t, ev.count("B"), 1)
}

func TestTracker_NotifyTriggersExtraTick(t *testing.T) {
	ev := newSlowEvaluator(0)
	tr := New(staticSource{}, ev, time.Hour, logging.NewNopLogger(), nil)
	defer tr.Close()

	tr.Track("A")
	require.Eventually(t, func() bool { return ev.count("A") == 1 }, time.Second, time.Millisecond)

	tr.Notify("A")
	assert.Eventually(t, func() bool { return ev.count("A") == 2 }, time.Second, time.Millisecond)

	tr.Notify("untracked")
}

func TestTracker_UntrackLetsInFlightTickFinish(t *testing.T) {
	ev := newSlowEvaluator(30 * time.Millisecond)
	tr := New(staticSource{}, ev, time.Hour, logging.NewNopLogger(), nil)
	defer tr.Close()

	tr.Track("A")
	time.Sleep(5 * time.Millisecond)
	require.True(t, tr.Untrack("A"))

	assert.Equal(t, 1, ev.count("A"))
	assert.Equal(t, int32(0), ev.ctxErrs.Load())
	assert.False(t, tr.Untrack("A"))
	assert.Empty(t, tr.Tracked())

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, ev.count("A"))
}

func TestTracker_UnknownSubjectIsSkipped(t *testing.T) {
	ev := newSlowEvaluator(0)
	tr := New(staticSource{}, ev, time.Millisecond, logging.NewNopLogger(), nil)
	tr.Track("unknown")
	time.Sleep(10 * time.Millisecond)
	tr.Close()

	assert.Equal(t, 0, ev.count("unknown"))
}

func TestTracker_TrackAfterClose(t *testing.T) {
	tr := New(staticSource{}, newSlowEvaluator(0), time.Hour, logging.NewNopLogger(), nil)
	tr.Close()
	assert.False(t, tr.Track("A"))
}
