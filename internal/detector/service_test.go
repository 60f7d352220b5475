package detector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/model"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/vessels"
)

type fakeScheduler struct {
	mu       sync.Mutex
	tracked  map[string]bool
	notified []string
	untrack  []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{tracked: make(map[string]bool)}
}

func (f *fakeScheduler) Track(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tracked[id] {
		return false
	}
	f.tracked[id] = true
	return true
}

func (f *fakeScheduler) Untrack(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.tracked[id] {
		return false
	}
	delete(f.tracked, id)
	f.untrack = append(f.untrack, id)
	return true
}

func (f *fakeScheduler) Notify(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, id)
}

func report(id string, lat, lng float64, ts int64) model.VesselUpdate {
	return model.VesselUpdate{ID: id, Lat: model.Float(lat), Lng: model.Float(lng), Timestamp: ts}
}

func newTestService(subjects ...string) (*Service, *vessels.Store, *fakeScheduler) {
	store := vessels.NewStore(vessels.Config{}, logging.NewNopLogger())
	sched := newFakeScheduler()
	return NewService(store, sched, subjects, logging.NewNopLogger(), nil), store, sched
}

func TestIngest_TracksThenNotifiesOnMove(t *testing.T) {
	svc, store, sched := newTestService()
	now := time.Now().Unix()

	svc.Ingest(report("A", 1, 1, now))
	assert.True(t, sched.tracked["A"])
	assert.Empty(t, sched.notified)

	// same position: nothing to do
	svc.Ingest(report("A", 1, 1, now+1))
	assert.Empty(t, sched.notified)

	svc.Ingest(report("A", 1.001, 1, now+2))
	assert.Equal(t, []string{"A"}, sched.notified)

	// an older report is ignored by the store
	svc.Ingest(report("A", 5, 5, now))
	assert.Equal(t, []string{"A"}, sched.notified)
	assert.Equal(t, 1, store.Len())
}

func TestIngest_NoPositionNotTracked(t *testing.T) {
	svc, store, sched := newTestService()
	svc.Ingest(model.VesselUpdate{ID: "X", Timestamp: time.Now().Unix()})

	assert.Equal(t, 1, store.Len())
	assert.Empty(t, sched.tracked)
}

func TestIngest_SubjectFilter(t *testing.T) {
	svc, store, sched := newTestService("OWN")
	now := time.Now().Unix()

	svc.Ingest(report("OTHER", 1, 1, now))
	svc.Ingest(report("OWN", 1, 1.01, now))

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, map[string]bool{"OWN": true}, sched.tracked)
}

func TestHandleMessage(t *testing.T) {
	svc, store, sched := newTestService()

	err := svc.HandleMessage(context.Background(), kafka.Message{
		Value: []byte(`{"id":"V1","name":"ALPHA","lat":10.5,"lng":20.25,"metadata":{"course":45,"currentSpeed":9}}`),
	})
	require.NoError(t, err)
	u, ok := store.Get("V1")
	require.True(t, ok)
	assert.Equal(t, "ALPHA", u.Name)
	assert.True(t, sched.tracked["V1"])

	assert.Error(t, svc.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{oops`)}))
}

func TestEvicted_UntracksSubjects(t *testing.T) {
	svc, _, sched := newTestService()
	svc.Ingest(report("A", 1, 1, time.Now().Unix()))

	svc.Evicted([]string{"A", "never-tracked"})
	assert.Equal(t, []string{"A"}, sched.untrack)
	assert.Empty(t, sched.tracked)
}
