package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kinematics"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
)

func tick(id string, at time.Time, level collision.RiskLevel) collision.TickOutput {
	s := kinematics.State{ID: id, LatDeg: 1, LngDeg: 1, SpeedKnots: 10}
	return collision.TickOutput{
		SubjectID:   id,
		Subject:     s,
		Zones:       collision.BuildZones(s),
		Overall:     level,
		EvaluatedAt: at,
	}
}

func TestHub_RenderKeepsNewest(t *testing.T) {
	h := NewHub(logging.NewNopLogger(), 0)
	t0 := time.Now()

	require.NoError(t, h.Render(context.Background(), tick("A", t0, collision.RiskHigh)))
	require.NoError(t, h.Render(context.Background(), tick("A", t0.Add(-time.Second), collision.RiskLow)))

	snap := h.Snapshot(t0)
	require.Len(t, snap.Subjects, 1)
	assert.Equal(t, collision.RiskHigh, snap.Subjects[0].Tick.Overall)
}

func TestHub_SnapshotSortedAndAged(t *testing.T) {
	h := NewHub(logging.NewNopLogger(), time.Minute)
	now := time.Now()
	ctx := context.Background()
	h.Render(ctx, tick("B", now, collision.RiskLow))
	h.Render(ctx, tick("A", now, collision.RiskLow))
	h.Render(ctx, tick("OLD", now.Add(-2*time.Minute), collision.RiskLow))

	snap := h.Snapshot(now)
	require.Len(t, snap.Subjects, 2)
	assert.Equal(t, "A", snap.Subjects[0].Tick.SubjectID)
	assert.Equal(t, "B", snap.Subjects[1].Tick.SubjectID)
	assert.Len(t, snap.Subjects[0].Features.Features, 4)

	h.Remove("A")
	assert.Len(t, h.Snapshot(now).Subjects, 1)
}

func TestHub_BroadcastToClient(t *testing.T) {
	h := NewHub(logging.NewNopLogger(), 0)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	h.Render(context.Background(), tick("A", time.Now(), collision.RiskMedium))
	h.Broadcast()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(msg, &snap))
	assert.Equal(t, "risk_snapshot", snap.Type)
	require.Len(t, snap.Subjects, 1)
	assert.Equal(t, "A", snap.Subjects[0].Tick.SubjectID)
	assert.Equal(t, collision.RiskMedium, snap.Subjects[0].Tick.Overall)
}

func TestHub_ClientDisconnect(t *testing.T) {
	h := NewHub(logging.NewNopLogger(), 0)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_RunClosesClientsOnShutdown(t *testing.T) {
	h := NewHub(logging.NewNopLogger(), 0)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, 0, h.ClientCount())
}
