// Package stream pushes the latest risk picture to websocket clients.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/paulmach/orb/geojson"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/render"
)

const (
	DefaultBroadcastInterval = time.Second
	writeWait                = 5 * time.Second
)

// SubjectView is what clients receive for one subject.
type SubjectView struct {
	Tick     collision.TickOutput       `json:"tick"`
	Features *geojson.FeatureCollection `json:"features"`
}

// Snapshot is one broadcast frame.
type Snapshot struct {
	Type     string        `json:"type"`
	Subjects []SubjectView `json:"subjects"`
	SentAt   time.Time     `json:"sentAt"`
}

// Hub keeps the newest tick per subject and fans it out to every connected
// client. It implements collision.Renderer.
type Hub struct {
	upgrader websocket.Upgrader
	logger   logging.Logger
	maxAge   time.Duration

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}

	latestMu sync.RWMutex
	latest   map[string]collision.TickOutput
}

// NewHub creates a hub. Ticks older than maxAge are no longer broadcast; zero
// keeps them until Remove is called.
func NewHub(logger logging.Logger, maxAge time.Duration) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger,
		maxAge:  maxAge,
		clients: make(map[*websocket.Conn]struct{}),
		latest:  make(map[string]collision.TickOutput),
	}
}

func (h *Hub) Render(_ context.Context, out collision.TickOutput) error {
	h.latestMu.Lock()
	defer h.latestMu.Unlock()
	if prev, ok := h.latest[out.SubjectID]; ok && prev.EvaluatedAt.After(out.EvaluatedAt) {
		return nil
	}
	h.latest[out.SubjectID] = out
	return nil
}

// Remove forgets a subject.
func (h *Hub) Remove(subjectID string) {
	h.latestMu.Lock()
	delete(h.latest, subjectID)
	h.latestMu.Unlock()
}

func (h *Hub) ClientCount() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	h.clientsMu.Lock()
	h.clients[conn] = struct{}{}
	h.clientsMu.Unlock()
	h.logger.Info("client connected", logging.String("remote", conn.RemoteAddr().String()))

	for {
		if _, _, err := conn.NextReader(); err != nil {
			h.clientsMu.Lock()
			delete(h.clients, conn)
			h.clientsMu.Unlock()
			h.logger.Info("client disconnected", logging.String("remote", conn.RemoteAddr().String()))
			return
		}
	}
}

// Snapshot builds the current frame, subjects sorted by id.
func (h *Hub) Snapshot(now time.Time) Snapshot {
	h.latestMu.RLock()
	views := make([]SubjectView, 0, len(h.latest))
	for _, out := range h.latest {
		if h.maxAge > 0 && now.Sub(out.EvaluatedAt) > h.maxAge {
			continue
		}
		views = append(views, SubjectView{Tick: out, Features: render.TickFeatures(out)})
	}
	h.latestMu.RUnlock()

	sort.Slice(views, func(i, j int) bool { return views[i].Tick.SubjectID < views[j].Tick.SubjectID })
	return Snapshot{Type: "risk_snapshot", Subjects: views, SentAt: now}
}

// Broadcast sends the current snapshot to every client, dropping clients
// whose write fails.
func (h *Hub) Broadcast() {
	msg, err := json.Marshal(h.Snapshot(time.Now()))
	if err != nil {
		h.logger.Error("snapshot marshal failed", logging.Err(err))
		return
	}

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for client := range h.clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Warn("websocket write failed", logging.Err(err))
			client.Close()
			delete(h.clients, client)
		}
	}
}

// Run broadcasts every interval until ctx is done, then closes all clients.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.Broadcast()
		}
	}
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for client := range h.clients {
		_ = client.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		client.Close()
		delete(h.clients, client)
	}
}
