// Package vessels keeps the latest known report for every vessel and serves
// per-subject snapshots to the tick loops.
package vessels

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/geo"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/model"
)

const (
	DefaultMaxAge          = 15 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute
	DefaultRadiusKm        = 20.0
	DefaultMaxCandidates   = 50
)

// Config controls eviction and the nearby query.
type Config struct {
	MaxAge          time.Duration
	CleanupInterval time.Duration
	RadiusKm        float64
	MaxCandidates   int
}

func (c *Config) applyDefaults() {
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	if c.RadiusKm <= 0 {
		c.RadiusKm = DefaultRadiusKm
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = DefaultMaxCandidates
	}
}

// Store is safe for concurrent use.
type Store struct {
	cfg    Config
	logger logging.Logger
	now    func() time.Time

	mu      sync.RWMutex
	vessels map[string]model.VesselUpdate
}

func NewStore(cfg Config, logger logging.Logger) *Store {
	cfg.applyDefaults()
	return &Store{
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		vessels: make(map[string]model.VesselUpdate),
	}
}

// Upsert records u unless an entry with a newer timestamp is already held.
// It reports whether the stored entry changed position.
func (s *Store) Upsert(u model.VesselUpdate) (moved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.vessels[u.ID]
	if ok && prev.Timestamp > u.Timestamp {
		return false
	}
	s.vessels[u.ID] = u
	if !ok {
		return true
	}
	pLat, pLng, pOK := prev.Position()
	lat, lng, nOK := u.Position()
	return pOK != nOK || pLat != lat || pLng != lng
}

func (s *Store) Get(id string) (model.VesselUpdate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.vessels[id]
	return u, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vessels)
}

// All returns a copy of every stored report.
func (s *Store) All() []model.VesselUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.VesselUpdate, 0, len(s.vessels))
	for _, u := range s.vessels {
		out = append(out, u)
	}
	return out
}

// Snapshot returns the subject and up to MaxCandidates other vessels within
// RadiusKm of it, nearest first. Vessels without a position are included so
// the engine can account for them; they sort last.
func (s *Store) Snapshot(subjectID string) (subject model.VesselUpdate, nearby []model.VesselUpdate, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject, ok = s.vessels[subjectID]
	if !ok {
		return model.VesselUpdate{}, nil, false
	}
	sLat, sLng, sOK := subject.Position()

	type candidate struct {
		u    model.VesselUpdate
		dist float64
		pos  bool
	}
	candidates := make([]candidate, 0, len(s.vessels))
	for id, u := range s.vessels {
		if id == subjectID {
			continue
		}
		lat, lng, pOK := u.Position()
		if !pOK || !sOK || !geo.IsValidCoordinate(lat, lng) {
			candidates = append(candidates, candidate{u: u})
			continue
		}
		d := geo.DistanceKm(sLat, sLng, lat, lng)
		if d > s.cfg.RadiusKm {
			continue
		}
		candidates = append(candidates, candidate{u: u, dist: d, pos: true})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.pos != b.pos {
			return a.pos
		}
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		return a.u.ID < b.u.ID
	})
	if len(candidates) > s.cfg.MaxCandidates {
		candidates = candidates[:s.cfg.MaxCandidates]
	}

	nearby = make([]model.VesselUpdate, len(candidates))
	for i, c := range candidates {
		nearby[i] = c.u
	}
	return subject, nearby, true
}

// Evict removes entries older than MaxAge and returns their ids, sorted.
func (s *Store) Evict() []string {
	cutoff := s.now().Add(-s.cfg.MaxAge).Unix()
	var removed []string
	s.mu.Lock()
	for id, u := range s.vessels {
		if u.Timestamp < cutoff {
			delete(s.vessels, id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()
	sort.Strings(removed)
	return removed
}

// RunCleanup evicts stale entries every CleanupInterval until ctx is done.
// onEvict, if set, receives the ids removed by each pass.
func (s *Store) RunCleanup(ctx context.Context, onEvict func(ids []string)) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.Evict()
			if len(removed) == 0 {
				continue
			}
			s.logger.Info("evicted stale vessels",
				logging.Int("removed", len(removed)),
				logging.Int("size", s.Len()))
			if onEvict != nil {
				onEvict(removed)
			}
		}
	}
}
