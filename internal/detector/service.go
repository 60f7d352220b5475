// Package detector connects incoming vessel updates to the position store and
// the per-subject tick loops.
package detector

import (
	"context"

	"github.com/segmentio/kafka-go"

	ikafka "github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kafka"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/metrics"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/model"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/vessels"
)

// Scheduler is the part of tracker.Tracker the service drives.
type Scheduler interface {
	Track(id string) bool
	Untrack(id string) bool
	Notify(id string)
}

type Service struct {
	store    *vessels.Store
	sched    Scheduler
	subjects map[string]struct{}
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// NewService builds a service. With no subjects listed every vessel that
// reports a position becomes a subject.
func NewService(store *vessels.Store, sched Scheduler, subjects []string, logger logging.Logger, m *metrics.Metrics) *Service {
	s := &Service{store: store, sched: sched, logger: logger, metrics: m}
	if len(subjects) > 0 {
		s.subjects = make(map[string]struct{}, len(subjects))
		for _, id := range subjects {
			s.subjects[id] = struct{}{}
		}
	}
	return s
}

// HandleMessage is the Kafka handler for the vessel updates topic.
func (s *Service) HandleMessage(_ context.Context, m kafka.Message) error {
	u, err := ikafka.DecodeVesselUpdate(m)
	if err != nil {
		return err
	}
	s.Ingest(u)
	return nil
}

// Ingest stores u and schedules a tick when u is a subject: immediately on
// first sight, otherwise when its position changed.
func (s *Service) Ingest(u model.VesselUpdate) {
	moved := s.store.Upsert(u)
	s.metrics.SetStoreSize(s.store.Len())

	if !s.isSubject(u.ID) {
		return
	}
	if _, _, ok := u.Position(); !ok {
		return
	}
	if s.sched.Track(u.ID) {
		return
	}
	if moved {
		s.sched.Notify(u.ID)
	}
}

// Evicted stops the tick loops of vessels that dropped out of the store.
func (s *Service) Evicted(ids []string) {
	for _, id := range ids {
		if s.sched.Untrack(id) {
			s.logger.Debug("subject evicted", logging.String("subject", id))
		}
	}
	s.metrics.SetStoreSize(s.store.Len())
}

func (s *Service) isSubject(id string) bool {
	if s.subjects == nil {
		return true
	}
	_, ok := s.subjects[id]
	return ok
}
