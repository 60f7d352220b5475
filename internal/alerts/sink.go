// Package alerts holds alert sinks and the cooldown gates used to debounce
// repeated alerts for the same pair of vessels.
package alerts

import (
	"context"
	"errors"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
)

// LogSink writes every alert to a Logger.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, ev collision.AlertEvent) error {
	s.logger.Warn(ev.Message,
		logging.String("alert_id", ev.ID),
		logging.String("severity", ev.Severity),
		logging.String("subject", ev.SubjectID),
		logging.String("other", ev.OtherVesselID),
		logging.String("other_name", ev.OtherVesselName),
		logging.Float64("eta_min", ev.ETAMinutes),
		logging.Float64("cpa_km", ev.DistanceKm),
	)
	return nil
}

// MultiSink fans an alert out to every sink. All sinks are tried; their
// errors are joined.
type MultiSink []collision.AlertSink

func (m MultiSink) Emit(ctx context.Context, ev collision.AlertEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
