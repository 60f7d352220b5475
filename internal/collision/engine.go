// Package collision computes closest-point-of-approach risk between a subject
// vessel and the traffic around it, and raises alerts for dangerous
// encounters.
package collision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/geo"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kinematics"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/metrics"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/model"
)

// ErrInvalidSubject is returned by Evaluate when the subject vessel itself
// has no usable position.
var ErrInvalidSubject = errors.New("invalid subject vessel")

// AlertEvent is raised for every High assessment.
type AlertEvent struct {
	ID              string    `json:"id"`
	Severity        string    `json:"severity"`
	SubjectID       string    `json:"subjectId"`
	OtherVesselID   string    `json:"otherVesselId"`
	OtherVesselName string    `json:"otherVesselName,omitempty"`
	ETAMinutes      float64   `json:"etaMinutes"`
	DistanceKm      float64   `json:"distanceKm"`
	Message         string    `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
}

// AlertSink receives alert events. Emission failures are logged by the
// engine and never abort a tick.
type AlertSink interface {
	Emit(ctx context.Context, ev AlertEvent) error
}

// Renderer receives the full output of every successful tick.
type Renderer interface {
	Render(ctx context.Context, out TickOutput) error
}

// AlertGate decides whether an alert for a pair may be emitted now. It is
// how repeated alerts for a persistent threat get debounced.
type AlertGate interface {
	Allow(ctx context.Context, subjectID, otherID string) (bool, error)
}

// TickInput is the snapshot evaluated by one tick. It is never mutated.
type TickInput struct {
	Subject model.VesselUpdate   `json:"subject"`
	Nearby  []model.VesselUpdate `json:"nearby"`
}

// TickOutput is everything one tick produced for a subject.
type TickOutput struct {
	SubjectID   string           `json:"subjectId"`
	Subject     kinematics.State `json:"subject"`
	Zones       []SafetyZone     `json:"zones"`
	Assessments []RiskAssessment `json:"assessments"`
	Alerts      []AlertEvent     `json:"alerts"`
	Overall     RiskLevel        `json:"overall"`
	// Dropped lists candidate ids that could not be resolved.
	Dropped     []string  `json:"dropped,omitempty"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// Engine evaluates ticks. It holds no per-tick state and may be shared by
// tick loops for different subjects.
type Engine struct {
	resolver   kinematics.Resolver
	classifier Classifier
	sink       AlertSink
	renderer   Renderer
	gate       AlertGate
	logger     logging.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	newID      func() string
}

type Option func(*Engine)

func WithResolver(r kinematics.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.classifier = NewClassifier(t) }
}

func WithAlertSink(s AlertSink) Option {
	return func(e *Engine) { e.sink = s }
}

func WithRenderer(r Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

func WithAlertGate(g AlertGate) Option {
	return func(e *Engine) { e.gate = g }
}

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		resolver:   kinematics.NewResolver(),
		classifier: NewClassifier(DefaultThresholds()),
		logger:     logging.NewNopLogger(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the classification thresholds in use.
func (e *Engine) Thresholds() Thresholds {
	return e.classifier.Thresholds
}

// Evaluate runs one tick for in.Subject against in.Nearby.
//
// Candidates that cannot be resolved are dropped; they never fail the tick.
// The only error is ErrInvalidSubject, returned with an output that carries
// nothing but the subject id and timestamp.
func (e *Engine) Evaluate(ctx context.Context, in TickInput) (TickOutput, error) {
	start := e.now()
	out := TickOutput{SubjectID: in.Subject.ID, EvaluatedAt: start}

	subject, err := e.resolver.Resolve(in.Subject)
	if err != nil {
		e.metrics.ObserveTick(metrics.TickInvalidSubject, e.now().Sub(start))
		return out, fmt.Errorf("%w: %w", ErrInvalidSubject, err)
	}
	out.Subject = subject
	out.Zones = BuildZones(subject)

	log := e.logger.With(logging.String("subject", subject.ID))
	horizon := e.classifier.Thresholds.HorizonKm

	for _, candidate := range in.Nearby {
		if candidate.ID == subject.ID {
			continue
		}
		other, err := e.resolver.Resolve(candidate)
		if err != nil {
			log.Debug("dropping vessel from tick", logging.String("vessel", candidate.ID), logging.Err(err))
			e.metrics.Drop(metrics.DropInvalidPosition)
			out.Dropped = append(out.Dropped, candidate.ID)
			continue
		}

		dist := geo.DistanceKm(subject.LatDeg, subject.LngDeg, other.LatDeg, other.LngDeg)
		if dist > horizon {
			e.metrics.Drop(metrics.DropOutOfRange)
			continue
		}

		pair := ProximityPair{Subject: subject, Other: other, CurrentDistanceKm: dist}
		if a, ok := e.classifier.Classify(pair, SolveCPA(subject, other)); ok {
			out.Assessments = append(out.Assessments, a)
			e.metrics.Assessment(a.Level.String())
		}
	}

	sort.SliceStable(out.Assessments, func(i, j int) bool {
		a, b := out.Assessments[i], out.Assessments[j]
		if a.Level != b.Level {
			return a.Level > b.Level
		}
		return a.CPA.DistanceKm < b.CPA.DistanceKm
	})
	out.Overall = Aggregate(out.Assessments)

	for _, a := range out.Assessments {
		if a.Level != RiskHigh {
			continue
		}
		ev := e.newAlert(subject.ID, a, start)
		if !e.allow(ctx, log, ev) {
			e.metrics.Alert(metrics.AlertSuppressed)
			continue
		}
		out.Alerts = append(out.Alerts, ev)
		e.emit(ctx, log, ev)
	}

	if e.renderer != nil {
		if err := e.renderer.Render(ctx, out); err != nil {
			log.Error("render failed", logging.Err(err))
		}
	}

	e.metrics.ObserveTick(metrics.TickOK, e.now().Sub(start))
	return out, nil
}

func (e *Engine) newAlert(subjectID string, a RiskAssessment, at time.Time) AlertEvent {
	name := a.OtherVesselName
	if name == "" {
		name = a.OtherVesselID
	}
	return AlertEvent{
		ID:              e.newID(),
		Severity:        RiskHigh.String(),
		SubjectID:       subjectID,
		OtherVesselID:   a.OtherVesselID,
		OtherVesselName: a.OtherVesselName,
		ETAMinutes:      a.CPA.TimeToCPAMinutes,
		DistanceKm:      a.CPA.DistanceKm,
		Message: fmt.Sprintf("High collision risk with %s: CPA %.0f m in %.1f min",
			name, a.CPA.DistanceKm*1000, a.CPA.TimeToCPAMinutes),
		Timestamp: at,
	}
}

// allow consults the gate. A failing gate lets the alert through.
func (e *Engine) allow(ctx context.Context, log logging.Logger, ev AlertEvent) bool {
	if e.gate == nil {
		return true
	}
	ok, err := e.gate.Allow(ctx, ev.SubjectID, ev.OtherVesselID)
	if err != nil {
		log.Error("alert gate failed, emitting anyway", logging.String("other", ev.OtherVesselID), logging.Err(err))
		return true
	}
	return ok
}

func (e *Engine) emit(ctx context.Context, log logging.Logger, ev AlertEvent) {
	log.Warn("collision risk",
		logging.String("other", ev.OtherVesselID),
		logging.Float64("cpa_km", ev.DistanceKm),
		logging.Float64("eta_min", ev.ETAMinutes),
	)
	if e.sink == nil {
		e.metrics.Alert(metrics.AlertEmitted)
		return
	}
	if err := e.sink.Emit(ctx, ev); err != nil {
		log.Error("alert emission failed", logging.String("alert", ev.ID), logging.Err(err))
		e.metrics.Alert(metrics.AlertFailed)
		return
	}
	e.metrics.Alert(metrics.AlertEmitted)
}
