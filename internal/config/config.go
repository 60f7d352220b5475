// Package config loads detector, gateway and ingestor settings.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kinematics"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/vessels"
)

type Config struct {
	Log    logging.LogConfig `mapstructure:"log"`
	Kafka  KafkaConfig       `mapstructure:"kafka"`
	Redis  RedisConfig       `mapstructure:"redis"`
	Engine EngineConfig      `mapstructure:"engine"`
	Store  StoreConfig       `mapstructure:"store"`
	Feed   FeedConfig        `mapstructure:"feed"`
	HTTP   HTTPConfig        `mapstructure:"http"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	GroupID     string   `mapstructure:"group_id"`
	VesselTopic string   `mapstructure:"vessel_topic"`
	RiskTopic   string   `mapstructure:"risk_topic"`
	AlertTopic  string   `mapstructure:"alert_topic"`
}

// RedisConfig selects the shared alert cooldown. An empty Addr keeps the
// cooldown in process memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type EngineConfig struct {
	HorizonKm            float64       `mapstructure:"horizon_km"`
	LowRiskMaxDistanceKm float64       `mapstructure:"low_risk_max_distance_km"`
	HighCPAKm            float64       `mapstructure:"high_cpa_km"`
	MediumCPAKm          float64       `mapstructure:"medium_cpa_km"`
	DefaultSpeedKnots    float64       `mapstructure:"default_speed_knots"`
	DefaultCourseDeg     float64       `mapstructure:"default_course_deg"`
	CandidateRadiusKm    float64       `mapstructure:"candidate_radius_km"`
	MaxCandidates        int           `mapstructure:"max_candidates"`
	TickInterval         time.Duration `mapstructure:"tick_interval"`
	// Subjects limits tick loops to these vessel ids; empty tracks every
	// vessel that reports a position.
	Subjects []string `mapstructure:"subjects"`
	// AlertCooldown of zero disables debouncing: every High tick alerts.
	AlertCooldown time.Duration `mapstructure:"alert_cooldown"`
}

type StoreConfig struct {
	MaxAge          time.Duration `mapstructure:"max_age"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type FeedConfig struct {
	URL      string        `mapstructure:"url"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers: at least one broker is required"))
	}
	e := c.Engine
	for name, v := range map[string]float64{
		"engine.horizon_km":               e.HorizonKm,
		"engine.low_risk_max_distance_km": e.LowRiskMaxDistanceKm,
		"engine.high_cpa_km":              e.HighCPAKm,
		"engine.medium_cpa_km":            e.MediumCPAKm,
		"engine.candidate_radius_km":      e.CandidateRadiusKm,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %g", name, v))
		}
	}
	if e.HighCPAKm >= e.MediumCPAKm {
		errs = append(errs, fmt.Errorf("engine.high_cpa_km (%g) must be below engine.medium_cpa_km (%g)", e.HighCPAKm, e.MediumCPAKm))
	}
	if e.LowRiskMaxDistanceKm > e.HorizonKm {
		errs = append(errs, fmt.Errorf("engine.low_risk_max_distance_km (%g) exceeds engine.horizon_km (%g)", e.LowRiskMaxDistanceKm, e.HorizonKm))
	}
	if e.CandidateRadiusKm < e.HorizonKm {
		errs = append(errs, fmt.Errorf("engine.candidate_radius_km (%g) is below engine.horizon_km (%g)", e.CandidateRadiusKm, e.HorizonKm))
	}
	if e.DefaultSpeedKnots < 0 {
		errs = append(errs, fmt.Errorf("engine.default_speed_knots: must not be negative, got %g", e.DefaultSpeedKnots))
	}
	if e.AlertCooldown < 0 {
		errs = append(errs, fmt.Errorf("engine.alert_cooldown: must not be negative, got %s", e.AlertCooldown))
	}
	return errors.Join(errs...)
}

func (c *Config) Thresholds() collision.Thresholds {
	return collision.Thresholds{
		HorizonKm:            c.Engine.HorizonKm,
		LowRiskMaxDistanceKm: c.Engine.LowRiskMaxDistanceKm,
		HighCPAKm:            c.Engine.HighCPAKm,
		MediumCPAKm:          c.Engine.MediumCPAKm,
	}
}

func (c *Config) Resolver() kinematics.Resolver {
	return kinematics.Resolver{
		DefaultCourseDeg:  c.Engine.DefaultCourseDeg,
		DefaultSpeedKnots: c.Engine.DefaultSpeedKnots,
	}
}

func (c *Config) StoreConfig() vessels.Config {
	return vessels.Config{
		MaxAge:          c.Store.MaxAge,
		CleanupInterval: c.Store.CleanupInterval,
		RadiusKm:        c.Engine.CandidateRadiusKm,
		MaxCandidates:   c.Engine.MaxCandidates,
	}
}
