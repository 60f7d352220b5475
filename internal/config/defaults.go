package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/feed"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kafka"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kinematics"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/tracker"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/vessels"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "vessel-collision-detector"

	DefaultFeedInterval = 2 * time.Minute
	DefaultHTTPAddr     = ":8080"
)

func defaultValues() map[string]any {
	th := collision.DefaultThresholds()
	return map[string]any{
		"log.level":                       DefaultLogLevel,
		"log.format":                      DefaultLogFormat,
		"kafka.brokers":                   []string{DefaultKafkaBroker},
		"kafka.group_id":                  DefaultKafkaGroupID,
		"kafka.vessel_topic":              kafka.DefaultVesselTopic,
		"kafka.risk_topic":                kafka.DefaultRiskTopic,
		"kafka.alert_topic":               kafka.DefaultAlertTopic,
		"redis.addr":                      "",
		"redis.password":                  "",
		"redis.db":                        0,
		"engine.horizon_km":               th.HorizonKm,
		"engine.low_risk_max_distance_km": th.LowRiskMaxDistanceKm,
		"engine.high_cpa_km":              th.HighCPAKm,
		"engine.medium_cpa_km":            th.MediumCPAKm,
		"engine.default_speed_knots":      kinematics.DefaultSpeedKnots,
		"engine.default_course_deg":       kinematics.DefaultCourseDeg,
		"engine.candidate_radius_km":      vessels.DefaultRadiusKm,
		"engine.max_candidates":           vessels.DefaultMaxCandidates,
		"engine.tick_interval":            tracker.DefaultInterval,
		"engine.subjects":                 []string{},
		"engine.alert_cooldown":           time.Duration(0),
		"store.max_age":                   vessels.DefaultMaxAge,
		"store.cleanup_interval":          vessels.DefaultCleanupInterval,
		"feed.url":                        "",
		"feed.interval":                   DefaultFeedInterval,
		"feed.timeout":                    feed.DefaultTimeout,
		"http.addr":                       DefaultHTTPAddr,
	}
}

// setDefaults registers every key with viper, which is also what lets
// AutomaticEnv resolve VCT_* variables during Unmarshal.
func setDefaults(v *viper.Viper) {
	for k, val := range defaultValues() {
		v.SetDefault(k, val)
	}
}

// ApplyDefaults fills zero-value fields left by a partial config file.
// Engine.AlertCooldown and Engine.DefaultCourseDeg are meaningful at zero and
// are left alone.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.VesselTopic == "" {
		cfg.Kafka.VesselTopic = kafka.DefaultVesselTopic
	}
	if cfg.Kafka.RiskTopic == "" {
		cfg.Kafka.RiskTopic = kafka.DefaultRiskTopic
	}
	if cfg.Kafka.AlertTopic == "" {
		cfg.Kafka.AlertTopic = kafka.DefaultAlertTopic
	}

	th := collision.DefaultThresholds()
	e := &cfg.Engine
	if e.HorizonKm == 0 {
		e.HorizonKm = th.HorizonKm
	}
	if e.LowRiskMaxDistanceKm == 0 {
		e.LowRiskMaxDistanceKm = th.LowRiskMaxDistanceKm
	}
	if e.HighCPAKm == 0 {
		e.HighCPAKm = th.HighCPAKm
	}
	if e.MediumCPAKm == 0 {
		e.MediumCPAKm = th.MediumCPAKm
	}
	if e.DefaultSpeedKnots == 0 {
		e.DefaultSpeedKnots = kinematics.DefaultSpeedKnots
	}
	if e.CandidateRadiusKm == 0 {
		e.CandidateRadiusKm = vessels.DefaultRadiusKm
	}
	if e.MaxCandidates == 0 {
		e.MaxCandidates = vessels.DefaultMaxCandidates
	}
	if e.TickInterval == 0 {
		e.TickInterval = tracker.DefaultInterval
	}

	if cfg.Store.MaxAge == 0 {
		cfg.Store.MaxAge = vessels.DefaultMaxAge
	}
	if cfg.Store.CleanupInterval == 0 {
		cfg.Store.CleanupInterval = vessels.DefaultCleanupInterval
	}

	if cfg.Feed.Interval == 0 {
		cfg.Feed.Interval = DefaultFeedInterval
	}
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = feed.DefaultTimeout
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = DefaultHTTPAddr
	}
}
