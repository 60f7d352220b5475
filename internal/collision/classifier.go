package collision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kinematics"
)

// RiskLevel orders collision risk. The zero value means nothing was surfaced.
type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
)

func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "none"
	}
}

func (l RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *RiskLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRiskLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseRiskLevel is the inverse of RiskLevel.String.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return RiskNone, nil
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	}
	return RiskNone, fmt.Errorf("unknown risk level %q", s)
}

// ProximityPair is a subject/other pair that passed range pruning.
type ProximityPair struct {
	Subject           kinematics.State
	Other             kinematics.State
	CurrentDistanceKm float64
}

// RiskAssessment is one surfaced pair for one tick.
type RiskAssessment struct {
	PairID            string    `json:"pairId"`
	Level             RiskLevel `json:"level"`
	CPA               CPAResult `json:"cpa"`
	OtherVesselID     string    `json:"otherVesselId"`
	OtherVesselName   string    `json:"otherVesselName,omitempty"`
	CurrentDistanceKm float64   `json:"currentDistanceKm"`
}

// Thresholds drive classification. All distances are in km.
type Thresholds struct {
	HorizonKm            float64 // pairs further apart are skipped
	LowRiskMaxDistanceKm float64 // Low results beyond this are suppressed
	HighCPAKm            float64 // CPA below this is High
	MediumCPAKm          float64 // CPA below this is Medium
}

// DefaultThresholds returns the standard classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HorizonKm:            10,
		LowRiskMaxDistanceKm: 5,
		HighCPAKm:            0.5,
		MediumCPAKm:          1.5,
	}
}

// Classifier maps a pair and its CPA to a risk assessment.
type Classifier struct {
	Thresholds Thresholds
}

func NewClassifier(t Thresholds) Classifier {
	return Classifier{Thresholds: t}
}

// Level classifies a CPA distance alone.
func (c Classifier) Level(cpaDistanceKm float64) RiskLevel {
	switch {
	case cpaDistanceKm < c.Thresholds.HighCPAKm:
		return RiskHigh
	case cpaDistanceKm < c.Thresholds.MediumCPAKm:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Classify returns the assessment for pair and whether it should be surfaced.
func (c Classifier) Classify(pair ProximityPair, cpa CPAResult) (RiskAssessment, bool) {
	if pair.CurrentDistanceKm > c.Thresholds.HorizonKm {
		return RiskAssessment{}, false
	}
	level := c.Level(cpa.DistanceKm)
	if level == RiskLow && pair.CurrentDistanceKm > c.Thresholds.LowRiskMaxDistanceKm {
		return RiskAssessment{}, false
	}
	return RiskAssessment{
		PairID:            PairID(pair.Subject.ID, pair.Other.ID),
		Level:             level,
		CPA:               cpa,
		OtherVesselID:     pair.Other.ID,
		OtherVesselName:   pair.Other.Name,
		CurrentDistanceKm: pair.CurrentDistanceKm,
	}, true
}

// PairID identifies a subject/other pair across ticks.
func PairID(subjectID, otherID string) string {
	return subjectID + ":" + otherID
}

// Aggregate returns the most severe level among assessments.
func Aggregate(assessments []RiskAssessment) RiskLevel {
	overall := RiskNone
	for _, a := range assessments {
		if a.Level > overall {
			overall = a.Level
		}
	}
	return overall
}
