// Package kinematics turns raw vessel reports into the kinematic state the
// collision engine works on.
package kinematics

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/geo"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/model"
)

// ErrInvalidPosition is returned when a report has no usable coordinates.
// The caller drops that vessel for the current tick.
var ErrInvalidPosition = errors.New("invalid position")

// Fallbacks used when metadata is absent or unparseable.
const (
	DefaultCourseDeg  = 0.0
	DefaultSpeedKnots = 12.0
)

// State is the position and motion of one vessel for a single tick.
type State struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	LatDeg     float64 `json:"lat"`
	LngDeg     float64 `json:"lng"`
	CourseDeg  float64 `json:"courseDeg"`
	SpeedKnots float64 `json:"speedKnots"`
}

// Resolver converts model.VesselUpdate values into State values.
type Resolver struct {
	DefaultCourseDeg  float64
	DefaultSpeedKnots float64
}

// NewResolver returns a Resolver with the standard fallbacks.
func NewResolver() Resolver {
	return Resolver{DefaultCourseDeg: DefaultCourseDeg, DefaultSpeedKnots: DefaultSpeedKnots}
}

// Resolve builds a State from u. Missing or malformed course/speed fall back
// to the resolver defaults; only the position can make it fail.
func (r Resolver) Resolve(u model.VesselUpdate) (State, error) {
	lat, lng, ok := u.Position()
	if !ok || !geo.IsValidCoordinate(lat, lng) {
		return State{}, fmt.Errorf("vessel %q: %w", u.ID, ErrInvalidPosition)
	}

	meta := metadataRoot(u.Metadata)

	course, ok := number(meta, "course", "heading")
	if !ok {
		course = r.DefaultCourseDeg
	}
	speed, ok := number(meta, "currentSpeed", "speed")
	if !ok || speed < 0 {
		speed = r.DefaultSpeedKnots
	}

	return State{
		ID:         u.ID,
		Name:       u.Name,
		LatDeg:     lat,
		LngDeg:     lng,
		CourseDeg:  NormalizeCourse(course),
		SpeedKnots: speed,
	}, nil
}

// NormalizeCourse folds any finite course into [0, 360).
func NormalizeCourse(deg float64) float64 {
	c := math.Mod(deg, 360)
	if c < 0 {
		c += 360
	}
	if c >= 360 {
		c = 0
	}
	return c
}

// metadataRoot accepts either an embedded object or a JSON string holding one,
// which is how some upstream stores serialise the column.
func metadataRoot(raw []byte) gjson.Result {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return gjson.Result{}
	}
	root := gjson.ParseBytes(raw)
	if root.Type == gjson.String && gjson.Valid(root.Str) {
		root = gjson.Parse(root.Str)
	}
	if !root.IsObject() {
		return gjson.Result{}
	}
	return root
}

// number returns the first key holding a finite numeric value, accepting
// numbers and numeric strings.
func number(root gjson.Result, keys ...string) (float64, bool) {
	if !root.Exists() {
		return 0, false
	}
	for _, key := range keys {
		v := root.Get(key)
		var f float64
		switch v.Type {
		case gjson.Number:
			f = v.Num
		case gjson.String:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
			if err != nil {
				continue
			}
			f = parsed
		default:
			continue
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		return f, true
	}
	return 0, false
}
