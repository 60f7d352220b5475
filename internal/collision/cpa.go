package collision

import (
	"math"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/geo"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kinematics"
)

// NoConvergenceMinutes is reported as the time to CPA when the two vessels
// have no relative motion.
const NoConvergenceMinutes = 9999.0

// relativeSpeedEpsilon is compared against the squared relative speed in (km/h)^2.
const relativeSpeedEpsilon = 1e-4

// LatLng is a point in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CPAResult describes the closest point of approach of two vessels holding
// course and speed.
type CPAResult struct {
	DistanceKm       float64 `json:"distanceKm"`
	TimeToCPAMinutes float64 `json:"timeToCpaMinutes"`
	SubjectAtCPA     LatLng  `json:"subjectAtCpa"`
	OtherAtCPA       LatLng  `json:"otherAtCpa"`
	// Degenerate is set when relative motion is effectively zero and the
	// separation never changes.
	Degenerate bool `json:"degenerate,omitempty"`
}

// velocityKmh returns the east/north velocity of s in km/h. Course is
// clockwise from north; the math angle is counter-clockwise from east.
func velocityKmh(s kinematics.State) (vx, vy float64) {
	angle := (90 - s.CourseDeg) * math.Pi / 180
	speed := s.SpeedKnots * geo.KnotsToKmh
	return speed * math.Cos(angle), speed * math.Sin(angle)
}

// project moves s along its velocity for hours, using the local per-degree
// scale factors at the vessel's own latitude.
func project(s kinematics.State, vx, vy, hours float64) LatLng {
	return LatLng{
		Lat: s.LatDeg + vy*hours/geo.KmPerDegLat,
		Lng: s.LngDeg + vx*hours/geo.KmPerDegLng(s.LatDeg),
	}
}

// SolveCPA computes the closest point of approach between subject and other.
//
// Offsets come from a flat-earth projection centred between the two
// latitudes, so results are only trustworthy for short-range encounters.
// A CPA that lies in the past is clamped to now: time, positions and
// distance all describe the present separation.
func SolveCPA(subject, other kinematics.State) CPAResult {
	vxS, vyS := velocityKmh(subject)
	vxO, vyO := velocityKmh(other)
	rvx, rvy := vxO-vxS, vyO-vyS

	midLat := (subject.LatDeg + other.LatDeg) * math.Pi / 360
	dx := (other.LngDeg - subject.LngDeg) * geo.KmPerDegLngEquat * math.Cos(midLat)
	dy := (other.LatDeg - subject.LatDeg) * geo.KmPerDegLat

	rv2 := rvx*rvx + rvy*rvy
	if rv2 < relativeSpeedEpsilon {
		return CPAResult{
			DistanceKm:       geo.DistanceKm(subject.LatDeg, subject.LngDeg, other.LatDeg, other.LngDeg),
			TimeToCPAMinutes: NoConvergenceMinutes,
			SubjectAtCPA:     LatLng{Lat: subject.LatDeg, Lng: subject.LngDeg},
			OtherAtCPA:       LatLng{Lat: other.LatDeg, Lng: other.LngDeg},
			Degenerate:       true,
		}
	}

	t := -(dx*rvx + dy*rvy) / rv2
	if t < 0 {
		t = 0
	}

	s := project(subject, vxS, vyS, t)
	o := project(other, vxO, vyO, t)
	return CPAResult{
		DistanceKm:       geo.DistanceKm(s.Lat, s.Lng, o.Lat, o.Lng),
		TimeToCPAMinutes: t * 60,
		SubjectAtCPA:     s,
		OtherAtCPA:       o,
	}
}
