package collision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/geo"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kinematics"
)

func state(id string, lat, lng, course, speed float64) kinematics.State {
	return kinematics.State{ID: id, LatDeg: lat, LngDeg: lng, CourseDeg: course, SpeedKnots: speed}
}

func TestSolveCPA_HeadOn(t *testing.T) {
	subject := state("S", 0, 0, 0, 10)
	other := state("O", 0.0090, 0, 180, 10)

	cpa := SolveCPA(subject, other)

	assert.False(t, cpa.Degenerate)
	assert.Greater(t, cpa.TimeToCPAMinutes, 0.0)
	assert.Less(t, cpa.TimeToCPAMinutes, 5.0)
	// ~0.995 km closing at ~37 km/h
	assert.InDelta(t, 1.61, cpa.TimeToCPAMinutes, 0.01)
	assert.Less(t, cpa.DistanceKm, 0.01)
	assert.InDelta(t, 0.0045, cpa.SubjectAtCPA.Lat, 1e-4)
	assert.InDelta(t, 0.0045, cpa.OtherAtCPA.Lat, 1e-4)
	assert.Equal(t, RiskHigh, NewClassifier(DefaultThresholds()).Level(cpa.DistanceKm))
}

func TestSolveCPA_Symmetric(t *testing.T) {
	pairs := [][2]kinematics.State{
		{state("A", 0, 0, 0, 10), state("B", 0.009, 0, 180, 10)},
		{state("A", 51.95, 4.05, 75, 13.5), state("B", 51.97, 4.10, 210, 8)},
		{state("A", -33.86, 151.21, 300, 4), state("B", -33.84, 151.19, 20, 17)},
		{state("A", 1.26, 103.82, 90, 12), state("B", 1.27, 103.85, 270, 12)},
		{state("A", 10, 10, 45, 0), state("B", 10.02, 10.01, 225, 6)},
	}
	for _, p := range pairs {
		ab := SolveCPA(p[0], p[1])
		ba := SolveCPA(p[1], p[0])
		assert.InDelta(t, ab.DistanceKm, ba.DistanceKm, 1e-6)
		assert.InDelta(t, ab.TimeToCPAMinutes, ba.TimeToCPAMinutes, 1e-6)
		assert.InDelta(t, ab.SubjectAtCPA.Lat, ba.OtherAtCPA.Lat, 1e-9)
		assert.InDelta(t, ab.SubjectAtCPA.Lng, ba.OtherAtCPA.Lng, 1e-9)
		assert.InDelta(t, ab.OtherAtCPA.Lat, ba.SubjectAtCPA.Lat, 1e-9)
	}
}

func TestSolveCPA_IdenticalMotionIsDegenerate(t *testing.T) {
	cases := [][2]kinematics.State{
		{state("A", 0, 0, 0, 10), state("B", 0.01, 0.02, 0, 10)},
		{state("A", 40, -70, 123.4, 7.7), state("B", 40.03, -70.01, 123.4, 7.7)},
		{state("A", 40, -70, 0, 0), state("B", 40.03, -70.01, 90, 0)},
	}
	for _, c := range cases {
		a, b := c[0], c[1]
		cpa := SolveCPA(a, b)
		assert.True(t, cpa.Degenerate)
		assert.Equal(t, NoConvergenceMinutes, cpa.TimeToCPAMinutes)
		assert.Equal(t, geo.DistanceKm(a.LatDeg, a.LngDeg, b.LatDeg, b.LngDeg), cpa.DistanceKm)
		assert.Equal(t, LatLng{Lat: a.LatDeg, Lng: a.LngDeg}, cpa.SubjectAtCPA)
		assert.Equal(t, LatLng{Lat: b.LatDeg, Lng: b.LngDeg}, cpa.OtherAtCPA)
	}
}

func TestSolveCPA_ParallelOffset(t *testing.T) {
	subject := state("S", 0, 0, 0, 10)
	other := state("O", 0, 2/geo.KmPerDegLngEquat, 0, 10)

	cpa := SolveCPA(subject, other)

	assert.Equal(t, NoConvergenceMinutes, cpa.TimeToCPAMinutes)
	assert.InDelta(t, 2.0, cpa.DistanceKm, 0.01)
	assert.Equal(t, RiskLow, NewClassifier(DefaultThresholds()).Level(cpa.DistanceKm))
}

func TestSolveCPA_DivergingIsClampedToNow(t *testing.T) {
	// other is behind the subject and heading away
	subject := state("S", 0, 0, 0, 10)
	other := state("O", -0.01, 0, 180, 10)

	cpa := SolveCPA(subject, other)

	assert.False(t, cpa.Degenerate)
	assert.Equal(t, 0.0, cpa.TimeToCPAMinutes)
	assert.Equal(t, LatLng{Lat: 0, Lng: 0}, cpa.SubjectAtCPA)
	assert.Equal(t, LatLng{Lat: -0.01, Lng: 0}, cpa.OtherAtCPA)
	assert.InDelta(t, geo.DistanceKm(0, 0, -0.01, 0), cpa.DistanceKm, 1e-12)
}

func TestSolveCPA_CrossingTraffic(t *testing.T) {
	// stationary vessel 1 km east of the subject's track, 2 km ahead
	subject := state("S", 0, 0, 0, 10)
	other := state("O", 0.018, 0.009, 0, 0)

	cpa := SolveCPA(subject, other)

	assert.InDelta(t, 0.018, cpa.SubjectAtCPA.Lat, 1e-6)
	assert.InDelta(t, 1.0, cpa.DistanceKm, 0.01)
	// 1.99 km at 18.52 km/h
	assert.InDelta(t, 6.45, cpa.TimeToCPAMinutes, 0.01)
}

func TestVelocityKmh(t *testing.T) {
	vx, vy := velocityKmh(state("S", 0, 0, 90, 10))
	assert.InDelta(t, 18.52, vx, 1e-9)
	assert.InDelta(t, 0, vy, 1e-9)

	vx, vy = velocityKmh(state("S", 0, 0, 180, 1))
	assert.InDelta(t, 0, vx, 1e-9)
	assert.InDelta(t, -1.852, vy, 1e-9)
}
