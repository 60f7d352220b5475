package kinematics

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/model"
)

func vessel(meta string) model.VesselUpdate {
	u := model.VesselUpdate{ID: "V1", Name: "ASTRA", Lat: model.Float(1.25), Lng: model.Float(103.8)}
	if meta != "" {
		u.Metadata = json.RawMessage(meta)
	}
	return u
}

func TestResolve_ObjectMetadata(t *testing.T) {
	s, err := NewResolver().Resolve(vessel(`{"course":135,"currentSpeed":9.5}`))
	require.NoError(t, err)
	assert.Equal(t, "V1", s.ID)
	assert.Equal(t, "ASTRA", s.Name)
	assert.Equal(t, 1.25, s.LatDeg)
	assert.Equal(t, 103.8, s.LngDeg)
	assert.Equal(t, 135.0, s.CourseDeg)
	assert.Equal(t, 9.5, s.SpeedKnots)
}

func TestResolve_StringEncodedMetadata(t *testing.T) {
	s, err := NewResolver().Resolve(vessel(`"{\"course\":\"270\",\"currentSpeed\":\" 14.2 \"}"`))
	require.NoError(t, err)
	assert.Equal(t, 270.0, s.CourseDeg)
	assert.Equal(t, 14.2, s.SpeedKnots)
}

func TestResolve_FallbackKeys(t *testing.T) {
	s, err := NewResolver().Resolve(vessel(`{"heading":45,"speed":7}`))
	require.NoError(t, err)
	assert.Equal(t, 45.0, s.CourseDeg)
	assert.Equal(t, 7.0, s.SpeedKnots)
}

func TestResolve_Defaults(t *testing.T) {
	cases := map[string]string{
		"no metadata":    "",
		"null":           `null`,
		"garbage":        `{not json`,
		"array":          `[1,2]`,
		"bad values":     `{"course":"north","currentSpeed":"fast"}`,
		"wrong types":    `{"course":true,"currentSpeed":{}}`,
		"negative speed": `{"currentSpeed":-3}`,
	}
	for name, meta := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := NewResolver().Resolve(vessel(meta))
			require.NoError(t, err)
			assert.Equal(t, DefaultCourseDeg, s.CourseDeg)
			assert.Equal(t, DefaultSpeedKnots, s.SpeedKnots)
		})
	}
}

func TestResolve_CourseNormalised(t *testing.T) {
	s, err := NewResolver().Resolve(vessel(`{"course":-90,"currentSpeed":5}`))
	require.NoError(t, err)
	assert.Equal(t, 270.0, s.CourseDeg)

	s, err = NewResolver().Resolve(vessel(`{"course":720,"currentSpeed":5}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.CourseDeg)
}

func TestResolve_InvalidPosition(t *testing.T) {
	cases := map[string]model.VesselUpdate{
		"missing lat":  {ID: "A", Lng: model.Float(1)},
		"missing lng":  {ID: "B", Lat: model.Float(1)},
		"nan":          {ID: "C", Lat: model.Float(math.NaN()), Lng: model.Float(0)},
		"inf":          {ID: "D", Lat: model.Float(0), Lng: model.Float(math.Inf(-1))},
		"out of range": {ID: "E", Lat: model.Float(91), Lng: model.Float(0)},
	}
	for name, u := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewResolver().Resolve(u)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPosition))
		})
	}
}

func TestResolver_CustomDefaults(t *testing.T) {
	r := Resolver{DefaultCourseDeg: 90, DefaultSpeedKnots: 3}
	s, err := r.Resolve(vessel(""))
	require.NoError(t, err)
	assert.Equal(t, 90.0, s.CourseDeg)
	assert.Equal(t, 3.0, s.SpeedKnots)
}

func TestNormalizeCourse(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeCourse(360))
	assert.Equal(t, 359.5, NormalizeCourse(-0.5))
	assert.Equal(t, 10.0, NormalizeCourse(370))
}
