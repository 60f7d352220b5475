// Package render turns tick output into GeoJSON for map clients.
package render

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/geo"
)

// CircleVertices is the number of vertices used to approximate a zone.
const CircleVertices = 64

// Feature kinds, stored under the "kind" property.
const (
	KindZone    = "zone"
	KindSubject = "subject"
	KindCPA     = "cpa"
)

const earthRadiusMeters = geo.EarthRadiusKm * 1000

// Circle approximates a circle on the sphere as a closed ring in [lng, lat]
// order.
func Circle(center collision.LatLng, radiusMeters float64, vertices int) orb.Ring {
	c := s2.PointFromLatLng(s2.LatLngFromDegrees(center.Lat, center.Lng))
	loop := s2.RegularLoop(c, s1.Angle(radiusMeters/earthRadiusMeters), vertices)

	ring := make(orb.Ring, 0, loop.NumVertices()+1)
	for _, v := range loop.Vertices() {
		ll := s2.LatLngFromPoint(v)
		ring = append(ring, orb.Point{ll.Lng.Degrees(), ll.Lat.Degrees()})
	}
	return append(ring, ring[0])
}

func zoneFeature(z collision.SafetyZone) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{Circle(z.Center, z.RadiusMeters, CircleVertices)})
	f.Properties["kind"] = KindZone
	f.Properties["label"] = z.Label
	f.Properties["severity"] = string(z.Severity)
	f.Properties["radiusMeters"] = z.RadiusMeters
	return f
}

// ZonesFeatureCollection renders zones outermost first so inner rings draw
// on top.
func ZonesFeatureCollection(zones []collision.SafetyZone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := len(zones) - 1; i >= 0; i-- {
		fc.Append(zoneFeature(zones[i]))
	}
	return fc
}

// TickFeatures renders the zones, the subject position and one point per
// assessed vessel at its closest point of approach.
func TickFeatures(out collision.TickOutput) *geojson.FeatureCollection {
	fc := ZonesFeatureCollection(out.Zones)

	s := out.Subject
	subject := geojson.NewFeature(orb.Point{s.LngDeg, s.LatDeg})
	subject.ID = s.ID
	subject.Properties["kind"] = KindSubject
	subject.Properties["name"] = s.Name
	subject.Properties["courseDeg"] = s.CourseDeg
	subject.Properties["speedKnots"] = s.SpeedKnots
	subject.Properties["overall"] = out.Overall.String()
	fc.Append(subject)

	for _, a := range out.Assessments {
		p := a.CPA.OtherAtCPA
		f := geojson.NewFeature(orb.Point{p.Lng, p.Lat})
		f.ID = a.PairID
		f.Properties["kind"] = KindCPA
		f.Properties["otherVesselId"] = a.OtherVesselID
		f.Properties["otherVesselName"] = a.OtherVesselName
		f.Properties["level"] = a.Level.String()
		f.Properties["cpaKm"] = a.CPA.DistanceKm
		f.Properties["tcpaMinutes"] = a.CPA.TimeToCPAMinutes
		f.Properties["currentDistanceKm"] = a.CurrentDistanceKm
		fc.Append(f)
	}
	return fc
}
