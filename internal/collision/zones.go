package collision

import "github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kinematics"

// ZoneSeverity ranks the concentric safety zones.
type ZoneSeverity string

const (
	SeverityCritical  ZoneSeverity = "critical"
	SeverityCaution   ZoneSeverity = "caution"
	SeverityAwareness ZoneSeverity = "awareness"
)

// SafetyZone is a fixed-radius circle around the subject vessel.
type SafetyZone struct {
	Center       LatLng       `json:"center"`
	RadiusMeters float64      `json:"radiusMeters"`
	Label        string       `json:"label"`
	Severity     ZoneSeverity `json:"severity"`
}

var zoneTable = [...]struct {
	radius   float64
	label    string
	severity ZoneSeverity
}{
	{500, "Critical", SeverityCritical},
	{1500, "Caution", SeverityCaution},
	{5000, "Awareness", SeverityAwareness},
}

// BuildZones returns the three safety zones centred on subject, innermost
// first. A fresh slice is returned on every call.
func BuildZones(subject kinematics.State) []SafetyZone {
	center := LatLng{Lat: subject.LatDeg, Lng: subject.LngDeg}
	zones := make([]SafetyZone, 0, len(zoneTable))
	for _, z := range zoneTable {
		zones = append(zones, SafetyZone{
			Center:       center,
			RadiusMeters: z.radius,
			Label:        z.label,
			Severity:     z.severity,
		})
	}
	return zones
}
