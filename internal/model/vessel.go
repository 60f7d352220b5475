package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// VesselUpdate is a single vessel position report as published by the host
// application. Lat/Lng are pointers so a missing coordinate can be told
// apart from the equator or the prime meridian.
type VesselUpdate struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Lat        *float64        `json:"lat"`
	Lng        *float64        `json:"lng"`
	VesselType string          `json:"vesselType"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}

// Position returns the coordinates and whether both are present.
func (v VesselUpdate) Position() (lat, lng float64, ok bool) {
	if v.Lat == nil || v.Lng == nil {
		return 0, 0, false
	}
	return *v.Lat, *v.Lng, true
}

// UnmarshalJSON accepts a string or numeric id and numeric or decimal-string
// coordinates. A coordinate that is not a number is left nil.
func (v *VesselUpdate) UnmarshalJSON(data []byte) error {
	type plain VesselUpdate
	var aux struct {
		plain
		ID  json.RawMessage `json:"id"`
		Lat json.RawMessage `json:"lat"`
		Lng json.RawMessage `json:"lng"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*v = VesselUpdate(aux.plain)
	v.ID = looseString(aux.ID)
	v.Lat = looseFloat(aux.Lat)
	v.Lng = looseFloat(aux.Lng)
	return nil
}

func looseString(raw json.RawMessage) string {
	r := gjson.ParseBytes(raw)
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	}
	return ""
}

func looseFloat(raw json.RawMessage) *float64 {
	r := gjson.ParseBytes(raw)
	switch r.Type {
	case gjson.Number:
		return Float(r.Num)
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

// Float returns a pointer to f, for building updates in code.
func Float(f float64) *float64 { return &f }

// UnmarshalVesselUpdate parses a JSON vessel update and normalises it.
func UnmarshalVesselUpdate(data []byte, update *VesselUpdate) error {
	if err := json.Unmarshal(data, update); err != nil {
		return err
	}

	// If timestamp is missing, set it to current time
	if update.Timestamp == 0 {
		update.Timestamp = time.Now().Unix()
	}

	update.ID = trimSpace(update.ID)
	update.Name = trimSpace(update.Name)

	return nil
}

// trimSpace drops NUL bytes and surrounding whitespace; AIS names are often
// padded with either.
func trimSpace(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}
