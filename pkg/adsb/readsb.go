package adsb

import (
	"fmt"
	"strings"
	"time"
)

// readsbResponse is the envelope both aggregators wrap aircraft in. Their
// field sets follow the readsb JSON output.
// Field documentation: https://airplanes.live/adsb-field-explanations/
type readsbResponse struct {
	// Aircraft is the array of aircraft data
	Aircraft []readsbAircraft `json:"ac"`

	// Msg is "No error" on success
	Msg string `json:"msg"`

	// Now is the server time in milliseconds since the epoch
	Now float64 `json:"now"`

	Total int `json:"total"`
}

// readsbAircraft represents a single aircraft in an aggregator response.
type readsbAircraft struct {
	// Hex is the ICAO Mode S hex code (e.g., "a12345")
	Hex string `json:"hex"`

	// Flight is the callsign/flight number, space padded
	Flight *string `json:"flight"`

	// Registration from the aggregator's database
	Registration *string `json:"r"`

	// Lat is latitude in decimal degrees
	Lat *float64 `json:"lat"`

	// Lon is longitude in decimal degrees
	Lon *float64 `json:"lon"`

	// AltBaro is barometric altitude in feet.
	// Note: Can be string "ground" or float
	AltBaro interface{} `json:"alt_baro"`

	// AltGeom is geometric (GPS) altitude in feet
	AltGeom interface{} `json:"alt_geom"`

	// Gs is ground speed in knots
	Gs *float64 `json:"gs"`

	// Track is ground track in degrees (0-360)
	Track *float64 `json:"track"`

	// Seen is seconds since last message
	Seen *float64 `json:"seen"`

	// SeenPos is seconds since last position message
	SeenPos *float64 `json:"seen_pos"`
}

// hasData reports whether anything was decoded into ac.
func (ac readsbAircraft) hasData() bool {
	return ac.Hex != "" || ac.Lat != nil || ac.Lon != nil
}

// toPosition converts an aggregator record into a Position. now is the
// server time used to date the report.
func (ac readsbAircraft) toPosition(icao string, now time.Time) (Position, error) {
	if ac.Lat == nil || ac.Lon == nil {
		return Position{}, ErrNoPosition
	}

	pos := Position{
		ICAO:      strings.ToLower(ac.Hex),
		Latitude:  *ac.Lat,
		Longitude: *ac.Lon,
	}
	if pos.ICAO == "" {
		pos.ICAO = strings.ToLower(icao)
	}

	if ac.Flight != nil {
		pos.Callsign = strings.TrimSpace(*ac.Flight)
	}
	if ac.Registration != nil {
		pos.Registration = strings.TrimSpace(*ac.Registration)
	}

	// Barometric altitude carries the ground sentinel; geometric is the
	// fallback for aircraft that only report GPS altitude.
	baro, baroGround, baroOK := parseAltitude(ac.AltBaro)
	geom, geomGround, geomOK := parseAltitude(ac.AltGeom)
	switch {
	case baroGround || geomGround:
		pos.OnGround = true
	case baroOK:
		pos.AltitudeFt = baro
	case geomOK:
		pos.AltitudeFt = geom
	default:
		return Position{}, fmt.Errorf("%w: missing altitude", ErrNoPosition)
	}

	if ac.Gs != nil {
		pos.GroundSpeed = *ac.Gs
	}
	if ac.Track != nil {
		pos.Track = *ac.Track
	}

	seen := ac.SeenPos
	if seen == nil {
		seen = ac.Seen
	}
	pos.SeenAt = now
	if seen != nil {
		pos.SeenAt = now.Add(-time.Duration(*seen * float64(time.Second)))
	}

	return pos, nil
}

// serverTime converts the envelope's millisecond timestamp, falling back to
// the local clock when the aggregator omits it.
func serverTime(nowMs float64) time.Time {
	if nowMs > 0 {
		return time.UnixMilli(int64(nowMs)).UTC()
	}
	return time.Now().UTC()
}

// parseAltitude extracts an altitude that can be a number or the string
// "ground". ok is false when neither is present.
func parseAltitude(val interface{}) (alt float64, ground bool, ok bool) {
	switch v := val.(type) {
	case float64:
		return v, false, true
	case string:
		if strings.EqualFold(strings.TrimSpace(v), "ground") {
			return 0, true, true
		}
		return 0, false, false
	default:
		return 0, false, false
	}
}
