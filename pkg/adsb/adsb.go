// Package adsb fetches aircraft positions from online ADS-B aggregators.
package adsb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unklstewy/plane-spotter/pkg/coordinates"
)

// Position is one position report for a tracked aircraft.
// All position data is in the WGS84 coordinate system.
type Position struct {
	// ICAO is the 24-bit ICAO aircraft address as hex (e.g., "a835af")
	ICAO string `json:"icao"`

	// Callsign is the flight number or registration broadcast by the aircraft
	Callsign string `json:"callsign,omitempty"`

	// Registration is the tail number, when the aggregator knows it
	Registration string `json:"registration,omitempty"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"longitude"`

	// OnGround is set when the aggregator reports the "ground" altitude
	// sentinel instead of a numeric altitude.
	OnGround bool `json:"on_ground"`

	// AltitudeFt is the reported altitude in feet. Only meaningful when
	// OnGround is false.
	AltitudeFt float64 `json:"altitude_ft"`

	// GroundSpeed in knots
	GroundSpeed float64 `json:"ground_speed,omitempty"`

	// Track is the ground track in degrees (0-359)
	Track float64 `json:"track,omitempty"`

	// SeenAt is when the position was last updated
	SeenAt time.Time `json:"seen_at"`
}

// Point returns the position as a coordinate pair.
func (p Position) Point() coordinates.Point {
	return coordinates.Point{Latitude: p.Latitude, Longitude: p.Longitude}
}

// PositionProvider returns the most recent position of an aircraft.
type PositionProvider interface {
	// LastPosition fetches the latest known position of the aircraft with
	// the given ICAO hex address. Failures are reported as *ProviderError.
	LastPosition(ctx context.Context, icao string) (Position, error)
}

// ErrNoPosition is returned when the aggregator answered but had no usable
// position for the aircraft.
var ErrNoPosition = errors.New("no position reported")

// ProviderError is a recoverable failure to fetch or decode a position.
type ProviderError struct {
	// Source names the aggregator (e.g., "airplanes.live")
	Source string

	// ICAO is the aircraft that was requested
	ICAO string

	// StatusCode is the HTTP status, or 0 when the request never completed
	StatusCode int

	Err error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: position of %s: status %d: %v", e.Source, e.ICAO, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: position of %s: %v", e.Source, e.ICAO, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
