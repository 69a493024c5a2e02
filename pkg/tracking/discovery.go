// Package tracking turns a stream of aircraft positions into takeoff and
// landing events.
package tracking

import (
	"fmt"
	"time"

	"github.com/unklstewy/plane-spotter/pkg/airports"
)

// Discovery records that the aircraft was observed at an airport, or at an
// airport that could not be determined, at a point in time.
//
// The zero value is an unknown discovery at the zero time.
type Discovery struct {
	// airport is nil for an unknown discovery
	airport *airports.Airport

	// At is when the discovery was made
	At time.Time
}

// KnownDiscovery returns a discovery of ap at the given time.
func KnownDiscovery(ap airports.Airport, at time.Time) Discovery {
	return Discovery{airport: &ap, At: at}
}

// UnknownDiscovery returns a placeholder for a landing site that was never
// observed, such as when tracking starts with the aircraft airborne.
func UnknownDiscovery(at time.Time) Discovery {
	return Discovery{At: at}
}

// Unknown reports whether the airport of d is not known.
func (d Discovery) Unknown() bool {
	return d.airport == nil
}

// Airport returns the discovered airport. ok is false for an unknown
// discovery.
func (d Discovery) Airport() (ap airports.Airport, ok bool) {
	if d.airport == nil {
		return airports.Airport{}, false
	}
	return *d.airport, true
}

// Ident returns the airport ident, or "" for an unknown discovery.
func (d Discovery) Ident() string {
	if d.airport == nil {
		return ""
	}
	return d.airport.Ident
}

// Name returns the airport name, or "an unknown airport".
func (d Discovery) Name() string {
	if d.airport == nil {
		return "an unknown airport"
	}
	return d.airport.Name
}

func (d Discovery) String() string {
	if d.airport == nil {
		return fmt.Sprintf("unknown@%s", d.At.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("%s@%s", d.airport.Ident, d.At.UTC().Format(time.RFC3339))
}
