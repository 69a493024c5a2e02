// Package airports holds an immutable in-memory airport catalog and
// answers nearest-airport-within-radius queries against it.
package airports

import (
	"github.com/unklstewy/plane-spotter/pkg/coordinates"
)

// Airport is one landing facility from the catalog.
type Airport struct {
	// Ident is the catalog identifier (e.g., "00AA", "KPAO"); unique
	Ident string `json:"ident"`

	// Type is the facility type (small_airport, large_airport, ...)
	Type string `json:"type"`

	Name         string `json:"name"`
	ElevationFt  int    `json:"elevation_ft"`
	Continent    string `json:"continent"`
	ISOCountry   string `json:"iso_country"`
	ISORegion    string `json:"iso_region"`
	Municipality string `json:"municipality"`
	GPSCode      string `json:"gps_code,omitempty"`
	IATACode     string `json:"iata_code,omitempty"`
	LocalCode    string `json:"local_code,omitempty"`

	// Location is the airport reference point
	Location coordinates.Point `json:"location"`

	// DistanceKm is the distance to the query point. It is only set on
	// values returned by Index.Lookup and is not part of the identity.
	DistanceKm float64 `json:"distance_to_coordinates"`
}

// Record is a raw, unparsed catalog row.
type Record struct {
	Ident        string
	Type         string
	Name         string
	ElevationFt  string
	Continent    string
	ISOCountry   string
	ISORegion    string
	Municipality string
	GPSCode      string
	IATACode     string
	LocalCode    string

	// Coordinates is "lat, lon"
	Coordinates string
}

// ExcludedTypes are facility types that are not landing sites for
// fixed-wing aircraft and are never loaded into an index.
var ExcludedTypes = map[string]bool{
	"balloonport":   true,
	"closed":        true,
	"heliport":      true,
	"seaplane_base": true,
}
