package airports

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/unklstewy/plane-spotter/pkg/config"
	"github.com/unklstewy/plane-spotter/pkg/coordinates"
)

// Index is a read-only airport catalog. It is safe for concurrent use
// once constructed.
type Index struct {
	airports []Airport
	byIdent  map[string]int
}

// NewIndex builds an index from raw catalog records, skipping excluded
// facility types. Catalog order is preserved since it decides ties in
// Lookup. A record with unparseable coordinates fails the whole build, as
// does a catalog with no usable airports.
func NewIndex(records []Record) (*Index, error) {
	idx := &Index{
		airports: make([]Airport, 0, len(records)),
		byIdent:  make(map[string]int, len(records)),
	}

	for _, rec := range records {
		if ExcludedTypes[rec.Type] {
			continue
		}

		loc, err := coordinates.ParsePoint(rec.Coordinates)
		if err != nil {
			return nil, fmt.Errorf("airport %s: %w", rec.Ident, err)
		}

		ap := Airport{
			Ident:        rec.Ident,
			Type:         rec.Type,
			Name:         rec.Name,
			ElevationFt:  parseElevation(rec.ElevationFt),
			Continent:    rec.Continent,
			ISOCountry:   rec.ISOCountry,
			ISORegion:    rec.ISORegion,
			Municipality: rec.Municipality,
			GPSCode:      rec.GPSCode,
			IATACode:     rec.IATACode,
			LocalCode:    rec.LocalCode,
			Location:     loc,
		}

		if _, dup := idx.byIdent[ap.Ident]; !dup {
			idx.byIdent[ap.Ident] = len(idx.airports)
		}
		idx.airports = append(idx.airports, ap)
	}

	if len(idx.airports) == 0 {
		return nil, &config.ConfigurationError{Field: "airports", Reason: "no airports loaded"}
	}

	return idx, nil
}

// Len returns the number of airports in the index.
func (idx *Index) Len() int {
	return len(idx.airports)
}

// Get returns the airport with the given ident.
func (idx *Index) Get(ident string) (Airport, bool) {
	i, ok := idx.byIdent[strings.ToUpper(ident)]
	if !ok {
		i, ok = idx.byIdent[ident]
	}
	if !ok {
		return Airport{}, false
	}
	return idx.airports[i], true
}

// Lookup finds the closest airport to p that is within maxDistanceKm
// (inclusive). The catalog is scanned linearly in insertion order and a
// later airport only replaces the current best if it is strictly closer,
// so the first of several equidistant airports wins. The returned Airport
// is a copy with DistanceKm set. A point outside the valid coordinate range,
// or with a NaN component, matches nothing; so does a NaN radius.
func (idx *Index) Lookup(p coordinates.Point, maxDistanceKm float64) (Airport, bool) {
	if !p.Valid() || math.IsNaN(maxDistanceKm) {
		return Airport{}, false
	}

	best := -1
	bestDistance := maxDistanceKm

	for i := range idx.airports {
		d := coordinates.DistanceKm(p, idx.airports[i].Location)
		if d > maxDistanceKm {
			continue
		}
		if best < 0 || d < bestDistance {
			best = i
			bestDistance = d
		}
	}

	if best < 0 {
		return Airport{}, false
	}

	ap := idx.airports[best]
	ap.DistanceKm = bestDistance
	return ap, true
}

// parseElevation tolerates blank and non-numeric elevations, which are
// common in the ourairports data.
func parseElevation(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int(v)
	}
	return 0
}
