package coordinates

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jftuga/geodist"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// KmPerNauticalMile is the length of one nautical mile in kilometers
	KmPerNauticalMile = 1.852
)

// Point is a position on Earth's surface in the WGS84 coordinate system.
type Point struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64
}

// String formats the point the way airport catalogs store coordinates.
func (p Point) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Latitude, p.Longitude)
}

// Valid reports whether the point lies within the latitude/longitude ranges.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180 &&
		!math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude)
}

// ParsePoint parses a "lat, lon" pair as found in the ourairports
// coordinates column.
func ParsePoint(s string) (Point, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("coordinates %q: expected \"lat, lon\"", s)
	}

	latVal, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Point{}, fmt.Errorf("coordinates %q: invalid latitude: %w", s, err)
	}
	lonVal, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return Point{}, fmt.Errorf("coordinates %q: invalid longitude: %w", s, err)
	}

	p := Point{Latitude: latVal, Longitude: lonVal}
	if !p.Valid() {
		return Point{}, fmt.Errorf("coordinates %q: out of range", s)
	}
	return p, nil
}

// DistanceKm calculates the great-circle distance between two points
// using the Haversine formula. Returns distance in kilometers.
func DistanceKm(from, to Point) float64 {
	_, km := geodist.HaversineDistance(
		geodist.Coord{Lat: from.Latitude, Lon: from.Longitude},
		geodist.Coord{Lat: to.Latitude, Lon: to.Longitude},
	)
	return km
}

// DistanceNauticalMiles is DistanceKm converted to nautical miles.
func DistanceNauticalMiles(from, to Point) float64 {
	return DistanceKm(from, to) / KmPerNauticalMile
}

// Bearing calculates the initial bearing (forward azimuth) from one point to another.
// Uses spherical trigonometry to calculate the bearing along a great circle.
// Returns bearing in degrees (0-360), where 0/360 = North, 90 = East, 180 = South, 270 = West.
func Bearing(from, to Point) float64 {
	lat1 := from.Latitude * DegreesToRadians
	lon1 := from.Longitude * DegreesToRadians
	lat2 := to.Latitude * DegreesToRadians
	lon2 := to.Longitude * DegreesToRadians

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * RadiansToDegrees

	return NormalizeAzimuth(bearing)
}

// CompassPoint names the 16-wind compass direction for a bearing in degrees.
func CompassPoint(bearing float64) string {
	points := [...]string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}
	idx := int(math.Round(NormalizeAzimuth(bearing)/22.5)) % len(points)
	return points[idx]
}

// NormalizeAzimuth ensures azimuth is in the range [0, 360).
func NormalizeAzimuth(azimuth float64) float64 {
	az := math.Mod(azimuth, 360.0)
	if az < 0 {
		az += 360.0
	}
	return az
}
