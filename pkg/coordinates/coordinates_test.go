package coordinates

import (
	"math"
	"testing"
)

// TestDistanceKm tests the haversine distance against known values.
func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name      string
		from      Point
		to        Point
		want      float64
		tolerance float64
	}{
		{
			name:      "Same point",
			from:      Point{38.704022, -101.473911},
			to:        Point{38.704022, -101.473911},
			want:      0,
			tolerance: 1e-9,
		},
		{
			name:      "One degree of latitude",
			from:      Point{0, 0},
			to:        Point{1, 0},
			want:      111.19,
			tolerance: 0.5,
		},
		{
			name:      "JFK to LAX",
			from:      Point{40.6413, -73.7781},
			to:        Point{33.9416, -118.4085},
			want:      3975,
			tolerance: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.from, tt.to)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("DistanceKm() = %.3f, want %.3f ± %.3f", got, tt.want, tt.tolerance)
			}
		})
	}
}

// TestDistanceSymmetry tests that distance does not depend on direction.
func TestDistanceSymmetry(t *testing.T) {
	a := Point{37.730289, -122.214091}
	b := Point{59.94919968, -151.695999146}

	if math.Abs(DistanceKm(a, b)-DistanceKm(b, a)) > 1e-9 {
		t.Error("Expected symmetric distance")
	}
	if math.Abs(DistanceNauticalMiles(a, b)*KmPerNauticalMile-DistanceKm(a, b)) > 1e-6 {
		t.Error("Expected nautical miles to be km / 1.852")
	}
}

// TestParsePoint tests parsing of catalog coordinate strings.
func TestParsePoint(t *testing.T) {
	t.Run("Valid pair", func(t *testing.T) {
		p, err := ParsePoint("38.704022, -101.473911")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if p.Latitude != 38.704022 || p.Longitude != -101.473911 {
			t.Errorf("Unexpected point %+v", p)
		}
	})

	t.Run("No space after comma", func(t *testing.T) {
		p, err := ParsePoint("59.94919968,-151.695999146")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if p.Longitude != -151.695999146 {
			t.Errorf("Unexpected longitude %f", p.Longitude)
		}
	})

	for _, bad := range []string{"", "38.7", "abc, 1", "1, abc", "91, 0", "0, 181"} {
		t.Run("Invalid "+bad, func(t *testing.T) {
			if _, err := ParsePoint(bad); err == nil {
				t.Errorf("Expected error for %q", bad)
			}
		})
	}
}

// TestBearing tests initial bearing for cardinal directions.
func TestBearing(t *testing.T) {
	origin := Point{0, 0}
	tests := []struct {
		to   Point
		want float64
		name string
	}{
		{Point{1, 0}, 0, "N"},
		{Point{0, 1}, 90, "E"},
		{Point{-1, 0}, 180, "S"},
		{Point{0, -1}, 270, "W"},
	}

	for _, tt := range tests {
		got := Bearing(origin, tt.to)
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("Bearing to %+v = %.2f, want %.2f", tt.to, got, tt.want)
		}
		if cp := CompassPoint(got); cp != tt.name {
			t.Errorf("CompassPoint(%.2f) = %s, want %s", got, cp, tt.name)
		}
	}
}

// TestNormalizeAzimuth tests azimuth normalization
func TestNormalizeAzimuth(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{0.0, 0.0},
		{359.0, 359.0},
		{360.0, 0.0},
		{361.0, 1.0},
		{-1.0, 359.0},
		{-90.0, 270.0},
		{720.0, 0.0},
	}

	for _, tt := range tests {
		got := NormalizeAzimuth(tt.input)
		if math.Abs(got-tt.want) > 0.0001 {
			t.Errorf("NormalizeAzimuth(%.1f) = %.1f, want %.1f", tt.input, got, tt.want)
		}
	}
}
