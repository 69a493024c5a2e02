package adsb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AirplanesLiveClient fetches positions from the airplanes.live API.
// API Documentation: https://airplanes.live/api-guide/
// Rate Limit: 1 request per second
type AirplanesLiveClient struct {
	// baseURL is the API base URL (default: https://api.airplanes.live/v2)
	baseURL string

	httpSource
}

// NewAirplanesLiveClient creates a new airplanes.live API client.
// baseURL should be "https://api.airplanes.live/v2" (or custom for testing).
// Requests are paced to at most one per minInterval.
func NewAirplanesLiveClient(baseURL string, timeout, minInterval time.Duration) *AirplanesLiveClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AirplanesLiveClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpSource: httpSource{
			name:       "airplanes.live",
			httpClient: &http.Client{Timeout: timeout},
			limiter:    newLimiter(minInterval),
		},
	}
}

// LastPosition returns the latest position of an aircraft by its ICAO hex
// code. Uses the /hex/[hex] endpoint.
func (c *AirplanesLiveClient) LastPosition(ctx context.Context, icao string) (Position, error) {
	var resp readsbResponse
	endpoint := fmt.Sprintf("%s/hex/%s", c.baseURL, url.PathEscape(strings.ToLower(icao)))
	if err := c.getJSON(ctx, icao, endpoint, &resp); err != nil {
		return Position{}, err
	}

	if len(resp.Aircraft) == 0 {
		return Position{}, &ProviderError{Source: c.name, ICAO: icao, Err: ErrNoPosition}
	}

	pos, err := resp.Aircraft[0].toPosition(icao, serverTime(resp.Now))
	if err != nil {
		return Position{}, &ProviderError{Source: c.name, ICAO: icao, Err: err}
	}
	return pos, nil
}

// AircraftNear returns all aircraft with a position within radiusNM
// nautical miles of a point. Uses the /point/[lat]/[lon]/[radius] endpoint.
// Maximum radius is 250 nautical miles.
func (c *AirplanesLiveClient) AircraftNear(ctx context.Context, lat, lon, radiusNM float64) ([]Position, error) {
	if radiusNM > 250.0 {
		radiusNM = 250.0
	}

	var resp readsbResponse
	endpoint := fmt.Sprintf("%s/point/%.4f/%.4f/%.0f", c.baseURL, lat, lon, radiusNM)
	if err := c.getJSON(ctx, "", endpoint, &resp); err != nil {
		return nil, err
	}

	now := serverTime(resp.Now)
	positions := make([]Position, 0, len(resp.Aircraft))
	for _, ac := range resp.Aircraft {
		// Skip aircraft without a usable position
		pos, err := ac.toPosition(ac.Hex, now)
		if err != nil {
			continue
		}
		positions = append(positions, pos)
	}

	return positions, nil
}
