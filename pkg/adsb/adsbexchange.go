package adsb

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultADSBExchangeHost is the RapidAPI host for ADS-B Exchange.
const DefaultADSBExchangeHost = "adsbexchange-com1.p.rapidapi.com"

// ADSBExchangeClient fetches positions from ADS-B Exchange through RapidAPI.
// Every request carries the X-RapidAPI-Key and X-RapidAPI-Host headers.
type ADSBExchangeClient struct {
	// baseURL defaults to https://<host>/v2
	baseURL string

	httpSource
}

// NewADSBExchangeClient creates a client authenticated with apiKey. An empty
// host selects DefaultADSBExchangeHost; an empty baseURL is derived from host.
func NewADSBExchangeClient(baseURL, apiKey, host string, timeout, minInterval time.Duration) *ADSBExchangeClient {
	if host == "" {
		host = DefaultADSBExchangeHost
	}
	if baseURL == "" {
		baseURL = "https://" + host + "/v2"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	header := make(http.Header)
	header.Set("X-RapidAPI-Key", apiKey)
	header.Set("X-RapidAPI-Host", host)

	return &ADSBExchangeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpSource: httpSource{
			name:       "adsbexchange",
			httpClient: &http.Client{Timeout: timeout},
			limiter:    newLimiter(minInterval),
			header:     header,
		},
	}
}

// adsbxResponse accepts both shapes the service answers with: the aircraft
// fields at the top level, or wrapped in an "ac" array.
type adsbxResponse struct {
	readsbAircraft
	readsbResponse
}

// LastPosition returns the last known position of an aircraft by its ICAO
// hex code (/v2/hex/{hex}/).
func (c *ADSBExchangeClient) LastPosition(ctx context.Context, icao string) (Position, error) {
	return c.lookup(ctx, icao, "hex", strings.ToLower(icao))
}

// PositionByRegistration returns the last known position of an aircraft by
// its registration (/v2/registration/{reg}/).
func (c *ADSBExchangeClient) PositionByRegistration(ctx context.Context, registration string) (Position, error) {
	return c.lookup(ctx, registration, "registration", strings.ToUpper(registration))
}

// PositionByCallsign returns the last known position of an aircraft by its
// callsign (/v2/callsign/{callsign}/).
func (c *ADSBExchangeClient) PositionByCallsign(ctx context.Context, callsign string) (Position, error) {
	return c.lookup(ctx, callsign, "callsign", strings.ToUpper(callsign))
}

func (c *ADSBExchangeClient) lookup(ctx context.Context, id, kind, value string) (Position, error) {
	var resp adsbxResponse
	endpoint := c.baseURL + "/" + kind + "/" + url.PathEscape(value) + "/"
	if err := c.getJSON(ctx, id, endpoint, &resp); err != nil {
		return Position{}, err
	}

	ac := resp.readsbAircraft
	if len(resp.Aircraft) > 0 {
		ac = resp.Aircraft[0]
	}
	if !ac.hasData() {
		return Position{}, &ProviderError{Source: c.name, ICAO: id, Err: ErrNoPosition}
	}

	pos, err := ac.toPosition(id, serverTime(resp.Now))
	if err != nil {
		return Position{}, &ProviderError{Source: c.name, ICAO: id, Err: err}
	}
	return pos, nil
}
