package adsb

import (
	"fmt"

	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/config"
)

// Source types understood by NewProvider.
const (
	SourceAirplanesLive = "airplanes.live"
	SourceADSBExchange  = "adsbexchange"
)

// NewProvider builds the client for src, wrapped with retries when
// retry.MaxRetries is positive.
func NewProvider(src config.ADSBSource, retry config.RetrySettings, lg *log.Logger) (PositionProvider, error) {
	var p PositionProvider
	switch src.Type {
	case SourceAirplanesLive:
		p = NewAirplanesLiveClient(src.BaseURL, src.Timeout(), src.RateLimit())
	case SourceADSBExchange:
		p = NewADSBExchangeClient(src.BaseURL, src.APIKey, src.APIHost, src.Timeout(), src.RateLimit())
	default:
		return nil, &config.ConfigurationError{
			Field:  "adsb.sources.type",
			Reason: fmt.Sprintf("backend not known: %s", src.Type),
		}
	}

	if retry.MaxRetries > 0 {
		p = NewRetryingProvider(p, RetryConfigFromSettings(retry, lg.With("source", src.Name)))
	}
	return p, nil
}
