package tracking

import (
	"time"

	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/adsb"
	"github.com/unklstewy/plane-spotter/pkg/airports"
	"github.com/unklstewy/plane-spotter/pkg/coordinates"
)

// Locator finds the nearest airport within a radius. It is satisfied by
// *airports.Index.
type Locator interface {
	Lookup(p coordinates.Point, maxDistanceKm float64) (airports.Airport, bool)
}

// State is the flight state of the tracked aircraft.
type State struct {
	// LastLanded is nil until the first sample near an airport. Once set it
	// is only ever replaced.
	LastLanded *Discovery

	// InFlight is whether the aircraft was last seen airborne
	InFlight bool
}

// Tracker is the flight state machine for one aircraft. It is not safe for
// concurrent use.
type Tracker struct {
	locator  Locator
	radiusKm float64
	now      func() time.Time
	logger   *log.Logger

	state State
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock sets the clock used to timestamp discoveries.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithLogger sets the logger for state transitions.
func WithLogger(lg *log.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = lg
	}
}

// NewTracker returns a tracker with no prior landing that resolves
// positions against locator within radiusKm.
func NewTracker(locator Locator, radiusKm float64, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		locator:  locator,
		radiusKm: radiusKm,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	s := t.state
	if s.LastLanded != nil {
		d := *s.LastLanded
		s.LastLanded = &d
	}
	return s
}

// Resolve finds the airport nearest to pos within the search radius.
func (t *Tracker) Resolve(pos adsb.Position) (airports.Airport, bool) {
	ap, ok := t.locator.Lookup(pos.Point(), t.radiusKm)
	if !ok {
		t.logger.Info("not near any known airport", "icao", pos.ICAO, "lat", pos.Latitude, "lon", pos.Longitude)
		return airports.Airport{}, false
	}
	t.logger.Debug("nearest airport", "icao", pos.ICAO, "ident", ap.Ident, "name", ap.Name, "distance_km", ap.DistanceKm)
	return ap, true
}

// Process applies one position sample and returns the event it caused, if
// any. resolved is false when no airport is within the search radius, in
// which case the state is left untouched.
//
// A ground sample at the airport the aircraft last departed from raises no
// event but clears InFlight, so a later airborne sample reports another
// takeoff. This intentionally departs from clearing InFlight only on a new
// landing, which would suppress that takeoff.
func (t *Tracker) Process(pos adsb.Position) (ev *Event, resolved bool) {
	ap, ok := t.Resolve(pos)
	if !ok {
		return nil, false
	}
	return t.Apply(pos, ap), true
}

// Apply advances the state with a sample already resolved to ap, as
// returned by Resolve, and returns the event it caused, if any.
func (t *Tracker) Apply(pos adsb.Position, ap airports.Airport) *Event {
	lg := t.logger.With("icao", pos.ICAO)

	now := t.now()

	if t.state.LastLanded == nil {
		if pos.OnGround {
			d := KnownDiscovery(ap, now)
			t.state.LastLanded = &d
			t.state.InFlight = false
			lg.Info("discovered first airport aircraft has landed at", "ident", ap.Ident)
			return &Event{Kind: EventStationed, ICAO: pos.ICAO, Destination: d, Position: pos, At: now}
		}

		d := UnknownDiscovery(now)
		t.state.LastLanded = &d
		t.state.InFlight = true
		lg.Info("aircraft is still in flight. Unknown last landed airport.")
		return nil
	}

	// Airborne samples never update the landing site.
	if !pos.OnGround {
		if t.state.InFlight {
			lg.Debug("aircraft still in flight")
			return nil
		}
		t.state.InFlight = true
		lg.Info("aircraft has taken off", "from", t.state.LastLanded.Ident())
		return &Event{Kind: EventTakeoff, ICAO: pos.ICAO, Source: *t.state.LastLanded, Position: pos, At: now}
	}

	prev := *t.state.LastLanded
	if !prev.Unknown() && prev.Ident() == ap.Ident {
		if t.state.InFlight {
			// Returned to the departure airport; nothing to report but the
			// next takeoff must be.
			t.state.InFlight = false
			lg.Info("aircraft landed back at", "ident", ap.Ident)
		} else {
			lg.Info("airplane hasn't moved", "ident", ap.Ident)
		}
		return nil
	}

	dest := KnownDiscovery(ap, now)
	t.state.InFlight = false
	t.state.LastLanded = &dest
	lg.Info("airplane landed at airport", "ident", ap.Ident, "from", prev.Ident())

	return &Event{
		Kind:        EventLanded,
		ICAO:        pos.ICAO,
		Source:      prev,
		Destination: dest,
		Elapsed:     dest.At.Sub(prev.At),
		Position:    pos,
		At:          now,
	}
}
