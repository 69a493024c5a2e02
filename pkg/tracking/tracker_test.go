package tracking

import (
	"testing"
	"time"

	"github.com/unklstewy/plane-spotter/pkg/adsb"
	"github.com/unklstewy/plane-spotter/pkg/airports"
)

// Two airports far enough apart that a 50 km radius never sees both.
var (
	airportA = airports.Record{Ident: "KPAO", Type: "small_airport", Name: "Palo Alto Airport", Coordinates: "37.461101, -122.114998"}
	airportB = airports.Record{Ident: "KHHR", Type: "medium_airport", Name: "Hawthorne Municipal Airport", Coordinates: "33.922798, -118.334999"}
)

func testIndex(t *testing.T) *airports.Index {
	t.Helper()
	idx, err := airports.NewIndex([]airports.Record{airportA, airportB})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx
}

// testClock advances by one hour on every call.
func testClock() func() time.Time {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Hour)
		return now
	}
}

func groundAt(lat, lon float64) adsb.Position {
	return adsb.Position{ICAO: "a835af", Latitude: lat, Longitude: lon, OnGround: true}
}

func airborneAt(lat, lon float64) adsb.Position {
	return adsb.Position{ICAO: "a835af", Latitude: lat, Longitude: lon, AltitudeFt: 12000}
}

var (
	groundA   = groundAt(37.4611, -122.1150)
	groundB   = groundAt(33.9228, -118.3350)
	airborneA = airborneAt(37.5, -122.0)
	nowhere   = groundAt(0, 0)
)

func process(tr *Tracker, samples ...adsb.Position) []*Event {
	var events []*Event
	for _, s := range samples {
		if ev, _ := tr.Process(s); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

// TestTrackerSequences runs sample sequences through a fresh tracker.
func TestTrackerSequences(t *testing.T) {
	tests := []struct {
		name     string
		samples  []adsb.Position
		expected []EventKind
	}{
		{"Airborne then airborne", []adsb.Position{airborneA, airborneA}, nil},
		{"Ground then ground at same airport", []adsb.Position{groundA, groundA}, []EventKind{EventStationed}},
		{"Airborne then ground", []adsb.Position{airborneA, groundA}, []EventKind{EventLanded}},
		{"Ground, airborne, ground elsewhere", []adsb.Position{groundA, airborneA, groundB}, []EventKind{EventStationed, EventTakeoff, EventLanded}},
		{"Repeated airborne only takes off once", []adsb.Position{groundA, airborneA, airborneA, airborneA}, []EventKind{EventStationed, EventTakeoff}},
		{"Not near an airport", []adsb.Position{nowhere, nowhere}, nil},
		{"Ground elsewhere without takeoff sample", []adsb.Position{groundA, groundB}, []EventKind{EventStationed, EventLanded}},
		{"Round trip", []adsb.Position{groundA, airborneA, groundB, airborneA, groundA}, []EventKind{EventStationed, EventTakeoff, EventLanded, EventTakeoff, EventLanded}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(testIndex(t), 50, WithClock(testClock()))
			events := process(tr, tt.samples...)

			if len(events) != len(tt.expected) {
				t.Fatalf("Expected %d events, got %d: %v", len(tt.expected), len(events), events)
			}
			for i, ev := range events {
				if ev.Kind != tt.expected[i] {
					t.Errorf("Event %d: expected %s, got %s", i, tt.expected[i], ev.Kind)
				}
			}
		})
	}
}

// TestTrackerFirstSampleAirborne tests the unknown placeholder.
func TestTrackerFirstSampleAirborne(t *testing.T) {
	tr := NewTracker(testIndex(t), 50, WithClock(testClock()))

	ev, resolved := tr.Process(airborneA)
	if ev != nil {
		t.Fatalf("Expected no event, got %v", ev)
	}
	if !resolved {
		t.Error("Expected sample to resolve to an airport")
	}

	state := tr.State()
	if !state.InFlight {
		t.Error("Expected InFlight")
	}
	if state.LastLanded == nil || !state.LastLanded.Unknown() {
		t.Fatalf("Expected unknown last landed placeholder, got %v", state.LastLanded)
	}
	if _, ok := state.LastLanded.Airport(); ok {
		t.Error("Expected unknown discovery to carry no airport")
	}

	// Landing from the unknown placeholder reports it as the source.
	ev, _ = tr.Process(groundA)
	if ev == nil || ev.Kind != EventLanded {
		t.Fatalf("Expected landed event, got %v", ev)
	}
	if !ev.Source.Unknown() {
		t.Errorf("Expected unknown source, got %v", ev.Source)
	}
	if ev.Destination.Ident() != "KPAO" {
		t.Errorf("Expected destination KPAO, got %s", ev.Destination.Ident())
	}
	if ev.Elapsed != time.Hour {
		t.Errorf("Expected elapsed 1h, got %v", ev.Elapsed)
	}
}

// TestTrackerLandedEvent tests the source and destination of a landing.
func TestTrackerLandedEvent(t *testing.T) {
	tr := NewTracker(testIndex(t), 50, WithClock(testClock()))
	events := process(tr, groundA, airborneA, groundB)

	takeoff := events[1]
	if takeoff.Source.Ident() != "KPAO" {
		t.Errorf("Expected takeoff from KPAO, got %s", takeoff.Source.Ident())
	}

	landed := events[2]
	if landed.Source.Ident() != "KPAO" || landed.Destination.Ident() != "KHHR" {
		t.Errorf("Expected KPAO -> KHHR, got %s -> %s", landed.Source.Ident(), landed.Destination.Ident())
	}
	// Discoveries at hour 1 (stationed) and hour 3 (landed)
	if landed.Elapsed != 2*time.Hour {
		t.Errorf("Expected elapsed 2h, got %v", landed.Elapsed)
	}
	dest, ok := landed.Destination.Airport()
	if !ok || dest.DistanceKm <= 0 || dest.DistanceKm > 1 {
		t.Errorf("Expected destination with small distance, got %+v", dest)
	}

	state := tr.State()
	if state.InFlight {
		t.Error("Expected InFlight false after landing")
	}
	if state.LastLanded.Ident() != "KHHR" {
		t.Errorf("Expected last landed KHHR, got %s", state.LastLanded.Ident())
	}
}

// TestTrackerNotNearAirport tests that unresolved samples leave state alone.
func TestTrackerNotNearAirport(t *testing.T) {
	tr := NewTracker(testIndex(t), 50, WithClock(testClock()))
	process(tr, groundA, airborneA)
	before := tr.State()

	ev, resolved := tr.Process(nowhere)
	if ev != nil || resolved {
		t.Errorf("Expected no event and unresolved, got %v, %v", ev, resolved)
	}

	after := tr.State()
	if after.InFlight != before.InFlight || after.LastLanded.String() != before.LastLanded.String() {
		t.Errorf("State changed: %+v -> %+v", before, after)
	}
}

// TestTrackerReturnToDeparture tests a takeoff and landing at the same airport.
func TestTrackerReturnToDeparture(t *testing.T) {
	tr := NewTracker(testIndex(t), 50, WithClock(testClock()))
	events := process(tr, groundA, airborneA, groundA)
	if st := tr.State(); st.InFlight || st.LastLanded.Ident() != "KPAO" {
		t.Errorf("Expected on the ground at KPAO, got %+v", st)
	}
	events = append(events, process(tr, airborneA)...)

	expected := []EventKind{EventStationed, EventTakeoff, EventTakeoff}
	if len(events) != len(expected) {
		t.Fatalf("Expected %d events, got %d", len(expected), len(events))
	}
	for i, ev := range events {
		if ev.Kind != expected[i] {
			t.Errorf("Event %d: expected %s, got %s", i, expected[i], ev.Kind)
		}
	}
}

// TestTrackerStateIsCopy tests that callers cannot mutate tracker state.
func TestTrackerStateIsCopy(t *testing.T) {
	tr := NewTracker(testIndex(t), 50, WithClock(testClock()))
	process(tr, groundA)

	s := tr.State()
	*s.LastLanded = UnknownDiscovery(time.Time{})
	s.InFlight = true

	if got := tr.State(); got.LastLanded.Ident() != "KPAO" || got.InFlight {
		t.Errorf("Tracker state was mutated: %+v", got)
	}
}

// TestDiscovery tests the known and unknown flavours.
func TestDiscovery(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	known := KnownDiscovery(airports.Airport{Ident: "00AA", Name: "Aero B Ranch Airport"}, at)
	if known.Unknown() || known.Ident() != "00AA" || known.Name() != "Aero B Ranch Airport" {
		t.Errorf("Unexpected known discovery %v", known)
	}
	if known.String() != "00AA@2024-03-01T12:00:00Z" {
		t.Errorf("Unexpected String() %q", known.String())
	}

	unknown := UnknownDiscovery(at)
	if !unknown.Unknown() || unknown.Ident() != "" {
		t.Errorf("Unexpected unknown discovery %v", unknown)
	}
	if unknown.String() != "unknown@2024-03-01T12:00:00Z" {
		t.Errorf("Unexpected String() %q", unknown.String())
	}
}

func TestEventKindString(t *testing.T) {
	tests := map[EventKind]string{
		EventStationed: "stationed",
		EventTakeoff:   "takeoff",
		EventLanded:    "landed",
		EventKind(9):   "EventKind(9)",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(kind), got, want)
		}
	}
}
