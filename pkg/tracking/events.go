package tracking

import (
	"fmt"
	"time"

	"github.com/unklstewy/plane-spotter/pkg/adsb"
)

// EventKind identifies a flight state transition.
type EventKind int

const (
	// EventStationed is the first sighting of the aircraft on the ground.
	EventStationed EventKind = iota + 1

	// EventTakeoff is emitted when a grounded aircraft is seen airborne.
	EventTakeoff

	// EventLanded is emitted when the aircraft is seen on the ground at a
	// different airport than where it last landed.
	EventLanded
)

func (k EventKind) String() string {
	switch k {
	case EventStationed:
		return "stationed"
	case EventTakeoff:
		return "takeoff"
	case EventLanded:
		return "landed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a flight state transition.
type Event struct {
	Kind EventKind
	ICAO string

	// Source is where the aircraft last landed. Set for takeoff and landed
	// events; may be an unknown discovery.
	Source Discovery

	// Destination is where the aircraft is now. Set for stationed and
	// landed events.
	Destination Discovery

	// Elapsed is the time between the source and destination discoveries of
	// a landed event.
	Elapsed time.Duration

	// Position is the sample that triggered the event
	Position adsb.Position

	// At is when the event was emitted
	At time.Time
}

func (e Event) String() string {
	switch e.Kind {
	case EventStationed:
		return fmt.Sprintf("%s stationed at %s", e.ICAO, e.Destination.Ident())
	case EventTakeoff:
		return fmt.Sprintf("%s took off from %s", e.ICAO, e.Source.Name())
	case EventLanded:
		return fmt.Sprintf("%s landed at %s from %s after %s", e.ICAO,
			e.Destination.Ident(), e.Source.Name(), e.Elapsed.Round(time.Second))
	default:
		return fmt.Sprintf("%s %s", e.ICAO, e.Kind)
	}
}
