// Package notify formats flight events and delivers them to notification
// backends.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/unklstewy/plane-spotter/pkg/airports"
	"github.com/unklstewy/plane-spotter/pkg/tracking"
)

// Formatter renders events as human readable posts.
type Formatter struct {
	// Aircraft names the aircraft in messages; the event ICAO is used when
	// empty
	Aircraft string

	// Hashtags are appended on a final line, e.g. "#elonjet"
	Hashtags []string

	// Location is the zone timestamps are shown in; UTC when nil
	Location *time.Location
}

// Format implements tracking.Formatter.
func (f *Formatter) Format(ev tracking.Event) string {
	var b strings.Builder

	name := f.Aircraft
	if name == "" {
		name = strings.ToUpper(ev.ICAO)
	}

	switch ev.Kind {
	case tracking.EventStationed:
		fmt.Fprintf(&b, "%s spotted at %s at %s\n", name, ev.Destination.Name(), f.timestamp(ev.Destination.At))
		if ap, ok := ev.Destination.Airport(); ok {
			b.WriteString("\n")
			writeAirport(&b, ap)
		}

	case tracking.EventTakeoff:
		fmt.Fprintf(&b, "%s has taken off from %s at %s\n", name, ev.Source.Name(), f.timestamp(ev.At))
		if ap, ok := ev.Source.Airport(); ok {
			b.WriteString("\n")
			writeAirport(&b, ap)
		}

	case tracking.EventLanded:
		fmt.Fprintf(&b, "%s landed at %s at %s\n", name, ev.Destination.Name(), f.timestamp(ev.Destination.At))
		b.WriteString("\n")
		if ev.Source.Unknown() {
			b.WriteString("From: unknown\n")
		} else {
			fmt.Fprintf(&b, "From: %s (%s)\n", ev.Source.Name(), ev.Source.Ident())
			fmt.Fprintf(&b, "Flight Time: %s\n", FormatDuration(ev.Elapsed))
		}
		if ap, ok := ev.Destination.Airport(); ok {
			writeAirport(&b, ap)
		}

	default:
		b.WriteString(ev.String())
		b.WriteString("\n")
	}

	if len(f.Hashtags) > 0 {
		b.WriteString("\n")
		b.WriteString(f.hashtags())
	}

	return strings.TrimRight(b.String(), "\n")
}

func (f *Formatter) timestamp(t time.Time) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02 15:04 MST")
}

func (f *Formatter) hashtags() string {
	tags := make([]string, 0, len(f.Hashtags))
	for _, tag := range f.Hashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	return strings.Join(tags, " ")
}

func writeAirport(b *strings.Builder, ap airports.Airport) {
	fmt.Fprintf(b, "Ident: %s\n", ap.Ident)
	fmt.Fprintf(b, "Country: %s\n", ap.ISOCountry)
	fmt.Fprintf(b, "ISO Region: %s\n", ap.ISORegion)
	fmt.Fprintf(b, "Municipality: %s\n", ap.Municipality)
	fmt.Fprintf(b, "Distance To Airport (Km): %.2f\n", ap.DistanceKm)
}

// FormatDuration renders d as "3h 05m", or "12m" below an hour.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}
