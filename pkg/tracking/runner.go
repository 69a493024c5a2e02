package tracking

import (
	"context"
	"time"

	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/adsb"
	"github.com/unklstewy/plane-spotter/pkg/airports"
)

// Notifier delivers a formatted event message.
type Notifier interface {
	Send(ctx context.Context, message string, lg *log.Logger) error
}

// Recorder stores emitted events.
type Recorder interface {
	Record(ctx context.Context, ev Event, message string) error
}

// Formatter renders an event as a notification message.
type Formatter interface {
	Format(ev Event) string
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(ev Event) string

func (f FormatterFunc) Format(ev Event) string {
	return f(ev)
}

// StepResult describes one iteration of the runner.
type StepResult struct {
	// Position is the fetched sample; zero when Err is set
	Position adsb.Position

	// Resolved is false when the aircraft was not near any airport
	Resolved bool

	// Airport is the nearest airport when Resolved
	Airport airports.Airport

	// Event is the emitted event, or nil
	Event *Event

	// Message is the formatted event text
	Message string

	// Err is the provider failure that skipped this iteration
	Err error
}

// Runner polls a position provider and feeds a tracker, notifying about
// every event. Notifier, Recorder, Formatter and Logger are optional.
type Runner struct {
	Provider  adsb.PositionProvider
	Tracker   *Tracker
	Notifier  Notifier
	Recorder  Recorder
	Formatter Formatter

	// ICAO is the hex address of the tracked aircraft
	ICAO string

	// Interval is the pause after each iteration
	Interval time.Duration

	// Iterations bounds the number of iterations; <= 0 runs until the
	// context is cancelled.
	Iterations int

	Logger *log.Logger
}

// Step runs a single fetch, resolve, transition and notify cycle.
func (r *Runner) Step(ctx context.Context) StepResult {
	lg := r.Logger.With("icao", r.ICAO)

	pos, err := r.Provider.LastPosition(ctx, r.ICAO)
	if err != nil {
		lg.Warn("failed to fetch position", "error", err)
		return StepResult{Err: err}
	}
	lg.Info("Plane last known location", "lat", pos.Latitude, "lon", pos.Longitude, "on_ground", pos.OnGround)

	if pos.ICAO == "" {
		pos.ICAO = r.ICAO
	}

	res := StepResult{Position: pos}
	ap, ok := r.Tracker.Resolve(pos)
	if !ok {
		return res
	}
	res.Resolved = true
	res.Airport = ap

	ev := r.Tracker.Apply(pos, ap)
	if ev == nil {
		return res
	}
	res.Event = ev

	res.Message = r.format(*ev)

	if r.Notifier != nil {
		if err := r.Notifier.Send(ctx, res.Message, lg); err != nil {
			lg.Warn("failed to send notification", "event", ev.Kind.String(), "error", err)
		}
	}
	if r.Recorder != nil {
		if err := r.Recorder.Record(ctx, *ev, res.Message); err != nil {
			lg.Warn("failed to record event", "event", ev.Kind.String(), "error", err)
		}
	}

	return res
}

func (r *Runner) format(ev Event) string {
	if r.Formatter == nil {
		return ev.String()
	}
	return r.Formatter.Format(ev)
}

// Run calls Step until the iteration budget is used up or ctx is cancelled,
// sleeping Interval between iterations. Iterations that fail to fetch or
// find no airport still count. It returns nil when the budget is used up
// and ctx.Err() on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	r.Logger.Info("starting tracker", "icao", r.ICAO, "interval", r.Interval, "iterations", r.Iterations)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for i := 0; r.Iterations <= 0 || i < r.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.Step(ctx)

		if r.Iterations > 0 && i == r.Iterations-1 {
			break
		}

		if timer == nil {
			timer = time.NewTimer(r.Interval)
		} else {
			timer.Reset(r.Interval)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	r.Logger.Info("iteration budget exhausted", "icao", r.ICAO, "iterations", r.Iterations)
	return nil
}
