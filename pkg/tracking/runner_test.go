package tracking

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/adsb"
	"github.com/unklstewy/plane-spotter/pkg/airports"
	"github.com/unklstewy/plane-spotter/pkg/coordinates"
)

// scriptedProvider replays samples in order, then repeats the last one.
type scriptedProvider struct {
	samples []adsb.Position
	errs    map[int]error
	calls   int
}

func (p *scriptedProvider) LastPosition(ctx context.Context, icao string) (adsb.Position, error) {
	i := p.calls
	p.calls++
	if err, ok := p.errs[i]; ok {
		return adsb.Position{}, err
	}
	if i >= len(p.samples) {
		i = len(p.samples) - 1
	}
	return p.samples[i], nil
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) Send(ctx context.Context, message string, lg *log.Logger) error {
	n.messages = append(n.messages, message)
	return n.err
}

type memoryRecorder struct {
	events []Event
	err    error
}

func (r *memoryRecorder) Record(ctx context.Context, ev Event, message string) error {
	r.events = append(r.events, ev)
	return r.err
}

// countingLocator counts lookups against the wrapped locator.
type countingLocator struct {
	Locator
	lookups int
}

func (l *countingLocator) Lookup(p coordinates.Point, maxDistanceKm float64) (airports.Airport, bool) {
	l.lookups++
	return l.Locator.Lookup(p, maxDistanceKm)
}

func newTestRunner(t *testing.T, provider adsb.PositionProvider, notifier Notifier) *Runner {
	return &Runner{
		Provider:   provider,
		Tracker:    NewTracker(testIndex(t), 50, WithClock(testClock())),
		Notifier:   notifier,
		ICAO:       "a835af",
		Interval:   time.Millisecond,
		Iterations: 0,
	}
}

// TestRunnerStep tests a single iteration.
func TestRunnerStep(t *testing.T) {
	t.Run("Emits and notifies", func(t *testing.T) {
		notifier := &recordingNotifier{}
		recorder := &memoryRecorder{}
		r := newTestRunner(t, &scriptedProvider{samples: []adsb.Position{groundA}}, notifier)
		r.Recorder = recorder
		r.Formatter = FormatterFunc(func(ev Event) string { return "formatted " + ev.Kind.String() })

		res := r.Step(context.Background())
		if res.Err != nil {
			t.Fatalf("Expected no error, got: %v", res.Err)
		}
		if res.Event == nil || res.Event.Kind != EventStationed {
			t.Fatalf("Expected stationed event, got %v", res.Event)
		}
		if res.Message != "formatted stationed" {
			t.Errorf("Unexpected message %q", res.Message)
		}
		if len(notifier.messages) != 1 || notifier.messages[0] != res.Message {
			t.Errorf("Expected one notification, got %v", notifier.messages)
		}
		if len(recorder.events) != 1 {
			t.Errorf("Expected one recorded event, got %d", len(recorder.events))
		}
	})

	t.Run("Provider error leaves state untouched", func(t *testing.T) {
		notifier := &recordingNotifier{}
		provider := &scriptedProvider{
			samples: []adsb.Position{groundA},
			errs:    map[int]error{0: &adsb.ProviderError{Source: "test", Err: errors.New("timeout")}},
		}
		r := newTestRunner(t, provider, notifier)

		res := r.Step(context.Background())
		var perr *adsb.ProviderError
		if !errors.As(res.Err, &perr) {
			t.Fatalf("Expected ProviderError, got %v", res.Err)
		}
		if r.Tracker.State().LastLanded != nil {
			t.Error("Expected tracker state untouched")
		}
		if len(notifier.messages) != 0 {
			t.Error("Expected no notification")
		}
	})

	t.Run("Default message", func(t *testing.T) {
		r := newTestRunner(t, &scriptedProvider{samples: []adsb.Position{groundA}}, nil)
		res := r.Step(context.Background())
		if res.Message != "a835af stationed at KPAO" {
			t.Errorf("Unexpected message %q", res.Message)
		}
	})

	t.Run("Fills in missing ICAO", func(t *testing.T) {
		sample := groundA
		sample.ICAO = ""
		r := newTestRunner(t, &scriptedProvider{samples: []adsb.Position{sample}}, nil)
		res := r.Step(context.Background())
		if res.Event == nil || res.Event.ICAO != "a835af" {
			t.Errorf("Expected event for a835af, got %v", res.Event)
		}
	})
}

// TestRunnerStepAirport tests that a step reports the airport it resolved.
func TestRunnerStepAirport(t *testing.T) {
	locator := &countingLocator{Locator: testIndex(t)}
	r := newTestRunner(t, &scriptedProvider{samples: []adsb.Position{groundA, groundA, nowhere}}, nil)
	r.Tracker = NewTracker(locator, 50, WithClock(testClock()))

	res := r.Step(context.Background())
	if !res.Resolved || res.Airport.Ident != "KPAO" {
		t.Errorf("Expected KPAO, got %+v", res.Airport)
	}
	if res.Event == nil || res.Event.Destination.Ident() != "KPAO" {
		t.Errorf("Expected stationed event at KPAO, got %v", res.Event)
	}

	// no event, airport still reported
	res = r.Step(context.Background())
	if res.Event != nil || res.Airport.Ident != "KPAO" {
		t.Errorf("Expected KPAO without event, got %+v", res)
	}

	res = r.Step(context.Background())
	if res.Resolved || res.Airport.Ident != "" {
		t.Errorf("Expected no airport, got %+v", res.Airport)
	}

	if locator.lookups != 3 {
		t.Errorf("Expected one lookup per step, got %d", locator.lookups)
	}
}

// TestRunnerRun tests the iteration budget.
func TestRunnerRun(t *testing.T) {
	t.Run("Bounded run", func(t *testing.T) {
		notifier := &recordingNotifier{}
		provider := &scriptedProvider{samples: []adsb.Position{groundA, airborneA, groundB}}
		r := newTestRunner(t, provider, notifier)
		r.Iterations = 3

		if err := r.Run(context.Background()); err != nil {
			t.Fatalf("Expected nil error, got: %v", err)
		}
		if provider.calls != 3 {
			t.Errorf("Expected 3 fetches, got %d", provider.calls)
		}
		if len(notifier.messages) != 3 {
			t.Errorf("Expected 3 notifications, got %d: %v", len(notifier.messages), notifier.messages)
		}
	})

	t.Run("Skipped iterations count", func(t *testing.T) {
		provider := &scriptedProvider{
			samples: []adsb.Position{nowhere, nowhere, nowhere, groundA},
			errs:    map[int]error{1: &adsb.ProviderError{Source: "test", Err: adsb.ErrNoPosition}},
		}
		r := newTestRunner(t, provider, &recordingNotifier{})
		r.Iterations = 3

		if err := r.Run(context.Background()); err != nil {
			t.Fatalf("Expected nil error, got: %v", err)
		}
		if provider.calls != 3 {
			t.Errorf("Expected 3 fetches, got %d", provider.calls)
		}
		if r.Tracker.State().LastLanded != nil {
			t.Error("Expected no resolved sample")
		}
	})

	t.Run("Notifier and recorder failures do not stop the loop", func(t *testing.T) {
		var buf bytes.Buffer
		notifier := &recordingNotifier{err: errors.New("send failed")}
		provider := &scriptedProvider{samples: []adsb.Position{groundA, airborneA, groundB}}
		r := newTestRunner(t, provider, notifier)
		r.Recorder = &memoryRecorder{err: errors.New("disk full")}
		r.Logger = log.NewWithWriter(&buf, "info")
		r.Iterations = 3

		if err := r.Run(context.Background()); err != nil {
			t.Fatalf("Expected nil error, got: %v", err)
		}
		if len(notifier.messages) != 3 {
			t.Errorf("Expected 3 send attempts, got %d", len(notifier.messages))
		}
		if !strings.Contains(buf.String(), "failed to send notification") {
			t.Error("Expected send failure to be logged")
		}
		if !strings.Contains(buf.String(), "failed to record event") {
			t.Error("Expected record failure to be logged")
		}
	})

	t.Run("Cancellation", func(t *testing.T) {
		provider := &scriptedProvider{samples: []adsb.Position{airborneA}}
		r := newTestRunner(t, provider, nil)
		r.Interval = time.Hour

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := r.Run(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Expected context.DeadlineExceeded, got %v", err)
		}
		if time.Since(start) > time.Second {
			t.Error("Expected cancellation to interrupt the sleep")
		}
		if provider.calls != 1 {
			t.Errorf("Expected 1 fetch, got %d", provider.calls)
		}
	})

	t.Run("Already cancelled", func(t *testing.T) {
		provider := &scriptedProvider{samples: []adsb.Position{airborneA}}
		r := newTestRunner(t, provider, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
		if provider.calls != 0 {
			t.Errorf("Expected no fetch, got %d", provider.calls)
		}
	})
}
