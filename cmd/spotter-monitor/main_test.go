package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/unklstewy/plane-spotter/internal/app"
	"github.com/unklstewy/plane-spotter/pkg/airports"
	"github.com/unklstewy/plane-spotter/pkg/tracking"
)

func TestNearestLabel(t *testing.T) {
	tests := []struct {
		name string
		res  tracking.StepResult
		want string
	}{
		{"Failed poll", tracking.StepResult{Err: errors.New("timeout")}, ""},
		{"Unresolved", tracking.StepResult{}, "none within radius"},
		{"Resolved", tracking.StepResult{
			Resolved: true,
			Airport:  airports.Airport{Ident: "KPAO", Name: "Palo Alto Airport", DistanceKm: 0.42},
		}, "KPAO Palo Alto Airport (0.4 km)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nearestLabel(tt.res); got != tt.want {
				t.Errorf("nearestLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJournalSummary(t *testing.T) {
	t.Run("Counts", func(t *testing.T) {
		got := journalSummary(journalMsg{status: app.JournalStatus{
			Healthy: true,
			Events:  3,
			ByKind:  map[string]int64{"takeoff": 1, "landed": 2},
		}})
		for _, want := range []string{"3 events", "landed 2", "takeoff 1"} {
			if !strings.Contains(got, want) {
				t.Errorf("Expected %q in %q", want, got)
			}
		}
		if strings.Index(got, "landed") > strings.Index(got, "takeoff") {
			t.Errorf("Expected kinds in order, got %q", got)
		}
	})

	t.Run("Unhealthy", func(t *testing.T) {
		got := journalSummary(journalMsg{status: app.JournalStatus{Healthy: false}})
		if !strings.Contains(got, "unhealthy") {
			t.Errorf("Expected unhealthy, got %q", got)
		}
	})
}
