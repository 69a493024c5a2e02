package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/unklstewy/plane-spotter/internal/db"
	"github.com/unklstewy/plane-spotter/pkg/airports"
	"github.com/unklstewy/plane-spotter/pkg/config"
	"github.com/unklstewy/plane-spotter/pkg/tracking"
)

const testCatalog = "../../pkg/airports/testdata/airports.csv"

// groundAtPaloAlto serves a readsb style body with the aircraft on the
// ground at KPAO.
func groundAtPaloAlto(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hex/a835af" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"ac":[{"hex":"a835af","r":"N628TS","lat":37.4611,"lon":-122.1150,"alt_baro":"ground","gs":0,"seen_pos":1.5}],"msg":"No error","now":1700000000000,"total":1}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Aircraft = config.AircraftConfig{ICAOHex: "a835af", Registration: "N628TS"}
	cfg.ADSB.Sources = []config.ADSBSource{
		{Name: "test", Type: "airplanes.live", Enabled: true, BaseURL: baseURL},
	}
	cfg.ADSB.Retry.MaxRetries = 0
	cfg.Airports.Path = testCatalog
	cfg.Tracker.SearchRadiusKm = 10
	cfg.Notification.Driver = "log"
	cfg.Notification.Hashtags = []string{"planespotting"}
	return cfg
}

// TestNew tests wiring a runner from configuration.
func TestNew(t *testing.T) {
	server := groundAtPaloAlto(t)

	t.Run("Without journal", func(t *testing.T) {
		cfg := testConfig(t, server.URL)

		a, err := New(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer a.Close()

		if a.Journal != nil {
			t.Error("Expected no journal when the database is disabled")
		}
		if a.Runner.Recorder != nil {
			t.Error("Expected no recorder when the database is disabled")
		}
		if a.Airports.Len() == 0 {
			t.Error("Expected airports to be loaded")
		}

		res := a.Runner.Step(context.Background())
		if res.Err != nil {
			t.Fatalf("Step: %v", res.Err)
		}
		if res.Event == nil || res.Event.Kind != tracking.EventStationed {
			t.Fatalf("Expected stationed event, got %+v", res.Event)
		}
		if !strings.HasPrefix(res.Message, "N628TS spotted at Palo Alto Airport") {
			t.Errorf("Unexpected message %q", res.Message)
		}
		if !strings.HasSuffix(res.Message, "#planespotting") {
			t.Errorf("Expected hashtags at the end of %q", res.Message)
		}
	})

	t.Run("With journal", func(t *testing.T) {
		cfg := testConfig(t, server.URL)
		cfg.Database.Enabled = true
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = filepath.Join(t.TempDir(), "journal.db")

		a, err := New(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer a.Close()

		if a.Journal == nil {
			t.Fatal("Expected journal")
		}

		a.Runner.Step(context.Background())
		a.Runner.Step(context.Background())

		events, err := a.Journal.Recent(context.Background(), "a835af", 10)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(events) != 1 || events[0].Kind != "stationed" || events[0].DestinationIdent != "KPAO" {
			t.Errorf("Expected one stationed event at KPAO, got %+v", events)
		}
	})

	t.Run("Missing catalog", func(t *testing.T) {
		cfg := testConfig(t, server.URL)
		cfg.Airports.Path = filepath.Join(t.TempDir(), "missing.csv")

		if _, err := New(context.Background(), cfg, nil); err == nil {
			t.Error("Expected error for missing catalog")
		}
	})

	t.Run("Unknown notification driver", func(t *testing.T) {
		cfg := testConfig(t, server.URL)
		cfg.Notification.Driver = "carrier-pigeon"

		_, err := New(context.Background(), cfg, nil)
		var cerr *config.ConfigurationError
		if !errors.As(err, &cerr) {
			t.Errorf("Expected ConfigurationError, got %v", err)
		}
	})
}

// seedJournal records a stationed event at KHHR that occurred at.
func seedJournal(t *testing.T, cfg config.DatabaseConfig, at time.Time) {
	t.Helper()
	ctx := context.Background()

	database, err := db.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer database.Close()
	if err := database.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}

	ev := tracking.Event{
		Kind:        tracking.EventStationed,
		ICAO:        "a835af",
		Destination: tracking.KnownDiscovery(airports.Airport{Ident: "KHHR"}, at),
		At:          at,
	}
	if err := db.NewEventRepository(database, nil).Record(ctx, ev, ev.String()); err != nil {
		t.Fatalf("Record: %v", err)
	}
}

// TestJournalRetention tests pruning old journal entries at startup.
func TestJournalRetention(t *testing.T) {
	server := groundAtPaloAlto(t)

	tests := []struct {
		name          string
		retentionDays int
		wantEvents    int
	}{
		{"Old entries pruned", 30, 1},
		{"Retention disabled", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, server.URL)
			cfg.Database.Enabled = true
			cfg.Database.Driver = "sqlite"
			cfg.Database.Path = filepath.Join(t.TempDir(), "journal.db")
			cfg.Database.RetentionDays = tt.retentionDays

			seedJournal(t, cfg.Database, time.Now().AddDate(-1, 0, 0))
			seedJournal(t, cfg.Database, time.Now().Add(-time.Hour))

			a, err := New(context.Background(), cfg, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer a.Close()

			events, err := a.Journal.Recent(context.Background(), "a835af", 10)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if len(events) != tt.wantEvents {
				t.Errorf("Expected %d events, got %d", tt.wantEvents, len(events))
			}
		})
	}
}

// TestJournalStatus tests the journal health and counts.
func TestJournalStatus(t *testing.T) {
	server := groundAtPaloAlto(t)

	t.Run("Disabled", func(t *testing.T) {
		a, err := New(context.Background(), testConfig(t, server.URL), nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer a.Close()

		if _, err := a.JournalStatus(context.Background()); !errors.Is(err, ErrNoJournal) {
			t.Errorf("Expected ErrNoJournal, got %v", err)
		}
	})

	t.Run("Counts events", func(t *testing.T) {
		cfg := testConfig(t, server.URL)
		cfg.Database.Enabled = true
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = filepath.Join(t.TempDir(), "journal.db")

		a, err := New(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer a.Close()

		a.Runner.Step(context.Background())

		st, err := a.JournalStatus(context.Background())
		if err != nil {
			t.Fatalf("JournalStatus: %v", err)
		}
		if !st.Healthy {
			t.Error("Expected healthy journal")
		}
		if st.Events != 1 || st.ByKind["stationed"] != 1 {
			t.Errorf("Expected one stationed event, got %+v", st)
		}
	})

	t.Run("Closed", func(t *testing.T) {
		cfg := testConfig(t, server.URL)
		cfg.Database.Enabled = true
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = filepath.Join(t.TempDir(), "journal.db")

		a, err := New(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		a.Close()

		if _, err := a.JournalStatus(context.Background()); !errors.Is(err, ErrNoJournal) {
			t.Errorf("Expected ErrNoJournal after Close, got %v", err)
		}
	})
}
