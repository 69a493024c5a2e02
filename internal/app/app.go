// Package app wires the configured components into a ready to run tracker.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/unklstewy/plane-spotter/internal/db"
	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/adsb"
	"github.com/unklstewy/plane-spotter/pkg/airports"
	"github.com/unklstewy/plane-spotter/pkg/config"
	"github.com/unklstewy/plane-spotter/pkg/notify"
	"github.com/unklstewy/plane-spotter/pkg/tracking"
)

// App holds the components of one tracking instance.
type App struct {
	Config   *config.Config
	Airports *airports.Index
	Runner   *tracking.Runner

	// Journal is nil unless the database is enabled
	Journal *db.EventRepository

	database *db.DB
	logger   *log.Logger
	closers  []io.Closer
}

// JournalStatus summarizes the event journal.
type JournalStatus struct {
	Healthy bool
	Events  int64

	// ByKind counts events per kind ("landed", "takeoff", ...)
	ByKind map[string]int64
}

// ErrNoJournal is returned by JournalStatus when the database is disabled.
var ErrNoJournal = errors.New("event journal is disabled")

// New loads the airport catalog and builds the provider, notifier, journal
// and runner described by cfg. cfg must already be validated.
func New(ctx context.Context, cfg *config.Config, lg *log.Logger) (*App, error) {
	a := &App{Config: cfg, logger: lg}

	idx, err := airports.Load(cfg.Airports.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load airports: %w", err)
	}
	a.Airports = idx
	lg.Info("loaded airport catalog", "path", cfg.Airports.Path, "airports", idx.Len())

	src, ok := cfg.ADSB.EnabledSource()
	if !ok {
		return nil, &config.ConfigurationError{Field: "adsb.sources", Reason: "no enabled source"}
	}
	lg.Info("instantiating ADS-B backend", "name", src.Name, "type", src.Type)
	provider, err := adsb.NewProvider(src, cfg.ADSB.Retry, lg)
	if err != nil {
		return nil, err
	}

	lg.Info("instantiating notification backend", "driver", cfg.Notification.Driver)
	notifier, err := notify.New(cfg.Notification, lg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, notifier)

	a.Runner = &tracking.Runner{
		Provider: provider,
		Tracker: tracking.NewTracker(idx, cfg.Tracker.SearchRadiusKm,
			tracking.WithLogger(lg.With("component", "tracker"))),
		Notifier: notifier,
		Formatter: &notify.Formatter{
			Aircraft: cfg.Aircraft.Registration,
			Hashtags: cfg.Notification.Hashtags,
		},
		ICAO:       cfg.Aircraft.ICAOHex,
		Interval:   cfg.Tracker.PollInterval(),
		Iterations: cfg.Tracker.Iterations,
		Logger:     lg,
	}

	if cfg.Database.Enabled {
		database, err := db.ConnectWithRetry(ctx, cfg.Database, 5, time.Second, lg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to event journal: %w", err)
		}
		a.database = database
		a.closers = append(a.closers, database)

		if err := database.InitSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}

		if retention := cfg.Database.Retention(); retention > 0 {
			deleted, err := database.CleanupOldData(ctx, retention)
			if err != nil {
				lg.Warn("failed to prune event journal", "error", err)
			} else if deleted > 0 {
				lg.Info("pruned event journal", "deleted", deleted, "retention_days", cfg.Database.RetentionDays)
			}
		}

		a.Journal = db.NewEventRepository(database, lg.With("component", "journal"))
		a.Runner.Recorder = a.Journal
		lg.Info("event journal enabled", "driver", database.Driver())
	}

	return a, nil
}

// JournalStatus checks the journal database and counts its events.
func (a *App) JournalStatus(ctx context.Context) (JournalStatus, error) {
	if a.database == nil {
		return JournalStatus{}, ErrNoJournal
	}

	st := JournalStatus{Healthy: db.HealthCheck(ctx, a.database, a.logger)}
	if !st.Healthy {
		return st, nil
	}

	stats, err := a.database.GetStats(ctx)
	if err != nil {
		return st, fmt.Errorf("failed to read journal stats: %w", err)
	}

	st.ByKind = make(map[string]int64)
	for key, v := range stats {
		n, _ := v.(int64)
		if key == "events" {
			st.Events = n
		} else if kind, ok := strings.CutSuffix(key, "_events"); ok {
			st.ByKind[kind] = n
		}
	}
	return st, nil
}

// Close releases the notifier and database connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	a.database = nil
	return errors.Join(errs...)
}
