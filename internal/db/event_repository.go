package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/tracking"
)

// StoredEvent is a journal row.
type StoredEvent struct {
	ID   int64
	ICAO string
	Kind string

	// SourceIdent is empty when the source airport was unknown or absent;
	// SourceAt is zero only when absent.
	SourceIdent string
	SourceAt    time.Time

	DestinationIdent string
	DestinationAt    time.Time

	Elapsed    time.Duration
	Latitude   float64
	Longitude  float64
	OnGround   bool
	Message    string
	OccurredAt time.Time
}

// EventRepository appends flight events to the journal. It implements
// tracking.Recorder.
type EventRepository struct {
	db     *DB
	logger *log.Logger
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB, lg *log.Logger) *EventRepository {
	return &EventRepository{db: db, logger: lg}
}

// discoveryColumns maps a discovery onto its nullable ident and time columns.
func discoveryColumns(d tracking.Discovery) (sql.NullString, sql.NullInt64) {
	if d.At.IsZero() {
		return sql.NullString{}, sql.NullInt64{}
	}
	at := sql.NullInt64{Int64: d.At.UnixMilli(), Valid: true}
	if d.Unknown() {
		return sql.NullString{}, at
	}
	return sql.NullString{String: d.Ident(), Valid: true}, at
}

// Record stores ev with its formatted message.
func (r *EventRepository) Record(ctx context.Context, ev tracking.Event, message string) error {
	srcIdent, srcAt := discoveryColumns(ev.Source)
	dstIdent, dstAt := discoveryColumns(ev.Destination)

	occurred := ev.At
	if occurred.IsZero() {
		occurred = time.Now()
	}

	query := r.db.Rebind(`
		INSERT INTO flight_events (
			icao, kind, source_ident, source_at_ms, destination_ident, destination_at_ms,
			elapsed_seconds, latitude, longitude, on_ground, message, occurred_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	err := WithRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query,
			ev.ICAO, ev.Kind.String(), srcIdent, srcAt, dstIdent, dstAt,
			int64(ev.Elapsed/time.Second), ev.Position.Latitude, ev.Position.Longitude,
			ev.Position.OnGround, message, occurred.UnixMilli(),
		)
		return err
	}, 2, r.logger)
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", ev.Kind, err)
	}

	return nil
}

// Recent returns up to limit events for icao, newest first.
func (r *EventRepository) Recent(ctx context.Context, icao string, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT id, icao, kind, source_ident, source_at_ms, destination_ident, destination_at_ms,
		       elapsed_seconds, latitude, longitude, on_ground, message, occurred_at_ms
		FROM flight_events
		WHERE icao = ?
		ORDER BY occurred_at_ms DESC, id DESC
		LIMIT ?`), icao, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var ev StoredEvent
		var srcIdent, dstIdent sql.NullString
		var srcAt, dstAt sql.NullInt64
		var elapsed, occurred int64

		err := rows.Scan(&ev.ID, &ev.ICAO, &ev.Kind, &srcIdent, &srcAt, &dstIdent, &dstAt,
			&elapsed, &ev.Latitude, &ev.Longitude, &ev.OnGround, &ev.Message, &occurred)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		ev.SourceIdent = srcIdent.String
		ev.DestinationIdent = dstIdent.String
		if srcAt.Valid {
			ev.SourceAt = time.UnixMilli(srcAt.Int64).UTC()
		}
		if dstAt.Valid {
			ev.DestinationAt = time.UnixMilli(dstAt.Int64).UTC()
		}
		ev.Elapsed = time.Duration(elapsed) * time.Second
		ev.OccurredAt = time.UnixMilli(occurred).UTC()

		events = append(events, ev)
	}

	return events, rows.Err()
}
