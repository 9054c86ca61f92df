// Package store persists planned events and raw evidence rows in a local
// SQLite database, one logical namespace per (user, day). It is the only
// component that touches disk; everything above it works on in-memory
// snapshots.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/dayrec-dev/dayrec/pkg/evidence"
	"github.com/dayrec-dev/dayrec/pkg/timeline"
)

// Store wraps the SQLite handle. Safe for concurrent use; database/sql does
// the pooling.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open opens (creating if needed) the database at path and runs migrations.
// Use ":memory:" for an ephemeral store.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.logger.Debug("database initialized", "path", path)
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS planned_events (
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		category TEXT NOT NULL,
		start_minutes INTEGER NOT NULL,
		duration INTEGER NOT NULL,
		source TEXT,
		kind TEXT,
		derivation TEXT,
		confidence REAL DEFAULT 0,
		seq INTEGER DEFAULT 0,
		PRIMARY KEY (user_id, day, id)
	);

	CREATE INDEX IF NOT EXISTS idx_planned_user_day ON planned_events(user_id, day);

	CREATE TABLE IF NOT EXISTS location_hourly (
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		hour INTEGER NOT NULL,
		place_id TEXT,
		place_label TEXT NOT NULL,
		place_category TEXT,
		samples INTEGER DEFAULT 0,
		PRIMARY KEY (user_id, day, hour)
	);

	CREATE TABLE IF NOT EXISTS screen_sessions (
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		app TEXT NOT NULL,
		start_minutes INTEGER NOT NULL,
		end_minutes INTEGER NOT NULL,
		PRIMARY KEY (user_id, day, app, start_minutes)
	);

	CREATE TABLE IF NOT EXISTS screen_app_hourly (
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		app TEXT NOT NULL,
		hour INTEGER NOT NULL,
		seconds INTEGER NOT NULL,
		PRIMARY KEY (user_id, day, app, hour)
	);

	CREATE TABLE IF NOT EXISTS screen_hourly (
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		hour INTEGER NOT NULL,
		seconds INTEGER NOT NULL,
		PRIMARY KEY (user_id, day, hour)
	);

	CREATE TABLE IF NOT EXISTS workouts (
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		start_minutes INTEGER NOT NULL,
		end_minutes INTEGER NOT NULL,
		activity TEXT NOT NULL,
		PRIMARY KEY (user_id, day, start_minutes, activity)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// withRetry runs op with backoff, for transient SQLITE_BUSY-style failures
// when another process holds the write lock.
func (s *Store) withRetry(ctx context.Context, what string, op func() error) error {
	return retry.Do(op,
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Debug("retrying query", "what", what, "attempt", n+1, "error", err)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

// PlannedEventsForDay loads the day's planned/stored events in insertion
// order (seq, then start).
func (s *Store) PlannedEventsForDay(ctx context.Context, userID, day string) ([]timeline.ScheduledEvent, error) {
	var events []timeline.ScheduledEvent
	err := s.withRetry(ctx, "planned_events", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, title, description, category, start_minutes, duration,
			       source, kind, derivation, confidence
			FROM planned_events
			WHERE user_id = ? AND day = ?
			ORDER BY seq, start_minutes
		`, userID, day)
		if err != nil {
			return err
		}
		defer rows.Close()

		events = events[:0]
		for rows.Next() {
			var e timeline.ScheduledEvent
			var desc, source, kind, derivation sql.NullString
			var cat string
			if err := rows.Scan(&e.ID, &e.Title, &desc, &cat,
				&e.Interval.StartMinutes, &e.Interval.Duration,
				&source, &kind, &derivation, &e.Meta.Confidence); err != nil {
				return err
			}
			e.Description = desc.String
			e.Category = timeline.ParseCategory(cat)
			e.Meta.Source = timeline.Source(source.String)
			e.Meta.Kind = kind.String
			e.Meta.Derivation = timeline.DerivationKind(derivation.String)
			events = append(events, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load planned events: %w", err)
	}
	return events, nil
}

// SavePlannedEvents upserts the day's events, preserving insertion order via
// the seq column.
func (s *Store) SavePlannedEvents(ctx context.Context, userID, day string, events []timeline.ScheduledEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO planned_events (user_id, day, id, title, description, category,
			start_minutes, duration, source, kind, derivation, confidence, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day, id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			category = excluded.category,
			start_minutes = excluded.start_minutes,
			duration = excluded.duration,
			source = excluded.source,
			kind = excluded.kind,
			derivation = excluded.derivation,
			confidence = excluded.confidence,
			seq = excluded.seq
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range events {
		if _, err := stmt.Exec(userID, day, e.ID, e.Title, e.Description,
			string(e.Category), e.Interval.StartMinutes, e.Interval.Duration,
			string(e.Meta.Source), e.Meta.Kind, string(e.Meta.Derivation),
			e.Meta.Confidence, i); err != nil {
			return fmt.Errorf("save event %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// EvidenceForDay assembles the day's evidence bundle. Screen granularity is
// picked once: precise sessions if any exist, then per-app hourly, then the
// aggregate hourly table.
func (s *Store) EvidenceForDay(ctx context.Context, userID, day string) (*evidence.Bundle, error) {
	location, err := s.locationForDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	screen, err := s.screenForDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	workouts, err := s.workoutsForDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	return evidence.NewBundle(location, screen, workouts), nil
}

func (s *Store) locationForDay(ctx context.Context, userID, day string) ([]evidence.LocationHour, error) {
	var out []evidence.LocationHour
	err := s.withRetry(ctx, "location_hourly", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT hour, place_id, place_label, place_category, samples
			FROM location_hourly
			WHERE user_id = ? AND day = ?
			ORDER BY hour
		`, userID, day)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var l evidence.LocationHour
			var placeID, placeCategory sql.NullString
			if err := rows.Scan(&l.Hour, &placeID, &l.PlaceLabel, &placeCategory, &l.Samples); err != nil {
				return err
			}
			l.PlaceID = placeID.String
			l.PlaceCategory = placeCategory.String
			out = append(out, l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	return out, nil
}

func (s *Store) screenForDay(ctx context.Context, userID, day string) (evidence.ScreenTime, error) {
	var sessions []evidence.AppSession
	err := s.withRetry(ctx, "screen_sessions", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT app, start_minutes, end_minutes
			FROM screen_sessions
			WHERE user_id = ? AND day = ?
			ORDER BY start_minutes
		`, userID, day)
		if err != nil {
			return err
		}
		defer rows.Close()

		sessions = sessions[:0]
		for rows.Next() {
			var sess evidence.AppSession
			if err := rows.Scan(&sess.App, &sess.StartMinutes, &sess.EndMinutes); err != nil {
				return err
			}
			sessions = append(sessions, sess)
		}
		return rows.Err()
	})
	if err != nil {
		return evidence.ScreenTime{}, fmt.Errorf("load screen sessions: %w", err)
	}
	if len(sessions) > 0 {
		return evidence.ScreenFromSessions(sessions), nil
	}

	var hourly []evidence.AppHourlyRow
	err = s.withRetry(ctx, "screen_app_hourly", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT app, hour, seconds
			FROM screen_app_hourly
			WHERE user_id = ? AND day = ?
			ORDER BY hour, app
		`, userID, day)
		if err != nil {
			return err
		}
		defer rows.Close()

		hourly = hourly[:0]
		for rows.Next() {
			var r evidence.AppHourlyRow
			if err := rows.Scan(&r.App, &r.Hour, &r.Seconds); err != nil {
				return err
			}
			hourly = append(hourly, r)
		}
		return rows.Err()
	})
	if err != nil {
		return evidence.ScreenTime{}, fmt.Errorf("load app hourly: %w", err)
	}
	if len(hourly) > 0 {
		return evidence.ScreenFromAppHourly(hourly), nil
	}

	var aggregate [24]int
	found := false
	err = s.withRetry(ctx, "screen_hourly", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT hour, seconds
			FROM screen_hourly
			WHERE user_id = ? AND day = ?
		`, userID, day)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var hour, seconds int
			if err := rows.Scan(&hour, &seconds); err != nil {
				return err
			}
			if hour >= 0 && hour < 24 {
				aggregate[hour] = seconds
				found = true
			}
		}
		return rows.Err()
	})
	if err != nil {
		return evidence.ScreenTime{}, fmt.Errorf("load aggregate hourly: %w", err)
	}
	if found {
		return evidence.ScreenFromAggregate(aggregate), nil
	}
	return evidence.ScreenTime{}, nil
}

func (s *Store) workoutsForDay(ctx context.Context, userID, day string) ([]evidence.Workout, error) {
	var out []evidence.Workout
	err := s.withRetry(ctx, "workouts", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT start_minutes, end_minutes, activity
			FROM workouts
			WHERE user_id = ? AND day = ?
			ORDER BY start_minutes
		`, userID, day)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var w evidence.Workout
			if err := rows.Scan(&w.StartMinutes, &w.EndMinutes, &w.Activity); err != nil {
				return err
			}
			out = append(out, w)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load workouts: %w", err)
	}
	return out, nil
}

// SaveLocationHours upserts hourly location rows.
func (s *Store) SaveLocationHours(ctx context.Context, userID, day string, rows []evidence.LocationHour) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO location_hourly (user_id, day, hour, place_id, place_label, place_category, samples)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day, hour) DO UPDATE SET
			place_id = excluded.place_id,
			place_label = excluded.place_label,
			place_category = excluded.place_category,
			samples = excluded.samples
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range rows {
		if _, err := stmt.Exec(userID, day, l.Hour, l.PlaceID, l.PlaceLabel, l.PlaceCategory, l.Samples); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveScreenSessions upserts precise per-app sessions.
func (s *Store) SaveScreenSessions(ctx context.Context, userID, day string, sessions []evidence.AppSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO screen_sessions (user_id, day, app, start_minutes, end_minutes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day, app, start_minutes) DO UPDATE SET
			end_minutes = excluded.end_minutes
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sess := range sessions {
		if _, err := stmt.Exec(userID, day, sess.App, sess.StartMinutes, sess.EndMinutes); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveAppHourly upserts per-app hourly screen seconds.
func (s *Store) SaveAppHourly(ctx context.Context, userID, day string, rows []evidence.AppHourlyRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO screen_app_hourly (user_id, day, app, hour, seconds)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day, app, hour) DO UPDATE SET
			seconds = excluded.seconds
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(userID, day, r.App, r.Hour, r.Seconds); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveAggregateHourly upserts bare seconds-per-hour screen totals.
func (s *Store) SaveAggregateHourly(ctx context.Context, userID, day string, secondsPerHour [24]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO screen_hourly (user_id, day, hour, seconds)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, day, hour) DO UPDATE SET
			seconds = excluded.seconds
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for hour, seconds := range secondsPerHour {
		if seconds <= 0 {
			continue
		}
		if _, err := stmt.Exec(userID, day, hour, seconds); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveWorkouts upserts workout rows.
func (s *Store) SaveWorkouts(ctx context.Context, userID, day string, workouts []evidence.Workout) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO workouts (user_id, day, start_minutes, end_minutes, activity)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day, start_minutes, activity) DO UPDATE SET
			end_minutes = excluded.end_minutes
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, w := range workouts {
		if _, err := stmt.Exec(userID, day, w.StartMinutes, w.EndMinutes, w.Activity); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
