package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/planner/internal/model"
)

// sessionTables hold rows tagged with a session id.
var sessionTables = []string{"schedule_cache", "view_prefs"}

// ErrNotFound is returned when no row exists for the current session.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db      *sqlx.DB
	session string
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, runs any pending schema migrations, and registers a
// fresh session.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, session: uuid.NewString()}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if _, err := db.Exec("INSERT INTO sessions (id, started_at) VALUES (?, ?)", s.session, time.Now().UTC()); err != nil {
		db.Close()
		return nil, fmt.Errorf("registering session: %w", err)
	}

	return s, nil
}

// Session returns the id rows written by this store are tagged with.
func (s *SQLiteStore) Session() string {
	return s.session
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// GetSchedule returns the schedule cached for projectID in this session,
// or ErrNotFound.
func (s *SQLiteStore) GetSchedule(ctx context.Context, projectID int64) (*model.ScheduleResult, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload,
		"SELECT payload FROM schedule_cache WHERE session_id = ? AND project_id = ?",
		s.session, projectID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting schedule for project %d: %w", projectID, err)
	}

	var res model.ScheduleResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("unmarshaling schedule for project %d: %w", projectID, err)
	}
	return &res, nil
}

// PutSchedule stores res for projectID, replacing any previous entry.
func (s *SQLiteStore) PutSchedule(ctx context.Context, projectID int64, res model.ScheduleResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling schedule for project %d: %w", projectID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO schedule_cache (
			session_id, project_id, payload, total_days, generated_at
		) VALUES (?, ?, ?, ?, ?)`,
		s.session, projectID, string(payload), res.TotalDays, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("caching schedule for project %d: %w", projectID, err)
	}
	return nil
}

// GetView returns the workspace tab last used for projectID in this session,
// or ErrNotFound.
func (s *SQLiteStore) GetView(ctx context.Context, projectID int64) (string, error) {
	var view string
	err := s.db.GetContext(ctx, &view,
		"SELECT view FROM view_prefs WHERE session_id = ? AND project_id = ?",
		s.session, projectID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting view for project %d: %w", projectID, err)
	}
	return view, nil
}

// SetView records the workspace tab used for projectID.
func (s *SQLiteStore) SetView(ctx context.Context, projectID int64, view string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO view_prefs (session_id, project_id, view, updated_at)
		VALUES (?, ?, ?, ?)`,
		s.session, projectID, view, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting view for project %d: %w", projectID, err)
	}
	return nil
}

// PurgeOtherSessions deletes every session except the current one, along
// with their cached rows. It returns the number of sessions removed.
func (s *SQLiteStore) PurgeOtherSessions(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range sessionTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id <> ?", s.session); err != nil {
			return 0, fmt.Errorf("purging %s: %w", table, err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id <> ?", s.session)
	if err != nil {
		return 0, fmt.Errorf("purging stale sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged sessions: %w", err)
	}
	return n, tx.Commit()
}

// ClearSession drops every row cached by the current session. The session
// itself stays registered so the store remains usable after a re-login.
func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range sessionTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = ?", s.session); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return tx.Commit()
}
