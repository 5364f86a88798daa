package event

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	createEventsTableSQL = `
  CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  start_unix INTEGER NOT NULL,
  end_unix INTEGER NOT NULL,
  minutes INTEGER NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  tags TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
  )`

	createEventsStartIndexSQL = `CREATE INDEX IF NOT EXISTS events_start ON events (start_unix)`

	getEventsBetweenSQL = `SELECT id, title, start_unix, minutes, notes, tags, color
  FROM events WHERE start_unix <= ? AND end_unix >= ? ORDER BY start_unix, id`
	upsertEventSQL = `INSERT INTO events (id, title, start_unix, end_unix, minutes, notes, tags, color)
  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
  ON CONFLICT(id) DO UPDATE SET
  title = excluded.title,
  start_unix = excluded.start_unix,
  end_unix = excluded.end_unix,
  minutes = excluded.minutes,
  notes = excluded.notes,
  tags = excluded.tags,
  color = excluded.color,
  updated_at = CURRENT_TIMESTAMP`
	deleteEventSQL = `DELETE FROM events WHERE id = ?`
)

// SQLiteStore keeps events in a SQLite database.
type SQLiteStore struct {
	path string
	db   *sql.DB
	fileWatch
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{path: dbPath, db: db}
	if err := store.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) runMigrations() error {
	for _, stmt := range []string{createEventsTableSQL, createEventsStartIndexSQL} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Name() string { return s.path }

func (s *SQLiteStore) Close() error {
	s.StopWatching()
	return s.db.Close()
}

func (s *SQLiteStore) GetEvents(start, end time.Time) ([]*Event, error) {
	rows, err := s.db.Query(getEventsBetweenSQL, end.Unix(), start.Unix())
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			id, title, notes, tags, color string
			startUnix                     int64
			minutes                       int
		)
		if err := rows.Scan(&id, &title, &startUnix, &minutes, &notes, &tags, &color); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e := NewWithID(id, title, time.Unix(startUnix, 0).In(time.Local), minutes)
		e.Source = s.Name()
		e.Notes = notes
		e.Tags = splitTags(tags)
		e.Color = color
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}

	return inWindow(events, start, end), nil
}

func (s *SQLiteStore) Save(e *Event) error {
	_, err := s.db.Exec(upsertEventSQL,
		e.ID(), e.Title(), e.ScheduledTime().Unix(), e.End().Unix(), e.DurationMinutes(),
		e.Notes, strings.Join(e.Tags, ","), e.Color)
	if err != nil {
		return fmt.Errorf("saving event %s: %w", e.ID(), err)
	}
	return nil
}

func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec(deleteEventSQL, id)
	if err != nil {
		return fmt.Errorf("deleting event %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting event %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) WatchFiles() (<-chan FileChangeEvent, error) {
	return s.fileWatch.start(s.path)
}

func (s *SQLiteStore) StopWatching() error {
	return s.fileWatch.stop()
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
