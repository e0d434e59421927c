package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS members (
  id              INTEGER PRIMARY KEY,
  membership_type INTEGER NOT NULL,
  membership_id   TEXT NOT NULL,
  display_name    TEXT NOT NULL,
  character_id    TEXT,
  twitch_login    TEXT,
  twitch_user_id  TEXT,
  created_at      TEXT NOT NULL,
  updated_at      TEXT NOT NULL,
  UNIQUE(membership_type, membership_id)
);
CREATE TABLE IF NOT EXISTS activities (
  id               INTEGER PRIMARY KEY,
  member_id        INTEGER NOT NULL REFERENCES members(id) ON DELETE CASCADE,
  instance_id      TEXT NOT NULL,
  reference_hash   INTEGER NOT NULL DEFAULT 0,
  mode             INTEGER NOT NULL DEFAULT 0,
  started_at       TEXT NOT NULL,
  duration_seconds INTEGER NOT NULL CHECK (duration_seconds >= 0),
  scanned          INTEGER NOT NULL DEFAULT 0 CHECK (scanned IN (0,1)),
  UNIQUE(member_id, instance_id)
);
CREATE INDEX IF NOT EXISTS idx_activities_unscanned ON activities(member_id, scanned);
CREATE TABLE IF NOT EXISTS clip_matches (
  id             INTEGER PRIMARY KEY,
  activity_id    INTEGER NOT NULL UNIQUE REFERENCES activities(id) ON DELETE CASCADE,
  video_id       TEXT NOT NULL,
  video_url      TEXT NOT NULL,
  video_title    TEXT,
  activity_name  TEXT,
  offset_seconds INTEGER NOT NULL,
  matched_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_time ON clip_matches(matched_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

type Stats struct {
	Members    int
	Activities int
	Unscanned  int
	Matches    int
}

func (d *DB) GetStats(ctx context.Context) (Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM members),
			(SELECT COUNT(*) FROM activities),
			(SELECT COUNT(*) FROM activities WHERE scanned = 0),
			(SELECT COUNT(*) FROM clip_matches);
	`
	var s Stats
	err := d.sql.QueryRowContext(ctx, query).Scan(&s.Members, &s.Activities, &s.Unscanned, &s.Matches)
	return s, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime reads a stored timestamp. It accepts RFC3339 and the SQLite
// CURRENT_TIMESTAMP format.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
