// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package logstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/track"
)

// ErrNoSession is returned when the database holds no logging session.
var ErrNoSession = errors.New("logstore: no session recorded")

// sessionTimeLayout is fixed width so started_at sorts as text.
const sessionTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		source TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS samples (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		altitude REAL NOT NULL,
		speed_knots REAL NOT NULL,
		speed_kmh REAL NOT NULL,
		course REAL NOT NULL,
		satellites INTEGER NOT NULL,
		hdop REAL NOT NULL,
		fix_quality INTEGER NOT NULL,
		PRIMARY KEY (session_id, seq),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS sessions_started_idx ON sessions (started_at);
`

// DB stores logging sessions and their samples in SQLite.
type DB struct {
	db *sql.DB
}

// SessionInfo describes one logging run.
type SessionInfo struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source"`
	Samples   int       `json:"samples"`
}

// Open opens or creates the database at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps writes ordered and avoids SQLITE_BUSY between
	// the logger and readers in the same process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Session is the write side of one logging run.
type Session struct {
	info   SessionInfo
	insert *sql.Stmt
	seq    int
}

// BeginSession registers a new run and returns its writer.
func (d *DB) BeginSession(source string, started time.Time) (*Session, error) {
	info := SessionInfo{
		ID:        uuid.NewString(),
		StartedAt: started.UTC(),
		Source:    source,
	}
	_, err := d.db.Exec(
		"INSERT INTO sessions (id, started_at, source) VALUES (?, ?, ?)",
		info.ID, info.StartedAt.Format(sessionTimeLayout), info.Source,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := d.db.Prepare(`
		INSERT INTO samples (session_id, seq, timestamp, latitude, longitude, altitude,
			speed_knots, speed_kmh, course, satellites, hdop, fix_quality)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	return &Session{info: info, insert: stmt}, nil
}

// Info returns the session metadata; Samples counts rows written so far.
func (s *Session) Info() SessionInfo {
	info := s.info
	info.Samples = s.seq
	return info
}

// Write persists one sample as the next row of the session.
func (s *Session) Write(sample gps.Sample) error {
	r := RecordFromSample(sample)
	_, err := s.insert.Exec(
		s.info.ID, s.seq, r.Timestamp.Format(timestampLayout),
		r.Latitude, r.Longitude, r.Altitude,
		r.SpeedKnots, r.SpeedKmh, r.Course,
		r.Satellites, r.HDOP, r.FixQuality,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	s.seq++
	return nil
}

func (s *Session) Close() error {
	return s.insert.Close()
}

// Sessions lists every session, newest first.
func (d *DB) Sessions() ([]SessionInfo, error) {
	rows, err := d.db.Query(`
		SELECT s.id, s.started_at, s.source, COUNT(p.seq)
		FROM sessions s LEFT JOIN samples p ON p.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		info, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// LatestSession returns the most recently started session.
func (d *DB) LatestSession() (SessionInfo, error) {
	row := d.db.QueryRow(`
		SELECT s.id, s.started_at, s.source,
			(SELECT COUNT(*) FROM samples p WHERE p.session_id = s.id)
		FROM sessions s
		ORDER BY s.started_at DESC, s.rowid DESC
		LIMIT 1`)
	info, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, ErrNoSession
	}
	return info, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (SessionInfo, error) {
	var info SessionInfo
	var started string
	if err := row.Scan(&info.ID, &started, &info.Source, &info.Samples); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionInfo{}, err
		}
		return SessionInfo{}, fmt.Errorf("failed to scan session: %w", err)
	}
	ts, err := time.Parse(sessionTimeLayout, started)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("invalid session start %q: %w", started, err)
	}
	info.StartedAt = ts
	return info, nil
}

// Records returns the rows of one session in write order.
func (d *DB) Records(sessionID string) ([]Record, error) {
	rows, err := d.db.Query(`
		SELECT timestamp, latitude, longitude, altitude, speed_knots, speed_kmh,
			course, satellites, hdop, fix_quality
		FROM samples WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var ts string
		err := rows.Scan(&ts, &r.Latitude, &r.Longitude, &r.Altitude, &r.SpeedKnots,
			&r.SpeedKmh, &r.Course, &r.Satellites, &r.HDOP, &r.FixQuality)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		if r.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Track loads one session as a track.
func (d *DB) Track(sessionID string) (*track.Track, error) {
	records, err := d.Records(sessionID)
	if err != nil {
		return nil, err
	}
	return TrackFromRecords(records), nil
}

// LatestTrack loads the most recent session.
func (d *DB) LatestTrack() (*track.Track, SessionInfo, error) {
	info, err := d.LatestSession()
	if err != nil {
		return nil, SessionInfo{}, err
	}
	t, err := d.Track(info.ID)
	if err != nil {
		return nil, SessionInfo{}, err
	}
	return t, info, nil
}
