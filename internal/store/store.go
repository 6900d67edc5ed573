// Package store exports analysed play logs to SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/squeezestats/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for snapshot exports.
type Store struct {
	db *sql.DB
}

// Snapshot is everything written by one export. Plays are taken from the
// sessions, which already hold them in time order.
type Snapshot struct {
	RunID      string
	YearFilter string
	Search     string
	Sessions   []model.Session
	Groups     []model.ParallelGroup
	Excluded   int
	Discarded  int
}

// Summary describes the snapshot currently stored in the database.
type Summary struct {
	ID         string
	RunID      string
	CreatedAt  time.Time
	YearFilter string
	Search     string
	Plays      int
	Sessions   int
	Groups     int
	Excluded   int
	Discarded  int
}

// SessionRow is one stored session.
type SessionRow struct {
	Index           int
	StartedAt       time.Time
	EndedAt         time.Time
	DurationSeconds int
	Songs           int
}

var schema = []string{
	`DROP TABLE IF EXISTS parallel_members;`,
	`DROP TABLE IF EXISTS parallel_groups;`,
	`DROP TABLE IF EXISTS plays;`,
	`DROP TABLE IF EXISTS sessions;`,
	`DROP TABLE IF EXISTS snapshot;`,
	`CREATE TABLE snapshot (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		year_filter TEXT NOT NULL,
		search TEXT NOT NULL,
		excluded INTEGER NOT NULL,
		discarded INTEGER NOT NULL
	);`,
	`CREATE TABLE sessions (
		idx INTEGER PRIMARY KEY,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL,
		songs INTEGER NOT NULL
	);`,
	`CREATE TABLE plays (
		id INTEGER PRIMARY KEY,
		session_idx INTEGER NOT NULL REFERENCES sessions(idx),
		played_at TEXT NOT NULL,
		raw_date TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL,
		title TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL,
		player_name TEXT NOT NULL,
		player_id TEXT NOT NULL,
		path TEXT NOT NULL,
		file_format TEXT NOT NULL,
		comment_year INTEGER,
		source TEXT NOT NULL
	);`,
	`CREATE TABLE parallel_groups (
		idx INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		raw_date TEXT NOT NULL,
		size INTEGER NOT NULL
	);`,
	`CREATE TABLE parallel_members (
		group_idx INTEGER NOT NULL REFERENCES parallel_groups(idx),
		position INTEGER NOT NULL,
		player_name TEXT NOT NULL,
		player_id TEXT NOT NULL,
		PRIMARY KEY (group_idx, position)
	);`,
	`CREATE INDEX idx_plays_played_at ON plays(played_at);`,
	`CREATE INDEX idx_plays_artist ON plays(artist);`,
}

// Open opens or creates the SQLite database.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Export replaces the stored snapshot with snap and returns the new
// snapshot id. Nothing from earlier exports survives.
func (s *Store) Export(ctx context.Context, snap Snapshot) (id string, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	for _, stmt := range schema {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return "", fmt.Errorf("failed to reset schema: %w", err)
		}
	}

	id = uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot (id, run_id, created_at, year_filter, search, excluded, discarded)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, snap.RunID, time.Now().UTC().Format(time.RFC3339Nano), snap.YearFilter, snap.Search, snap.Excluded, snap.Discarded,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}
	if err = insertSessions(ctx, tx, snap.Sessions); err != nil {
		return "", err
	}
	if err = insertGroups(ctx, tx, snap.Groups); err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func insertSessions(ctx context.Context, tx *sql.Tx, sessions []model.Session) error {
	sessStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sessions (idx, started_at, ended_at, duration_seconds, songs) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(sessStmt)
	playStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO plays (session_idx, played_at, raw_date, artist, album, title, duration_seconds,
			player_name, player_id, path, file_format, comment_year, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(playStmt)

	for i, sess := range sessions {
		if _, err := sessStmt.ExecContext(ctx, i,
			formatTime(sess.Start), formatTime(sess.End), sess.DurationSeconds, len(sess.Plays)); err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		for _, p := range sess.Plays {
			var commentYear sql.NullInt64
			if p.CommentYear != 0 {
				commentYear = sql.NullInt64{Int64: int64(p.CommentYear), Valid: true}
			}
			if _, err := playStmt.ExecContext(ctx, i,
				formatTime(p.PlayedAt), p.Date, p.Artist, p.Album, p.Title, p.DurationSeconds,
				p.PlayerName, p.PlayerID, p.Path, p.FileFormat, commentYear, p.Source); err != nil {
				return fmt.Errorf("failed to insert play: %w", err)
			}
		}
	}
	return nil
}

func insertGroups(ctx context.Context, tx *sql.Tx, groups []model.ParallelGroup) error {
	groupStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO parallel_groups (idx, title, raw_date, size) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(groupStmt)
	memberStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO parallel_members (group_idx, position, player_name, player_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(memberStmt)

	for i, g := range groups {
		if _, err := groupStmt.ExecContext(ctx, i, g.Title, g.Date, g.Size()); err != nil {
			return fmt.Errorf("failed to insert parallel group: %w", err)
		}
		for pos, p := range g.Plays {
			if _, err := memberStmt.ExecContext(ctx, i, pos, p.PlayerName, p.PlayerID); err != nil {
				return fmt.Errorf("failed to insert parallel member: %w", err)
			}
		}
	}
	return nil
}

// Summary reads back the stored snapshot.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, created_at, year_filter, search, excluded, discarded,
			(SELECT COUNT(*) FROM plays),
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM parallel_groups)
		 FROM snapshot`,
	).Scan(&sum.ID, &sum.RunID, &createdAt, &sum.YearFilter, &sum.Search, &sum.Excluded, &sum.Discarded,
		&sum.Plays, &sum.Sessions, &sum.Groups)
	if err != nil {
		return Summary{}, err
	}
	sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// ListSessions returns the stored sessions in time order.
func (s *Store) ListSessions(ctx context.Context) ([]SessionRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, started_at, ended_at, duration_seconds, songs FROM sessions ORDER BY idx ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []SessionRow
	for rows.Next() {
		var row SessionRow
		var startedAt, endedAt string
		if err := rows.Scan(&row.Index, &startedAt, &endedAt, &row.DurationSeconds, &row.Songs); err != nil {
			return nil, err
		}
		if row.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if row.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// PlaysByArtist counts stored plays per artist, most played first.
func (s *Store) PlaysByArtist(ctx context.Context, limit int) ([]model.RankedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT artist, COUNT(*) AS n FROM plays
		 WHERE artist <> ''
		 GROUP BY artist
		 ORDER BY n DESC, MIN(id) ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.RankedItem
	for rows.Next() {
		var item model.RankedItem
		if err := rows.Scan(&item.Name, &item.Count); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func closeStmt(stmt *sql.Stmt) {
	if cerr := stmt.Close(); cerr != nil {
		// Best-effort statement close.
		_ = cerr
	}
}
