// Package matchlog persists match outcomes to PostgreSQL.
//
// Every transcript that goes through the matching cascade is recorded with
// its outcome, so recognition quality can be reviewed later: which phrases
// resolved exactly, which needed the fuzzy or remote stages, and which
// never matched at all.
package matchlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/IbrahimUsmani118/versenav/internal/match"
)

// Schema is the SQL DDL for the match_log table. Execute it via
// [Store.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS match_log (
    id          BIGSERIAL PRIMARY KEY,
    transcript  TEXT NOT NULL,
    surah       INT NOT NULL DEFAULT 0,
    ayah        INT NOT NULL DEFAULT 0,
    match_type  TEXT NOT NULL,
    confidence  DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_match_log_created ON match_log(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_match_log_type ON match_log(match_type);
`

// TypeNone is the match_type recorded when the cascade produced no match.
const TypeNone = "none"

// Entry is one persisted match outcome. Surah and Ayah are zero when
// MatchType is [TypeNone].
type Entry struct {
	ID         int64     `json:"id"`
	Transcript string    `json:"transcript"`
	Surah      int       `json:"surah"`
	Ayah       int       `json:"ayah"`
	MatchType  string    `json:"matchType"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewEntry builds an Entry from a transcript and its match result. A nil
// result records a [TypeNone] entry.
func NewEntry(transcript string, res *match.Result) Entry {
	if res == nil {
		return Entry{Transcript: transcript, MatchType: TypeNone}
	}
	return Entry{
		Transcript: transcript,
		Surah:      res.Surah,
		Ayah:       res.Ayah,
		MatchType:  string(res.Type),
		Confidence: res.Confidence,
	}
}

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store writes and reads match_log rows.
type Store struct {
	db DB
}

// NewStore creates a [Store] on the given database connection or pool. The
// caller is responsible for calling [Store.Migrate] before issuing queries.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// match_log table and indexes if they do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("matchlog: migrate: %w", err)
	}
	return nil
}

// Record inserts e and fills in its ID and CreatedAt from the database.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.MatchType == "" {
		return errors.New("matchlog: entry match type must not be empty")
	}

	const query = `
		INSERT INTO match_log (transcript, surah, ayah, match_type, confidence)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.db.QueryRow(ctx, query,
		e.Transcript, e.Surah, e.Ayah, e.MatchType, e.Confidence,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("matchlog: record: %w", err)
	}
	return nil
}

// Recent returns the newest n entries, newest first. n <= 0 defaults to 50.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 50
	}

	const query = `
		SELECT id, transcript, surah, ayah, match_type, confidence, created_at
		FROM match_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := s.db.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("matchlog: recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.Transcript, &e.Surah, &e.Ayah,
			&e.MatchType, &e.Confidence, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("matchlog: recent scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("matchlog: recent: %w", err)
	}
	return entries, nil
}

// CountByType returns the number of logged matches per match_type.
func (s *Store) CountByType(ctx context.Context) (map[string]int64, error) {
	const query = `
		SELECT match_type, count(*)
		FROM match_log
		GROUP BY match_type`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("matchlog: count by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("matchlog: count scan: %w", err)
		}
		counts[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("matchlog: count by type: %w", err)
	}
	return counts, nil
}
