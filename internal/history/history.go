package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a cycle id is unknown.
var ErrNotFound = errors.New("history: entry not found")

// Store is the SQLite history database.
type Store struct {
	db         *sql.DB
	maxEntries int
}

// Open opens or creates the database at path and runs migrations.
// maxEntries bounds the table; 0 keeps everything.
func Open(path string, maxEntries int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; the coordinator and the CLI may both open the file.
	db.SetMaxOpenConns(1)

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts a new cycle, then prunes the oldest entries beyond the
// configured maximum.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if !e.Outcome.Valid() {
		return fmt.Errorf("history: invalid outcome %q", e.Outcome)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles (id, created_ns, updated_ns, outcome, provider, model, instruction,
			original_len, rewritten_len, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UnixNano(), e.UpdatedAt.UnixNano(), string(e.Outcome), e.Provider, e.Model,
		e.Instruction, e.OriginalLen, e.RewrittenLen, e.Duration.Milliseconds(), nullString(e.Error),
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	if s.maxEntries > 0 {
		if _, err := s.Prune(ctx, s.maxEntries); err != nil {
			return err
		}
	}
	return nil
}

// SetOutcome updates the outcome of an existing cycle. rewrittenLen is
// stored when positive.
func (s *Store) SetOutcome(ctx context.Context, id string, o Outcome, rewrittenLen int, errMsg string) error {
	if !o.Valid() {
		return fmt.Errorf("history: invalid outcome %q", o)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE cycles
		SET outcome = ?, updated_ns = ?, error = ?,
			rewritten_len = CASE WHEN ? > 0 THEN ? ELSE rewritten_len END
		WHERE id = ?`,
		string(o), time.Now().UnixNano(), nullString(errMsg), rewrittenLen, rewrittenLen, id,
	)
	if err != nil {
		return fmt.Errorf("update cycle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one cycle by id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectCycles+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Recent returns up to limit cycles, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectCycles+` ORDER BY created_ns DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep cycles and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cycles WHERE rowid NOT IN (
			SELECT rowid FROM cycles ORDER BY created_ns DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune cycles: %w", err)
	}
	return res.RowsAffected()
}

// Stats counts cycles by outcome.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM cycles GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	st := &Stats{ByOutcome: make(map[Outcome]int)}
	for rows.Next() {
		var o string
		var n int
		if err := rows.Scan(&o, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		st.ByOutcome[Outcome(o)] = n
		st.Total += n
	}
	return st, rows.Err()
}

const selectCycles = `
	SELECT id, created_ns, updated_ns, outcome, provider, model, instruction,
		original_len, rewritten_len, duration_ms, error
	FROM cycles`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e                Entry
		created, updated int64
		outcome          string
		durationMs       int64
		errMsg           sql.NullString
	)
	if err := row.Scan(&e.ID, &created, &updated, &outcome, &e.Provider, &e.Model, &e.Instruction,
		&e.OriginalLen, &e.RewrittenLen, &durationMs, &errMsg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan cycle: %w", err)
	}
	e.CreatedAt = time.Unix(0, created)
	e.UpdatedAt = time.Unix(0, updated)
	e.Outcome = Outcome(outcome)
	e.Duration = time.Duration(durationMs) * time.Millisecond
	e.Error = errMsg.String
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
