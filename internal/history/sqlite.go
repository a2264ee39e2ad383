package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS generations(
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	seed TEXT NOT NULL,
	output TEXT NOT NULL,
	temperature REAL NOT NULL,
	steps INTEGER NOT NULL,
	rand_seed INTEGER NOT NULL,
	created_at INTEGER NOT NULL
)`

// SQLiteStore is a Store backed by a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// A single connection keeps ":memory:" databases from splitting per
	// connection and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations(id, seed, output, temperature, steps, rand_seed, created_at)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			seed=excluded.seed, output=excluded.output, temperature=excluded.temperature,
			steps=excluded.steps, rand_seed=excluded.rand_seed, created_at=excluded.created_at`,
		rec.ID, rec.Seed, rec.Output, rec.Temperature, rec.Steps, rec.RandSeed, rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert generation %s: %w", rec.ID, err)
	}
	return nil
}

const selectCols = `SELECT id, seed, output, temperature, steps, rand_seed, created_at FROM generations`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec Record
		ms  int64
	)
	if err := sc.Scan(&rec.ID, &rec.Seed, &rec.Output, &rec.Temperature, &rec.Steps, &rec.RandSeed, &ms); err != nil {
		return Record{}, err
	}
	rec.CreatedAt = time.UnixMilli(ms).UTC()
	return rec, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectCols+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get generation %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx, selectCols+` ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list generations: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM generations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete generation %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
