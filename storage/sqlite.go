package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps every invocation's results in one database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRunBest(ctx context.Context, runID string, run int, rec Record) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	gene, err := json.Marshal(rec.Gene)
	if err != nil {
		return err
	}
	if err := touchRun(ctx, db, runID); err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO run_best (run_id, run, fitness, gene)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, run) DO UPDATE SET
			fitness = excluded.fitness,
			gene = excluded.gene
	`, runID, run, rec.Fitness, gene)
	return err
}

func (s *SQLiteStore) SaveResults(ctx context.Context, runID string, recs []Record) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if err := touchRun(ctx, db, runID); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE run_id = ?`, runID); err != nil {
		return err
	}
	for rank, rec := range recs {
		gene, err := json.Marshal(rec.Gene)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO results (run_id, ordinal, fitness, gene) VALUES (?, ?, ?, ?)
		`, runID, rank, rec.Fitness, gene); err != nil {
			return fmt.Errorf("insert rank %d: %w", rank, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE runs SET finished = 1 WHERE run_id = ?`, runID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadResults(ctx context.Context, runID string) ([]Record, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	if runID == "" {
		err := db.QueryRowContext(ctx, `
			SELECT run_id FROM runs WHERE finished = 1 ORDER BY seq DESC LIMIT 1
		`).Scan(&runID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	rows, err := db.QueryContext(ctx, `
		SELECT fitness, gene FROM results WHERE run_id = ? ORDER BY ordinal
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var gene []byte
		if err := rows.Scan(&rec.Fitness, &gene); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(gene, &rec.Gene); err != nil {
			return nil, fmt.Errorf("decode gene of %s: %w", runID, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return recs, nil
}

// RunBest returns the per-run bests saved for runID, ordered by run.
func (s *SQLiteStore) RunBest(ctx context.Context, runID string) ([]Record, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT fitness, gene FROM run_best WHERE run_id = ? ORDER BY run
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var gene []byte
		if err := rows.Scan(&rec.Fitness, &gene); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(gene, &rec.Gene); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func touchRun(ctx context.Context, db *sql.DB, runID string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (run_id, finished) VALUES (?, 0)
		ON CONFLICT(run_id) DO NOTHING
	`, runID)
	return err
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			finished INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS run_best (
			run_id TEXT NOT NULL,
			run INTEGER NOT NULL,
			fitness REAL NOT NULL,
			gene BLOB NOT NULL,
			PRIMARY KEY (run_id, run)
		);
		CREATE TABLE IF NOT EXISTS results (
			run_id TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			fitness REAL NOT NULL,
			gene BLOB NOT NULL,
			PRIMARY KEY (run_id, ordinal)
		);
	`)
	return err
}
