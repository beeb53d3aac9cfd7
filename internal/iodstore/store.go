// Public domain.

// Package iodstore keeps a history of batch results in a SQLite database.
package iodstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/soniakeys/angiod/internal/iodrun"
)

// FileName is the database file created in the store directory.
const FileName = "angiod.db"

// Store is a result history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	s := &Store{db: db, path: path}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) createTables() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS batches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started DATETIME NOT NULL,
		input TEXT NOT NULL,
		methods TEXT NOT NULL,
		cases INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cases (
		batch_id INTEGER NOT NULL REFERENCES batches(id),
		idx INTEGER NOT NULL,
		name TEXT NOT NULL,
		error TEXT,
		range_guess REAL,
		clamped INTEGER,
		reference TEXT,
		mismatch INTEGER,
		disagreement INTEGER,
		PRIMARY KEY (batch_id, idx)
	);

	CREATE TABLE IF NOT EXISTS results (
		batch_id INTEGER NOT NULL,
		idx INTEGER NOT NULL,
		method TEXT NOT NULL,
		converged INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		note TEXT,
		x REAL, y REAL, z REAL,
		vx REAL, vy REAL, vz REAL,
		a REAL, ecc REAL, incl REAL,
		PRIMARY KEY (batch_id, idx, method)
	);

	CREATE INDEX IF NOT EXISTS idx_cases_name ON cases(name);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Batch identifies a stored batch.
type Batch struct {
	ID      int64
	Started time.Time
	Input   string
	Methods string
	Cases   int
}

// Save stores a batch and its case reports in one transaction and returns
// the new batch id.
func (s *Store) Save(ctx context.Context, input string, methods iodrun.MethodSet, started time.Time, reps []iodrun.CaseReport) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO batches (started, input, methods, cases) VALUES (?, ?, ?, ?)`,
		started.UTC().Format(time.RFC3339Nano), input, methods.String(), len(reps))
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for i := range reps {
		if err := saveCase(ctx, tx, id, &reps[i]); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func saveCase(ctx context.Context, tx *sql.Tx, id int64, r *iodrun.CaseReport) error {
	var errText, ref sql.NullString
	if r.Err != nil {
		errText = sql.NullString{String: r.Err.Error(), Valid: true}
	}
	if r.Consistency.Reference != nil {
		ref = sql.NullString{String: r.Consistency.Reference.String(), Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
	INSERT INTO cases (batch_id, idx, name, error, range_guess, clamped, reference, mismatch, disagreement)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, r.Index, r.Name, errText, r.Range.Guess, r.Range.Clamped, ref,
		r.Consistency.PropagationMismatch, r.Consistency.MethodDisagreement)
	if err != nil {
		return fmt.Errorf("insert case %s: %w", r.Name, err)
	}
	for _, res := range r.Results {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO results (batch_id, idx, method, converged, iterations, note,
			x, y, z, vx, vy, vz, a, ecc, incl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, r.Index, res.Method.String(), res.Status.Converged, res.Status.Iterations,
			res.Status.Note.String(),
			res.Pos.X, res.Pos.Y, res.Pos.Z, res.Vel.X, res.Vel.Y, res.Vel.Z,
			res.Classical.A, res.Classical.Ecc, res.Classical.Incl)
		if err != nil {
			return fmt.Errorf("insert result %s/%s: %w", r.Name, res.Method, err)
		}
	}
	return nil
}

// Batches lists stored batches, most recent first.
func (s *Store) Batches(ctx context.Context) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started, input, methods, cases FROM batches ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bs []Batch
	for rows.Next() {
		var b Batch
		var started string
		if err := rows.Scan(&b.ID, &started, &b.Input, &b.Methods, &b.Cases); err != nil {
			return nil, err
		}
		if b.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("batch %d: %w", b.ID, err)
		}
		bs = append(bs, b)
	}
	return bs, rows.Err()
}

// Row is one stored method result.
type Row struct {
	Case       string
	Method     string
	Converged  bool
	Iterations int
	Note       string
	A, Ecc     float64
}

// Results returns the method results of a batch in case and invocation
// order.
func (s *Store) Results(ctx context.Context, batch int64) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT c.name, r.method, r.converged, r.iterations, r.note, r.a, r.ecc
	FROM results r JOIN cases c ON c.batch_id = r.batch_id AND c.idx = r.idx
	WHERE r.batch_id = ?
	ORDER BY r.idx, r.rowid`, batch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rs []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Case, &r.Method, &r.Converged, &r.Iterations, &r.Note, &r.A, &r.Ecc); err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, rows.Err()
}
