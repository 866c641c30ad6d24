// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists ViolationRecords in SQLite.
//
// The store is insert-only: a record is written once under its case id and
// never updated. Inserting a case id that already exists is not an error;
// Insert reports it as not inserted and leaves the stored row alone.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

const (
	// DefaultDBPath is used when StoreConfig.DBPath is empty.
	DefaultDBPath = "dnr_records.db"

	dateLayout = "2006-01-02"
)

// ErrNotFound is returned by Get when no record has the case id.
var ErrNotFound = errors.New("record not found")

// PersistenceError reports a failed write for one record.
type PersistenceError struct {
	CaseID string
	Op     string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.CaseID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store manages the violations database.
type Store struct {
	db        *sql.DB
	path      string
	exportDir string
}

// NewStore opens or creates the SQLite database at cfg.DBPath and creates
// the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	path := cfg.DBPath
	if path == "" {
		path = DefaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	exportDir := cfg.ExportDir
	if exportDir == "" {
		exportDir = filepath.Dir(path)
	}

	s := &Store{db: db, path: path, exportDir: exportDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS violations (
			case_id TEXT PRIMARY KEY CHECK (case_id <> ''),
			violator_name TEXT NOT NULL DEFAULT '',
			violation_date TEXT,
			settlement_cents INTEGER CHECK (settlement_cents IS NULL OR settlement_cents >= 0),
			source_document_url TEXT NOT NULL,
			extracted_via TEXT NOT NULL CHECK (extracted_via IN ('text', 'ocr')),
			confidence TEXT NOT NULL CHECK (confidence IN ('high', 'low')),
			plaintiff TEXT,
			violation_type TEXT,
			data_source TEXT,
			notes TEXT,
			run_id TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_violations_date ON violations(violation_date)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Insert writes rec if no record with its case id exists. It returns false
// without touching the stored row when the case id is already present. Any
// other failure is a *PersistenceError.
func (s *Store) Insert(ctx context.Context, rec types.ViolationRecord) (bool, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var cents sql.NullInt64
	if rec.SettlementAmount != nil {
		cents = sql.NullInt64{Int64: rec.SettlementAmount.Cents(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO violations (case_id, violator_name, violation_date, settlement_cents,
			source_document_url, extracted_via, confidence, plaintiff, violation_type,
			data_source, notes, run_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(case_id) DO NOTHING`,
		rec.CaseID, rec.ViolatorName, formatDate(rec.ViolationDate), cents,
		rec.SourceDocumentURL, string(rec.ExtractedVia), string(rec.Confidence),
		rec.Plaintiff, rec.ViolationType, rec.DataSource, rec.Notes, rec.RunID,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, &PersistenceError{CaseID: rec.CaseID, Op: "insert", Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, &PersistenceError{CaseID: rec.CaseID, Op: "insert", Err: err}
	}
	return n == 1, nil
}

// Exists reports whether a record with caseID is stored.
func (s *Store) Exists(ctx context.Context, caseID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM violations WHERE case_id = ?`, caseID,
	).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("checking %s: %w", caseID, err)
	}
	return true, nil
}

// Get returns the record stored under caseID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, caseID string) (types.ViolationRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE case_id = ?`, caseID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ViolationRecord{}, ErrNotFound
	}
	if err != nil {
		return types.ViolationRecord{}, fmt.Errorf("reading %s: %w", caseID, err)
	}
	return rec, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM violations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

const selectColumns = `SELECT case_id, violator_name, violation_date, settlement_cents,
	source_document_url, extracted_via, confidence, plaintiff, violation_type,
	data_source, notes, run_id, created_at
	FROM violations`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (types.ViolationRecord, error) {
	var (
		rec                                        types.ViolationRecord
		date, plaintiff, vtype, source, notes, run sql.NullString
		cents                                      sql.NullInt64
		via, confidence, created                   string
	)
	err := row.Scan(&rec.CaseID, &rec.ViolatorName, &date, &cents,
		&rec.SourceDocumentURL, &via, &confidence, &plaintiff, &vtype,
		&source, &notes, &run, &created)
	if err != nil {
		return rec, err
	}

	rec.ExtractedVia = types.ExtractionMethod(via)
	rec.Confidence = types.Confidence(confidence)
	rec.Plaintiff = plaintiff.String
	rec.ViolationType = vtype.String
	rec.DataSource = source.String
	rec.Notes = notes.String
	rec.RunID = run.String

	if cents.Valid {
		a := types.Amount(cents.Int64)
		rec.SettlementAmount = &a
	}
	if date.String != "" {
		if rec.ViolationDate, err = time.Parse(dateLayout, date.String); err != nil {
			return rec, fmt.Errorf("parsing violation_date %q: %w", date.String, err)
		}
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return rec, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	return rec, nil
}

func formatDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}
