package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/precedent/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteMetadataStore keeps row metadata in a single SQLite table.
type SQLiteMetadataStore struct {
	db   *sql.DB
	path string
}

var _ MetadataStore = (*SQLiteMetadataStore)(nil)

// NewSQLiteMetadataStore opens (or creates) the metadata database at dbPath.
func NewSQLiteMetadataStore(dbPath string) (*SQLiteMetadataStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	s := &SQLiteMetadataStore{db: db, path: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteMetadataStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS row_metadata (
		row INTEGER PRIMARY KEY,
		case_id TEXT NOT NULL,
		text_len INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (s *SQLiteMetadataStore) Path() string {
	return s.path
}

func (s *SQLiteMetadataStore) Load(ctx context.Context) ([]models.RowMetadata, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT row, case_id, text_len FROM row_metadata ORDER BY row")
	if err != nil {
		return nil, &Error{Op: "load metadata", Err: err}
	}
	defer rows.Close()

	out := make([]models.RowMetadata, 0)
	for rows.Next() {
		var (
			row  int
			meta models.RowMetadata
		)
		if err := rows.Scan(&row, &meta.CaseID, &meta.TextLen); err != nil {
			return nil, &Error{Op: "load metadata", Err: err}
		}
		if row != len(out) {
			return nil, &Error{Op: "load metadata", Err: fmt.Errorf("row %d out of sequence (expected %d)", row, len(out))}
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "load metadata", Err: err}
	}
	return out, nil
}

func (s *SQLiteMetadataStore) Save(ctx context.Context, rows []models.RowMetadata) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Op: "save metadata", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM row_metadata"); err != nil {
		return &Error{Op: "save metadata", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO row_metadata (row, case_id, text_len) VALUES (?, ?, ?)")
	if err != nil {
		return &Error{Op: "save metadata", Err: err}
	}
	defer stmt.Close()

	for i, meta := range rows {
		if _, err := stmt.ExecContext(ctx, i, meta.CaseID, meta.TextLen); err != nil {
			return &Error{Op: "save metadata", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &Error{Op: "save metadata", Err: err}
	}
	return nil
}

// Count returns the number of stored rows.
func (s *SQLiteMetadataStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM row_metadata").Scan(&n); err != nil {
		return 0, &Error{Op: "count metadata", Err: err}
	}
	return n, nil
}

func (s *SQLiteMetadataStore) Close() error {
	return s.db.Close()
}
