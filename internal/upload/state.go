package upload

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDB remembers which plan files were uploaded, by content hash, so
// unchanged plans are not re-imported as duplicate templates.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// one writer; the uploader is sequential
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(stateSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating uploaded_plans: %w", err)
	}
	return &StateDB{db: db}, nil
}

const stateSchema = `CREATE TABLE IF NOT EXISTS uploaded_plans (
	path        TEXT PRIMARY KEY,
	hash        TEXT NOT NULL,
	templates   INTEGER NOT NULL DEFAULT 0,
	uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// IsUploaded reports whether relPath was last uploaded with this content hash.
func (s *StateDB) IsUploaded(ctx context.Context, relPath, hash string) (bool, error) {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT hash FROM uploaded_plans WHERE path = ?`, relPath).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("looking up %s: %w", relPath, err)
	}
	return stored == hash, nil
}

// MarkUploaded records a successful upload of relPath.
func (s *StateDB) MarkUploaded(ctx context.Context, relPath, hash string, templates int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploaded_plans (path, hash, templates) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, templates = excluded.templates,
		 uploaded_at = CURRENT_TIMESTAMP`,
		relPath, hash, templates,
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", relPath, err)
	}
	return nil
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashBytes returns the hex SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
