package tokenstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/civicspot/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps one credential row per origin in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	origin string
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(path string, origin domain.Origin) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, domain.WrapTokenStore("create directory", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, domain.WrapTokenStore("open", err)
	}
	// Serialise writers from this process; other processes wait on busy_timeout.
	db.SetMaxOpenConns(1)

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	return newSQLiteStore(db, origin), nil
}

func newSQLiteStore(db *sql.DB, origin domain.Origin) *SQLiteStore {
	return &SQLiteStore{db: db, origin: origin.String()}
}

func migrate(ctx context.Context, db *sql.DB) error {
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return domain.WrapTokenStore("load migrations", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return domain.WrapTokenStore("init migrations", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return domain.WrapTokenStore("migrate", err)
	}
	return nil
}

// Save upserts the token for the store's origin.
func (s *SQLiteStore) Save(token string) error {
	if token == "" {
		return domain.WrapRequiredField("token")
	}

	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO credentials (origin, token, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(origin) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`, s.origin, token)
	if err != nil {
		return domain.WrapTokenStore("save", err)
	}
	return nil
}

// Load returns the stored token, or ok=false when none is stored.
func (s *SQLiteStore) Load() (string, bool, error) {
	var token string
	err := s.db.QueryRowContext(context.Background(),
		`SELECT token FROM credentials WHERE origin = ?`, s.origin).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.WrapTokenStore("load", err)
	}
	return token, true, nil
}

// Clear deletes the token. Deleting a missing row is not an error.
func (s *SQLiteStore) Clear() error {
	_, err := s.db.ExecContext(context.Background(), `DELETE FROM credentials WHERE origin = ?`, s.origin)
	if err != nil {
		return domain.WrapTokenStore("clear", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
