package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-connect/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// Store owns the SQLite connection and hands out port implementations.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (or creates) the state database in dataDir.
// If dataDir is empty, defaults to ~/.sercha-connect/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-connect", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath, now: time.Now}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// StateStore returns an OAuthStateStore backed by this store.
func (s *Store) StateStore() driven.OAuthStateStore {
	return &stateStore{store: s}
}

// migrate applies every .up.sql file newer than the recorded version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_oauth_states.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== OAuth State Store ====================

// stateStore implements driven.OAuthStateStore.
type stateStore struct {
	store *Store
}

var _ driven.OAuthStateStore = (*stateStore)(nil)

// Save records an attempt, replacing any previous one for the provider.
func (s *stateStore) Save(ctx context.Context, attempt *domain.OAuthAttempt) error {
	if attempt == nil || attempt.Provider == "" || attempt.CSRFToken == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO oauth_states (provider, attempt_id, flow, csrf_token, code_verifier,
			redirect_uri, started_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			attempt_id = excluded.attempt_id,
			flow = excluded.flow,
			csrf_token = excluded.csrf_token,
			code_verifier = excluded.code_verifier,
			redirect_uri = excluded.redirect_uri,
			started_at = excluded.started_at,
			expires_at = excluded.expires_at
	`,
		string(attempt.Provider),
		attempt.ID,
		string(attempt.Flow),
		attempt.CSRFToken,
		attempt.CodeVerifier,
		attempt.RedirectURI,
		unixNano(attempt.StartedAt),
		unixNano(attempt.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("saving oauth state: %w", err)
	}
	return nil
}

// Take returns and removes the attempt for a provider.
func (s *stateStore) Take(ctx context.Context, provider domain.ProviderID) (*domain.OAuthAttempt, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var (
		attempt             domain.OAuthAttempt
		flow                string
		startedAt, expireAt int64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT attempt_id, flow, csrf_token, code_verifier, redirect_uri, started_at, expires_at
		FROM oauth_states WHERE provider = ?
	`, string(provider)).Scan(
		&attempt.ID, &flow, &attempt.CSRFToken, &attempt.CodeVerifier,
		&attempt.RedirectURI, &startedAt, &expireAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading oauth state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM oauth_states WHERE provider = ?", string(provider)); err != nil {
		return nil, fmt.Errorf("deleting oauth state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}

	attempt.Provider = provider
	attempt.Flow = domain.FlowKind(flow)
	attempt.StartedAt = fromUnixNano(startedAt)
	attempt.ExpiresAt = fromUnixNano(expireAt)

	if attempt.IsExpired(s.store.now()) {
		return nil, nil
	}
	return &attempt, nil
}

// Purge removes expired attempts.
func (s *stateStore) Purge(ctx context.Context) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM oauth_states WHERE expires_at > 0 AND expires_at < ?",
		s.store.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("purging oauth states: %w", err)
	}
	return nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
