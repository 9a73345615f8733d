package overlay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key      TEXT PRIMARY KEY,
	data     TEXT NOT NULL,
	revision TEXT NOT NULL
);
`

// SQLiteStore implements Store on top of a SQLite database file.
//
// Every Set assigns the record a fresh revision identifier, which makes it
// possible to tell whether a record changed between two reads.
type SQLiteStore struct {
	conn   *sqlite.Conn
	path   string
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path. The parent
// directory is created when missing. The caller must call Close when the
// store is no longer needed.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrStore)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory for %s: %w", ErrStore, path, err)
	}

	conn, err := sqlite.OpenConn(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrStore, path, err)
	}

	if err := prepareConnection(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: preparing %s: %w", ErrStore, path, err)
	}

	logger.Debug("overlay store opened", "path", path)

	return &SQLiteStore{conn: conn, path: path, logger: logger}, nil
}

// prepareConnection applies pragmas and creates the schema.
func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return sqlitex.ExecuteScript(conn, schema, nil)
}

// Get decodes the named record into v.
func (s *SQLiteStore) Get(name string, v any) (bool, error) {
	var (
		data  string
		found bool
	)
	err := sqlitex.Execute(s.conn, "SELECT data FROM kv WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{name},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			data = stmt.ColumnText(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to read record %s: %w", name, err)
	}
	if !found {
		return false, nil
	}

	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, fmt.Errorf("failed to decode record %s: %w", name, err)
	}
	return true, nil
}

// Set replaces the named record with the JSON encoding of v.
func (s *SQLiteStore) Set(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", name, err)
	}

	revision := uuid.NewString()
	err = sqlitex.Execute(s.conn, `
		INSERT INTO kv (key, data, revision) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, revision = excluded.revision`,
		&sqlitex.ExecOptions{Args: []any{name, string(data), revision}},
	)
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", name, err)
	}

	s.logger.Debug("overlay record written", "record", name, "revision", revision)
	return nil
}

// Revision returns the revision identifier assigned by the last Set of the
// named record.
func (s *SQLiteStore) Revision(name string) (string, bool, error) {
	var (
		revision string
		found    bool
	)
	err := sqlitex.Execute(s.conn, "SELECT revision FROM kv WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{name},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			revision = stmt.ColumnText(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read revision of %s: %w", name, err)
	}
	return revision, found, nil
}

// Path returns the database file backing the store.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrStore, s.path, err)
	}
	s.logger.Debug("overlay store closed", "path", s.path)
	return nil
}
