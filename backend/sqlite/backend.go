package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/data"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteBackend stores objects in a SQLite database using two tables:
//
// Layer 1: typedfs_objects maps every location key to a content id
// Layer 2: typedfs_data holds the content addressed by that id
//
// Folders are implied by the slash separated keys and have no rows.
type SQLiteBackend struct {
	mu sync.RWMutex
	db *sql.DB

	path string
}

// NewSQLiteBackend creates a new SQLite-backed adapter.
// The dbPath can be ":memory:" for an in-memory database or a file path.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", withPragmas(dbPath))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}

	// Every connection of an in-memory database is a database of its own
	if dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}

	backend := &SQLiteBackend{
		db:   db,
		path: dbPath,
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}

	return backend, nil
}

// withPragmas adds the connection pragmas to dbPath. The driver applies
// them to every connection it opens, unlike a single PRAGMA statement that
// only reaches whichever pooled connection runs it.
func withPragmas(dbPath string) string {
	separator := "?"
	if strings.Contains(dbPath, "?") {
		separator = "&"
	}
	return dbPath + separator + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// initSchema creates the database schema.
func (sb *SQLiteBackend) initSchema() error {
	schema := `
	-- Content storage
	CREATE TABLE IF NOT EXISTS typedfs_data (
		id TEXT PRIMARY KEY,
		content BLOB NOT NULL,
		size INTEGER NOT NULL CHECK(size >= 0)
	);

	-- Location keys
	CREATE TABLE IF NOT EXISTS typedfs_objects (
		key TEXT PRIMARY KEY,
		id TEXT NOT NULL REFERENCES typedfs_data(id) ON DELETE CASCADE,
		modify_time INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_typedfs_objects_id ON typedfs_objects(id);
	`

	_, err := sb.db.Exec(schema)
	return err
}

// Returns the identifier name defined for this backend
func (*SQLiteBackend) Name() string {
	return "sqlite"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (sb *SQLiteBackend) Open(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	// Verify database connection
	if err := sb.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (sb *SQLiteBackend) Close(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.db.Close()
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (sb *SQLiteBackend) GetCapabilities() *backend.BackendCapabilities {
	return backend.ReadWrite(backend.CapabilityTransactions)
}
