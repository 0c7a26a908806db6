package directory

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/data"
)

// DirectoryBackend maps ids onto a directory tree of the host file system.
// The id "a/b" with suffix "src" lives at "<root>/a/b.src".
type DirectoryBackend struct {
	mu sync.RWMutex

	root     string
	readOnly bool
	filter   func(fs.DirEntry) bool
}

// Option configures a DirectoryBackend.
type Option func(*DirectoryBackend)

// WithFilter hides every file and directory for which filter returns false.
// Hidden paths are never enumerated, so they cannot become entries.
func WithFilter(filter func(fs.DirEntry) bool) Option {
	return func(db *DirectoryBackend) {
		db.filter = filter
	}
}

func NewDirectoryBackend(root string, opts ...Option) (*DirectoryBackend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}

	db := &DirectoryBackend{
		root: abs,
	}
	for _, opt := range opts {
		opt(db)
	}

	return db, nil
}

// NewReadOnlyDirectoryBackend returns a backend that never modifies root.
func NewReadOnlyDirectoryBackend(root string, opts ...Option) (*DirectoryBackend, error) {
	db, err := NewDirectoryBackend(root, opts...)
	if err != nil {
		return nil, err
	}

	db.readOnly = true
	return db, nil
}

// Returns the identifier name defined for this backend
func (db *DirectoryBackend) Name() string {
	return "directory"
}

// Root returns the absolute directory this backend is rooted at.
func (db *DirectoryBackend) Root() string {
	return db.root
}

// Open verifies that the root directory exists, creating it for writable backends.
func (db *DirectoryBackend) Open(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	info, err := os.Stat(db.root)
	if err != nil {
		if os.IsNotExist(err) && !db.readOnly {
			if err := os.MkdirAll(db.root, 0755); err != nil {
				return fmt.Errorf("%w: %w", data.ErrMountFailed, err)
			}
			return nil
		}
		return fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", data.ErrMountFailed, db.root)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (db *DirectoryBackend) Close(ctx context.Context) error {
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (db *DirectoryBackend) GetCapabilities() *backend.BackendCapabilities {
	if db.readOnly {
		return backend.ReadOnly()
	}
	return backend.ReadWrite()
}

// Resolve maps a host path below the root directory back onto an id and
// suffix. Relative paths are taken relative to the root.
func (db *DirectoryBackend) Resolve(native string) (data.ID, string, bool) {
	if !filepath.IsAbs(native) {
		native = filepath.Join(db.root, native)
	}

	rel, err := filepath.Rel(db.root, filepath.Clean(native))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return data.Root, "", false
	}

	return backend.ParseKey(filepath.ToSlash(rel))
}

func (db *DirectoryBackend) resolvePath(key string) string {
	return filepath.Join(db.root, filepath.FromSlash(filepath.Clean("/"+key)))
}
