package archive

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/content"
	"github.com/mwantia/typedfs/data"
)

// ArchiveBackend exposes the members of a zip archive as a read-only tree.
// Member "a/b.src" is the entry "a/b" with suffix "src".
type ArchiveBackend struct {
	mu sync.RWMutex

	name    string
	path    string
	archive *content.ZipFile
	members map[string]*content.ZipEntry
	names   []string
}

// NewArchiveBackend reads the zip archive stored at path when opened.
func NewArchiveBackend(path string) *ArchiveBackend {
	return &ArchiveBackend{
		name: "archive",
		path: path,
	}
}

// FromZip serves an archive that is already loaded, for example the value
// of an entry with the zip content type.
func FromZip(archive *content.ZipFile) *ArchiveBackend {
	ab := &ArchiveBackend{
		name: "archive",
	}
	ab.load(archive)
	return ab
}

// FromBytes parses raw as zip archive.
func FromBytes(raw []byte) (*ArchiveBackend, error) {
	archive, err := content.ReadZip(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}
	return FromZip(archive), nil
}

func (ab *ArchiveBackend) load(archive *content.ZipFile) {
	ab.archive = archive
	ab.members = make(map[string]*content.ZipEntry, len(archive.Entries))
	ab.names = make([]string, 0, len(archive.Entries))

	for _, member := range archive.Entries {
		ab.members[member.Name] = member
		ab.names = append(ab.names, member.Name)
	}
	sort.Strings(ab.names)
}

// Returns the identifier name defined for this backend
func (ab *ArchiveBackend) Name() string {
	return ab.name
}

// Open loads the archive from disk unless it was handed over in memory.
func (ab *ArchiveBackend) Open(ctx context.Context) error {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if ab.archive != nil {
		return nil
	}

	raw, err := os.ReadFile(ab.path)
	if err != nil {
		return fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}

	archive, err := content.ReadZip(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}

	ab.load(archive)
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (ab *ArchiveBackend) Close(ctx context.Context) error {
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (ab *ArchiveBackend) GetCapabilities() *backend.BackendCapabilities {
	return backend.ReadOnly(backend.CapabilityCompression)
}
