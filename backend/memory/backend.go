package memory

import (
	"context"
	"sync"

	"github.com/mwantia/typedfs/backend"
	"github.com/tidwall/btree"
)

// MemoryBackend keeps every object in process memory. Keys are kept in a
// btree so a folder enumeration is a prefix range scan.
type MemoryBackend struct {
	mu sync.RWMutex

	name string

	keys     *btree.Map[string, string]
	metadata map[string]*blob
	datas    map[string][]byte
}

func NewMemoryBackend(name string) *MemoryBackend {
	if name == "" {
		name = "memory"
	}
	return &MemoryBackend{
		name:     name,
		keys:     btree.NewMap[string, string](0),
		metadata: make(map[string]*blob),
		datas:    make(map[string][]byte),
	}
}

// Returns the identifier name defined for this backend
func (mb *MemoryBackend) Name() string {
	return mb.name
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (mb *MemoryBackend) Open(ctx context.Context) error {
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (mb *MemoryBackend) Close(ctx context.Context) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.keys.Clear()
	clear(mb.metadata)
	clear(mb.datas)

	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (mb *MemoryBackend) GetCapabilities() *backend.BackendCapabilities {
	return backend.ReadWrite()
}

// Len returns the number of stored objects.
func (mb *MemoryBackend) Len() int {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	return mb.keys.Len()
}
