package typedfs

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/backend/memory"
	"github.com/mwantia/typedfs/content"
	"github.com/mwantia/typedfs/data"
	"github.com/mwantia/typedfs/log"
)

var (
	Source = content.Bytes("src")
	Config = content.JSON[testConfig]("json")
)

type testConfig struct {
	Name    string   `json:"name"`
	Version int      `json:"version"`
	Deps    []string `json:"deps"`
}

func newTestRegistry(t *testing.T) *content.Registry {
	t.Helper()

	return content.NewRegistry().
		MustRegister(content.Text).
		MustRegister(content.Binary).
		MustRegister(Source).
		MustRegister(Config)
}

func newTestRoot(t *testing.T, adapter backend.Adapter) *Root {
	t.Helper()

	root, err := NewRoot(t.Context(), adapter, newTestRegistry(t), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	t.Cleanup(func() {
		root.Close(context.Background())
	})

	return root
}

// store writes content straight to the adapter, bypassing any cache.
func store(t *testing.T, adapter backend.Adapter, id data.ID, suffix string, content string) {
	t.Helper()

	w, err := adapter.WriteObject(t.Context(), adapter.Locate(id, suffix))
	if err != nil {
		t.Fatalf("WriteObject failed: %v", err)
	}
	io.WriteString(w, content)
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

// countingAdapter records how often every folder was enumerated. Writes to
// a location listed in failWrites are rejected.
type countingAdapter struct {
	backend.Adapter

	mu         sync.Mutex
	enumerated map[string]int
	fail       error
	failWrites map[string]error
}

func newCountingAdapter() *countingAdapter {
	return &countingAdapter{
		Adapter:    memory.NewMemoryBackend("counting"),
		enumerated: make(map[string]int),
		failWrites: make(map[string]error),
	}
}

func (c *countingAdapter) Enumerate(ctx context.Context, folder data.ID) ([]*backend.Object, error) {
	c.mu.Lock()
	c.enumerated[folder.String()]++
	fail := c.fail
	c.mu.Unlock()

	if fail != nil {
		return nil, fail
	}
	return c.Adapter.Enumerate(ctx, folder)
}

func (c *countingAdapter) WriteObject(ctx context.Context, location string) (io.WriteCloser, error) {
	c.mu.Lock()
	fail := c.failWrites[location]
	c.mu.Unlock()

	if fail != nil {
		return nil, fail
	}
	return c.Adapter.WriteObject(ctx, location)
}

func (c *countingAdapter) failWrite(location string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		delete(c.failWrites, location)
		return
	}
	c.failWrites[location] = err
}

func (c *countingAdapter) count(folder string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.enumerated[folder]
}

// assertSorted walks every populated folder and checks the index order.
func assertSorted(t *testing.T, f *Folder) {
	t.Helper()

	if !f.populated {
		return
	}

	slots := f.snapshot()
	for i := 1; i < len(slots); i++ {
		if slots[i-1].id.Compare(slots[i].id) > 0 {
			t.Errorf("Expected sorted index in '%s', got '%s' before '%s'", f.id, slots[i-1].id, slots[i].id)
		}
	}

	for _, s := range slots {
		if !s.id.Parent().Equal(f.id) {
			t.Errorf("Expected '%s' to be a direct child of '%s'", s.id, f.id)
		}
		if sub, ok := s.item.(*Folder); ok {
			assertSorted(t, sub)
		}
	}
}

func mustRead(t *testing.T, entry *Entry) any {
	t.Helper()

	value, err := entry.Read(t.Context())
	if err != nil {
		t.Fatalf("Read of '%s' failed: %v", entry, err)
	}
	return value
}
