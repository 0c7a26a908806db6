package memory

import (
	"context"
	"io"
	"strings"

	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/data"
)

func (mb *MemoryBackend) Enumerate(ctx context.Context, folder data.ID) ([]*backend.Object, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	prefixKey := folder.String()
	if prefixKey != "" {
		prefixKey += "/"
	}

	// B-tree range scan: iterate over all keys starting with prefix
	keys := make([]string, 0)
	mb.keys.Ascend(prefixKey, func(key string, _ string) bool {
		if !strings.HasPrefix(key, prefixKey) {
			return false
		}
		keys = append(keys, key)
		return true
	})

	return backend.ChildrenOf(folder, keys, func(key string, obj *backend.Object) {
		id, _ := mb.keys.Get(key)
		if meta, exists := mb.metadata[id]; exists {
			obj.ModTime = meta.ModTime
		}
		obj.Size = int64(len(mb.datas[id]))
	}), nil
}

func (mb *MemoryBackend) Locate(id data.ID, suffix string) string {
	return backend.Key(id, suffix)
}

func (mb *MemoryBackend) ReadObject(ctx context.Context, key string) (io.ReadCloser, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	id, exists := mb.keys.Get(key)
	if !exists {
		return nil, data.ErrNotExist
	}

	return backend.NopReadCloser(mb.datas[id]), nil
}

func (mb *MemoryBackend) WriteObject(ctx context.Context, key string) (io.WriteCloser, error) {
	if key == "" {
		return nil, data.ErrInvalid
	}

	return backend.NewBufferedWriter(func(content []byte) error {
		mb.mu.Lock()
		defer mb.mu.Unlock()

		mb.put(key, content)
		return nil
	}), nil
}

func (mb *MemoryBackend) DeleteObject(ctx context.Context, key string) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return mb.remove(key)
}
