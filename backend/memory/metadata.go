package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/typedfs/data"
)

type blob struct {
	ID      string
	Key     string
	ModTime time.Time
}

// put must be called with the write lock held.
func (mb *MemoryBackend) put(key string, content []byte) {
	id, exists := mb.keys.Get(key)
	if !exists {
		id = uuid.Must(uuid.NewV7()).String()
		mb.keys.Set(key, id)
	}

	mb.metadata[id] = &blob{
		ID:      id,
		Key:     key,
		ModTime: time.Now(),
	}
	mb.datas[id] = append([]byte(nil), content...)
}

// remove must be called with the write lock held.
func (mb *MemoryBackend) remove(key string) error {
	id, exists := mb.keys.Delete(key)
	if !exists {
		return data.ErrNotExist
	}

	delete(mb.metadata, id)
	delete(mb.datas, id)
	return nil
}
