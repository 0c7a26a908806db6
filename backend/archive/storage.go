package archive

import (
	"context"
	"io"

	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/data"
)

func (ab *ArchiveBackend) Enumerate(ctx context.Context, folder data.ID) ([]*backend.Object, error) {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	if ab.archive == nil {
		return []*backend.Object{}, nil
	}

	return backend.ChildrenOf(folder, ab.names, func(key string, obj *backend.Object) {
		member := ab.members[key]
		obj.ModTime = member.Modified
		obj.Size = int64(len(member.Data))
	}), nil
}

func (ab *ArchiveBackend) Locate(id data.ID, suffix string) string {
	return backend.Key(id, suffix)
}

func (ab *ArchiveBackend) ReadObject(ctx context.Context, location string) (io.ReadCloser, error) {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	member, exists := ab.members[location]
	if !exists || member.IsDir() {
		return nil, data.ErrNotExist
	}

	return backend.NopReadCloser(member.Data), nil
}

func (ab *ArchiveBackend) WriteObject(ctx context.Context, location string) (io.WriteCloser, error) {
	return nil, data.ErrUnsupported
}

func (ab *ArchiveBackend) DeleteObject(ctx context.Context, location string) error {
	return data.ErrUnsupported
}
