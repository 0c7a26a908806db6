package directory

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/data"
)

func (db *DirectoryBackend) Enumerate(ctx context.Context, folder data.ID) ([]*backend.Object, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	fullPath := db.resolvePath(folder.String())

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*backend.Object{}, nil
		}
		return nil, err
	}

	objects := make([]*backend.Object, 0, len(entries))
	for _, entry := range entries {
		if db.filter != nil && !db.filter(entry) {
			continue
		}
		if entry.IsDir() {
			objects = append(objects, backend.NewFolderObject(folder.Append(entry.Name())))
			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}

		name, suffix, ok := backend.SplitName(entry.Name())
		if !ok {
			continue
		}

		obj := &backend.Object{
			ID:       folder.Append(name),
			Suffix:   suffix,
			Location: filepath.Join(fullPath, entry.Name()),
		}
		if info, err := entry.Info(); err == nil {
			obj.ModTime = info.ModTime()
			obj.Size = info.Size()
		}

		objects = append(objects, obj)
	}

	return objects, nil
}

func (db *DirectoryBackend) Locate(id data.ID, suffix string) string {
	return db.resolvePath(backend.Key(id, suffix))
}

func (db *DirectoryBackend) ReadObject(ctx context.Context, location string) (io.ReadCloser, error) {
	file, err := os.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, data.ErrNotExist
		}
		return nil, err
	}

	return file, nil
}

func (db *DirectoryBackend) WriteObject(ctx context.Context, location string) (io.WriteCloser, error) {
	if db.readOnly {
		return nil, data.ErrUnsupported
	}

	if err := os.MkdirAll(filepath.Dir(location), 0755); err != nil {
		return nil, err
	}

	// Content is staged next to the target and renamed into place on close.
	file, err := os.CreateTemp(filepath.Dir(location), ".typedfs-*")
	if err != nil {
		return nil, err
	}

	return &atomicFile{File: file, target: location}, nil
}

func (db *DirectoryBackend) DeleteObject(ctx context.Context, location string) error {
	if db.readOnly {
		return data.ErrUnsupported
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	info, err := os.Stat(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return data.ErrNotExist
		}
		return err
	}

	if info.IsDir() {
		return data.ErrIsDirectory
	}

	return os.Remove(location)
}

type atomicFile struct {
	*os.File
	target string
	closed bool
}

func (af *atomicFile) Close() error {
	if af.closed {
		return nil
	}
	af.closed = true

	if err := af.File.Close(); err != nil {
		os.Remove(af.File.Name())
		return err
	}

	if err := os.Rename(af.File.Name(), af.target); err != nil {
		os.Remove(af.File.Name())
		return err
	}

	return nil
}
