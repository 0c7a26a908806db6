package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mwantia/typedfs/data"
)

// Exercise runs a write, enumerate, read and delete cycle against adapter
// below folder. Integration tests of remote adapters use it as smoke test.
func Exercise(ctx context.Context, adapter Adapter, folder data.ID) error {
	id := folder.Append("exercise")
	location := adapter.Locate(id, "txt")
	payload := []byte("typedfs")

	w, err := adapter.WriteObject(ctx, location)
	if err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", location, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("commit %s: %w", location, err)
	}

	objects, err := adapter.Enumerate(ctx, folder)
	if err != nil {
		return fmt.Errorf("enumerate %s: %w", folder, err)
	}

	var found *Object
	for _, obj := range objects {
		if !obj.Dir && obj.ID.Equal(id) && obj.Suffix == "txt" {
			found = obj
		}
	}
	if found == nil {
		return fmt.Errorf("enumerate %s: %s.txt not listed", folder, id)
	}

	r, err := adapter.ReadObject(ctx, found.Location)
	if err != nil {
		return fmt.Errorf("read %s: %w", found.Location, err)
	}
	got, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", found.Location, err)
	}
	if !bytes.Equal(got, payload) {
		return fmt.Errorf("read %s: expected %q, got %q", found.Location, payload, got)
	}

	if err := adapter.DeleteObject(ctx, found.Location); err != nil {
		return fmt.Errorf("delete %s: %w", found.Location, err)
	}
	if _, err := adapter.ReadObject(ctx, found.Location); !errors.Is(err, data.ErrNotExist) {
		return fmt.Errorf("read after delete %s: expected not exist, got %v", found.Location, err)
	}

	return nil
}
