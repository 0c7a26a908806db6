package backend

import (
	"context"
	"io"

	"github.com/mwantia/typedfs/data"
)

// Adapter is the extension point every backing store implements. The core
// only ever talks to physical storage through these methods.
type Adapter interface {
	Backend

	// Enumerate lists the direct children of folder in any order. It must
	// be cheap to call repeatedly and must not cache anything the physical
	// medium does not already hold. A folder that does not exist yields an
	// empty listing.
	Enumerate(ctx context.Context, folder data.ID) ([]*Object, error)

	// Locate maps a logical id and suffix to the adapter-native location
	// of the object, e.g. "a/b" + "src" -> "a/b.src".
	Locate(id data.ID, suffix string) string

	// ReadObject opens the bytes stored at location. A missing object
	// yields data.ErrNotExist.
	ReadObject(ctx context.Context, location string) (io.ReadCloser, error)

	// WriteObject opens a sink replacing the bytes stored at location once
	// the returned writer is closed. Read-only adapters return
	// data.ErrUnsupported.
	WriteObject(ctx context.Context, location string) (io.WriteCloser, error)

	// DeleteObject removes the object at location. Read-only adapters
	// return data.ErrUnsupported; a missing object yields data.ErrNotExist.
	DeleteObject(ctx context.Context, location string) error
}

// Resolver is implemented by adapters that can map a native path, such as
// a file name handed over on a command line, back to an id and suffix.
type Resolver interface {
	Resolve(native string) (data.ID, string, bool)
}
