package backend

import (
	"time"

	"github.com/mwantia/typedfs/data"
)

// Object describes one direct physical child of a folder as reported by
// an adapter.
type Object struct {
	// ID is the logical id with the physical suffix stripped.
	ID data.ID
	// Dir marks sub-folders. Folders carry no suffix and no location.
	Dir bool
	// Suffix is the physical suffix without the leading dot.
	Suffix string
	// Location is the adapter-native key used for byte I/O.
	Location string
	// ModTime is the backend-supplied modification time, if known.
	ModTime time.Time
	// Size is the number of stored bytes, if known.
	Size int64
}

// NewFolderObject describes a sub-folder.
func NewFolderObject(id data.ID) *Object {
	return &Object{ID: id, Dir: true}
}
