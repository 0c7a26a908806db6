package typedfs

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/content"
	"github.com/mwantia/typedfs/data"
	"github.com/mwantia/typedfs/log"
)

// Entry is one (id, content type) pair of a folder. Its value is decoded
// from the adapter on first Read and cached until Refresh drops it.
type Entry struct {
	id       data.ID
	ct       content.ContentType
	suffix   string
	location string

	adapter backend.Adapter
	log     *log.Logger

	value   any
	loaded  bool
	dirty   bool
	modTime time.Time
}

func newEntry(s *storage, obj *backend.Object) *Entry {
	return &Entry{
		id:       obj.ID,
		suffix:   obj.Suffix,
		location: obj.Location,
		adapter:  s.adapter,
		log:      s.log,
		modTime:  obj.ModTime,
	}
}

func (e *Entry) ID() data.ID {
	return e.id
}

// ContentType returns the bound content type, or nil before association.
func (e *Entry) ContentType() content.ContentType {
	return e.ct
}

// Suffix returns the physical suffix without the leading dot.
func (e *Entry) Suffix() string {
	return e.suffix
}

// Location returns the adapter-native location of the entry's bytes.
func (e *Entry) Location() string {
	return e.location
}

func (e *Entry) LastModified() time.Time {
	return e.modTime
}

// IsModified reports whether the entry carries changes not yet flushed.
func (e *Entry) IsModified() bool {
	return e.dirty
}

// IsLoaded reports whether a value is cached.
func (e *Entry) IsLoaded() bool {
	return e.loaded
}

// Associate binds the content type of the entry and optionally an initial
// value. A content type can only be bound once.
func (e *Entry) Associate(ct content.ContentType, value any) error {
	if ct == nil {
		return data.UsageError(data.ErrInvalid, "cannot associate nil content type with '%s'", e.id)
	}
	if e.ct != nil {
		return data.UsageError(data.ErrAlreadyAssociated, "entry '%s' is already of type '%s'", e.id, e.ct.Suffix())
	}

	e.ct = ct
	if value != nil {
		e.value = value
		e.loaded = true
	}

	return nil
}

// Read returns the cached value, decoding the stored bytes first if
// nothing is cached yet.
func (e *Entry) Read(ctx context.Context) (any, error) {
	if e.loaded {
		return e.value, nil
	}
	if e.ct == nil {
		return nil, data.UsageError(data.ErrNotAssociated, "entry '%s'", e.id)
	}

	e.log.Debug("Read: decoding '%s' from '%s'", e.id, e.location)

	r, err := e.adapter.ReadObject(ctx, e.location)
	if err != nil {
		return nil, data.IOError(err, "read '%s'", e.location)
	}
	defer r.Close()

	value, err := e.ct.Decode(e.id, r)
	if err != nil {
		return nil, data.IOError(err, "decode '%s' as '%s'", e.location, e.ct.Suffix())
	}

	e.value = value
	e.loaded = true
	return value, nil
}

// Write replaces the cached value and marks the entry modified.
func (e *Entry) Write(value any) error {
	if err := e.writable(); err != nil {
		return err
	}
	if e.ct == nil {
		return data.UsageError(data.ErrNotAssociated, "entry '%s'", e.id)
	}
	if checker, ok := e.ct.(content.Checker); ok {
		if err := checker.Check(value); err != nil {
			return err
		}
	}

	e.value = value
	e.loaded = true
	e.dirty = true
	return nil
}

// Touch marks a loaded entry modified without replacing its value. Touch
// on an entry that was never read or written has no effect, since there is
// nothing to flush.
func (e *Entry) Touch() {
	if !e.loaded {
		return
	}
	e.dirty = true
}

// Flush encodes and stores the cached value if the entry is modified. An
// entry without a cached value is never written.
func (e *Entry) Flush(ctx context.Context) error {
	if !e.dirty || !e.loaded {
		return nil
	}
	if err := e.writable(); err != nil {
		return err
	}

	e.log.Debug("Flush: writing '%s' to '%s'", e.id, e.location)

	// Encoding happens before the sink is opened so that a failing codec
	// never leaves partial bytes behind.
	var buf bytes.Buffer
	if err := e.ct.Encode(&buf, e.value); err != nil {
		return data.IOError(err, "encode '%s' as '%s'", e.location, e.ct.Suffix())
	}

	w, err := e.adapter.WriteObject(ctx, e.location)
	if err != nil {
		return data.IOError(err, "open '%s' for writing", e.location)
	}

	if _, err := buf.WriteTo(w); err != nil {
		w.Close()
		return data.IOError(err, "write '%s'", e.location)
	}

	if err := w.Close(); err != nil {
		return data.IOError(err, "write '%s'", e.location)
	}

	e.dirty = false
	e.modTime = time.Now()
	return nil
}

// Refresh drops the cached value of an unmodified entry so that the next
// Read decodes the stored bytes again. Modified entries are left alone.
func (e *Entry) Refresh() {
	if e.dirty {
		return
	}

	e.value = nil
	e.loaded = false
}

// update takes over the physical details of a freshly enumerated entry of
// the same id and content type.
func (e *Entry) update(fresh *Entry) {
	if e.dirty {
		return
	}

	e.suffix = fresh.suffix
	e.location = fresh.location
	if !fresh.modTime.IsZero() {
		e.modTime = fresh.modTime
	}
}

func (e *Entry) writable() error {
	if !e.adapter.GetCapabilities().Writable() {
		return data.UsageError(data.ErrReadOnly, "cannot modify '%s' on backend '%s'", e.id, e.adapter.Name())
	}
	return nil
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s.%s", e.id, e.suffix)
}
