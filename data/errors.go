package data

import (
	"errors"
	"sync"
)

// Standard errors shared by the core and every adapter.
var (
	// Adapter-level errors
	ErrNotExist    = errors.New("vfs: object does not exist")
	ErrExist       = errors.New("vfs: object already exists")
	ErrUnsupported = errors.New("vfs: operation unsupported by backend")
	ErrIsDirectory = errors.New("vfs: is a directory")
	ErrMountFailed = errors.New("vfs: backend initialization failed")
	ErrClosed      = errors.New("vfs: object already closed")

	// ErrIO wraps every failure reported by an adapter while the core
	// enumerates, reads, writes or deletes physical objects.
	ErrIO = errors.New("vfs: i/o failure")

	// ErrUsage marks contract violations. Concrete violations wrap one of
	// the errors below in addition to ErrUsage.
	ErrUsage             = errors.New("vfs: usage violation")
	ErrParentMismatch    = errors.New("vfs: item does not belong to folder")
	ErrAlreadyAssociated = errors.New("vfs: content type already associated")
	ErrNotAssociated     = errors.New("vfs: content type not associated")
	ErrReadOnly          = errors.New("vfs: read-only backend")
	ErrUnregistered      = errors.New("vfs: content type not registered")
	ErrInvalid           = errors.New("vfs: invalid argument")
)

// Errors collects failures of best-effort operations that continue past
// individual errors.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

func (e *Errors) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = make([]error, 0)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
