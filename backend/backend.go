package backend

import "context"

// Backend is used as lifecycle entrypoint for every adapter implementation.
type Backend interface {
	// Name returns the identifier name defined for this backend.
	Name() string
	// Open is part of the lifecycle behaviour and gets called before the
	// first enumeration.
	Open(ctx context.Context) error
	// Close is part of the lifecycle behaviour and releases connections and
	// handles held by the backend.
	Close(ctx context.Context) error

	// GetCapabilities returns the capabilities supported by this backend.
	GetCapabilities() *BackendCapabilities
}
