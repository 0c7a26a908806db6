package backend

import (
	"context"
	"io"

	"github.com/mwantia/typedfs/data"
)

// ReadOnlyAdapter wraps any Adapter to make it read-only.
// Enumerate and read operations are passed through to the underlying adapter.
// Write operations return ErrReadOnly.
type ReadOnlyAdapter struct {
	Adapter
}

// NewReadOnly creates a new read-only wrapper around the given adapter.
func NewReadOnly(adapter Adapter) *ReadOnlyAdapter {
	return &ReadOnlyAdapter{
		Adapter: adapter,
	}
}

// Unwrap returns the wrapped adapter.
func (ro *ReadOnlyAdapter) Unwrap() Adapter {
	return ro.Adapter
}

func (ro *ReadOnlyAdapter) GetCapabilities() *BackendCapabilities {
	inner := ro.Adapter.GetCapabilities()
	if inner == nil {
		return ReadOnly()
	}

	caps := &BackendCapabilities{
		MaxObjectSize: inner.MaxObjectSize,
	}
	for _, cap := range inner.Capabilities {
		if cap == CapabilityWrite || cap == CapabilityDelete {
			continue
		}
		caps.Capabilities = append(caps.Capabilities, cap)
	}
	return caps
}

func (ro *ReadOnlyAdapter) WriteObject(ctx context.Context, location string) (io.WriteCloser, error) {
	return nil, data.ErrReadOnly
}

func (ro *ReadOnlyAdapter) DeleteObject(ctx context.Context, location string) error {
	return data.ErrReadOnly
}
