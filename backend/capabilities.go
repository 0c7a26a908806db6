package backend

import "slices"

// BackendCapability represents a capability that a backend can provide.
type BackendCapability string

const (
	CapabilityRead   BackendCapability = "read"
	CapabilityWrite  BackendCapability = "write"
	CapabilityDelete BackendCapability = "delete"

	// Informational capabilities
	CapabilityCompression  BackendCapability = "compression"
	CapabilityTransactions BackendCapability = "transactions"
	CapabilityRemote       BackendCapability = "remote"
)

// ReadWrite returns the capabilities of a plain mutable backend.
func ReadWrite(extra ...BackendCapability) *BackendCapabilities {
	return &BackendCapabilities{
		Capabilities: append([]BackendCapability{CapabilityRead, CapabilityWrite, CapabilityDelete}, extra...),
	}
}

// ReadOnly returns the capabilities of a backend that can only be enumerated and read.
func ReadOnly(extra ...BackendCapability) *BackendCapabilities {
	return &BackendCapabilities{
		Capabilities: append([]BackendCapability{CapabilityRead}, extra...),
	}
}

// BackendCapabilities describes what a backend supports.
type BackendCapabilities struct {
	Capabilities  []BackendCapability `json:"capabilities"`
	MaxObjectSize int64               `json:"max_object_size"`
}

// Contains checks if a capability is supported.
func (bc *BackendCapabilities) Contains(cap BackendCapability) bool {
	return bc != nil && slices.Contains(bc.Capabilities, cap)
}

// Writable reports whether objects can be written and deleted.
func (bc *BackendCapabilities) Writable() bool {
	return bc.Contains(CapabilityWrite)
}
