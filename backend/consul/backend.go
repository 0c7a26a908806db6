package consul

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/data"
)

// Consul KV has a default limit of 512KB per value
const MaxObjectSize = 512 * 1024

// ConsulBackend stores every object as a single Consul KV pair. Folders
// are implied by the slash separated keys.
//
// Consul KV is best suited for configuration files and other small
// content; values larger than MaxObjectSize are rejected on write.
type ConsulBackend struct {
	mu     sync.RWMutex
	client *api.Client
	kv     *api.KV

	// Configuration
	config *ConsulBackendConfig
}

// ConsulBackendConfig contains configuration options for the Consul backend
type ConsulBackendConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Prefix for all keys in Consul KV (default: "/")
	Prefix string
}

// NewConsulBackend creates a new Consul-backed adapter
func NewConsulBackend(config *ConsulBackendConfig) (*ConsulBackend, error) {
	if config == nil {
		config = &ConsulBackendConfig{}
	}

	// Set defaults
	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}

	if config.Prefix == "" {
		config.Prefix = "/"
	}

	// Create Consul client
	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}

	return &ConsulBackend{
		client: client,
		kv:     client.KV(),
		config: config,
	}, nil
}

// Name returns the identifier name defined for this backend
func (*ConsulBackend) Name() string {
	return "consul"
}

// Open verifies that the agent is reachable.
func (cb *ConsulBackend) Open(ctx context.Context) error {
	if _, err := cb.client.Status().Leader(); err != nil {
		return fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend
func (cb *ConsulBackend) Close(ctx context.Context) error {
	// Nothing to clean up - Consul client is stateless
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend
func (cb *ConsulBackend) GetCapabilities() *backend.BackendCapabilities {
	caps := backend.ReadWrite(backend.CapabilityRemote)
	caps.MaxObjectSize = MaxObjectSize
	return caps
}

// prefix returns the configured key prefix, empty or ending with "/".
func (cb *ConsulBackend) prefix() string {
	prefix := strings.Trim(cb.config.Prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// buildKey constructs the full Consul KV key from the object key
func (cb *ConsulBackend) buildKey(key string) string {
	return cb.prefix() + strings.TrimPrefix(key, "/")
}
