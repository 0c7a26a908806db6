package consul

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/data"
)

func (cb *ConsulBackend) Enumerate(ctx context.Context, folder data.ID) ([]*backend.Object, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	prefix := folder.String()
	if prefix != "" {
		prefix += "/"
	}

	// The separator limits the listing to direct children and sub-prefixes
	consulKeys, _, err := cb.kv.Keys(cb.buildKey(prefix), "/", (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(consulKeys))
	for _, consulKey := range consulKeys {
		keys = append(keys, strings.TrimPrefix(consulKey, cb.prefix()))
	}

	return backend.ChildrenOf(folder, keys, nil), nil
}

func (cb *ConsulBackend) Locate(id data.ID, suffix string) string {
	return backend.Key(id, suffix)
}

func (cb *ConsulBackend) ReadObject(ctx context.Context, key string) (io.ReadCloser, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	pair, _, err := cb.kv.Get(cb.buildKey(key), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, data.ErrNotExist
	}

	return backend.NopReadCloser(pair.Value), nil
}

func (cb *ConsulBackend) WriteObject(ctx context.Context, key string) (io.WriteCloser, error) {
	if key == "" {
		return nil, data.ErrInvalid
	}

	return backend.NewBufferedWriter(func(content []byte) error {
		if len(content) > MaxObjectSize {
			return fmt.Errorf("%w: %d bytes exceed the consul value limit", data.ErrInvalid, len(content))
		}

		cb.mu.Lock()
		defer cb.mu.Unlock()

		_, err := cb.kv.Put(&api.KVPair{
			Key:   cb.buildKey(key),
			Value: content,
		}, (&api.WriteOptions{}).WithContext(ctx))
		return err
	}), nil
}

func (cb *ConsulBackend) DeleteObject(ctx context.Context, key string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	consulKey := cb.buildKey(key)
	pair, _, err := cb.kv.Get(consulKey, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return err
	}
	if pair == nil {
		return data.ErrNotExist
	}

	_, err = cb.kv.Delete(consulKey, (&api.WriteOptions{}).WithContext(ctx))
	return err
}
