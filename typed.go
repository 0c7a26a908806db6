package typedfs

import (
	"context"

	"github.com/mwantia/typedfs/content"
	"github.com/mwantia/typedfs/data"
)

// ReadAs reads entry and asserts the value to T.
func ReadAs[T any](ctx context.Context, entry *Entry) (T, error) {
	var zero T

	value, err := entry.Read(ctx)
	if err != nil {
		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		return zero, data.UsageError(data.ErrInvalid, "entry '%s' holds %T, not %T", entry, value, zero)
	}
	return typed, nil
}

// GetAs looks up the entry of type ct and reads its value. The boolean is
// false when no such entry exists.
func GetAs[T any](ctx context.Context, ns Namespace, id data.ID, ct *content.Type[T]) (T, bool, error) {
	var zero T

	entry, err := ns.Get(ctx, id, ct)
	if err != nil || entry == nil {
		return zero, false, err
	}

	value, err := ReadAs[T](ctx, entry)
	if err != nil {
		return zero, true, err
	}
	return value, true, nil
}

// CreateAs creates the entry of type ct and writes value to it.
func CreateAs[T any](ctx context.Context, ns Namespace, id data.ID, ct *content.Type[T], value T) (*Entry, error) {
	entry, err := ns.Create(ctx, id, ct)
	if err != nil {
		return nil, err
	}

	if err := entry.Write(value); err != nil {
		return nil, err
	}
	return entry, nil
}
