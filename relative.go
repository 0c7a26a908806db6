package typedfs

import (
	"context"
	"fmt"

	"github.com/mwantia/typedfs/content"
	"github.com/mwantia/typedfs/data"
)

// RelativeRoot is a view of the subtree of a Root below a fixed prefix.
// Every id is resolved relative to the prefix; entries returned keep their
// full ids. The view holds no state of its own.
type RelativeRoot struct {
	parent *Root
	prefix data.ID
}

func (r *RelativeRoot) Prefix() data.ID {
	return r.prefix
}

// Parent returns the root that owns the cached tree.
func (r *RelativeRoot) Parent() *Root {
	return r.parent
}

func (r *RelativeRoot) Registry() *content.Registry {
	return r.parent.Registry()
}

func (r *RelativeRoot) translate(id data.ID) data.ID {
	return r.prefix.Join(id)
}

func (r *RelativeRoot) Contains(ctx context.Context, entry *Entry) (bool, error) {
	if entry == nil || !entry.id.HasPrefix(r.prefix) {
		return false, nil
	}
	return r.parent.Contains(ctx, entry)
}

func (r *RelativeRoot) Exists(ctx context.Context, id data.ID, ct content.ContentType) (bool, error) {
	return r.parent.Exists(ctx, r.translate(id), ct)
}

func (r *RelativeRoot) Get(ctx context.Context, id data.ID, ct content.ContentType) (*Entry, error) {
	return r.parent.Get(ctx, r.translate(id), ct)
}

func (r *RelativeRoot) GetMatching(ctx context.Context, filter content.Filter) ([]*Entry, error) {
	return r.parent.GetMatching(ctx, r.Filter(filter))
}

// Match returns the ids of matching entries relative to the prefix.
func (r *RelativeRoot) Match(ctx context.Context, filter content.Filter) ([]data.ID, error) {
	entries, err := r.GetMatching(ctx, filter)
	if err != nil {
		return nil, err
	}
	return distinctIDs(entries, r.prefix), nil
}

func (r *RelativeRoot) Create(ctx context.Context, id data.ID, ct content.ContentType) (*Entry, error) {
	return r.parent.Create(ctx, r.translate(id), ct)
}

func (r *RelativeRoot) Remove(ctx context.Context, id data.ID, ct content.ContentType) (bool, error) {
	return r.parent.Remove(ctx, r.translate(id), ct)
}

func (r *RelativeRoot) RemoveMatching(ctx context.Context, filter content.Filter) (int, error) {
	return r.parent.RemoveMatching(ctx, r.Filter(filter))
}

// Flush forwards to the parent root, which owns every cached entry.
func (r *RelativeRoot) Flush(ctx context.Context) error {
	return r.parent.Flush(ctx)
}

// Refresh forwards to the parent root, which owns every cached folder.
func (r *RelativeRoot) Refresh(ctx context.Context) error {
	return r.parent.Refresh(ctx)
}

// Relative returns a view below prefix relative to this view.
func (r *RelativeRoot) Relative(prefix data.ID) *RelativeRoot {
	return &RelativeRoot{
		parent: r.parent,
		prefix: r.prefix.Join(prefix),
	}
}

// Filter wraps filter so that it sees ids relative to the prefix.
func (r *RelativeRoot) Filter(filter content.Filter) content.Filter {
	return &relativeFilter{
		prefix: r.prefix,
		inner:  filter,
	}
}

func (r *RelativeRoot) String() string {
	return fmt.Sprintf("%s::%s", r.parent, r.prefix)
}

type relativeFilter struct {
	prefix data.ID
	inner  content.Filter
}

func (f *relativeFilter) Matches(id data.ID, ct content.ContentType) bool {
	rel, ok := id.TrimPrefix(f.prefix)
	return ok && f.inner.Matches(rel, ct)
}

// MatchesSubpath accepts folders on the way down to the prefix and
// delegates for folders below it.
func (f *relativeFilter) MatchesSubpath(id data.ID) bool {
	if id.Size() < f.prefix.Size() {
		return f.prefix.HasPrefix(id)
	}

	rel, ok := id.TrimPrefix(f.prefix)
	return ok && f.inner.MatchesSubpath(rel)
}
