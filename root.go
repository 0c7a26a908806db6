package typedfs

import (
	"context"
	"fmt"
	"slices"

	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/content"
	"github.com/mwantia/typedfs/data"
	"github.com/mwantia/typedfs/log"
)

// Namespace is the surface shared by Root and RelativeRoot.
type Namespace interface {
	Registry() *content.Registry

	Contains(ctx context.Context, entry *Entry) (bool, error)
	Exists(ctx context.Context, id data.ID, ct content.ContentType) (bool, error)
	Get(ctx context.Context, id data.ID, ct content.ContentType) (*Entry, error)
	GetMatching(ctx context.Context, filter content.Filter) ([]*Entry, error)
	Match(ctx context.Context, filter content.Filter) ([]data.ID, error)

	Create(ctx context.Context, id data.ID, ct content.ContentType) (*Entry, error)
	Remove(ctx context.Context, id data.ID, ct content.ContentType) (bool, error)
	RemoveMatching(ctx context.Context, filter content.Filter) (int, error)

	Flush(ctx context.Context) error
	Refresh(ctx context.Context) error

	Relative(prefix data.ID) *RelativeRoot
}

// storage is shared by every folder and entry of one Root.
type storage struct {
	adapter  backend.Adapter
	registry *content.Registry
	log      *log.Logger
}

// split moves registered dots from the id into the suffix. Adapters split
// physical names at the last dot, which loses suffixes such as "wyil.zst".
func (s *storage) split(id data.ID, suffix string) (data.ID, string) {
	if id.IsRoot() {
		return id, suffix
	}
	base, longer, ok := s.registry.Split(id.Last() + "." + suffix)
	if !ok || longer == suffix {
		return id, suffix
	}
	return id.Parent().Append(base), longer
}

// Root owns the cached folder tree of one adapter.
type Root struct {
	storage *storage
	folder  *Folder
}

// NewRoot opens adapter and returns a root over its contents. Nothing is
// enumerated until the first lookup.
func NewRoot(ctx context.Context, adapter backend.Adapter, registry *content.Registry, opts ...RootOption) (*Root, error) {
	if adapter == nil || registry == nil {
		return nil, data.UsageError(data.ErrInvalid, "root requires an adapter and a registry")
	}

	options := newDefaultRootOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	if err := adapter.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open backend '%s': %w", adapter.Name(), err)
	}

	s := &storage{
		adapter:  adapter,
		registry: registry,
		log:      options.logger().Named(adapter.Name()),
	}

	s.log.Debug("Open: backend '%s' with capabilities %v", adapter.Name(), adapter.GetCapabilities().Capabilities)

	return &Root{
		storage: s,
		folder:  newFolder(s, data.Root),
	}, nil
}

// Close releases the adapter. Unflushed modifications are lost.
func (r *Root) Close(ctx context.Context) error {
	return r.storage.adapter.Close(ctx)
}

func (r *Root) Adapter() backend.Adapter {
	return r.storage.adapter
}

func (r *Root) Registry() *content.Registry {
	return r.storage.registry
}

// Folder returns the top-level folder of the tree.
func (r *Root) Folder() *Folder {
	return r.folder
}

// Contains reports whether entry is the very entry cached by this root.
func (r *Root) Contains(ctx context.Context, entry *Entry) (bool, error) {
	if entry == nil {
		return false, nil
	}

	found, err := r.folder.Get(ctx, entry.id, entry.ct)
	if err != nil {
		return false, err
	}
	return found == entry, nil
}

func (r *Root) Exists(ctx context.Context, id data.ID, ct content.ContentType) (bool, error) {
	entry, err := r.folder.Get(ctx, id, ct)
	return entry != nil, err
}

func (r *Root) Get(ctx context.Context, id data.ID, ct content.ContentType) (*Entry, error) {
	return r.folder.Get(ctx, id, ct)
}

func (r *Root) GetMatching(ctx context.Context, filter content.Filter) ([]*Entry, error) {
	if !filter.MatchesSubpath(data.Root) {
		return []*Entry{}, nil
	}
	return r.folder.GetMatching(ctx, filter)
}

// Match returns the sorted, distinct ids of every entry accepted by filter.
func (r *Root) Match(ctx context.Context, filter content.Filter) ([]data.ID, error) {
	entries, err := r.GetMatching(ctx, filter)
	if err != nil {
		return nil, err
	}
	return distinctIDs(entries, data.Root), nil
}

func (r *Root) Create(ctx context.Context, id data.ID, ct content.ContentType) (*Entry, error) {
	return r.folder.Create(ctx, id, ct)
}

func (r *Root) Remove(ctx context.Context, id data.ID, ct content.ContentType) (bool, error) {
	return r.folder.Remove(ctx, id, ct)
}

func (r *Root) RemoveMatching(ctx context.Context, filter content.Filter) (int, error) {
	if !filter.MatchesSubpath(data.Root) {
		return 0, nil
	}
	return r.folder.RemoveMatching(ctx, filter)
}

// Flush writes every modified entry back to the adapter. Entries are
// flushed independently, so a failure may leave others written.
func (r *Root) Flush(ctx context.Context) error {
	r.storage.log.Debug("Flush: writing modified entries")
	return r.folder.Flush(ctx)
}

// Refresh reconciles the cached tree with the adapter.
func (r *Root) Refresh(ctx context.Context) error {
	r.storage.log.Debug("Refresh: reconciling cached folders")
	return r.folder.Refresh(ctx)
}

// Relative returns a view of the subtree below prefix.
func (r *Root) Relative(prefix data.ID) *RelativeRoot {
	return &RelativeRoot{
		parent: r,
		prefix: prefix,
	}
}

// Find maps native paths of the adapter, such as file names given on a
// command line, to cached entries of type ct. Paths the adapter cannot
// resolve, or whose suffix is bound to another type, are skipped.
func (r *Root) Find(ctx context.Context, natives []string, ct content.ContentType) ([]*Entry, error) {
	resolver, ok := r.storage.adapter.(backend.Resolver)
	if !ok {
		return nil, data.UsageError(data.ErrUnsupported, "backend '%s' cannot resolve native paths", r.storage.adapter.Name())
	}

	entries := make([]*Entry, 0, len(natives))
	for _, native := range natives {
		id, suffix, ok := resolver.Resolve(native)
		if !ok {
			r.storage.log.Debug("Find: '%s' does not name an entry", native)
			continue
		}

		id, suffix = r.storage.split(id, suffix)

		bound, ok := r.storage.registry.ContentType(suffix)
		if !ok || bound != ct {
			continue
		}

		entry, err := r.folder.Get(ctx, id, ct)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func (r *Root) String() string {
	return fmt.Sprintf("<%s>", r.storage.adapter.Name())
}

// distinctIDs strips prefix from the ids of entries and removes duplicates.
// Entries arrive in index order, so equal ids are adjacent.
func distinctIDs(entries []*Entry, prefix data.ID) []data.ID {
	ids := make([]data.ID, 0, len(entries))
	for _, entry := range entries {
		id, ok := entry.id.TrimPrefix(prefix)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}

	slices.SortFunc(ids, data.ID.Compare)
	return slices.CompactFunc(ids, data.ID.Equal)
}
