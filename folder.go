package typedfs

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/mwantia/typedfs/content"
	"github.com/mwantia/typedfs/data"
	"github.com/tidwall/btree"
)

// Folder caches the direct children of one id. The index is filled from
// the adapter on first access and kept sorted by id. Several entries may
// share an id as long as their content types differ.
type Folder struct {
	id      data.ID
	storage *storage

	index     *btree.BTreeG[slot]
	populated bool
	seq       uint64
}

func newFolder(s *storage, id data.ID) *Folder {
	return &Folder{
		id:      id,
		storage: s,
		index:   newIndex(),
	}
}

func newIndex() *btree.BTreeG[slot] {
	return btree.NewBTreeGOptions(lessSlot, btree.Options{NoLocks: true})
}

func (f *Folder) ID() data.ID {
	return f.id
}

// IsPopulated reports whether the adapter has been enumerated for this folder.
func (f *Folder) IsPopulated() bool {
	return f.populated
}

// Items returns the direct children in index order.
func (f *Folder) Items(ctx context.Context) ([]Item, error) {
	if err := f.populate(ctx); err != nil {
		return nil, err
	}

	items := make([]Item, 0, f.index.Len())
	for _, s := range f.snapshot() {
		items = append(items, s.item)
	}
	return items, nil
}

func (f *Folder) snapshot() []slot {
	slots := make([]slot, 0, f.index.Len())
	f.index.Scan(func(s slot) bool {
		slots = append(slots, s)
		return true
	})
	return slots
}

func (f *Folder) populate(ctx context.Context) error {
	if f.populated {
		return nil
	}

	items, err := f.enumerate(ctx)
	if err != nil {
		return err
	}

	f.index = newIndex()
	f.seq = 0
	for _, item := range items {
		f.put(item)
	}
	f.populated = true

	f.storage.log.Debug("Populate: folder '%s' holds %d items", f.id, len(items))
	return nil
}

// enumerate lists the adapter's current view of this folder, sorted by id.
func (f *Folder) enumerate(ctx context.Context) ([]Item, error) {
	objects, err := f.storage.adapter.Enumerate(ctx, f.id)
	if err != nil {
		return nil, data.IOError(err, "enumerate '%s'", f.id)
	}

	items := make([]Item, 0, len(objects))
	for _, obj := range objects {
		if !obj.ID.Parent().Equal(f.id) || obj.ID.IsRoot() {
			f.storage.log.Warn("Enumerate: ignoring '%s' outside of folder '%s'", obj.ID, f.id)
			continue
		}

		if obj.Dir {
			items = append(items, newFolder(f.storage, obj.ID))
			continue
		}

		obj.ID, obj.Suffix = f.storage.split(obj.ID, obj.Suffix)
		entry := newEntry(f.storage, obj)
		if err := f.storage.registry.Associate(entry); err != nil {
			return nil, err
		}
		items = append(items, entry)
	}

	slices.SortStableFunc(items, compareItems)

	for i := 1; i < len(items); i++ {
		prev, ok := items[i-1].(*Entry)
		if !ok {
			continue
		}
		if entry, ok := items[i].(*Entry); ok && entry.id.Equal(prev.id) && entry.ct == prev.ct {
			f.storage.log.Warn("Enumerate: '%s' shadowed by '%s' with the same content type", entry.location, prev.location)
		}
	}

	return items, nil
}

// compareItems orders by id; within an id folders come first, then entries
// by suffix so that enumerations are deterministic.
func compareItems(a, b Item) int {
	if c := a.ID().Compare(b.ID()); c != 0 {
		return c
	}

	ae, aEntry := a.(*Entry)
	be, bEntry := b.(*Entry)
	switch {
	case !aEntry && bEntry:
		return -1
	case aEntry && !bEntry:
		return 1
	case aEntry && bEntry:
		return cmp.Compare(ae.suffix, be.suffix)
	}
	return 0
}

// put appends item behind every item already indexed under the same id.
func (f *Folder) put(item Item) {
	f.seq++
	f.index.Set(slot{id: item.ID(), seq: f.seq, item: item})
}

// run returns the slots indexed under id.
func (f *Folder) run(id data.ID) []slot {
	var result []slot
	f.index.Ascend(slot{id: id}, func(s slot) bool {
		if !s.id.Equal(id) {
			return false
		}
		result = append(result, s)
		return true
	})
	return result
}

// child returns the direct child id on the way from this folder to id, or
// false if id is not below this folder.
func (f *Folder) child(id data.ID) (data.ID, bool) {
	if id.Size() <= f.id.Size() || !id.HasPrefix(f.id) {
		return data.Root, false
	}
	return id.Subpath(0, f.id.Size()+1), true
}

// Folder returns the sub-folder with the given id at any depth below this
// folder, or nil if there is none.
func (f *Folder) Folder(ctx context.Context, id data.ID) (*Folder, error) {
	if id.Equal(f.id) {
		return f, nil
	}

	childID, ok := f.child(id)
	if !ok {
		return nil, nil
	}

	sub, err := f.subfolder(ctx, childID, false)
	if err != nil || sub == nil {
		return nil, err
	}
	return sub.Folder(ctx, id)
}

// subfolder looks up a direct child folder and creates it on demand.
func (f *Folder) subfolder(ctx context.Context, id data.ID, create bool) (*Folder, error) {
	if err := f.populate(ctx); err != nil {
		return nil, err
	}

	for _, s := range f.run(id) {
		if sub, ok := s.item.(*Folder); ok {
			return sub, nil
		}
	}

	if !create {
		return nil, nil
	}

	sub := newFolder(f.storage, id)
	f.put(sub)
	f.storage.log.Debug("Create: folder '%s'", id)
	return sub, nil
}

// Get returns the entry with the given id and content type anywhere below
// this folder. A missing entry is reported as nil without error.
func (f *Folder) Get(ctx context.Context, id data.ID, ct content.ContentType) (*Entry, error) {
	childID, ok := f.child(id)
	if !ok {
		return nil, nil
	}

	if id.Size() > childID.Size() {
		sub, err := f.subfolder(ctx, childID, false)
		if err != nil || sub == nil {
			return nil, err
		}
		return sub.Get(ctx, id, ct)
	}

	if err := f.populate(ctx); err != nil {
		return nil, err
	}

	for _, s := range f.run(id) {
		if entry, ok := entryOf(s.item, ct); ok {
			return entry, nil
		}
	}

	return nil, nil
}

// Insert adds item as direct child of this folder. The item's parent must
// be this folder.
func (f *Folder) Insert(ctx context.Context, item Item) error {
	if item == nil || item.ID().IsRoot() || !item.ID().Parent().Equal(f.id) {
		return data.UsageError(data.ErrParentMismatch, "cannot insert into folder '%s'", f.id)
	}

	if err := f.populate(ctx); err != nil {
		return err
	}

	f.put(item)
	return nil
}

// Create returns the entry with the given id and content type, creating it
// and any missing folders on the way. New entries carry no value and are
// not modified until written.
func (f *Folder) Create(ctx context.Context, id data.ID, ct content.ContentType) (*Entry, error) {
	if !f.storage.adapter.GetCapabilities().Writable() {
		return nil, data.UsageError(data.ErrReadOnly, "cannot create '%s' on backend '%s'", id, f.storage.adapter.Name())
	}

	suffix, ok := f.storage.registry.Suffix(ct)
	if !ok {
		return nil, data.UsageError(data.ErrUnregistered, "cannot create '%s'", id)
	}

	childID, ok := f.child(id)
	if !ok {
		return nil, data.UsageError(data.ErrInvalid, "'%s' is not below folder '%s'", id, f.id)
	}

	if id.Size() > childID.Size() {
		sub, err := f.subfolder(ctx, childID, true)
		if err != nil {
			return nil, err
		}
		return sub.Create(ctx, id, ct)
	}

	existing, err := f.Get(ctx, id, ct)
	if err != nil || existing != nil {
		return existing, err
	}

	entry := &Entry{
		id:       id,
		suffix:   suffix,
		location: f.storage.adapter.Locate(id, suffix),
		adapter:  f.storage.adapter,
		log:      f.storage.log,
		modTime:  time.Now(),
	}
	if err := entry.Associate(ct, nil); err != nil {
		return nil, err
	}

	f.put(entry)
	f.storage.log.Debug("Create: entry '%s'", entry)
	return entry, nil
}

// Remove deletes the entry with the given id and content type together
// with its stored bytes, and reports whether it existed.
func (f *Folder) Remove(ctx context.Context, id data.ID, ct content.ContentType) (bool, error) {
	if !f.storage.adapter.GetCapabilities().Writable() {
		return false, data.UsageError(data.ErrReadOnly, "cannot remove '%s' on backend '%s'", id, f.storage.adapter.Name())
	}

	childID, ok := f.child(id)
	if !ok {
		return false, nil
	}

	if id.Size() > childID.Size() {
		sub, err := f.subfolder(ctx, childID, false)
		if err != nil || sub == nil {
			return false, err
		}
		return sub.Remove(ctx, id, ct)
	}

	if err := f.populate(ctx); err != nil {
		return false, err
	}

	for _, s := range f.run(id) {
		entry, ok := entryOf(s.item, ct)
		if !ok {
			continue
		}

		if err := f.removeEntry(ctx, s, entry); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

func (f *Folder) removeEntry(ctx context.Context, s slot, entry *Entry) error {
	err := f.storage.adapter.DeleteObject(ctx, entry.location)
	if err != nil && !errors.Is(err, data.ErrNotExist) {
		return data.IOError(err, "delete '%s'", entry.location)
	}

	f.index.Delete(s)
	f.storage.log.Debug("Remove: entry '%s'", entry)
	return nil
}

// RemoveMatching removes every entry below this folder accepted by filter
// and returns how many were removed. Sub-folders are only visited when
// the filter accepts their id as subpath. Failures do not stop the walk.
func (f *Folder) RemoveMatching(ctx context.Context, filter content.Filter) (int, error) {
	if !f.storage.adapter.GetCapabilities().Writable() {
		return 0, data.UsageError(data.ErrReadOnly, "cannot remove below '%s' on backend '%s'", f.id, f.storage.adapter.Name())
	}

	if err := f.populate(ctx); err != nil {
		return 0, err
	}

	errs := data.Errors{}
	count := 0

	// The index is modified while walking, so a snapshot is walked instead.
	for _, s := range f.snapshot() {
		switch item := s.item.(type) {
		case *Entry:
			if !filter.Matches(item.id, item.ct) {
				continue
			}
			if err := f.removeEntry(ctx, s, item); err != nil {
				errs.Add(err)
				continue
			}
			count++
		case *Folder:
			if !filter.MatchesSubpath(item.id) {
				continue
			}
			removed, err := item.RemoveMatching(ctx, filter)
			count += removed
			if err != nil {
				errs.Add(err)
			}
		}
	}

	return count, errs.Errors()
}

// GetAll returns every entry below this folder in index order.
func (f *Folder) GetAll(ctx context.Context) ([]*Entry, error) {
	return f.GetMatching(ctx, content.All())
}

// GetMatching returns every entry below this folder accepted by filter.
func (f *Folder) GetMatching(ctx context.Context, filter content.Filter) ([]*Entry, error) {
	entries := make([]*Entry, 0)
	err := f.Walk(ctx, filter, func(e *Entry) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// Walk hands every entry accepted by filter to sink, depth first in index
// order. Sub-folders rejected by filter.MatchesSubpath are never enumerated.
func (f *Folder) Walk(ctx context.Context, filter content.Filter, sink func(*Entry) error) error {
	if err := f.populate(ctx); err != nil {
		return err
	}

	var err error
	f.index.Scan(func(s slot) bool {
		switch item := s.item.(type) {
		case *Entry:
			if filter.Matches(item.id, item.ct) {
				err = sink(item)
			}
		case *Folder:
			if filter.MatchesSubpath(item.id) {
				err = item.Walk(ctx, filter, sink)
			}
		}
		return err == nil
	})

	return err
}

// Flush writes every modified entry below this folder. Folders that were
// never populated hold nothing to write and are skipped. A failing entry
// does not stop the remaining ones from being flushed.
func (f *Folder) Flush(ctx context.Context) error {
	if !f.populated {
		return nil
	}

	errs := data.Errors{}
	f.index.Scan(func(s slot) bool {
		switch item := s.item.(type) {
		case *Entry:
			if err := item.Flush(ctx); err != nil {
				f.storage.log.Error("Flush: failed to write '%s': %v", item, err)
				errs.Add(err)
			}
		case *Folder:
			if err := item.Flush(ctx); err != nil {
				errs.Add(err)
			}
		}
		return true
	})

	return errs.Errors()
}

// IsModified reports whether any cached entry below this folder carries
// unsaved changes.
func (f *Folder) IsModified() bool {
	if !f.populated {
		return false
	}

	modified := false
	f.index.Scan(func(s slot) bool {
		switch item := s.item.(type) {
		case *Entry:
			modified = item.IsModified()
		case *Folder:
			modified = item.IsModified()
		}
		return !modified
	})
	return modified
}

func isModified(item Item) bool {
	switch item := item.(type) {
	case *Entry:
		return item.IsModified()
	case *Folder:
		return item.IsModified()
	}
	return false
}

// sameKind reports whether a cached and a freshly enumerated item describe
// the same child: both folders, or entries of the same content type.
func sameKind(cached, fresh Item) bool {
	switch cached := cached.(type) {
	case *Folder:
		_, ok := fresh.(*Folder)
		return ok
	case *Entry:
		entry, ok := fresh.(*Entry)
		return ok && entry.ct == cached.ct
	}
	return false
}

// Refresh reconciles a populated folder with a fresh enumeration. Cached
// items still reported keep their identity and state, new items are added,
// and items no longer reported are dropped unless they carry unsaved
// changes. Retained entries drop their cached values and retained
// sub-folders are refreshed in turn.
func (f *Folder) Refresh(ctx context.Context) error {
	if !f.populated {
		return nil
	}

	fresh, err := f.enumerate(ctx)
	if err != nil {
		return err
	}

	cached := make([]Item, 0, f.index.Len())
	for _, s := range f.snapshot() {
		cached = append(cached, s.item)
	}

	merged := make([]Item, 0, max(len(cached), len(fresh)))
	retained := make([]Item, 0, len(cached))
	var kept, dropped, added int

	keepOrDrop := func(item Item) {
		if isModified(item) {
			merged = append(merged, item)
			retained = append(retained, item)
			kept++
		} else {
			dropped++
		}
	}

	i, j := 0, 0
	for i < len(cached) && j < len(fresh) {
		c := cached[i].ID().Compare(fresh[j].ID())
		switch {
		case c < 0:
			keepOrDrop(cached[i])
			i++
		case c > 0:
			merged = append(merged, fresh[j])
			added++
			j++
		default:
			id := cached[i].ID()
			ci, fj := i, j
			for ci < len(cached) && cached[ci].ID().Equal(id) {
				ci++
			}
			for fj < len(fresh) && fresh[fj].ID().Equal(id) {
				fj++
			}

			oldRun := cached[i:ci]
			matched := make([]bool, len(oldRun))
			for _, item := range fresh[j:fj] {
				found := -1
				for k, old := range oldRun {
					if !matched[k] && sameKind(old, item) {
						found = k
						break
					}
				}

				if found < 0 {
					merged = append(merged, item)
					added++
					continue
				}

				matched[found] = true
				if entry, ok := oldRun[found].(*Entry); ok {
					entry.update(item.(*Entry))
				}
				merged = append(merged, oldRun[found])
				retained = append(retained, oldRun[found])
				kept++
			}

			for k, old := range oldRun {
				if !matched[k] {
					keepOrDrop(old)
				}
			}

			i, j = ci, fj
		}
	}
	for ; i < len(cached); i++ {
		keepOrDrop(cached[i])
	}
	for ; j < len(fresh); j++ {
		merged = append(merged, fresh[j])
		added++
	}

	f.index = newIndex()
	f.seq = 0
	for _, item := range merged {
		f.put(item)
	}

	f.storage.log.Debug("Refresh: folder '%s' kept %d, dropped %d, added %d", f.id, kept, dropped, added)

	errs := data.Errors{}
	for _, item := range retained {
		switch item := item.(type) {
		case *Entry:
			item.Refresh()
		case *Folder:
			if err := item.Refresh(ctx); err != nil {
				errs.Add(err)
			}
		}
	}

	return errs.Errors()
}

func (f *Folder) String() string {
	return f.id.String() + "/"
}
