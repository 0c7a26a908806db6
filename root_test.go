package typedfs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/backend/archive"
	"github.com/mwantia/typedfs/backend/directory"
	"github.com/mwantia/typedfs/backend/memory"
	"github.com/mwantia/typedfs/content"
	"github.com/mwantia/typedfs/data"
	"github.com/mwantia/typedfs/log"
)

func TestRoot_DirectoryPersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := t.Context()

	first, err := directory.NewDirectoryBackend(dir)
	if err != nil {
		t.Fatalf("NewDirectoryBackend failed: %v", err)
	}
	root := newTestRoot(t, first)

	entry, err := root.Create(ctx, data.NewID("a", "b"), content.Text)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := entry.Write("hello"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := root.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "a", "b.txt")); err != nil {
		t.Fatalf("Expected a/b.txt on disk: %v", err)
	}

	second, err := directory.NewDirectoryBackend(dir)
	if err != nil {
		t.Fatalf("NewDirectoryBackend failed: %v", err)
	}
	other := newTestRoot(t, second)

	got, err := other.Get(ctx, data.NewID("a", "b"), content.Text)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatalf("Expected a/b in second root")
	}
	if value := mustRead(t, got); value != "hello" {
		t.Errorf("Expected %q, got %q", "hello", value)
	}
}

func TestRoot_SameIDDifferentTypes(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "x.src"), []byte("source"), 0644)
	os.WriteFile(filepath.Join(dir, "x.bin"), []byte{0x01}, 0644)

	adapter, err := directory.NewDirectoryBackend(dir)
	if err != nil {
		t.Fatalf("NewDirectoryBackend failed: %v", err)
	}
	root := newTestRoot(t, adapter)

	entries, err := root.Folder().GetAll(t.Context())
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	types := make(map[content.ContentType]bool)
	for _, e := range entries {
		if !e.ID().Equal(data.NewID("x")) {
			t.Errorf("Expected id x, got %s", e.ID())
		}
		types[e.ContentType()] = true
	}
	if !types[Source] || !types[content.Binary] {
		t.Errorf("Expected source and binary entries, got %v", types)
	}
}

func TestRoot_RefreshDropsDeleted(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "x.src"), []byte("source"), 0644)

	adapter, err := directory.NewDirectoryBackend(dir)
	if err != nil {
		t.Fatalf("NewDirectoryBackend failed: %v", err)
	}
	root := newTestRoot(t, adapter)
	ctx := t.Context()

	entry, err := root.Get(ctx, data.NewID("x"), Source)
	if err != nil || entry == nil {
		t.Fatalf("Get failed: %v", err)
	}
	mustRead(t, entry)

	if err := os.Remove(filepath.Join(dir, "x.src")); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := root.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if got, err := root.Get(ctx, data.NewID("x"), Source); err != nil || got != nil {
		t.Errorf("Expected deleted entry to be gone, got %v (%v)", got, err)
	}
}

func TestRoot_RefreshPreservesEdits(t *testing.T) {
	adapter := memory.NewMemoryBackend("")
	store(t, adapter, data.NewID("lib", "a"), "txt", "original")
	store(t, adapter, data.NewID("lib", "b"), "txt", "untouched")

	root := newTestRoot(t, adapter)
	ctx := t.Context()

	edited, err := root.Get(ctx, data.NewID("lib", "a"), content.Text)
	if err != nil || edited == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if err := edited.Write("edited"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	untouched, err := root.Get(ctx, data.NewID("lib", "b"), content.Text)
	if err != nil || untouched == nil {
		t.Fatalf("Get failed: %v", err)
	}

	// The whole folder disappears from the backend.
	adapter.DeleteObject(ctx, edited.Location())
	adapter.DeleteObject(ctx, untouched.Location())

	if err := root.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	got, err := root.Get(ctx, data.NewID("lib", "a"), content.Text)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != edited {
		t.Fatalf("Expected the edited entry to survive refresh, got %v", got)
	}
	if value := mustRead(t, got); value != "edited" {
		t.Errorf("Expected %q, got %q", "edited", value)
	}

	if got, _ := root.Get(ctx, data.NewID("lib", "b"), content.Text); got != nil {
		t.Errorf("Expected untouched entry to be dropped, got %v", got)
	}

	if err := root.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if adapter.Len() != 1 {
		t.Errorf("Expected edited entry to be written back, got %d objects", adapter.Len())
	}
}

func TestRoot_RefreshIdempotent(t *testing.T) {
	adapter := memory.NewMemoryBackend("")
	store(t, adapter, data.NewID("x"), "src", "x")
	store(t, adapter, data.NewID("x"), "bin", "x")
	store(t, adapter, data.NewID("lib", "y"), "src", "y")
	store(t, adapter, data.NewID("lib", "deep", "z"), "txt", "z")

	root := newTestRoot(t, adapter)
	ctx := t.Context()

	before, err := root.Folder().GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}

	// Changes on the backend appear once; further refreshes are no-ops.
	store(t, adapter, data.NewID("lib", "new"), "src", "new")
	for range 3 {
		if err := root.Refresh(ctx); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
	}

	after, err := root.Folder().GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("Expected %d entries, got %d", len(before)+1, len(after))
	}

	describe := func(entries []*Entry) string {
		var buf bytes.Buffer
		for _, e := range entries {
			fmt.Fprintf(&buf, "%s ", e)
		}
		return buf.String()
	}

	if err := root.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	again, _ := root.Folder().GetAll(ctx)
	if describe(again) != describe(after) {
		t.Errorf("Expected identical trees, got %q and %q", describe(after), describe(again))
	}
	for i := range after {
		if after[i] != again[i] {
			t.Errorf("Expected entry identity to be preserved for %s", after[i])
		}
	}

	for _, e := range before {
		if found, _ := root.Contains(ctx, e); !found {
			t.Errorf("Expected %s to be retained", e)
		}
	}
	assertSorted(t, root.Folder())
}

func TestRoot_RelativeEquivalence(t *testing.T) {
	adapter := memory.NewMemoryBackend("")
	store(t, adapter, data.NewID("pkg", "std", "io"), "src", "io")
	store(t, adapter, data.NewID("pkg", "std", "io"), "bin", "io")
	store(t, adapter, data.NewID("pkg", "std", "math", "vec"), "src", "vec")
	store(t, adapter, data.NewID("pkg", "other"), "src", "other")
	store(t, adapter, data.NewID("top"), "src", "top")

	root := newTestRoot(t, adapter)
	ctx := t.Context()
	prefix := data.NewID("pkg", "std")
	rel := root.Relative(prefix)

	ids := []data.ID{
		data.NewID("io"),
		data.NewID("math", "vec"),
		data.NewID("math"),
		data.NewID("missing"),
		data.NewID("other"),
	}
	for _, id := range ids {
		for _, ct := range []content.ContentType{Source, content.Binary, content.Text} {
			viaRel, err := rel.Get(ctx, id, ct)
			if err != nil {
				t.Fatalf("Relative Get failed: %v", err)
			}
			viaRoot, err := root.Get(ctx, prefix.Join(id), ct)
			if err != nil {
				t.Fatalf("Root Get failed: %v", err)
			}
			if viaRel != viaRoot {
				t.Errorf("Expected same result for %s.%s, got %v and %v", id, ct.Suffix(), viaRel, viaRoot)
			}
		}
	}

	matched, err := rel.Match(ctx, content.All())
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if got := fmt.Sprint(matched); got != "[io math/vec]" {
		t.Errorf("Expected [io math/vec], got %s", got)
	}

	matched, err = rel.Match(ctx, content.MustPattern("*", Source))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if got := fmt.Sprint(matched); got != "[io]" {
		t.Errorf("Expected [io], got %s", got)
	}

	nested := rel.Relative(data.NewID("math"))
	if got := nested.Prefix().String(); got != "pkg/std/math" {
		t.Errorf("Expected prefix pkg/std/math, got %s", got)
	}
	if entry, _ := nested.Get(ctx, data.NewID("vec"), Source); entry == nil || entry.ID().String() != "pkg/std/math/vec" {
		t.Errorf("Expected pkg/std/math/vec, got %v", entry)
	}

	created, err := rel.Create(ctx, data.NewID("fmt"), content.Text)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID().String() != "pkg/std/fmt" {
		t.Errorf("Expected pkg/std/fmt, got %s", created.ID())
	}
	if found, _ := rel.Contains(ctx, created); !found {
		t.Errorf("Expected relative root to contain created entry")
	}

	top, _ := root.Get(ctx, data.NewID("top"), Source)
	if found, _ := rel.Contains(ctx, top); found {
		t.Errorf("Expected relative root not to contain entries outside its prefix")
	}

	removed, err := rel.RemoveMatching(ctx, content.OfType(content.Binary))
	if err != nil || removed != 1 {
		t.Errorf("Expected 1 removal, got %d (%v)", removed, err)
	}
	if got, _ := root.Get(ctx, data.NewID("top"), Source); got == nil {
		t.Errorf("Expected entries outside the prefix to remain")
	}

	if rel.String() != "<memory>::pkg/std" {
		t.Errorf("Expected <memory>::pkg/std, got %s", rel.String())
	}
}

func TestRoot_RelativeFilterPruning(t *testing.T) {
	adapter := newCountingAdapter()
	store(t, adapter, data.NewID("pkg", "std", "io"), "src", "io")
	store(t, adapter, data.NewID("pkg", "other", "x"), "src", "x")
	store(t, adapter, data.NewID("unrelated", "y"), "src", "y")

	root := newTestRoot(t, adapter)
	rel := root.Relative(data.NewID("pkg", "std"))

	entries, err := rel.GetMatching(t.Context(), content.All())
	if err != nil {
		t.Fatalf("GetMatching failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}

	if adapter.count("unrelated") != 0 || adapter.count("pkg/other") != 0 {
		t.Errorf("Expected folders outside the prefix not to be enumerated, got unrelated=%d pkg/other=%d",
			adapter.count("unrelated"), adapter.count("pkg/other"))
	}
}

func TestRoot_ReadOnlyArchive(t *testing.T) {
	zf := &content.ZipFile{}
	zf.Add("x.src", time.Now(), []byte("source"))
	zf.Add("lib/y.txt", time.Now(), []byte("text"))

	root := newTestRoot(t, archive.FromZip(zf))
	ctx := t.Context()

	entry, err := root.Get(ctx, data.NewID("lib", "y"), content.Text)
	if err != nil || entry == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value := mustRead(t, entry); value != "text" {
		t.Errorf("Expected %q, got %q", "text", value)
	}

	checks := map[string]error{}
	_, checks["create"] = root.Create(ctx, data.NewID("z"), content.Text)
	_, checks["remove"] = root.Remove(ctx, data.NewID("x"), Source)
	_, checks["remove matching"] = root.RemoveMatching(ctx, content.All())
	checks["write"] = entry.Write("changed")

	for name, err := range checks {
		if !errors.Is(err, data.ErrUsage) || !errors.Is(err, data.ErrReadOnly) {
			t.Errorf("Expected %s to fail with ErrReadOnly, got %v", name, err)
		}
		if errors.Is(err, data.ErrIO) {
			t.Errorf("Expected %s failure to be distinct from ErrIO", name)
		}
	}

	if got, _ := root.Get(ctx, data.NewID("x"), Source); got == nil {
		t.Errorf("Expected x.src to remain")
	}
	if entry.IsModified() {
		t.Errorf("Expected refused write to leave the entry clean")
	}
}

func TestRoot_ArchiveFromEntry(t *testing.T) {
	registry := newTestRegistry(t)
	registry.MustRegister(content.Archive)

	adapter := memory.NewMemoryBackend("")
	root, err := NewRoot(t.Context(), adapter, registry, WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	defer root.Close(t.Context())
	ctx := t.Context()

	zf := &content.ZipFile{}
	zf.Add("core/list.src", time.Now(), []byte("list"))
	if _, err := CreateAs(ctx, root, data.NewID("deps", "core"), content.Archive, zf); err != nil {
		t.Fatalf("CreateAs failed: %v", err)
	}
	if err := root.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if err := root.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	loaded, ok, err := GetAs(ctx, root, data.NewID("deps", "core"), content.Archive)
	if err != nil || !ok {
		t.Fatalf("GetAs failed: %v (%v)", err, ok)
	}

	packaged, err := NewRoot(ctx, archive.FromZip(loaded), registry, WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	defer packaged.Close(ctx)

	entry, err := packaged.Get(ctx, data.NewID("core", "list"), Source)
	if err != nil || entry == nil {
		t.Fatalf("Expected core/list in packaged root, got %v (%v)", entry, err)
	}
	if value, _ := ReadAs[[]byte](ctx, entry); string(value) != "list" {
		t.Errorf("Expected %q, got %q", "list", value)
	}
}

func TestRoot_DottedSuffix(t *testing.T) {
	compressed := content.Zstd(content.CBOR[testConfig]("cbor"), "cfg.zst")
	registry := newTestRegistry(t).
		MustRegister(compressed).
		MustRegister(content.Bytes("zst"))

	factories := map[string]func(t *testing.T) (backend.Adapter, backend.Adapter){
		"memory": func(t *testing.T) (backend.Adapter, backend.Adapter) {
			adapter := memory.NewMemoryBackend("")
			return adapter, adapter
		},
		"directory": func(t *testing.T) (backend.Adapter, backend.Adapter) {
			dir := t.TempDir()
			first, err := directory.NewDirectoryBackend(dir)
			if err != nil {
				t.Fatalf("NewDirectoryBackend failed: %v", err)
			}
			second, err := directory.NewDirectoryBackend(dir)
			if err != nil {
				t.Fatalf("NewDirectoryBackend failed: %v", err)
			}
			return first, second
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			first, second := factory(t)
			id := data.NewID("pkg", "mod")
			want := testConfig{Name: "mod", Version: 2}

			root, err := NewRoot(ctx, first, registry, WithLogger(log.Discard()))
			if err != nil {
				t.Fatalf("NewRoot failed: %v", err)
			}
			defer root.Close(ctx)

			entry, err := root.Create(ctx, id, compressed)
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if err := entry.Write(want); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if err := root.Flush(ctx); err != nil {
				t.Fatalf("Flush failed: %v", err)
			}
			if err := root.Refresh(ctx); err != nil {
				t.Fatalf("Refresh failed: %v", err)
			}

			got, err := root.Get(ctx, id, compressed)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got == nil {
				t.Fatalf("Expected '%s' after refresh", id)
			}
			if got.Suffix() != "cfg.zst" {
				t.Errorf("Expected suffix 'cfg.zst', got '%s'", got.Suffix())
			}
			if value, ok := mustRead(t, got).(testConfig); !ok || value.Name != want.Name || value.Version != want.Version {
				t.Errorf("Expected %v, got %v", want, value)
			}

			stray, err := root.Get(ctx, data.NewID("pkg", "mod.cfg"), nil)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if stray != nil {
				t.Errorf("Expected no entry 'pkg/mod.cfg', got '%s'", stray)
			}

			other, err := NewRoot(ctx, second, registry, WithLogger(log.Discard()))
			if err != nil {
				t.Fatalf("NewRoot failed: %v", err)
			}
			defer other.Close(ctx)

			reopened, err := other.Get(ctx, id, compressed)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if reopened == nil {
				t.Fatalf("Expected '%s' in second root", id)
			}
			if value, ok := mustRead(t, reopened).(testConfig); !ok || value.Name != want.Name || value.Version != want.Version {
				t.Errorf("Expected %v, got %v", want, value)
			}
		})
	}
}

func TestRoot_FlushBestEffort(t *testing.T) {
	adapter := newCountingAdapter()
	root := newTestRoot(t, adapter)
	ctx := t.Context()

	ids := []data.ID{
		data.NewID("a"),
		data.NewID("lib", "b"),
		data.NewID("lib", "c"),
		data.NewID("z"),
	}
	entries := make([]*Entry, len(ids))
	for i, id := range ids {
		entry, err := root.Create(ctx, id, content.Text)
		if err != nil {
			t.Fatalf("Create of '%s' failed: %v", id, err)
		}
		if err := entry.Write(id.String()); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		entries[i] = entry
	}

	broken := entries[1]
	disk := errors.New("disk full")
	adapter.failWrite(broken.Location(), disk)

	err := root.Flush(ctx)
	if !errors.Is(err, data.ErrIO) || !errors.Is(err, disk) {
		t.Fatalf("Expected flush to report the failed write, got %v", err)
	}

	for _, entry := range entries {
		if entry == broken {
			if !entry.IsModified() {
				t.Errorf("Expected '%s' to stay modified after failed write", entry)
			}
			continue
		}
		if entry.IsModified() {
			t.Errorf("Expected '%s' to be flushed despite the failure", entry)
		}
		r, err := adapter.ReadObject(ctx, entry.Location())
		if err != nil {
			t.Errorf("Expected '%s' to be stored: %v", entry, err)
			continue
		}
		r.Close()
	}
	if !root.Folder().IsModified() {
		t.Errorf("Expected root to report the unflushed entry")
	}

	adapter.failWrite(broken.Location(), nil)
	if err := root.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if broken.IsModified() || root.Folder().IsModified() {
		t.Errorf("Expected retry to flush the remaining entry")
	}
}

func TestRoot_Find(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "lib"), 0755)
	os.WriteFile(filepath.Join(dir, "lib", "a.src"), []byte("a"), 0644)
	os.WriteFile(filepath.Join(dir, "lib", "a.bin"), []byte("a"), 0644)
	os.WriteFile(filepath.Join(dir, "b.src"), []byte("b"), 0644)

	adapter, err := directory.NewDirectoryBackend(dir)
	if err != nil {
		t.Fatalf("NewDirectoryBackend failed: %v", err)
	}
	root := newTestRoot(t, adapter)

	entries, err := root.Find(t.Context(), []string{
		filepath.Join(dir, "lib", "a.src"),
		filepath.Join(dir, "lib", "a.bin"),
		"b.src",
		filepath.Join(dir, "missing.src"),
		filepath.Join(dir, "README"),
	}, Source)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.String())
	}
	if got := fmt.Sprint(names); got != "[lib/a.src b.src]" {
		t.Errorf("Expected [lib/a.src b.src], got %s", got)
	}

	mem := newTestRoot(t, memory.NewMemoryBackend(""))
	if _, err := mem.Find(t.Context(), []string{"a.src"}, Source); !errors.Is(err, data.ErrUsage) {
		t.Errorf("Expected usage error for backend without resolver, got %v", err)
	}
}

func TestRoot_CreateErrors(t *testing.T) {
	root := newTestRoot(t, memory.NewMemoryBackend(""))
	ctx := t.Context()

	unregistered := content.Bytes("obj")
	if _, err := root.Create(ctx, data.NewID("a"), unregistered); !errors.Is(err, data.ErrUnregistered) {
		t.Errorf("Expected ErrUnregistered, got %v", err)
	}
	if _, err := root.Create(ctx, data.Root, content.Text); !errors.Is(err, data.ErrInvalid) {
		t.Errorf("Expected ErrInvalid for root id, got %v", err)
	}

	if root.String() != "<memory>" {
		t.Errorf("Expected <memory>, got %s", root.String())
	}
}

func TestNewRoot_Options(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "typedfs.log")

	root, err := NewRoot(t.Context(), memory.NewMemoryBackend(""), newTestRegistry(t),
		WithLogFile(logFile), WithoutTerminalLog())
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	defer root.Close(t.Context())

	failing := func(*RootOptions) error { return errors.New("bad option") }
	if _, err := NewRoot(t.Context(), memory.NewMemoryBackend(""), newTestRegistry(t), failing); err == nil {
		t.Errorf("Expected failing option to abort NewRoot")
	}

	if _, err := NewRoot(t.Context(), nil, newTestRegistry(t)); !errors.Is(err, data.ErrUsage) {
		t.Errorf("Expected usage error without adapter, got %v", err)
	}
}
