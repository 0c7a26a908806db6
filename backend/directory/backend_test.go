package directory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwantia/typedfs/data"
)

func TestDirectoryBackend_Resolve(t *testing.T) {
	root := t.TempDir()
	db, err := NewDirectoryBackend(root)
	if err != nil {
		t.Fatalf("NewDirectoryBackend failed: %v", err)
	}

	tests := []struct {
		native string
		id     data.ID
		suffix string
		ok     bool
	}{
		{filepath.Join(root, "x.src"), data.NewID("x"), "src", true},
		{filepath.Join(root, "lib", "util.src"), data.NewID("lib", "util"), "src", true},
		{filepath.Join("lib", "util.src"), data.NewID("lib", "util"), "src", true},
		{filepath.Join(root, "README"), data.Root, "", false},
		{filepath.Join(filepath.Dir(root), "outside.src"), data.Root, "", false},
		{root, data.Root, "", false},
	}

	for _, tt := range tests {
		id, suffix, ok := db.Resolve(tt.native)
		if ok != tt.ok || !id.Equal(tt.id) || suffix != tt.suffix {
			t.Errorf("Resolve(%q): expected (%v, %q, %v), got (%v, %q, %v)", tt.native, tt.id, tt.suffix, tt.ok, id, suffix, ok)
		}
	}
}

func TestDirectoryBackend_LocateAndHidden(t *testing.T) {
	root := t.TempDir()
	db, err := NewDirectoryBackend(root)
	if err != nil {
		t.Fatalf("NewDirectoryBackend failed: %v", err)
	}

	location := db.Locate(data.NewID("a", "b"), "src")
	if expected := filepath.Join(root, "a", "b.src"); location != expected {
		t.Errorf("Expected %q, got %q", expected, location)
	}

	os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(root, "noext"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(root, "kept.txt"), []byte("x"), 0644)

	objects, err := db.Enumerate(t.Context(), data.Root)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	if len(objects) != 1 || objects[0].ID.String() != "kept" {
		t.Errorf("Expected only kept.txt, got %v", objects)
	}
}

func TestDirectoryBackend_ReadOnly(t *testing.T) {
	db, err := NewReadOnlyDirectoryBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewReadOnlyDirectoryBackend failed: %v", err)
	}

	if _, err := db.WriteObject(t.Context(), db.Locate(data.NewID("x"), "txt")); err != data.ErrUnsupported {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
	if err := db.DeleteObject(t.Context(), db.Locate(data.NewID("x"), "txt")); err != data.ErrUnsupported {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestDirectoryBackend_WithFilter(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "lib"), 0755)
	os.MkdirAll(filepath.Join(root, ".git"), 0755)
	os.WriteFile(filepath.Join(root, "a.src"), []byte("a"), 0644)
	os.WriteFile(filepath.Join(root, "a.src~"), []byte("backup"), 0644)
	os.WriteFile(filepath.Join(root, "lib", "b.src"), []byte("b"), 0644)

	db, err := NewReadOnlyDirectoryBackend(root, WithFilter(func(entry fs.DirEntry) bool {
		return !strings.HasPrefix(entry.Name(), ".") && !strings.HasSuffix(entry.Name(), "~")
	}))
	if err != nil {
		t.Fatalf("NewReadOnlyDirectoryBackend failed: %v", err)
	}

	objects, err := db.Enumerate(t.Context(), data.Root)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	var names []string
	for _, obj := range objects {
		names = append(names, fmt.Sprintf("%s:%s:%v", obj.ID, obj.Suffix, obj.Dir))
	}
	if got := strings.Join(names, " "); got != "a:src:false lib::true" {
		t.Errorf("Expected filtered listing 'a:src:false lib::true', got '%s'", got)
	}

	unfiltered, err := NewDirectoryBackend(root)
	if err != nil {
		t.Fatalf("NewDirectoryBackend failed: %v", err)
	}
	all, err := unfiltered.Enumerate(t.Context(), data.Root)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	if len(all) <= len(objects) {
		t.Errorf("Expected the unfiltered listing to contain more than %d objects, got %d", len(objects), len(all))
	}
}
