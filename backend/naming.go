package backend

import (
	"strings"

	"github.com/mwantia/typedfs/data"
)

// SplitName splits a physical file name into its logical name and suffix
// at the last dot. Names without a dot, or whose only dot is the leading
// one, have no logical name and are not entries.
func SplitName(filename string) (string, string, bool) {
	idx := strings.LastIndexByte(filename, '.')
	if idx <= 0 || idx == len(filename)-1 {
		return "", "", false
	}
	return filename[:idx], filename[idx+1:], true
}

// JoinName is the inverse of SplitName.
func JoinName(name, suffix string) string {
	if suffix == "" {
		return name
	}
	return name + "." + suffix
}

// Key returns the slash separated location of id with suffix applied to
// its last component, for example "a/b" + "src" -> "a/b.src".
func Key(id data.ID, suffix string) string {
	return JoinName(id.String(), suffix)
}

// ParseKey converts a slash separated location back into an object. Keys
// that cannot name an entry yield false.
func ParseKey(key string) (data.ID, string, bool) {
	key = strings.Trim(key, "/")
	dir, file := "", key
	if idx := strings.LastIndexByte(key, '/'); idx >= 0 {
		dir, file = key[:idx], key[idx+1:]
	}

	name, suffix, ok := SplitName(file)
	if !ok {
		return data.Root, "", false
	}
	return data.ParseID(dir).Append(name), suffix, true
}

// ChildrenOf turns a flat, sorted or unsorted list of slash separated keys
// into the direct children of folder: entries for keys located directly in
// folder and one sub-folder object per distinct nested component. Backends
// with flat key spaces (object stores, KV stores, SQL tables) use it to
// implement Enumerate.
func ChildrenOf(folder data.ID, keys []string, describe func(key string, obj *Object)) []*Object {
	prefix := folder.String()
	if prefix != "" {
		prefix += "/"
	}

	seen := make(map[string]bool)
	objects := make([]*Object, 0)

	for _, key := range keys {
		key = strings.TrimPrefix(key, "/")
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		rel := key[len(prefix):]
		if rel == "" {
			continue
		}

		if idx := strings.IndexByte(rel, '/'); idx >= 0 {
			name := rel[:idx]
			if name != "" && !seen[name] {
				seen[name] = true
				objects = append(objects, NewFolderObject(folder.Append(name)))
			}
			continue
		}

		name, suffix, ok := SplitName(rel)
		if !ok {
			continue
		}

		obj := &Object{
			ID:       folder.Append(name),
			Suffix:   suffix,
			Location: key,
		}
		if describe != nil {
			describe(key, obj)
		}
		objects = append(objects, obj)
	}

	return objects
}
