package content

import (
	"sync"

	"github.com/mwantia/typedfs/data"
)

// Associable is an entry whose content type is bound once by a Registry.
type Associable interface {
	Suffix() string
	ContentType() ContentType
	Associate(ct ContentType, value any) error
}

// Registry maps suffixes to content types and back. It is populated while
// a workspace is configured and only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	types    map[string]ContentType
	fallback ContentType
}

// NewRegistry creates an empty registry that falls back to Binary for
// unknown suffixes.
func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[string]ContentType),
		fallback: Binary,
	}
}

// Register binds ct to its own suffix and to every alias given. A suffix
// that is already bound to a different content type is rejected.
func (r *Registry) Register(ct ContentType, aliases ...string) error {
	if ct == nil {
		return data.UsageError(data.ErrInvalid, "cannot register nil content type")
	}

	suffixes := append([]string{ct.Suffix()}, aliases...)

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, suffix := range suffixes {
		suffix = normalizeSuffix(suffix)
		if suffix == "" {
			return data.UsageError(data.ErrInvalid, "cannot register content type without suffix")
		}
		if existing, ok := r.types[suffix]; ok && existing != ct {
			return data.UsageError(data.ErrExist, "suffix '%s' already bound to another content type", suffix)
		}
		suffixes[i] = suffix
	}

	for _, suffix := range suffixes {
		r.types[suffix] = ct
	}

	return nil
}

// MustRegister is Register for static setup code; it panics on error.
func (r *Registry) MustRegister(ct ContentType, aliases ...string) *Registry {
	if err := r.Register(ct, aliases...); err != nil {
		panic(err)
	}
	return r
}

// Unregister removes the binding of suffix and reports whether one existed.
func (r *Registry) Unregister(suffix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	suffix = normalizeSuffix(suffix)
	if _, ok := r.types[suffix]; !ok {
		return false
	}

	delete(r.types, suffix)
	return true
}

// SetFallback replaces the content type bound to unknown suffixes.
func (r *Registry) SetFallback(ct ContentType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fallback = ct
}

func (r *Registry) Fallback() ContentType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.fallback
}

// Suffix returns the suffix ct is registered under. The content type's
// own suffix wins when it is bound to ct; otherwise any alias is returned.
func (r *Registry) Suffix(ct ContentType) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ct == nil {
		return "", false
	}
	if bound, ok := r.types[ct.Suffix()]; ok && bound == ct {
		return ct.Suffix(), true
	}
	for suffix, bound := range r.types {
		if bound == ct {
			return suffix, true
		}
	}

	return "", false
}

// ContentType returns the content type bound to suffix.
func (r *Registry) ContentType(suffix string) (ContentType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ct, ok := r.types[normalizeSuffix(suffix)]
	return ct, ok
}

// Associate binds the content type matching the entry's physical suffix,
// or the fallback type when nothing matches. Associating an entry twice
// is a usage error.
func (r *Registry) Associate(e Associable) error {
	if e.ContentType() != nil {
		return data.UsageError(data.ErrAlreadyAssociated, "entry with suffix '%s'", e.Suffix())
	}

	ct, ok := r.ContentType(e.Suffix())
	if !ok {
		ct = r.Fallback()
	}

	return e.Associate(ct, nil)
}

// Split separates name into base and the longest registered suffix, so
// that "mod.wyil.zst" splits as "mod" and "wyil.zst" when that suffix is
// bound. It reports false when no registered suffix matches with a
// non-empty base.
func (r *Registry) Split(name string) (string, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := 1; i < len(name)-1; i++ {
		if name[i] != '.' {
			continue
		}
		if _, ok := r.types[name[i+1:]]; ok {
			return name[:i], name[i+1:], true
		}
	}

	return "", "", false
}
