package content

import (
	"fmt"
	"path"
	"strings"

	"github.com/mwantia/typedfs/data"
)

// Filter selects entries by id and content type. MatchesSubpath is a
// coarser test used while walking a tree: when it returns false for a
// folder id, no entry below that folder can match and the folder is not
// visited at all.
type Filter interface {
	Matches(id data.ID, ct ContentType) bool
	MatchesSubpath(id data.ID) bool
}

type allFilter struct{}

func (allFilter) Matches(data.ID, ContentType) bool { return true }
func (allFilter) MatchesSubpath(data.ID) bool       { return true }
func (allFilter) String() string                    { return "**" }

// All matches every entry.
func All() Filter {
	return allFilter{}
}

type typeFilter struct {
	ct ContentType
}

func (f typeFilter) Matches(_ data.ID, ct ContentType) bool { return ct == f.ct }
func (f typeFilter) MatchesSubpath(data.ID) bool            { return true }

// OfType matches every entry of content type ct.
func OfType(ct ContentType) Filter {
	return typeFilter{ct: ct}
}

type underFilter struct {
	prefix data.ID
}

func (f underFilter) Matches(id data.ID, _ ContentType) bool {
	return id.Size() > f.prefix.Size() && id.HasPrefix(f.prefix)
}

func (f underFilter) MatchesSubpath(id data.ID) bool {
	return id.HasPrefix(f.prefix) || f.prefix.HasPrefix(id)
}

// Under matches every entry strictly below prefix.
func Under(prefix data.ID) Filter {
	return underFilter{prefix: prefix}
}

// PatternFilter matches ids against a slash separated pattern. Each
// component is a path.Match pattern, and the component "**" matches any
// number of components, including none.
type PatternFilter struct {
	pattern    string
	components []string
	ct         ContentType
}

// Pattern compiles pattern. When ct is nil entries of every content type
// are matched.
func Pattern(pattern string, ct ContentType) (*PatternFilter, error) {
	components := strings.FieldsFunc(pattern, func(r rune) bool { return r == '/' })
	for _, c := range components {
		if c == "**" {
			continue
		}
		if _, err := path.Match(c, ""); err != nil {
			return nil, data.UsageError(data.ErrInvalid, "bad pattern '%s': %v", pattern, err)
		}
	}

	return &PatternFilter{
		pattern:    pattern,
		components: components,
		ct:         ct,
	}, nil
}

// MustPattern is Pattern for patterns known to be valid.
func MustPattern(pattern string, ct ContentType) *PatternFilter {
	f, err := Pattern(pattern, ct)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *PatternFilter) Matches(id data.ID, ct ContentType) bool {
	if f.ct != nil && ct != f.ct {
		return false
	}
	return matchComponents(f.components, id.Components())
}

func (f *PatternFilter) MatchesSubpath(id data.ID) bool {
	return matchLeading(f.components, id.Components())
}

func (f *PatternFilter) String() string {
	if f.ct != nil {
		return fmt.Sprintf("%s.%s", f.pattern, f.ct.Suffix())
	}
	return f.pattern
}

func matchComponents(pattern, components []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			for skip := 0; skip <= len(components); skip++ {
				if matchComponents(pattern[1:], components[skip:]) {
					return true
				}
			}
			return false
		}
		if len(components) == 0 {
			return false
		}
		if ok, _ := path.Match(pattern[0], components[0]); !ok {
			return false
		}
		pattern, components = pattern[1:], components[1:]
	}
	return len(components) == 0
}

// matchLeading reports whether some extension of components could match
// pattern.
func matchLeading(pattern, components []string) bool {
	for len(components) > 0 {
		if len(pattern) == 0 {
			return false
		}
		if pattern[0] == "**" {
			return true
		}
		if ok, _ := path.Match(pattern[0], components[0]); !ok {
			return false
		}
		pattern, components = pattern[1:], components[1:]
	}
	return true
}

type andFilter []Filter

func (fs andFilter) Matches(id data.ID, ct ContentType) bool {
	for _, f := range fs {
		if !f.Matches(id, ct) {
			return false
		}
	}
	return true
}

func (fs andFilter) MatchesSubpath(id data.ID) bool {
	for _, f := range fs {
		if !f.MatchesSubpath(id) {
			return false
		}
	}
	return true
}

// And matches entries accepted by every filter.
func And(filters ...Filter) Filter {
	return andFilter(filters)
}

type orFilter []Filter

func (fs orFilter) Matches(id data.ID, ct ContentType) bool {
	for _, f := range fs {
		if f.Matches(id, ct) {
			return true
		}
	}
	return false
}

func (fs orFilter) MatchesSubpath(id data.ID) bool {
	for _, f := range fs {
		if f.MatchesSubpath(id) {
			return true
		}
	}
	return false
}

// Or matches entries accepted by at least one filter.
func Or(filters ...Filter) Filter {
	return orFilter(filters)
}

type notFilter struct {
	inner Filter
}

func (f notFilter) Matches(id data.ID, ct ContentType) bool { return !f.inner.Matches(id, ct) }

// A negated filter can match below any folder.
func (f notFilter) MatchesSubpath(data.ID) bool { return true }

// Not matches entries the inner filter rejects.
func Not(inner Filter) Filter {
	return notFilter{inner: inner}
}
