package data

import (
	"fmt"
	"strings"
)

// Separator joins the components of an ID in its string form.
const Separator = "/"

// ID is an immutable hierarchical name made of an ordered list of
// components. The zero value is the root of a namespace.
type ID struct {
	components []string
}

// Root is the empty ID every other ID descends from.
var Root = ID{}

// NewID creates an ID from the given components. Components must be
// non-empty and must not contain the separator.
func NewID(components ...string) ID {
	for _, c := range components {
		mustComponent(c)
	}

	return ID{components: append([]string(nil), components...)}
}

// ParseID converts "a/b/c" into an ID. Empty components (leading,
// trailing or doubled separators) are ignored, so "" and "/" yield Root.
func ParseID(s string) ID {
	parts := strings.Split(s, Separator)
	components := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			components = append(components, part)
		}
	}

	if len(components) == 0 {
		return Root
	}
	return ID{components: components}
}

func (id ID) Size() int {
	return len(id.components)
}

func (id ID) IsRoot() bool {
	return len(id.components) == 0
}

// Get returns the component at index i and panics when i is out of range.
func (id ID) Get(i int) string {
	if i < 0 || i >= len(id.components) {
		panic(fmt.Sprintf("data: component index %d out of range for '%s'", i, id))
	}
	return id.components[i]
}

// Last returns the final component, or "" for Root.
func (id ID) Last() string {
	if len(id.components) == 0 {
		return ""
	}
	return id.components[len(id.components)-1]
}

// Parent returns the ID without its last component. The parent of Root is Root.
func (id ID) Parent() ID {
	if len(id.components) <= 1 {
		return Root
	}
	return id.Subpath(0, len(id.components)-1)
}

// Subpath returns components [start, end) and panics on an invalid range.
func (id ID) Subpath(start, end int) ID {
	if start < 0 || end > len(id.components) || start > end {
		panic(fmt.Sprintf("data: subpath [%d:%d] out of range for '%s'", start, end, id))
	}
	if start == end {
		return Root
	}
	// Capacity is clipped so that a later append never writes into a shared array.
	return ID{components: id.components[start:end:end]}
}

// Append returns a new ID with component added at the end.
func (id ID) Append(component string) ID {
	mustComponent(component)

	components := make([]string, len(id.components)+1)
	copy(components, id.components)
	components[len(id.components)] = component

	return ID{components: components}
}

// Join returns a new ID with all components of other appended.
func (id ID) Join(other ID) ID {
	if other.IsRoot() {
		return id
	}
	if id.IsRoot() {
		return other
	}

	components := make([]string, 0, len(id.components)+len(other.components))
	components = append(components, id.components...)
	components = append(components, other.components...)

	return ID{components: components}
}

// Components returns a copy of the component list.
func (id ID) Components() []string {
	return append([]string(nil), id.components...)
}

// HasPrefix reports whether prefix is equal to, or an ancestor of, id.
func (id ID) HasPrefix(prefix ID) bool {
	if len(prefix.components) > len(id.components) {
		return false
	}
	for i, c := range prefix.components {
		if id.components[i] != c {
			return false
		}
	}
	return true
}

// TrimPrefix removes prefix from id. The second result is false when
// prefix is not a prefix of id.
func (id ID) TrimPrefix(prefix ID) (ID, bool) {
	if !id.HasPrefix(prefix) {
		return id, false
	}
	return id.Subpath(prefix.Size(), id.Size()), true
}

func (id ID) Equal(other ID) bool {
	return id.Compare(other) == 0
}

// Compare orders IDs component by component. An ID that is a strict
// prefix of another sorts before it, so a parent always precedes its
// children and all descendants of an ID are contiguous.
func (id ID) Compare(other ID) int {
	n := min(len(id.components), len(other.components))
	for i := 0; i < n; i++ {
		if c := strings.Compare(id.components[i], other.components[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(id.components) < len(other.components):
		return -1
	case len(id.components) > len(other.components):
		return 1
	default:
		return 0
	}
}

func (id ID) String() string {
	return strings.Join(id.components, Separator)
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	*id = ParseID(string(text))
	return nil
}

func mustComponent(component string) {
	if component == "" || strings.Contains(component, Separator) {
		panic(fmt.Sprintf("data: invalid id component '%s'", component))
	}
}
