package content

import (
	"io"

	"github.com/mwantia/typedfs/data"
)

// ContentType is a codec that turns the raw bytes of a physical object into
// a typed in-memory value and back. Content types are compared by identity:
// two distinct values are different content types even when they share a
// suffix.
type ContentType interface {
	// Suffix returns the nominal file suffix, without the leading dot.
	Suffix() string
	// Decode parses the bytes of the object identified by id.
	Decode(id data.ID, r io.Reader) (any, error)
	// Encode serializes value, which must have the type the codec decodes to.
	Encode(w io.Writer, value any) error
}

// Checker is implemented by content types that can validate a value
// before it is cached for encoding.
type Checker interface {
	Check(value any) error
}

type DecodeFunc[T any] func(id data.ID, r io.Reader) (T, error)

type EncodeFunc[T any] func(w io.Writer, value T) error

// Type is a ContentType whose values are of type T.
type Type[T any] struct {
	suffix string
	decode DecodeFunc[T]
	encode EncodeFunc[T]
}

// NewType creates a content type. Every call returns a distinct identity.
func NewType[T any](suffix string, decode DecodeFunc[T], encode EncodeFunc[T]) *Type[T] {
	return &Type[T]{
		suffix: normalizeSuffix(suffix),
		decode: decode,
		encode: encode,
	}
}

func (t *Type[T]) Suffix() string {
	return t.suffix
}

func (t *Type[T]) Decode(id data.ID, r io.Reader) (any, error) {
	return t.DecodeValue(id, r)
}

func (t *Type[T]) Encode(w io.Writer, value any) error {
	if err := t.Check(value); err != nil {
		return err
	}
	return t.EncodeValue(w, value.(T))
}

// Check reports whether value has the Go type this content type encodes.
func (t *Type[T]) Check(value any) error {
	if _, ok := value.(T); !ok {
		return data.UsageError(data.ErrInvalid, "content type '%s' cannot encode %T", t.suffix, value)
	}
	return nil
}

// DecodeValue is the typed form of Decode.
func (t *Type[T]) DecodeValue(id data.ID, r io.Reader) (T, error) {
	return t.decode(id, r)
}

// EncodeValue is the typed form of Encode.
func (t *Type[T]) EncodeValue(w io.Writer, value T) error {
	return t.encode(w, value)
}

func (t *Type[T]) String() string {
	return t.suffix
}

func normalizeSuffix(suffix string) string {
	for len(suffix) > 0 && suffix[0] == '.' {
		suffix = suffix[1:]
	}
	return suffix
}
