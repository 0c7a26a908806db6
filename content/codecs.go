package content

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/mwantia/typedfs/data"
	"gopkg.in/yaml.v3"
)

// Binary is the opaque content type bound to suffixes nothing else claims.
var Binary = NewType("bin", decodeBytes, encodeBytes)

// Text holds UTF-8 text as a string.
var Text = NewType("txt",
	func(id data.ID, r io.Reader) (string, error) {
		b, err := io.ReadAll(r)
		return string(b), err
	},
	func(w io.Writer, value string) error {
		_, err := io.WriteString(w, value)
		return err
	},
)

// Bytes creates an opaque content type with its own identity and suffix.
func Bytes(suffix string) *Type[[]byte] {
	return NewType(suffix, decodeBytes, encodeBytes)
}

// JSON creates a content type storing T as indented JSON.
func JSON[T any](suffix string) *Type[T] {
	return NewType(suffix,
		func(id data.ID, r io.Reader) (T, error) {
			var value T
			err := json.NewDecoder(r).Decode(&value)
			return value, err
		},
		func(w io.Writer, value T) error {
			encoder := json.NewEncoder(w)
			encoder.SetIndent("", "  ")
			return encoder.Encode(value)
		},
	)
}

// YAML creates a content type storing T as a YAML document.
func YAML[T any](suffix string) *Type[T] {
	return NewType(suffix,
		func(id data.ID, r io.Reader) (T, error) {
			var value T
			if err := yaml.NewDecoder(r).Decode(&value); err != nil && err != io.EOF {
				return value, err
			}
			return value, nil
		},
		func(w io.Writer, value T) error {
			encoder := yaml.NewEncoder(w)
			encoder.SetIndent(2)
			if err := encoder.Encode(value); err != nil {
				return err
			}
			return encoder.Close()
		},
	)
}

// cborEnc uses Core Deterministic Encoding so equal values always produce
// identical bytes.
var cborEnc = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("content: CBOR encoder initialization failed: " + err.Error())
	}
	return mode
}()

// CBOR creates a content type storing T as deterministic CBOR, the format
// used for intermediate binaries.
func CBOR[T any](suffix string) *Type[T] {
	return NewType(suffix,
		func(id data.ID, r io.Reader) (T, error) {
			var value T
			err := cbor.NewDecoder(r).Decode(&value)
			return value, err
		},
		func(w io.Writer, value T) error {
			return cborEnc.NewEncoder(w).Encode(value)
		},
	)
}

func decodeBytes(id data.ID, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeBytes(w io.Writer, value []byte) error {
	_, err := w.Write(value)
	return err
}
