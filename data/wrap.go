package data

import (
	"errors"
	"fmt"
)

// UsageError reports a contract violation of the given kind, for example
// UsageError(ErrReadOnly, "cannot create '%s'", id).
func UsageError(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrUsage, kind, fmt.Sprintf(format, args...))
}

// IOError wraps an adapter failure. Errors that already carry ErrUsage or
// ErrIO are returned unchanged so that they keep their classification.
func IOError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUsage) || errors.Is(err, ErrIO) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, fmt.Sprintf(format, args...), err)
}
