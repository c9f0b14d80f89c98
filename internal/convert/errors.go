// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "errors"

var (
	// ErrUnsupportedFormat marks a file whose kind is not recognized.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrConversionFailed wraps an extraction or transformation error. The
	// underlying cause stays reachable through errors.Is and errors.As.
	ErrConversionFailed = errors.New("conversion failed")

	// ErrOutputWrite marks a failure writing the final markdown.
	ErrOutputWrite = errors.New("output write failed")
)

// stageError attaches a pipeline sentinel to a cause so that both match
// errors.Is.
type stageError struct {
	kind  error
	cause error
}

func (e *stageError) Error() string   { return e.kind.Error() + ": " + e.cause.Error() }
func (e *stageError) Unwrap() []error { return []error{e.kind, e.cause} }

func wrap(kind, cause error) error {
	if cause == nil || errors.Is(cause, kind) {
		return cause
	}
	return &stageError{kind: kind, cause: cause}
}
