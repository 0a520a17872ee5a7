package sibelia

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable classification of an engine error, mirroring
// the error kinds the pipeline is required to surface.
type Kind string

const (
	// KindInputTooLarge means the total size of all input records exceeds
	// MaxInputSize.
	KindInputTooLarge Kind = "INPUT_TOO_LARGE"
	// KindInvalidParameter means a stage, k-mer size, or other tunable is
	// out of its valid range.
	KindInvalidParameter Kind = "INVALID_PARAMETER"
	// KindIoError means reading a stage or config file, writing a config
	// file, or a spill operation failed. Engine.Run also uses it when its
	// context is canceled.
	KindIoError Kind = "IO_ERROR"
	// KindCorruption means an internal invariant of the graph or store
	// was violated. It is always fatal to the stage in progress.
	KindCorruption Kind = "CORRUPTION"
)

// Error is a structured engine error carrying a machine-readable Kind
// alongside a human-readable message and optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// newError creates an Error with the given kind and formatted message.
func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// wrapError creates an Error wrapping an existing error.
func wrapError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsKind reports whether the first *Error in err's chain carries the
// given Kind; any *Error nested below that one is not consulted.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
