package imaging

import (
	"errors"
	"fmt"

	"github.com/ironsheep/texture-tools-mcp/internal/progress"
)

// ErrorKind classifies a failure so callers can react without parsing
// messages.
type ErrorKind int

const (
	// Other covers failures that fit no more specific kind.
	Other ErrorKind = iota
	// DecodeFailure: a file could not be read or decoded.
	DecodeFailure
	// UnsupportedPixelFormat: a component type outside the known set.
	UnsupportedPixelFormat
	// UnsupportedComponentCount: a component count or channel index out of
	// range, or mismatched image dimensions.
	UnsupportedComponentCount
	// ColorProfileFailure: a profile could not be classified, linearized or
	// applied.
	ColorProfileFailure
	// CompressionFailure: invalid compression or resampling parameters, or
	// an encoder error.
	CompressionFailure
	// Cancelled: the progress sink requested cancellation.
	Cancelled
)

func (k ErrorKind) String() string {
	switch k {
	case DecodeFailure:
		return "decode failure"
	case UnsupportedPixelFormat:
		return "unsupported pixel format"
	case UnsupportedComponentCount:
		return "unsupported component count"
	case ColorProfileFailure:
		return "color profile failure"
	case CompressionFailure:
		return "compression failure"
	case Cancelled:
		return "cancelled"
	}
	return "error"
}

// Error is the error type returned by every operation in this package.
//
// Use errors.As to inspect it, or KindOf for the kind alone. Errors of kind
// Cancelled also satisfy errors.Is(err, progress.ErrCancelled).
type Error struct {
	Kind ErrorKind
	// Op names the operation that failed, such as "load" or "resample".
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind that carries no Op or Err,
// so errors.Is(err, &Error{Kind: Cancelled}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain, or Other.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, progress.ErrCancelled) {
		return Cancelled
	}
	return Other
}

// IsCancelled reports whether err stems from a cancellation request.
func IsCancelled(err error) bool {
	return KindOf(err) == Cancelled
}

// newError wraps err for op. Cancellation and existing kinds take
// precedence over kind.
func newError(op string, kind ErrorKind, err error) error {
	if err == nil {
		return &Error{Kind: kind, Op: op}
	}
	if errors.Is(err, progress.ErrCancelled) {
		return &Error{Kind: Cancelled, Op: op, Err: progress.ErrCancelled}
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func errorf(op string, kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}
