// Package contract holds the error taxonomy and the assertion dispatch
// used at every precondition, postcondition and class invariant boundary.
package contract

import (
	"errors"
	"fmt"
)

// Kind classifies a contract failure
type Kind int

const (
	KindInvalidArgument Kind = iota + 1 // caller passed an out-of-contract value
	KindIndexOutOfRange                 // index outside the valid range
	KindInvalidState                    // class invariant broken (bug)
	KindMethodFailed                    // postcondition not met (bug)
	KindServiceFailure                  // tree-wide operation hit a bug in a descendant
	KindTargetNotSet                    // link has no resolvable target
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindIndexOutOfRange:
		return "index out of range"
	case KindInvalidState:
		return "invalid state"
	case KindMethodFailed:
		return "method failed"
	case KindServiceFailure:
		return "service failure"
	case KindTargetNotSet:
		return "target not set"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the concrete error returned for every contract violation.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Kind when the target carries no message,
// which is what the Err* sentinels below rely on.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg != "" {
		return t == e
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrInvalidArgument error = &Error{Kind: KindInvalidArgument}
	ErrIndexOutOfRange error = &Error{Kind: KindIndexOutOfRange}
	ErrInvalidState    error = &Error{Kind: KindInvalidState}
	ErrMethodFailed    error = &Error{Kind: KindMethodFailed}
	ErrServiceFailure  error = &Error{Kind: KindServiceFailure}
	ErrTargetNotSet    error = &Error{Kind: KindTargetNotSet}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...any) *Error {
	return newError(KindInvalidArgument, format, args...)
}

// IndexOutOfRange reports i outside [0, n) (or [0, n] for inclusive ranges).
func IndexOutOfRange(i, n int, inclusive bool) *Error {
	if inclusive {
		return newError(KindIndexOutOfRange, "index %d out of range [0, %d]", i, n)
	}
	return newError(KindIndexOutOfRange, "index %d out of range [0, %d)", i, n)
}

func InvalidState(format string, args ...any) *Error {
	return newError(KindInvalidState, format, args...)
}

func MethodFailed(format string, args ...any) *Error {
	return newError(KindMethodFailed, format, args...)
}

func TargetNotSet(format string, args ...any) *Error {
	return newError(KindTargetNotSet, format, args...)
}

// Wrap builds a ServiceFailure that keeps cause reachable through errors.As.
func Wrap(msg string, cause error) *Error {
	return &Error{Kind: KindServiceFailure, Msg: msg, Cause: cause}
}

// IsBug reports whether err signals a broken invariant or postcondition
// rather than a caller mistake.
func IsBug(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrMethodFailed)
}

// KindOf returns the Kind of the outermost *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
