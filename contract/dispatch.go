package contract

import "github.com/rs/zerolog"

// Severity classifies the boundary at which a check runs
type Severity int

const (
	Precondition Severity = iota
	Postcondition
	ClassInvariant
	Service
)

func (s Severity) String() string {
	switch s {
	case Precondition:
		return "precondition"
	case Postcondition:
		return "postcondition"
	case ClassInvariant:
		return "class-invariant"
	case Service:
		return "service"
	default:
		return "unknown"
	}
}

// Dispatcher decides what a failed check turns into. Dispatch returns nil
// when cond holds; otherwise it returns an error, usually err itself.
type Dispatcher interface {
	Dispatch(sev Severity, cond bool, err *Error) error
}

// DispatcherFunc adapts a plain function to [Dispatcher].
type DispatcherFunc func(sev Severity, cond bool, err *Error) error

func (f DispatcherFunc) Dispatch(sev Severity, cond bool, err *Error) error {
	return f(sev, cond, err)
}

// Standard returns err unchanged whenever cond is false.
var Standard Dispatcher = DispatcherFunc(func(_ Severity, cond bool, err *Error) error {
	if cond {
		return nil
	}
	return err
})

// Logged decorates d so every failed check is reported on logger before
// being handed to d. Caller mistakes log at Warn, bugs at Error.
func Logged(d Dispatcher, logger zerolog.Logger) Dispatcher {
	if d == nil {
		d = Standard
	}
	return DispatcherFunc(func(sev Severity, cond bool, err *Error) error {
		if cond {
			return nil
		}
		evt := logger.Warn()
		if sev == Postcondition || sev == ClassInvariant {
			evt = logger.Error()
		}
		evt.Str("severity", sev.String()).Str("kind", err.Kind.String()).Msg(err.Msg)
		return d.Dispatch(sev, cond, err)
	})
}
