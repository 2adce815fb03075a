// Package spiceerr defines the closed error-kind taxonomy surfaced by
// the simulation core, so callers can branch on Kind with errors.As
// instead of matching error strings.
package spiceerr

import "fmt"

// Kind is one of the error categories the core can surface.
type Kind int

const (
	// InvalidComponent: constructor-time parameter violations.
	InvalidComponent Kind = iota
	// InvalidNetlist: preprocessor rejects the input.
	InvalidNetlist
	// SingularMatrix: direct solver fails after all fallbacks.
	SingularMatrix
	// DidNotConverge: all iterative solvers exceeded their caps on a step.
	DidNotConverge
	// EventLocalizationFailed: bisection exceeded its iteration cap.
	EventLocalizationFailed
	// NumericalBlowup: NaN or out-of-envelope value detected in state or solution.
	NumericalBlowup
	// Unsupported: netlist uses a feature not implemented.
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case InvalidComponent:
		return "InvalidComponent"
	case InvalidNetlist:
		return "InvalidNetlist"
	case SingularMatrix:
		return "SingularMatrix"
	case DidNotConverge:
		return "DidNotConverge"
	case EventLocalizationFailed:
		return "EventLocalizationFailed"
	case NumericalBlowup:
		return "NumericalBlowup"
	case Unsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by the core. It carries a
// Kind for programmatic dispatch and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Kind, so
// errors.Is(err, spiceerr.New(spiceerr.SingularMatrix, "")) works as a
// kind-check idiom.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind around a cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// OfKind is a sentinel usable with errors.Is(err, spiceerr.OfKind(k)).
func OfKind(kind Kind) *Error { return &Error{Kind: kind} }
