// Package apperr is the error taxonomy shared by every service. Handlers map
// a Kind to an HTTP status; services only decide which Kind a failure is.
package apperr

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

type Error struct {
	Kind     Kind
	Message  string
	Internal error
}

var (
	ErrValidation  = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrNotFound    = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict    = &Error{Kind: KindConflict, Message: "conflicting update"}
	ErrUnavailable = &Error{Kind: KindUnavailable, Message: "store unavailable"}
)

func (e *Error) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Internal }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

func (e *Error) WithInternal(err error) *Error {
	cp := *e
	cp.Internal = err
	return &cp
}

func Validation(msg string) error { return ErrValidation.WithMessage(msg) }

func NotFound(msg string) error { return ErrNotFound.WithMessage(msg) }

// KindOf reports the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-facing message of err. Internal causes are
// never exposed.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
