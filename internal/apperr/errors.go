// Package apperr is the error taxonomy shared by the engines and the
// transport boundaries.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/go-errors/errors"
)

type Kind string

const (
	KindValidation           Kind = "VALIDATION"
	KindAuthorization        Kind = "AUTHORIZATION"
	KindUnauthenticated      Kind = "UNAUTHENTICATED"
	KindNotFound             Kind = "NOT_FOUND"
	KindInvalidTransition    Kind = "INVALID_TRANSITION"
	KindDuplicateApplication Kind = "DUPLICATE_APPLICATION"
	KindJobNotOpen           Kind = "JOB_NOT_OPEN"
	KindUpload               Kind = "UPLOAD"
	KindDependency           Kind = "DEPENDENCY"
	KindInternal             Kind = "INTERNAL"
)

// Error is a domain error with an optional per-field breakdown.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StackTrace() []byte {
	return e.Stack
}

// Is matches another *Error by kind so callers can write
// errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation           = &Error{Kind: KindValidation}
	ErrAuthorization        = &Error{Kind: KindAuthorization}
	ErrUnauthenticated      = &Error{Kind: KindUnauthenticated}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrInvalidTransition    = &Error{Kind: KindInvalidTransition}
	ErrDuplicateApplication = &Error{Kind: KindDuplicateApplication}
	ErrJobNotOpen           = &Error{Kind: KindJobNotOpen}
	ErrUpload               = &Error{Kind: KindUpload}
	ErrDependency           = &Error{Kind: KindDependency}
)

func New(kind Kind, message string, err error) *Error {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func Validation(message string, fields map[string]string) *Error {
	e := New(KindValidation, message, nil)
	e.Fields = fields
	return e
}

func Authorization(message string) *Error {
	return New(KindAuthorization, message, nil)
}

func Unauthenticated(message string, err error) *Error {
	return New(KindUnauthenticated, message, err)
}

func NotFound(message string, err error) *Error {
	return New(KindNotFound, message, err)
}

func InvalidTransition(message string) *Error {
	return New(KindInvalidTransition, message, nil)
}

func DuplicateApplication(message string, err error) *Error {
	return New(KindDuplicateApplication, message, err)
}

func JobNotOpen(message string) *Error {
	return New(KindJobNotOpen, message, nil)
}

func Upload(message string, err error) *Error {
	return New(KindUpload, message, err)
}

func Dependency(message string, err error) *Error {
	return New(KindDependency, message, err)
}

func Internal(message string, err error) *Error {
	return New(KindInternal, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps a kind onto the status code returned at the HTTP boundary.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindInvalidTransition, KindDuplicateApplication, KindJobNotOpen:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUpload, KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to show to an API caller. Internal
// errors are reported generically.
func PublicMessage(err error) string {
	e, ok := As(err)
	if !ok || e.Kind == KindInternal {
		return "An unexpected error occurred."
	}
	return e.Message
}
