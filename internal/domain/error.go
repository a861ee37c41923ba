package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrLockHeld           = errors.New("lock is held by another worker")
	ErrTokenExhausted     = errors.New("no unused token after retries")
)

// Kind classifies an error by how a caller is expected to react to it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a business-level failure carrying its Kind and a client-safe message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(k Kind, msg string, cause []error) *Error {
	e := &Error{Kind: k, Msg: msg}
	if len(cause) > 0 {
		e.Err = cause[0]
	}
	return e
}

func Validation(msg string, cause ...error) error   { return newError(KindValidation, msg, cause) }
func Conflict(msg string, cause ...error) error     { return newError(KindConflict, msg, cause) }
func NotFound(msg string, cause ...error) error     { return newError(KindNotFound, msg, cause) }
func Forbidden(msg string, cause ...error) error    { return newError(KindForbidden, msg, cause) }
func Unauthorized(msg string, cause ...error) error { return newError(KindUnauthorized, msg, cause) }
func Unavailable(msg string, cause ...error) error  { return newError(KindUnavailable, msg, cause) }
func Internal(msg string, cause ...error) error     { return newError(KindInternal, msg, cause) }

// KindOf reports the Kind of err. Plain sentinels map onto the closest kind;
// anything unrecognised is internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrInvalidArgument):
		return KindValidation
	case errors.Is(err, ErrLockHeld):
		return KindUnavailable
	}
	return KindInternal
}

// MessageOf returns the client-safe message of err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg
	}
	switch KindOf(err) {
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "already exists"
	case KindValidation:
		return "invalid argument"
	case KindUnavailable:
		return "temporarily unavailable"
	}
	return "an unexpected error occurred"
}
