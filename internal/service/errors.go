package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nurpe/listing-carts/internal/commission"
	"github.com/nurpe/listing-carts/internal/lifecycle"
)

type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindInvalidState Kind = "INVALID_STATE"
	KindValidation   Kind = "VALIDATION_FAILED"
	KindConflict     Kind = "CONCURRENCY_CONFLICT"
	KindInternal     Kind = "INTERNAL"
)

// Error is what every failed operation returns. Message is safe to show callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works on wrapped values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrInvalidInput = &Error{Kind: KindValidation}
	ErrConflict     = &Error{Kind: KindConflict}
)

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func invalidInput(format string, args ...interface{}) *Error {
	return newError(KindValidation, nil, format, args...)
}

// KindOf reports the kind of err; errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether the caller may retry the operation as is.
func Retryable(err error) bool {
	return KindOf(err) == KindConflict
}

// classify turns store and state machine errors into an *Error. subject names
// the thing that was looked up, for not-found messages.
func classify(err error, subject string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return newError(KindNotFound, err, "%s not found", subject)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return newError(KindConflict, err, "%s was modified concurrently", subject)
	case errors.Is(err, lifecycle.ErrIllegalTransition),
		errors.Is(err, lifecycle.ErrNotEditable),
		errors.Is(err, lifecycle.ErrCartNotNegotiating),
		errors.Is(err, lifecycle.ErrItemNotSelected),
		errors.Is(err, lifecycle.ErrItemFinal):
		return newError(KindInvalidState, err, "%s", err.Error())
	case errors.Is(err, lifecycle.ErrEmptySelection),
		errors.Is(err, lifecycle.ErrUnknownService),
		errors.Is(err, commission.ErrNegativeQuote),
		errors.Is(err, commission.ErrNegativePercent):
		return newError(KindValidation, err, "%s", err.Error())
	}
	return newError(KindInternal, err, "%s: internal error", subject)
}
