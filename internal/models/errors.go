package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindNotAuthorized ErrorKind = "not_authorized"
	KindInvalidState  ErrorKind = "invalid_state"
	KindValidation    ErrorKind = "validation_error"
)

// DomainError carries one of the lifecycle error kinds plus a human-readable
// message. Two DomainErrors match under errors.Is when their kinds match, so
// callers can compare against the Err* sentinels.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound      = &DomainError{Kind: KindNotFound, Message: "not found"}
	ErrNotAuthorized = &DomainError{Kind: KindNotAuthorized, Message: "not authorized"}
	ErrInvalidState  = &DomainError{Kind: KindInvalidState, Message: "invalid state"}
	ErrValidation    = &DomainError{Kind: KindValidation, Message: "validation error"}
)

func NotFound(format string, args ...interface{}) error {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NotAuthorized(format string, args ...interface{}) error {
	return &DomainError{Kind: KindNotAuthorized, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...interface{}) error {
	return &DomainError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...interface{}) error {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first DomainError in err's chain, or an
// empty kind for infrastructure errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
