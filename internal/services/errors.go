package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain failure so the HTTP layer can pick a status.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

// Error is a domain error carrying a client-safe message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func conflictError(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func unauthorizedError(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func forbiddenError(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

var (
	ErrInvalidOTP       = unauthorizedError("invalid or expired otp")
	ErrInvalidSignature = validationError("invalid payment signature")
	ErrWebhookDisabled  = forbiddenError("payment webhook is not configured")
	ErrNotApproved      = forbiddenError("account is pending approval")
	ErrBadCredentials   = unauthorizedError("invalid credentials")
)
