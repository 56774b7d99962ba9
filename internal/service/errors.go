package service

import "errors"

// Error kinds. Use errors.Is(err, ErrAuth) to classify a service error.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict error")
	ErrAuth       = errors.New("authentication error")
	ErrNotFound   = errors.New("not found error")
)

// Error is a client-facing service error. Message is safe to return verbatim.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Service errors.
var (
	ErrMissingRegisterFields = &Error{Kind: ErrValidation, Message: "Email, name, and password are required"}
	ErrEmailExists           = &Error{Kind: ErrConflict, Message: "Email already exists"}
	ErrMissingLoginFields    = &Error{Kind: ErrValidation, Message: "Email and password are required"}
	ErrInvalidCredentials    = &Error{Kind: ErrAuth, Message: "Invalid credentials"}
	ErrMissingToken          = &Error{Kind: ErrAuth, Message: "No token provided"}
	ErrInvalidToken          = &Error{Kind: ErrAuth, Message: "Invalid token"}
	ErrUserNotFound          = &Error{Kind: ErrNotFound, Message: "User not found"}
)

// KindOf returns the kind of a service error, or nil for internal errors.
func KindOf(err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return nil
}

// MessageOf returns the client-facing message of a service error.
// Internal errors yield fallback.
func MessageOf(err error, fallback string) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return fallback
}
