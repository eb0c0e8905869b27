package errors

import (
	"errors"
	"fmt"
)

// Domain sentinels. Store and service code wraps these with %w so callers
// can match with errors.Is.
var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrCodeNotValid      = errors.New("code not valid")
	ErrCodeExpired       = errors.New("code expired")
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// ParseError reports a persisted document with a missing key or a value of
// the wrong primitive type. Want is empty when the key is absent.
type ParseError struct {
	Key  string
	Want string
}

func (e *ParseError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("missing key %q", e.Key)
	}
	return fmt.Sprintf("key %q must be a %s", e.Key, e.Want)
}

// Check if err is instance of T for custom error types
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
