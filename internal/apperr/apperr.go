package apperr

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINVALID      = "invalid"
	ENOTFOUND     = "not_found"
	EUNAUTHORIZED = "unauthorized"
	EINTERNAL     = "internal"
)

// Not-found kinds reported alongside ENOTFOUND.
const (
	KindUserNotFound      = "user-not-found"
	KindMovieNotFound     = "movie-not-found"
	KindWatchlistNotFound = "watchlist-entry-not-found"
)

// Error is the application error carried from services to transports.
type Error struct {
	Code    string
	Kind    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("application error: code=%s message=%s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("application error: code=%s message=%s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error with a formatted message.
func Errorf(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Invalid reports caller input that failed validation.
func Invalid(format string, args ...interface{}) *Error {
	return Errorf(EINVALID, format, args...)
}

// NotFound reports a missing referenced entity of the given kind.
func NotFound(kind, message string) *Error {
	return &Error{Code: ENOTFOUND, Kind: kind, Message: message}
}

// Internal wraps an infrastructure failure. The message is safe to show to callers.
func Internal(err error, message string) *Error {
	return &Error{Code: EINTERNAL, Message: message, Err: err}
}

// ErrorCode returns the code of the first application error in err's chain.
// Foreign errors are EINTERNAL; nil is "".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorKind returns the not-found kind of err, if any.
func ErrorKind(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ErrorMessage returns a caller-safe message for err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}
