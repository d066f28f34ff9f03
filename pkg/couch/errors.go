package couch

import "errors"

// Error codes.
const (
	CodeConfiguration = "CONFIGURATION"
	CodeUsage         = "USAGE"
	CodeTransport     = "TRANSPORT"
	CodeServer        = "SERVER"
	CodeMismatch      = "MISMATCH"
)

// Error is the structured error type returned by the dispatch core.
// Code is one of the Code* constants; Message is human readable.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// HasCode reports whether err is (or wraps) an *Error with the given code.
func HasCode(err error, code string) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func configurationError(msg string) *Error {
	return &Error{Code: CodeConfiguration, Message: msg}
}

func usageError(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

func transportError(msg string) *Error {
	return &Error{Code: CodeTransport, Message: msg}
}
