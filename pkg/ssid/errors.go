package ssid

import (
	"fmt"
)

// Code classifies why an identifier could not be computed.
type Code string

const (
	// CodeInvalidInput covers empty geometries, missing coordinates,
	// non-finite values and malformed optional fields.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeEncodingFailure is reported when the digest algorithm is not
	// linked into the binary.
	CodeEncodingFailure Code = "ENCODING_FAILURE"
)

// Error is the typed failure returned by every operation in this package.
// No partial identifier is ever returned alongside an Error.
//
// Go Learning Note — Custom Error Types:
// Any type with an Error() string method satisfies the built-in error
// interface. Returning a struct instead of errors.New lets callers recover
// structured details (the Code and the offending Field) with errors.As, while
// the Is method below keeps errors.Is(err, ErrInvalidInput) working for the
// common "which kind of failure was this?" check.
type Error struct {
	Code    Code
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("ssid: %s", e.Message)
	}
	return fmt.Sprintf("ssid: %s: %s", e.Field, e.Message)
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrInvalidInput    = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrEncodingFailure = &Error{Code: CodeEncodingFailure, Message: "encoding failure"}
)

func invalidInput(field, format string, args ...any) *Error {
	return &Error{
		Code:    CodeInvalidInput,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func encodingFailure(format string, args ...any) *Error {
	return &Error{
		Code:    CodeEncodingFailure,
		Message: fmt.Sprintf(format, args...),
	}
}
