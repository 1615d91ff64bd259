package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error type mapped to process exit codes
// and to the string code carried in tool error envelopes.
type Code int

const (
	CodeSuccess     Code = 0
	CodeInternal    Code = 1
	CodeUsage       Code = 2
	CodeValidation  Code = 3
	CodeAuth        Code = 10
	CodeRateLimited Code = 11
	CodeUnavailable Code = 12
	CodeUnsupported Code = 13
	CodeNotFound    Code = 14
	CodeBlocked     Code = 16
	CodeDispatch    Code = 17
)

// UnknownCode is the envelope code for errors that carry no typed code.
const UnknownCode = "UNKNOWN_ERROR"

// Error is a typed error that carries a stable error code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Validation builds a ValidationError for malformed tool arguments.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func ExitCode(err error) int {
	if err == nil {
		return int(CodeSuccess)
	}
	if cliErr, ok := As(err); ok {
		return int(cliErr.Code)
	}
	return int(CodeInternal)
}

// Name returns the envelope string for a code.
func (c Code) Name() string {
	switch c {
	case CodeSuccess:
		return "OK"
	case CodeInternal:
		return "INTERNAL_ERROR"
	case CodeUsage:
		return "USAGE_ERROR"
	case CodeValidation:
		return "VALIDATION_ERROR"
	case CodeAuth:
		return "AUTH_ERROR"
	case CodeRateLimited:
		return "RATE_LIMITED"
	case CodeUnavailable:
		return "UNAVAILABLE"
	case CodeUnsupported:
		return "UNSUPPORTED"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeBlocked:
		return "BLOCKED"
	case CodeDispatch:
		return "DISPATCH_ERROR"
	default:
		return UnknownCode
	}
}

// EnvelopeCode returns the string code for err, or UnknownCode when err is untyped.
func EnvelopeCode(err error) string {
	if cliErr, ok := As(err); ok {
		return cliErr.Code.Name()
	}
	return UnknownCode
}

func IsValidation(err error) bool {
	cliErr, ok := As(err)
	return ok && cliErr.Code == CodeValidation
}

var allCodes = []Code{
	CodeSuccess, CodeInternal, CodeUsage, CodeValidation, CodeAuth, CodeRateLimited,
	CodeUnavailable, CodeUnsupported, CodeNotFound, CodeBlocked, CodeDispatch,
}

// CodeFromName maps an envelope code string back to its Code. Unknown names
// map to CodeInternal.
func CodeFromName(name string) (Code, bool) {
	for _, c := range allCodes {
		if c.Name() == name {
			return c, true
		}
	}
	return CodeInternal, false
}
