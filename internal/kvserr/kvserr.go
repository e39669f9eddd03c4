// Package kvserr defines the unified error taxonomy shared by the storage
// engine, the wire protocol, and the client/server that sit on top of it.
package kvserr

import "fmt"

// Code categorizes an Error programmatically, the way callers that need to
// branch on failure kind (rather than match strings) are expected to do.
type Code int

const (
	// CodeKeyNotFound is returned when a Remove targets a key that isn't
	// present in the index. A Get miss is not an error: it reports
	// found == false.
	CodeKeyNotFound Code = iota
	// CodeUnexpectedCommandType is returned when an index entry points at a
	// record that doesn't decode to the command kind the caller expected —
	// the index and the log have gone out of sync.
	CodeUnexpectedCommandType
	// CodeIO wraps an underlying filesystem or socket failure.
	CodeIO
	// CodeSerde wraps a record/wire encode or decode failure.
	CodeSerde
	// CodeUtf8 is returned when bytes that must be valid UTF-8 aren't.
	CodeUtf8
	// CodeExternal wraps a failure surfaced by a third-party engine adapter.
	CodeExternal
	// CodeStringErr wraps an error carried back from a remote peer as a
	// plain display string (the wire protocol has no richer error channel).
	CodeStringErr
)

func (c Code) String() string {
	switch c {
	case CodeKeyNotFound:
		return "KeyNotFound"
	case CodeUnexpectedCommandType:
		return "UnexpectedCommandType"
	case CodeIO:
		return "Io"
	case CodeSerde:
		return "Serde"
	case CodeUtf8:
		return "Utf8"
	case CodeExternal:
		return "External"
	case CodeStringErr:
		return "StringErr"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned across package boundaries in
// this module. It carries a Code so callers can branch with errors.As
// instead of matching display strings, while still supporting errors.Is/
// Unwrap against the wrapped cause.
type Error struct {
	code    Code
	message string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{code: code, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.message != "" {
		return e.message
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.code.String()
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Code() Code { return e.code }

// KeyNotFound builds the canonical "key not found" error. Its Error() text
// is exactly "Key not found" because the wire protocol transports errors as
// display strings, and a remote client needs that exact text to recognize
// the condition after it round-trips through protocol.AsError.
func KeyNotFound(key string) *Error {
	return &Error{code: CodeKeyNotFound, message: "Key not found"}
}

// IsKeyNotFound reports whether err (or something it wraps) is a
// CodeKeyNotFound error, or carries the exact remote display string
// "Key not found" coming back as a CodeStringErr.
func IsKeyNotFound(err error) bool {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.code == CodeKeyNotFound || (e.code == CodeStringErr && e.message == "Key not found")
	}
	return false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func UnexpectedCommandType(key string) *Error {
	return &Error{
		code:    CodeUnexpectedCommandType,
		message: fmt.Sprintf("unexpected command type at index entry for key %q", key),
	}
}

func IO(cause error, context string) *Error {
	return Wrap(CodeIO, fmt.Sprintf("%s: %v", context, cause), cause)
}

func Serde(cause error, context string) *Error {
	return Wrap(CodeSerde, fmt.Sprintf("%s: %v", context, cause), cause)
}

func Utf8(cause error, context string) *Error {
	return Wrap(CodeUtf8, fmt.Sprintf("%s: %v", context, cause), cause)
}

func External(cause error, context string) *Error {
	return Wrap(CodeExternal, fmt.Sprintf("%s: %v", context, cause), cause)
}

// StringErr wraps a message that crossed the wire from a remote peer. The
// original error kind is lost; only string matching (IsKeyNotFound) can
// recover the KeyNotFound case.
func StringErr(message string) *Error {
	return &Error{code: CodeStringErr, message: message}
}
