package room

import "fmt"

// ErrorKind classifies every failure this package reports back to a client.
type ErrorKind string

const (
	ErrInvalidInput  ErrorKind = "invalid-input"
	ErrNameConflict  ErrorKind = "name-conflict"
	ErrNotFound      ErrorKind = "not-found"
	ErrInvalidTarget ErrorKind = "invalid-target"
	ErrUnauthorized  ErrorKind = "unauthorized"
)

// Error is a client-reportable failure with a machine-readable kind.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Msg }

// newErr builds an *Error with a formatted message.
func newErr(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ""
}
