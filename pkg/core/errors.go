package core

import (
	"errors"
	"fmt"
)

// Kind categorizes a connector error.
type Kind string

const (
	// KindConnection means the server could not be reached or refused the session.
	KindConnection Kind = "connection"
	// KindValidation means an argument failed a legality check before any SQL ran.
	KindValidation Kind = "validation"
	// KindCatalogMismatch means the named table is not in the live catalog.
	KindCatalogMismatch Kind = "catalog_mismatch"
	// KindUnsupported means the engine does not offer the operation.
	KindUnsupported Kind = "unsupported"
	// KindExecution means a statement failed on the server.
	KindExecution Kind = "execution"
	// KindNotConnected means the operation needs a live connection.
	KindNotConnected Kind = "not_connected"
)

// Error is the error type returned by connector operations.
type Error struct {
	Kind    Kind
	Op      string // connector operation, e.g. "InsertData"
	Message string
	Err     error
}

// NewError creates an Error. err may be nil.
func NewError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Errorf creates an Error without a cause from a format string.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether any error in err's chain is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
