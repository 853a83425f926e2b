// Package failure defines the closed set of error kinds an operation can
// report and turns any error into the structured payload sent back to the
// orchestrator.
package failure

import (
	"errors"
	"fmt"
	"time"
)

// Kind categorizes a failure. The set is closed; anything unrecognized is
// reported as KindGeneric.
type Kind string

const (
	KindTimeout          Kind = "Timeout"          // KindTimeout indicates the target did not respond in time.
	KindInvalidOperation Kind = "InvalidOperation" // KindInvalidOperation indicates the action is not valid in the current state.
	KindInvalidArgument  Kind = "InvalidArgument"  // KindInvalidArgument indicates a malformed or out-of-range parameter.
	KindUnauthorized     Kind = "Unauthorized"     // KindUnauthorized indicates access to the target was denied.
	KindElementNotFound  Kind = "ElementNotFound"  // KindElementNotFound indicates no element matched the target.
	KindValidation       Kind = "Validation"       // KindValidation indicates the request failed validation.
	KindGeneric          Kind = "Generic"          // KindGeneric is the catch-all for anything unrecognized.
)

// Kinds returns every kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindTimeout,
		KindInvalidOperation,
		KindInvalidArgument,
		KindUnauthorized,
		KindElementNotFound,
		KindValidation,
		KindGeneric,
	}
}

// Error is a domain failure raised by an operation. Its message is forwarded
// to the caller verbatim.
type Error struct {
	Kind      Kind
	Message   string
	ElementID string
	Timeout   time.Duration
	Err       error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain failure of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain failure that keeps err as its cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound reports that no element matched the given identifier.
func NotFound(elementID string) *Error {
	msg := "Element not found"
	if elementID != "" {
		msg = fmt.Sprintf("Element not found: %s", elementID)
	}
	return &Error{Kind: KindElementNotFound, Message: msg, ElementID: elementID}
}

// TimedOut reports that waiting on elementID exceeded timeout.
func TimedOut(elementID string, timeout time.Duration, err error) *Error {
	msg := fmt.Sprintf("Operation timed out after %s", timeout)
	if elementID != "" {
		msg = fmt.Sprintf("Timed out after %s waiting for %s", timeout, elementID)
	}
	return &Error{Kind: KindTimeout, Message: msg, ElementID: elementID, Timeout: timeout, Err: err}
}

// InvalidArgument reports a bad parameter.
func InvalidArgument(format string, args ...interface{}) *Error {
	return New(KindInvalidArgument, format, args...)
}

// InvalidOperation reports an action that cannot be performed in the current state.
func InvalidOperation(format string, args ...interface{}) *Error {
	return New(KindInvalidOperation, format, args...)
}

// Validation reports a request that failed validation.
func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

// Unauthorized reports a denied action.
func Unauthorized(format string, args ...interface{}) *Error {
	return New(KindUnauthorized, format, args...)
}

// As returns the domain failure in err's chain, if any.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Message returns the error string a caller should see for err. Domain
// failures forward their own message; anything else is prefixed so callers
// can tell an unexpected failure from a reported one.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if fe, ok := As(err); ok {
		return fe.Error()
	}
	return "Operation failed: " + err.Error()
}
