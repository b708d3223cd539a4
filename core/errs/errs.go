package errs

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a referenced load, vendor or assignment does not
// exist in its store. It is surfaced to the caller and never retried.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// TransientError wraps a failure that is expected to resolve on its own:
// timeouts, refused connections and 5xx responses from a dependent store.
// The reconciliation loop retries these on the next cycle.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ValidationError reports malformed input to a scoring or creation contract.
// Validation happens before any write, so these are never partially applied.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFound creates a NotFoundError for the given entity kind and id.
func NotFound(kind, id string) error { return &NotFoundError{Kind: kind, ID: id} }

// Transient wraps err as a TransientError for operation op.
func Transient(op string, err error) error { return &TransientError{Op: op, Err: err} }

// Validation creates a ValidationError from a format string.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTransient reports whether err is a TransientError.
func IsTransient(err error) bool {
	var tr *TransientError
	return errors.As(err, &tr)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
