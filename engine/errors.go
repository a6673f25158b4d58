package engine

import (
	"errors"
	"fmt"
)

// Kind classifies an error for rendering and metrics.
type Kind string

const (
	KindNone           Kind = ""
	KindCompilation    Kind = "compilation"
	KindValidation     Kind = "validation"
	KindEmptyChangeSet Kind = "empty_change_set"
	KindNotFound       Kind = "not_found"
	KindTransaction    Kind = "transaction"
	KindUserAbort      Kind = "user_abort"
	KindInternal       Kind = "internal"
)

var (
	ErrTemplateNotFound  = errors.New("template not compiled")
	ErrNestedTransaction = errors.New("nested transactions are not supported")
	ErrUserAbort         = &UserAbortError{}
)

// CompilationError marks an operation whose statement template failed to prepare.
type CompilationError struct {
	Operation string
	Err       error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("operation %s is unavailable: template failed to compile", e.Operation)
}

func (e *CompilationError) Unwrap() error { return e.Err }

// ValidationError reports a caller-supplied field that failed type or format rules.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// EmptyChangeSetError is returned when an update names no fields to change.
type EmptyChangeSetError struct {
	Operation string
}

func (e *EmptyChangeSetError) Error() string {
	return "no fields to update were provided"
}

// NotFoundError reports a lookup by business key that matched no row.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// TransactionError wraps a storage failure that happened after a transaction began.
// Error() stays generic; the cause is only reachable through Unwrap for logging.
type TransactionError struct {
	Operation string
	Err       error
}

func (e *TransactionError) Error() string {
	return "database operation failed; no changes were saved"
}

func (e *TransactionError) Unwrap() error { return e.Err }

// UserAbortError is returned when the caller enters the quit sentinel.
type UserAbortError struct{}

func (e *UserAbortError) Error() string {
	return "operation terminated by user"
}

// KindOf returns the taxonomy kind of err, or KindInternal for anything unrecognised.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		compErr  *CompilationError
		valErr   *ValidationError
		emptyErr *EmptyChangeSetError
		nfErr    *NotFoundError
		txErr    *TransactionError
		abortErr *UserAbortError
	)

	switch {
	case errors.As(err, &abortErr):
		return KindUserAbort
	case errors.As(err, &valErr):
		return KindValidation
	case errors.As(err, &emptyErr):
		return KindEmptyChangeSet
	case errors.As(err, &nfErr):
		return KindNotFound
	case errors.As(err, &compErr):
		return KindCompilation
	case errors.As(err, &txErr):
		return KindTransaction
	default:
		return KindInternal
	}
}
