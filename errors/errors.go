// Package errors provides error handling for marksync.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//   - Marking errors with sentinel identities
//
// Usage:
//
//	// Wrap with context
//	if err := tx.SetExternalID(id, localID); err != nil {
//	    return errors.Wrapf(err, "failed to persist association for %d", id)
//	}
//
//	// Classify a fatal association failure
//	return errors.MarkUnrecoverable(err, "build associations", remoteID)
//
//	// Check errors
//	if errors.Is(err, errors.ErrPersistenceMismatch) {
//	    // stamp was reset, next run is conservative
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSafeDetails    = crdb.WithSafeDetails
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapOnce     = crdb.UnwrapOnce
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetStack is an alias for GetReportableStackTrace for convenience.
var GetStack = crdb.GetReportableStackTrace

// Assertions
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
	HasAssertionFailure              = crdb.HasAssertionFailure
)

// Sentinel errors shared by the stores and the association engine.
// Wrap these with errors.Wrap() to add context while preserving the identity.
var (
	// ErrNotFound indicates a node, tag or journal entry does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrConflict indicates a resource conflict (e.g., duplicate tag)
	ErrConflict = New("resource conflict")

	// ErrPrecondition indicates an engine invariant was violated (double
	// association, a traversal entry with no association)
	ErrPrecondition = New("precondition violated")

	// ErrInvalidData indicates a remote node that cannot be materialized
	// locally, such as a non-folder without a usable url
	ErrInvalidData = New("invalid node data")

	// ErrPersistenceMismatch indicates the local version stamp is ahead of
	// the remote model version
	ErrPersistenceMismatch = New("local version ahead of remote model version")

	// ErrUnrecoverable marks errors that leave the category unusable until
	// the user disables and re-enables sync
	ErrUnrecoverable = New("unrecoverable sync error")
)

// UnrecoverableHint is attached to every error marked unrecoverable.
const UnrecoverableHint = "bookmark sync is broken for this profile; disable and re-enable it to retry"

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsPreconditionError checks if an error is or wraps ErrPrecondition
func IsPreconditionError(err error) bool {
	return err != nil && Is(err, ErrPrecondition)
}

// IsUnrecoverable checks if an error was marked with MarkUnrecoverable
func IsUnrecoverable(err error) bool {
	return err != nil && Is(err, ErrUnrecoverable)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

// NewPreconditionError creates a precondition error with a formatted message
func NewPreconditionError(format string, args ...interface{}) error {
	return Wrap(ErrPrecondition, Newf(format, args...).Error())
}

// MarkUnrecoverable marks err as unrecoverable and records the operation
// and node id it happened on. The original identity of err is preserved.
func MarkUnrecoverable(err error, op string, nodeID int64) error {
	if err == nil {
		return nil
	}
	err = WithDetailf(err, "operation: %s", op)
	if nodeID != 0 {
		err = WithDetailf(err, "node: %d", nodeID)
	}
	return WithHint(Mark(err, ErrUnrecoverable), UnrecoverableHint)
}
