package ledger

import (
	"errors"
	"fmt"
)

// Business-rule rejections. Reported to the caller with no state change.
var (
	// ErrNotFound indicates the account id does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrInsufficientFunds indicates a debit would drive the balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSelfTransfer indicates source and destination are the same account.
	ErrSelfTransfer = errors.New("cannot transfer to self")

	// ErrRecipientNotFound indicates the transfer destination does not exist.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrDuplicateOwner indicates an account already exists for the owner
	// reference.
	ErrDuplicateOwner = errors.New("owner reference already registered")

	// ErrArchived indicates the account has been soft-archived and no longer
	// accepts balance adjustments.
	ErrArchived = errors.New("account is archived")

	// ErrConflict indicates a stale-version adjustment. Internal: the engine
	// retries transparently and never surfaces this to callers unless retries
	// are exhausted (see OperationTimedOutError).
	ErrConflict = errors.New("stale account version")
)

// ValidationError rejects malformed input before any mutation. Fully local:
// no store call has been made when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for a named input field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// OperationTimedOutError is surfaced when conflict retries are exhausted.
// Funds are untouched: no partial adjustment was applied.
type OperationTimedOutError struct {
	Op        string
	AccountID string
	Attempts  int
}

func (e *OperationTimedOutError) Error() string {
	return fmt.Sprintf("%s on account %s timed out after %d attempts", e.Op, e.AccountID, e.Attempts)
}

func (e *OperationTimedOutError) Unwrap() error { return ErrConflict }

// IsTimedOut reports whether err is (or wraps) an OperationTimedOutError.
func IsTimedOut(err error) bool {
	var te *OperationTimedOutError
	return errors.As(err, &te)
}

// InconsistencyError is the one condition requiring operator intervention:
// a transfer debit committed, the credit failed, and compensation could not
// complete within its retry budget. The ledger may hold less money than it
// should until the operator reconciles.
type InconsistencyError struct {
	CorrelationID string
	FromID        string
	ToID          string
	Amount        string
	Err           error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("ledger inconsistency: compensation failed for transfer %s (%s -> %s, amount %s): %v",
		e.CorrelationID, e.FromID, e.ToID, e.Amount, e.Err)
}

func (e *InconsistencyError) Unwrap() error { return e.Err }

// IsInconsistency reports whether err is (or wraps) an InconsistencyError.
func IsInconsistency(err error) bool {
	var ie *InconsistencyError
	return errors.As(err, &ie)
}
