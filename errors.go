package granary

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Ledger errors
	ErrInvalidQuantity      = errors.New("granary: invalid quantity")
	ErrDuplicateParticipant = errors.New("granary: duplicate participant")
	ErrIndexOutOfRange      = errors.New("granary: index out of range")
	ErrEmptyBatch           = errors.New("granary: empty batch")

	// Pricing errors
	ErrInvalidPrice     = errors.New("granary: invalid price")
	ErrCurrencyMismatch = errors.New("granary: currency mismatch")

	// Escrow errors
	ErrInsufficientPayment = errors.New("granary: insufficient payment")
	ErrNoPaymentReceived   = errors.New("granary: no payment received")

	// Distribution errors
	ErrTransferFailed = errors.New("granary: transfer failed")
	ErrNoTransferer   = errors.New("granary: no transferer configured")

	// Concurrency errors
	ErrReentrancyRejected = errors.New("granary: reentrant call rejected")

	// Arithmetic errors
	ErrArithmeticOverflow = errors.New("granary: arithmetic overflow")

	// Store errors
	ErrBatchNotFound        = errors.New("granary: batch not found")
	ErrContributionNotFound = errors.New("granary: contribution not found")
	ErrStoreNotReady        = errors.New("granary: store not ready")
	ErrStoreClosed          = errors.New("granary: store is closed")
	ErrMigrationFailed      = errors.New("granary: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("granary: validation failed for %s: %s", e.Field, e.Message)
}

// IsValidation returns true if the error reports a caller-supplied
// out-of-contract value.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInsufficientPayment) ||
		errors.Is(err, ErrCurrencyMismatch) ||
		errors.As(err, &ve)
}

// IsStateConflict returns true if the operation was invalid given the current
// ledger or escrow state.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrDuplicateParticipant) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrNoPaymentReceived) ||
		errors.Is(err, ErrIndexOutOfRange)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBatchNotFound) ||
		errors.Is(err, ErrContributionNotFound)
}

// IsRetryable returns true if the error is temporary and the operation can be
// retried as-is. Transfer failures are deliberately excluded: the operator
// resolves the payout rail before retrying a distribution.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrReentrancyRejected) ||
		errors.Is(err, ErrStoreNotReady)
}
