/*
errors.go - Centralized error types for the ledger

PURPOSE:
  Every caller-facing failure of the ledger is one of a small set of
  expected, recoverable conditions. They are returned as values and
  compared with errors.Is / errors.As.

ERROR KINDS:
  ErrAccountAlreadyExists   create_account on an existing name
  ErrAccountNotFound        any operation on a missing name
  ErrInvalidAmount          zero or negative amount where a magnitude is required
  ErrInsufficientFunds      the resulting balance would be negative
  ErrSelfTransfer           transfer with from == to

INVARIANT VIOLATIONS:
  A desync between balances, log and index (for example an index entry that
  points past the end of the log) is a programming error. Those panic and
  are never returned as errors.

SEE ALSO:
  - ledger.go: Returns these errors
  - replay.go: ReplayError wraps them with the failing log position
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountAlreadyExists is returned when creating a name that is taken.
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrAccountNotFound is returned when a referenced account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount is returned for zero or negative amounts, and for
	// deltas that would overflow a balance.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds is returned when a balance would go negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSelfTransfer is returned when a transfer names the same account twice.
	ErrSelfTransfer = errors.New("transfer to the same account")

	// ErrUnknownOperation is returned when replaying a log entry of unknown kind.
	ErrUnknownOperation = errors.New("unknown operation kind")

	// ErrInvalidOperation is returned when a replayed entry is malformed.
	ErrInvalidOperation = errors.New("malformed operation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientFundsError provides details about a balance shortage.
type InsufficientFundsError struct {
	Account string
	Balance int64
	Delta   int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: account %s has %d, delta %d",
		e.Account, e.Balance, e.Delta)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

func accountAlreadyExists(name string) error {
	return fmt.Errorf("%w: %s", ErrAccountAlreadyExists, name)
}

func accountNotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrAccountAlreadyExists) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrSelfTransfer) ||
		errors.Is(err, ErrUnknownOperation) ||
		errors.Is(err, ErrInvalidOperation)
}

// IsNotFound returns true if the error indicates a missing account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
