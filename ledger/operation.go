/*
operation.go - Immutable records of ledger state changes

PURPOSE:
  An Operation is one entry of the append-only log. There are exactly four
  kinds, and every balance ever observed can be explained by replaying them
  in order from an empty ledger.

KINDS:
  create_account(account)        new account at balance 0
  credit(account, amount)        amount > 0
  debit(account, amount)         amount > 0, the magnitude taken out
  transfer(from, to, amount)     amount > 0, from != to

DEBIT SIGN:
  A debit is always recorded with the positive magnitude debited. The
  negative delta used to update the balance is an internal detail and never
  reaches the log, so a log means the same thing to every reader.

IDENTITY:
  OperationID is the append position in the log, starting at 0. IDs are
  never reused or reordered.

SEE ALSO:
  - oplog.go: Where operations are stored
  - replay.go: How a log is turned back into a ledger
*/
package ledger

import "fmt"

// OperationID is the position of an operation in the log.
type OperationID int

// OpKind identifies the variant of an Operation.
type OpKind string

const (
	OpCreateAccount OpKind = "create_account"
	OpCredit        OpKind = "credit"
	OpDebit         OpKind = "debit"
	OpTransfer      OpKind = "transfer"
)

// Valid reports whether k is one of the four known kinds.
func (k OpKind) Valid() bool {
	switch k {
	case OpCreateAccount, OpCredit, OpDebit, OpTransfer:
		return true
	}
	return false
}

// Operation is an immutable record of one state change.
//
// Account is the subject of the operation, and the source for transfers.
// Target is only set for transfers. Amount is zero for create_account.
type Operation struct {
	Kind    OpKind `json:"kind"`
	Account string `json:"account"`
	Target  string `json:"target,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
}

func CreateAccountOp(account string) Operation {
	return Operation{Kind: OpCreateAccount, Account: account}
}

func CreditOp(account string, amount int64) Operation {
	return Operation{Kind: OpCredit, Account: account, Amount: amount}
}

func DebitOp(account string, amount int64) Operation {
	return Operation{Kind: OpDebit, Account: account, Amount: amount}
}

func TransferOp(from, to string, amount int64) Operation {
	return Operation{Kind: OpTransfer, Account: from, Target: to, Amount: amount}
}

// Accounts returns the account names this operation touches, in index order.
// A transfer touches its source first, then its destination.
func (op Operation) Accounts() []string {
	if op.Kind == OpTransfer {
		return []string{op.Account, op.Target}
	}
	return []string{op.Account}
}

// Validate checks the shape of an operation without looking at any ledger
// state. It is used on logs that come from outside the process.
func (op Operation) Validate() error {
	if !op.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind)
	}
	if op.Account == "" {
		return fmt.Errorf("%w: missing account", ErrInvalidOperation)
	}
	switch op.Kind {
	case OpCreateAccount:
		if op.Target != "" || op.Amount != 0 {
			return fmt.Errorf("%w: create_account takes only an account", ErrInvalidOperation)
		}
	case OpCredit, OpDebit:
		if op.Target != "" {
			return fmt.Errorf("%w: %s has no target", ErrInvalidOperation, op.Kind)
		}
	case OpTransfer:
		if op.Target == "" {
			return fmt.Errorf("%w: transfer without target", ErrInvalidOperation)
		}
	}
	return nil
}

func (op Operation) String() string {
	switch op.Kind {
	case OpCreateAccount:
		return fmt.Sprintf("CreateAccount(%s)", op.Account)
	case OpCredit:
		return fmt.Sprintf("Credit(%s, %d)", op.Account, op.Amount)
	case OpDebit:
		return fmt.Sprintf("Debit(%s, %d)", op.Account, op.Amount)
	case OpTransfer:
		return fmt.Sprintf("Transfer(%s, %s, %d)", op.Account, op.Target, op.Amount)
	}
	return fmt.Sprintf("Unknown(%q)", op.Kind)
}
