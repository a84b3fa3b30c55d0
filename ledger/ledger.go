/*
Package ledger implements an in-memory accounting ledger with an
append-only operation log.

PURPOSE:
  The Ledger tracks named accounts and their integer balances, and records
  every successful state change in an immutable log. A per-account index
  into that log makes account history O(history-for-account) instead of a
  full scan. A ledger can be rebuilt from any recorded log by replay.

CRITICAL INVARIANTS:
  1. NON-NEGATIVE: No balance is ever negative after a successful operation.
  2. APPEND-ONLY: The log only grows. IDs are positions, assigned from 0.
  3. ALL-OR-NOTHING: A call either updates balances, log and index, or
     changes nothing at all.
  4. INDEX CONSISTENCY: Every indexed id is a valid log position whose
     operation mentions the indexed account.

WRITE PATH:
  check (pure) -> commit balances -> append to log -> index every touched account

  Nothing fails after check, which is what lets ApplyWith run an external
  step (a journal write) between the two and still leave the ledger
  untouched when that step fails.

TRANSFERS:
  Both legs are checked before either is committed.

CONCURRENCY:
  The Ledger is guarded by one RWMutex. Mutations hold the write lock for
  the whole write path; queries hold the read lock and return copies.

EXAMPLE:
  l := ledger.New()
  l.CreateAccount("X")
  l.CreateAccount("Y")
  l.Credit("X", 10)
  l.Transfer("X", "Y", 5)
  l.Balance("Y") // 5

SEE ALSO:
  - replay.go: Restore and Apply
  - journal.go: External capture of the log
*/
package ledger

import (
	"fmt"
	"sync"
)

// =============================================================================
// LEDGER - Accounts, balances, log and index
// =============================================================================

// Ledger owns its balances, log and index exclusively; none of them is
// shared outside the instance.
type Ledger struct {
	mu       sync.RWMutex
	balances *balances
	log      *opLog
	index    *accountIndex
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: newBalances(),
		log:      &opLog{},
		index:    newAccountIndex(),
	}
}

// CreateAccount opens name at balance 0.
func (l *Ledger) CreateAccount(name string) (OperationID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(CreateAccountOp(name))
}

// Credit adds amount to name. Amount must be positive.
func (l *Ledger) Credit(name string, amount int64) (OperationID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(CreditOp(name, amount))
}

// Debit removes amount from name. Amount is the positive magnitude debited;
// it is also what gets logged.
func (l *Ledger) Debit(name string, amount int64) (OperationID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(DebitOp(name, amount))
}

// Transfer moves amount from one account to another as a single logged
// operation.
func (l *Ledger) Transfer(from, to string, amount int64) (OperationID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(TransferOp(from, to, amount))
}

// =============================================================================
// QUERIES - Never mutate
// =============================================================================

func (l *Ledger) Balance(name string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances.balanceOf(name)
}

// History returns a copy of the full log in order.
func (l *Ledger) History() []Operation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.log.all()
}

// AccountHistory returns every operation that mentions name, oldest first.
// It returns nil when the account has no recorded operations.
func (l *Ledger) AccountHistory(name string) []Operation {
	entries := l.AccountEntries(name)
	if entries == nil {
		return nil
	}
	out := make([]Operation, len(entries))
	for i, e := range entries {
		out[i] = e.Operation
	}
	return out
}

// Entry is a logged operation together with its log position.
type Entry struct {
	ID OperationID
	Operation
}

// AccountEntries is AccountHistory with log positions attached.
func (l *Ledger) AccountEntries(name string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := l.index.idsFor(name)
	if ids == nil {
		return nil
	}
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{ID: id, Operation: l.log.entryAt(id)}
	}
	return out
}

// Accounts returns every account with its balance, sorted by name.
func (l *Ledger) Accounts() []AccountBalance {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances.list()
}

// Len returns the number of operations in the log.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.log.len()
}

// =============================================================================
// WRITE PATH - Callers hold mu
// =============================================================================

func (l *Ledger) applyLocked(op Operation) (OperationID, error) {
	if err := l.check(op); err != nil {
		return 0, err
	}
	return l.commit(op), nil
}

// check reports whether op would succeed against the current state. Pure:
// nothing changes on any path.
func (l *Ledger) check(op Operation) error {
	switch op.Kind {
	case OpCreateAccount:
		if l.balances.exists(op.Account) {
			return accountAlreadyExists(op.Account)
		}
		return nil
	case OpCredit:
		if err := checkAmount(op.Amount); err != nil {
			return err
		}
		return l.balances.canApply(op.Account, op.Amount)
	case OpDebit:
		if err := checkAmount(op.Amount); err != nil {
			return err
		}
		return l.balances.canApply(op.Account, -op.Amount)
	case OpTransfer:
		if op.Account == op.Target {
			return fmt.Errorf("%w: %s", ErrSelfTransfer, op.Account)
		}
		if err := checkAmount(op.Amount); err != nil {
			return err
		}
		// Both legs must be acceptable before anything moves.
		if err := l.balances.canApply(op.Account, -op.Amount); err != nil {
			return err
		}
		return l.balances.canApply(op.Target, op.Amount)
	}
	return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind)
}

// commit applies an operation already accepted by check. There is no
// failure path, so a transfer can never be half-applied.
func (l *Ledger) commit(op Operation) OperationID {
	switch op.Kind {
	case OpCreateAccount:
		if err := l.balances.create(op.Account); err != nil {
			panic(fmt.Sprintf("ledger: commit of unchecked operation %s: %v", op, err))
		}
	case OpCredit:
		l.balances.commit(op.Account, op.Amount)
	case OpDebit:
		l.balances.commit(op.Account, -op.Amount)
	case OpTransfer:
		l.balances.commit(op.Account, -op.Amount)
		l.balances.commit(op.Target, op.Amount)
	}
	return l.record(op)
}

// record appends op to the log and indexes it under every account it
// touches.
func (l *Ledger) record(op Operation) OperationID {
	id := l.log.append(op)
	for _, account := range op.Accounts() {
		l.index.record(account, id)
	}
	return id
}

func checkAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	return nil
}
