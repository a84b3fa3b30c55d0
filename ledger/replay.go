/*
replay.go - Rebuild a ledger from a recorded log

PURPOSE:
  Restore re-executes a recorded operation sequence, in order, against a
  fresh ledger by calling the same write path the public API uses. The new
  log is equivalent to the source log (same effects, same order) with ids
  reassigned from 0.

REPLAY POLICY: STRICT
  The first entry that fails aborts the whole restore. The caller gets a
  *ReplayError naming the position, and no ledger. The policy is the same
  for all four operation kinds.

  A log produced by this package always replays cleanly. A failure means
  the log was edited, truncated or assembled by hand.

SEE ALSO:
  - ledger.go: The write path replay goes through
  - journal.go: Where logs captured outside the process come from
*/
package ledger

import "fmt"

// ReplayError reports the log entry that stopped a restore.
type ReplayError struct {
	Position int
	Op       Operation
	Err      error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay failed at entry %d (%s): %v", e.Position, e.Op, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}

// Restore builds a new ledger by replaying ops in order.
func Restore(ops []Operation) (*Ledger, error) {
	l := New()
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, op := range ops {
		if _, err := l.replayLocked(op); err != nil {
			return nil, &ReplayError{Position: i, Op: op, Err: err}
		}
	}
	return l, nil
}

// Apply executes one recorded operation through the normal write path.
func (l *Ledger) Apply(op Operation) (OperationID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replayLocked(op)
}

// ApplyWith is Apply with a persistence step in the middle. Once op has
// been checked, persist is called with the id op will get. op is committed
// only if persist returns nil; otherwise the ledger is unchanged and the
// persist error is returned as is.
func (l *Ledger) ApplyWith(op Operation, persist func(OperationID, Operation) error) (OperationID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := op.Validate(); err != nil {
		return 0, err
	}
	if err := l.check(op); err != nil {
		return 0, err
	}
	if err := persist(OperationID(l.log.len()), op); err != nil {
		return 0, err
	}
	return l.commit(op), nil
}

func (l *Ledger) replayLocked(op Operation) (OperationID, error) {
	if err := op.Validate(); err != nil {
		return 0, err
	}
	return l.applyLocked(op)
}
