/*
journal.go - External capture of the operation log

PURPOSE:
  The ledger itself lives only in memory. A Journal is where a host process
  captures the log as it grows, so that a later process can rebuild the
  ledger with Restore.

APPEND-ONLY CONTRACT:
  - Append(): the ONLY write during normal operation
  - Load(): every captured operation, ordered by id
  - ReplaceAll(): swaps the whole log in one step; used only by restore.
    On error the previous log must still be in place.

  IDs must arrive contiguously from 0. A repeated id is a conflict, a
  skipped id is a gap. Either one means the journal no longer mirrors the
  in-memory log.

WRITE ORDER:
  The Recorder checks an operation against the ledger, journals it, and
  only then commits it. A failed journal write leaves both sides exactly as
  they were, so the next write gets the same id again.

IMPLEMENTATIONS:
  - store/memory: In-memory, for tests
  - store/sqlite: SQLite file or :memory: database

SEE ALSO:
  - replay.go: Restore
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrJournalConflict is returned when an id is already journaled.
	ErrJournalConflict = errors.New("operation id already journaled")

	// ErrJournalGap is returned when an id is not the next expected one.
	ErrJournalGap = errors.New("operation id out of sequence")
)

// Journal persists the operation log outside the ledger.
type Journal interface {
	// Append records op at id. It is the only write operation.
	Append(ctx context.Context, id OperationID, op Operation) error

	// Load returns all journaled operations ordered by id.
	Load(ctx context.Context) ([]Operation, error)

	// ReplaceAll atomically replaces the journal with ops, ids 0..len-1.
	ReplaceAll(ctx context.Context, ops []Operation) error
}

// =============================================================================
// RECORDER - Ledger + Journal kept in step
// =============================================================================

// Recorder applies operations to a ledger and journals each one that
// succeeds. One mutex covers both steps, so journal order is log order.
type Recorder struct {
	mu      sync.Mutex
	ledger  *Ledger
	journal Journal
}

// NewRecorder wraps an existing ledger whose log is already journaled.
func NewRecorder(l *Ledger, j Journal) *Recorder {
	return &Recorder{ledger: l, journal: j}
}

// OpenRecorder restores a ledger from everything in j.
func OpenRecorder(ctx context.Context, j Journal) (*Recorder, error) {
	ops, err := j.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}
	l, err := Restore(ops)
	if err != nil {
		return nil, err
	}
	return NewRecorder(l, j), nil
}

// Ledger returns the current ledger. Use it for queries only; writes that
// bypass the Recorder are not journaled.
func (r *Recorder) Ledger() *Ledger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger
}

func (r *Recorder) CreateAccount(ctx context.Context, name string) (OperationID, error) {
	return r.Apply(ctx, CreateAccountOp(name))
}

func (r *Recorder) Credit(ctx context.Context, name string, amount int64) (OperationID, error) {
	return r.Apply(ctx, CreditOp(name, amount))
}

func (r *Recorder) Debit(ctx context.Context, name string, amount int64) (OperationID, error) {
	return r.Apply(ctx, DebitOp(name, amount))
}

func (r *Recorder) Transfer(ctx context.Context, from, to string, amount int64) (OperationID, error) {
	return r.Apply(ctx, TransferOp(from, to, amount))
}

// Apply journals op and applies it to the ledger. On any error, ledger
// or journal, neither side changes.
func (r *Recorder) Apply(ctx context.Context, op Operation) (OperationID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ledger.ApplyWith(op, func(id OperationID, op Operation) error {
		if err := r.journal.Append(ctx, id, op); err != nil {
			return fmt.Errorf("failed to journal operation %d: %w", id, err)
		}
		return nil
	})
}

// Replace rebuilds the ledger from ops and rewrites the journal to match.
// On a replay or journal failure nothing changes.
func (r *Recorder) Replace(ctx context.Context, ops []Operation) (*Ledger, error) {
	l, err := Restore(ops)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.journal.ReplaceAll(ctx, l.History()); err != nil {
		return nil, fmt.Errorf("failed to rewrite journal: %w", err)
	}
	r.ledger = l
	return l, nil
}
