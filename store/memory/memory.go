// Package memory provides an in-memory Journal.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/opledger/ledger"
)

// =============================================================================
// MEMORY JOURNAL - In-memory implementation (for testing/dev)
// =============================================================================

type Journal struct {
	mu  sync.RWMutex
	ops []ledger.Operation
}

func New() *Journal {
	return &Journal{}
}

// Append adds a single operation. Append-only.
func (j *Journal) Append(_ context.Context, id ledger.OperationID, op ledger.Operation) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	next := ledger.OperationID(len(j.ops))
	switch {
	case id < next:
		return fmt.Errorf("%w: %d", ledger.ErrJournalConflict, id)
	case id > next:
		return fmt.Errorf("%w: got %d, want %d", ledger.ErrJournalGap, id, next)
	}
	j.ops = append(j.ops, op)
	return nil
}

func (j *Journal) Load(_ context.Context) ([]ledger.Operation, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	result := make([]ledger.Operation, len(j.ops))
	copy(result, j.ops)
	return result, nil
}

// ReplaceAll swaps in a copy of ops as the whole journal.
func (j *Journal) ReplaceAll(_ context.Context, ops []ledger.Operation) error {
	fresh := make([]ledger.Operation, len(ops))
	copy(fresh, ops)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.ops = fresh
	return nil
}

// Len returns the number of journaled operations.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.ops)
}
