package ledger

import (
	"math"
	"sort"
)

// =============================================================================
// BALANCES - Account registry and current balances
// =============================================================================

// accountEntry is the single record per account. An account exists iff it
// has an entry, so existence and balance can't drift apart.
type accountEntry struct {
	balance int64
}

// balances owns the set of accounts and their balances. It never writes
// to the log.
type balances struct {
	entries map[string]*accountEntry
}

func newBalances() *balances {
	return &balances{entries: make(map[string]*accountEntry)}
}

func (b *balances) exists(name string) bool {
	_, ok := b.entries[name]
	return ok
}

func (b *balances) create(name string) error {
	if b.exists(name) {
		return accountAlreadyExists(name)
	}
	b.entries[name] = &accountEntry{}
	return nil
}

func (b *balances) balanceOf(name string) (int64, error) {
	e, ok := b.entries[name]
	if !ok {
		return 0, accountNotFound(name)
	}
	return e.balance, nil
}

// canApply reports whether delta could be committed to name. Pure: no
// state changes on any path.
func (b *balances) canApply(name string, delta int64) error {
	e, ok := b.entries[name]
	if !ok {
		return accountNotFound(name)
	}
	if delta == 0 {
		return ErrInvalidAmount
	}
	if delta > 0 && e.balance > math.MaxInt64-delta {
		return ErrInvalidAmount
	}
	if e.balance+delta < 0 {
		return &InsufficientFundsError{Account: name, Balance: e.balance, Delta: delta}
	}
	return nil
}

// commit applies a delta already accepted by canApply.
func (b *balances) commit(name string, delta int64) {
	b.entries[name].balance += delta
}

func (b *balances) applyDelta(name string, delta int64) error {
	if err := b.canApply(name, delta); err != nil {
		return err
	}
	b.commit(name, delta)
	return nil
}

// AccountBalance is a point-in-time view of one account.
type AccountBalance struct {
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// list returns every account sorted by name.
func (b *balances) list() []AccountBalance {
	out := make([]AccountBalance, 0, len(b.entries))
	for name, e := range b.entries {
		out = append(out, AccountBalance{Name: name, Balance: e.balance})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
