package ledger_test

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/opledger/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func mustCreate(t *testing.T, l *ledger.Ledger, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := l.CreateAccount(name)
		require.NoError(t, err)
	}
}

func balanceOf(t *testing.T, l *ledger.Ledger, name string) int64 {
	t.Helper()
	bal, err := l.Balance(name)
	require.NoError(t, err)
	return bal
}

// =============================================================================
// ACCOUNT TESTS
// =============================================================================

func TestLedger_CreateAccount(t *testing.T) {
	l := ledger.New()

	id, err := l.CreateAccount("X")
	require.NoError(t, err)
	assert.Equal(t, ledger.OperationID(0), id)
	assert.Equal(t, int64(0), balanceOf(t, l, "X"))
	assert.Equal(t, []ledger.Operation{ledger.CreateAccountOp("X")}, l.History())
}

func TestLedger_CreateAccountTwice_NoStateChange(t *testing.T) {
	// GIVEN: X exists with a balance
	// WHEN: X is created again
	// THEN: AccountAlreadyExists, balance and log length unchanged
	l := ledger.New()
	mustCreate(t, l, "X")
	_, err := l.Credit("X", 7)
	require.NoError(t, err)

	_, err = l.CreateAccount("X")
	assert.ErrorIs(t, err, ledger.ErrAccountAlreadyExists)
	assert.Equal(t, int64(7), balanceOf(t, l, "X"))
	assert.Equal(t, 2, l.Len())
}

func TestLedger_BalanceOfMissingAccount(t *testing.T) {
	l := ledger.New()
	_, err := l.Balance("X")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// CREDIT / DEBIT TESTS
// =============================================================================

func TestLedger_CreditAndDebit(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "X")

	id, err := l.Credit("X", 10)
	require.NoError(t, err)
	assert.Equal(t, ledger.OperationID(1), id)

	id, err = l.Debit("X", 5)
	require.NoError(t, err)
	assert.Equal(t, ledger.OperationID(2), id)

	assert.Equal(t, int64(5), balanceOf(t, l, "X"))
	assert.Equal(t, ledger.DebitOp("X", 5), l.History()[2], "debit logs the positive magnitude")
}

func TestLedger_InvalidAmounts_NoLogEntry(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "X")
	_, _ = l.Credit("X", 10)

	for _, amount := range []int64{0, -1} {
		_, err := l.Credit("X", amount)
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount, "credit %d", amount)
		_, err = l.Debit("X", amount)
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount, "debit %d", amount)
	}
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, int64(10), balanceOf(t, l, "X"))
}

func TestLedger_DebitTooMuch_NoStateChange(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "X")
	_, _ = l.Credit("X", 10)

	_, err := l.Debit("X", 20)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.True(t, ledger.IsClientError(err))
	assert.Equal(t, int64(10), balanceOf(t, l, "X"))
	assert.Equal(t, 2, l.Len())
	assert.Len(t, l.AccountHistory("X"), 2)
}

func TestLedger_CreditDebitMissingAccount(t *testing.T) {
	l := ledger.New()
	_, err := l.Credit("X", 10)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	_, err = l.Debit("X", 5)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.Equal(t, 0, l.Len())
}

// =============================================================================
// TRANSFER TESTS
// =============================================================================

func TestLedger_Transfer(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "X", "Y")
	_, _ = l.Credit("X", 10)

	id, err := l.Transfer("X", "Y", 5)
	require.NoError(t, err)
	assert.Equal(t, ledger.OperationID(3), id)
	assert.Equal(t, int64(5), balanceOf(t, l, "X"))
	assert.Equal(t, int64(5), balanceOf(t, l, "Y"))
	assert.Equal(t, ledger.TransferOp("X", "Y", 5), l.History()[3])
}

func TestLedger_SelfTransfer(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "X")
	_, _ = l.Credit("X", 10)

	for _, amount := range []int64{5, 0, -3, 1000} {
		_, err := l.Transfer("X", "X", amount)
		assert.ErrorIs(t, err, ledger.ErrSelfTransfer, "amount %d", amount)
	}
	_, err := l.Transfer("ghost", "ghost", 1)
	assert.ErrorIs(t, err, ledger.ErrSelfTransfer, "checked before existence")
	assert.Equal(t, 2, l.Len())
}

func TestLedger_TransferFailures_NoHalfApplied(t *testing.T) {
	// GIVEN: X holds 10, Y does not exist
	// WHEN: X transfers 5 to Y
	// THEN: the failing second leg leaves X untouched
	l := ledger.New()
	mustCreate(t, l, "X")
	_, _ = l.Credit("X", 10)

	_, err := l.Transfer("X", "Y", 5)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.Equal(t, int64(10), balanceOf(t, l, "X"))
	assert.Equal(t, 2, l.Len())
	assert.Nil(t, l.AccountHistory("Y"))

	mustCreate(t, l, "Y")
	_, err = l.Transfer("X", "Y", 11)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	_, err = l.Transfer("X", "Y", 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	_, err = l.Transfer("Z", "Y", 1)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	assert.Equal(t, int64(10), balanceOf(t, l, "X"))
	assert.Equal(t, int64(0), balanceOf(t, l, "Y"))
	assert.Equal(t, 3, l.Len())
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestLedger_Scenario_BalancesAndLogLength(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "X", "Y")
	_, _ = l.Credit("X", 10)
	_, _ = l.Transfer("X", "Y", 5)
	_, err := l.Debit("Y", 2)
	require.NoError(t, err)

	assert.Equal(t, int64(5), balanceOf(t, l, "X"))
	assert.Equal(t, int64(3), balanceOf(t, l, "Y"))
	assert.Len(t, l.History(), 5)
}

func TestLedger_AccountHistory_Order(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "X")
	_, _ = l.Credit("X", 10)
	_, _ = l.Debit("X", 5)

	assert.Equal(t, []ledger.Operation{
		ledger.CreateAccountOp("X"),
		ledger.CreditOp("X", 10),
		ledger.DebitOp("X", 5),
	}, l.AccountHistory("X"))
}

func TestLedger_AccountHistory_TransferOnBothSides(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "X", "Y")
	_, _ = l.Credit("X", 10)
	_, _ = l.Transfer("X", "Y", 5)

	hx := l.AccountHistory("X")
	hy := l.AccountHistory("Y")
	require.Len(t, hx, 3)
	require.Len(t, hy, 2)
	assert.Equal(t, ledger.TransferOp("X", "Y", 5), hx[2])
	assert.Equal(t, ledger.TransferOp("X", "Y", 5), hy[1])
}

func TestLedger_AccountHistory_Unknown(t *testing.T) {
	l := ledger.New()
	assert.Nil(t, l.AccountHistory("X"))
}

func TestLedger_HistoryIsReadOnly(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "X")

	h := l.History()
	h[0] = ledger.CreateAccountOp("Y")
	assert.Equal(t, ledger.CreateAccountOp("X"), l.History()[0])
}

func TestLedger_Accounts(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "b", "a")
	_, _ = l.Credit("b", 4)

	assert.Equal(t, []ledger.AccountBalance{
		{Name: "a", Balance: 0},
		{Name: "b", Balance: 4},
	}, l.Accounts())
}

// =============================================================================
// PROPERTY TESTS
// =============================================================================

// randomWorkload drives a ledger with a seeded mix of valid and invalid calls.
func randomWorkload(l *ledger.Ledger, seed int64, steps int) {
	r := rand.New(rand.NewSource(seed))
	names := []string{"a", "b", "c", "d"}
	pick := func() string { return names[r.Intn(len(names))] }

	for i := 0; i < steps; i++ {
		amount := int64(r.Intn(20)) - 2
		switch r.Intn(4) {
		case 0:
			_, _ = l.CreateAccount(pick())
		case 1:
			_, _ = l.Credit(pick(), amount)
		case 2:
			_, _ = l.Debit(pick(), amount)
		case 3:
			_, _ = l.Transfer(pick(), pick(), amount)
		}
	}
}

func TestLedger_BalancesNeverNegative(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		l := ledger.New()
		randomWorkload(l, seed, 300)
		for _, acc := range l.Accounts() {
			assert.GreaterOrEqual(t, acc.Balance, int64(0), "seed %d account %s", seed, acc.Name)
		}
	}
}

func TestLedger_ConcurrentTransfersPreserveTotal(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "A", "B")
	_, _ = l.Credit("A", 1000)
	_, _ = l.Credit("B", 1000)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = l.Transfer("A", "B", 1)
		}()
		go func() {
			defer wg.Done()
			_, _ = l.Transfer("B", "A", 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2000), balanceOf(t, l, "A")+balanceOf(t, l, "B"))
	assert.Equal(t, 4+2*n, l.Len())
}

func ExampleLedger() {
	l := ledger.New()
	_, _ = l.CreateAccount("X")
	_, _ = l.CreateAccount("Y")
	_, _ = l.Credit("X", 10)
	_, _ = l.Transfer("X", "Y", 5)

	for _, op := range l.AccountHistory("Y") {
		fmt.Println(op)
	}
	_, err := l.Debit("Y", 6)
	fmt.Println(errors.Is(err, ledger.ErrInsufficientFunds))
	// Output:
	// CreateAccount(Y)
	// Transfer(X, Y, 5)
	// true
}

func TestLedger_AccountEntries_CarryLogPositions(t *testing.T) {
	l := ledger.New()
	mustCreate(t, l, "X", "Y")
	_, _ = l.Credit("Y", 3)

	entries := l.AccountEntries("Y")
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.OperationID(1), entries[0].ID)
	assert.Equal(t, ledger.OperationID(2), entries[1].ID)
	assert.Equal(t, ledger.CreditOp("Y", 3), entries[1].Operation)
}
