// Command demo builds a small ledger, prints its state and history, and
// checks that replaying the history reproduces it.
package main

import (
	"fmt"
	"log"

	"github.com/warp/opledger/ledger"
)

func main() {
	l := ledger.New()

	must(l.CreateAccount("X"))
	must(l.CreateAccount("Y"))
	must(l.Credit("X", 10))
	must(l.Transfer("X", "Y", 5))
	must(l.Debit("Y", 2))

	if _, err := l.Debit("Y", 100); err != nil {
		fmt.Printf("rejected: %v\n", err)
	}

	fmt.Println("balances:")
	printBalances(l)

	fmt.Println("history:")
	for i, op := range l.History() {
		fmt.Printf("  %d  %s\n", i, op)
	}

	fmt.Println("history of Y:")
	for _, e := range l.AccountEntries("Y") {
		fmt.Printf("  %d  %s\n", e.ID, e.Operation)
	}

	restored, err := ledger.Restore(l.History())
	if err != nil {
		log.Fatalf("restore failed: %v", err)
	}
	fmt.Printf("restored %d operations:\n", restored.Len())
	printBalances(restored)
}

func printBalances(l *ledger.Ledger) {
	for _, a := range l.Accounts() {
		fmt.Printf("  %-4s %d\n", a.Name, a.Balance)
	}
}

func must(_ ledger.OperationID, err error) {
	if err != nil {
		log.Fatal(err)
	}
}
