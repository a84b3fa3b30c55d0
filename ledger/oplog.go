package ledger

import "fmt"

// opLog is the append-only sequence of operations. It is the only source
// of truth for history: no Update, no Delete, no truncation.
type opLog struct {
	entries []Operation
}

// append records op and returns its id, which is the previous length.
func (l *opLog) append(op Operation) OperationID {
	l.entries = append(l.entries, op)
	return OperationID(len(l.entries) - 1)
}

// entryAt returns the operation recorded at id. IDs only ever come from
// append, so an out-of-range id means the index and log have diverged.
func (l *opLog) entryAt(id OperationID) Operation {
	if id < 0 || int(id) >= len(l.entries) {
		panic(fmt.Sprintf("ledger: operation id %d out of range [0,%d)", id, len(l.entries)))
	}
	return l.entries[id]
}

// all returns a copy of the full log in order.
func (l *opLog) all() []Operation {
	out := make([]Operation, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *opLog) len() int {
	return len(l.entries)
}
