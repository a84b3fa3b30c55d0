package ledger

// accountIndex maps an account name to the ids of every logged operation
// that mentions it, in the order they happened. A transfer id appears under
// both its source and its destination.
type accountIndex struct {
	ids map[string][]OperationID
}

func newAccountIndex() *accountIndex {
	return &accountIndex{ids: make(map[string][]OperationID)}
}

func (x *accountIndex) record(account string, id OperationID) {
	x.ids[account] = append(x.ids[account], id)
}

// idsFor returns nil when the account has no entry.
func (x *accountIndex) idsFor(account string) []OperationID {
	return x.ids[account]
}
