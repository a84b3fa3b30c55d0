/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger's Go types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

AMOUNTS:
  Request amounts decode into decimal.Decimal so that "1.5", 1.5 and
  "10" are all parsed the same way. Only whole numbers that fit in int64
  are accepted; the ledger has no fractional units.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/warp/opledger/ledger"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateAccountRequest struct {
	Name string `json:"name"`
}

// AmountRequest is the body of credit and debit calls.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// RestoreRequest replaces the ledger with the result of replaying Operations.
type RestoreRequest struct {
	Operations []OperationRequest `json:"operations"`
}

// OperationRequest is one log entry on input. It has the same shape as
// OperationDTO, so a history response can be posted back as is; any id is
// ignored.
type OperationRequest struct {
	Kind    string          `json:"kind"`
	Account string          `json:"account"`
	Target  string          `json:"target,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// OperationDTO is one log entry. ID is the log position.
type OperationDTO struct {
	ID      int    `json:"id"`
	Kind    string `json:"kind"`
	Account string `json:"account"`
	Target  string `json:"target,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
}

type OperationResponse struct {
	OperationID int `json:"operation_id"`
}

type AccountDTO struct {
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

type HistoryResponse struct {
	Account    string         `json:"account,omitempty"`
	Operations []OperationDTO `json:"operations"`
}

type RestoreResponse struct {
	Operations int          `json:"operations"`
	Accounts   []AccountDTO `json:"accounts"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

var errFractionalAmount = errors.New("amount must be a whole number")

// toAmount converts a decoded amount to the ledger's integer amount. Sign
// and zero checks are left to the ledger.
func toAmount(d decimal.Decimal) (int64, error) {
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %s", errFractionalAmount, d)
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || d.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%w: %s out of range", ledger.ErrInvalidAmount, d)
	}
	return d.IntPart(), nil
}

func toOperationDTOs(ops []ledger.Operation) []OperationDTO {
	out := make([]OperationDTO, len(ops))
	for i, op := range ops {
		out[i] = toOperationDTO(i, op)
	}
	return out
}

func toOperationDTO(id int, op ledger.Operation) OperationDTO {
	return OperationDTO{
		ID:      id,
		Kind:    string(op.Kind),
		Account: op.Account,
		Target:  op.Target,
		Amount:  op.Amount,
	}
}

func (r OperationRequest) toOperation() (ledger.Operation, error) {
	amount, err := toAmount(r.Amount)
	if err != nil {
		return ledger.Operation{}, err
	}
	return ledger.Operation{
		Kind:    ledger.OpKind(r.Kind),
		Account: r.Account,
		Target:  r.Target,
		Amount:  amount,
	}, nil
}

func toAccountDTOs(accounts []ledger.AccountBalance) []AccountDTO {
	out := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		out[i] = AccountDTO{Name: a.Name, Balance: a.Balance}
	}
	return out
}
