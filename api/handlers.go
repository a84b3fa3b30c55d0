/*
handlers.go - HTTP API handlers for the ledger

PURPOSE:
  Exposes the ledger via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the ledger through a Recorder so every
  successful write is journaled.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                 List accounts with balances
    POST   /api/accounts                 Create account
    GET    /api/accounts/{name}          Get balance
    GET    /api/accounts/{name}/history  Operations touching the account
    POST   /api/accounts/{name}/credit   Credit account
    POST   /api/accounts/{name}/debit    Debit account

  Transfers:
    POST   /api/transfers                Transfer between accounts

  Log:
    GET    /api/history                  Full operation log
    POST   /api/restore                  Replace state by replaying a log

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input shape (amounts must be whole numbers)
  3. Call the ledger
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid amount, self transfer, malformed or failing replay log
  - 404: Account not found
  - 409: Account already exists, insufficient funds
  - 500: Journal failures

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/opledger/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Recorder *ledger.Recorder
}

// NewHandler creates a new handler writing through rec.
func NewHandler(rec *ledger.Recorder) *Handler {
	return &Handler{Recorder: rec}
}

// =============================================================================
// ACCOUNT ENDPOINTS
// =============================================================================

// ListAccounts returns all accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toAccountDTOs(h.Recorder.Ledger().Accounts()))
}

// CreateAccount opens a new account at balance 0.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	id, err := h.Recorder.CreateAccount(r.Context(), req.Name)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, OperationResponse{OperationID: int(id)})
}

// GetAccount returns one account's balance.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	balance, err := h.Recorder.Ledger().Balance(name)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountDTO{Name: name, Balance: balance})
}

// GetAccountHistory returns the operations that mention an account. An
// account with no history gets an empty list, not a 404.
func (h *Handler) GetAccountHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	entries := h.Recorder.Ledger().AccountEntries(name)

	ops := make([]OperationDTO, len(entries))
	for i, e := range entries {
		ops[i] = toOperationDTO(int(e.ID), e.Operation)
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Account: name, Operations: ops})
}

// Credit adds to an account.
func (h *Handler) Credit(w http.ResponseWriter, r *http.Request) {
	h.applyAmount(w, r, h.Recorder.Credit)
}

// Debit removes from an account.
func (h *Handler) Debit(w http.ResponseWriter, r *http.Request) {
	h.applyAmount(w, r, h.Recorder.Debit)
}

type amountFunc func(ctx context.Context, name string, amount int64) (ledger.OperationID, error)

func (h *Handler) applyAmount(w http.ResponseWriter, r *http.Request, apply amountFunc) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	amount, err := toAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}

	id, err := apply(r.Context(), chi.URLParam(r, "name"), amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OperationResponse{OperationID: int(id)})
}

// =============================================================================
// TRANSFER ENDPOINTS
// =============================================================================

// Transfer moves funds between two accounts.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	amount, err := toAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}

	id, err := h.Recorder.Transfer(r.Context(), req.From, req.To, amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OperationResponse{OperationID: int(id)})
}

// =============================================================================
// LOG ENDPOINTS
// =============================================================================

// GetHistory returns the full operation log.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ops := h.Recorder.Ledger().History()
	writeJSON(w, http.StatusOK, HistoryResponse{Operations: toOperationDTOs(ops)})
}

// Restore replaces the ledger with the result of replaying the given log.
// Replay is strict: any failing entry rejects the whole request and the
// current ledger stays in place.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ops := make([]ledger.Operation, len(req.Operations))
	for i, opReq := range req.Operations {
		op, err := opReq.toOperation()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount", fmt.Errorf("entry %d: %w", i, err))
			return
		}
		ops[i] = op
	}

	l, err := h.Recorder.Replace(r.Context(), ops)
	if err != nil {
		var replayErr *ledger.ReplayError
		if errors.As(err, &replayErr) {
			writeError(w, http.StatusBadRequest, "replay failed", err)
			return
		}
		writeLedgerError(w, err)
		return
	}
	log.Printf("ledger restored from %d operations", l.Len())
	writeJSON(w, http.StatusOK, RestoreResponse{
		Operations: l.Len(),
		Accounts:   toAccountDTOs(l.Accounts()),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeLedgerError maps ledger error kinds to HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "account not found", err)
	case errors.Is(err, ledger.ErrAccountAlreadyExists):
		writeError(w, http.StatusConflict, "account already exists", err)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient funds", err)
	case errors.Is(err, ledger.ErrSelfTransfer):
		writeError(w, http.StatusBadRequest, "cannot transfer to the same account", err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid operation", err)
	default:
		log.Printf("ledger write failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
