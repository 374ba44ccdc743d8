/*
handlers.go - HTTP API handlers for the vending machine engine

PURPOSE:
  Exposes the vending machine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the controller.

ENDPOINTS:
  Anonymous (customer flow):
    GET    /drinks                       List all items
    GET    /drinks/item/{id}             Get one item
    POST   /drinks/item/{id}/purchase    Select and pay
    GET    /status                       Machine status

  Service mode (token required):
    POST   /sign-in                      Obtain a bearer token
    GET    /turnoverReport               Per-item turnover records
    GET    /turnoverReport/summary       Aggregate totals
    POST   /reset                        Post-report reset
    GET    /sales                        Sales audit since last reset

TOKENS:
  The token travels in the "authorization" header, with or without a
  "Bearer " prefix - clients historically send it bare.

ERROR HANDLING:
  Domain errors are returned as HTTP 200 with {"error":true} and an
  optional message (see dto.go). Malformed request bodies get 400.

SEE ALSO:
  - dto.go: Request/response data structures and the error mapping
  - server.go: Router setup and middleware
  - machine/controller.go: The engine behind these handlers
*/
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/vending-engine/auth"
	"github.com/warp/vending-engine/machine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Machine *machine.Controller
	Auth    *auth.Authenticator
}

// NewHandler creates a new handler over one machine.
func NewHandler(m *machine.Controller, a *auth.Authenticator) *Handler {
	return &Handler{Machine: m, Auth: a}
}

// =============================================================================
// SIGN-IN
// =============================================================================

// SignIn validates service credentials and issues a bearer token.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	token, err := h.Auth.SignIn(req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusOK, ErrorDTO{Error: true})
		return
	}
	writeJSON(w, http.StatusOK, SignInDTO{AccessToken: token})
}

// =============================================================================
// CUSTOMER FLOW
// =============================================================================

// ListItems returns every configured item in listing order.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items := h.Machine.ListItems()
	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = itemDTO(it)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetItem returns one item, or the body-flagged unavailable error.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := machine.ItemID(chi.URLParam(r, "id"))

	item, err := h.Machine.GetItem(id)
	if err != nil {
		writeJSON(w, http.StatusOK, errorDTO(err))
		return
	}
	writeJSON(w, http.StatusOK, itemDTO(item))
}

// Purchase is the single-shot purchase: select the item and insert one
// amount. Insufficient amounts keep the purchase open; follow-up calls
// for the same item add to it.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	id := machine.ItemID(chi.URLParam(r, "id"))

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	receipt, err := h.Machine.SelectAndPay(r.Context(), id, req.Amount)
	if err != nil {
		writeJSON(w, http.StatusOK, errorDTO(err))
		return
	}
	dto := PurchaseDTO{Dispensed: receipt.Dispensed, Change: receipt.Change.Cents()}
	if !receipt.Dispensed {
		dto.State = h.Machine.State()
	}
	writeJSON(w, http.StatusOK, dto)
}

// Status reports the machine's transaction state and slot count.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusDTO{
		State:     h.Machine.State(),
		ItemCount: h.Machine.ItemCount(),
	})
}

// =============================================================================
// SERVICE MODE
// =============================================================================

// TurnoverReport returns one record per item in listing order.
func (h *Handler) TurnoverReport(w http.ResponseWriter, r *http.Request) {
	records, _, err := h.Machine.TurnoverReport(bearerToken(r))
	if err != nil {
		writeJSON(w, http.StatusOK, errorDTO(err))
		return
	}

	dtos := make([]TurnoverRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = TurnoverRecordDTO{
			ID:       string(rec.ItemID),
			QtyInit:  rec.QtyInit,
			QtyEnd:   rec.QtyEnd,
			Cost:     rec.Cost.Cents(),
			Turnover: rec.Turnover.Cents(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// TurnoverSummary returns the aggregate totals alongside the report.
// Reading the summary also counts as a report read.
func (h *Handler) TurnoverSummary(w http.ResponseWriter, r *http.Request) {
	_, totals, err := h.Machine.TurnoverReport(bearerToken(r))
	if err != nil {
		writeJSON(w, http.StatusOK, errorDTO(err))
		return
	}
	writeJSON(w, http.StatusOK, TurnoverTotalsDTO{
		UnitsSold: totals.UnitsSold,
		Turnover:  totals.Turnover.Cents(),
	})
}

// Reset closes the accounting session. Valid only after a report read.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Machine.ResetAfterReport(r.Context(), bearerToken(r)); err != nil {
		writeJSON(w, http.StatusOK, errorDTO(err))
		return
	}
	writeJSON(w, http.StatusOK, ResetDTO{Reset: true})
}

// Sales returns the audit ledger since the last reset.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Machine.Sales(r.Context(), bearerToken(r))
	if err != nil {
		writeJSON(w, http.StatusOK, errorDTO(err))
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = SaleDTO{
			ID:     s.ID,
			ItemID: string(s.ItemID),
			Qty:    s.Qty,
			Total:  s.Total.Cents(),
			Change: s.Change.Cents(),
			At:     s.At.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// bearerToken extracts the session token from the authorization header.
// Clients send it bare or with a "Bearer " prefix; both are accepted.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorDTO{Error: true, Message: message})
}
