/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

ERROR CONVENTION:
  Domain errors travel as HTTP 200 with an in-body flag:

    {"error": true, "message": "..."}

  The message is optional; authorization failures carry none. Only
  transport-level problems (malformed JSON) use a non-200 status. This
  mirrors the behavior the machine's clients were built against and must
  be preserved for compatibility.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - machine/errors.go: The taxonomy mapped onto ErrorDTO
*/
package api

import (
	"errors"

	"github.com/warp/vending-engine/machine"
)

// msgItemUnavailable is the exact customer-facing wording for an unknown
// or out-of-stock item. Clients match on it; do not rephrase.
const msgItemUnavailable = "Your chosen item is not currently available"

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// SignInRequest is the service-mode credential payload.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInDTO carries the issued bearer token.
type SignInDTO struct {
	AccessToken string `json:"access_token"`
}

// ItemDTO represents one slot in API responses.
type ItemDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Cost    int64  `json:"cost"`
	QtyInit int    `json:"qtyInit"`
	QtyEnd  int    `json:"qtyEnd"`
}

// PurchaseRequest is the single-shot purchase payload.
type PurchaseRequest struct {
	Amount int64 `json:"amount"`
}

// PurchaseDTO is the purchase outcome. When the inserted amount falls
// short, Dispensed is false and the machine keeps awaiting payment.
type PurchaseDTO struct {
	Dispensed bool   `json:"dispensed"`
	Change    int64  `json:"change"`
	State     string `json:"state,omitempty"`
}

// TurnoverRecordDTO is one line of the turnover report.
type TurnoverRecordDTO struct {
	ID       string `json:"id"`
	QtyInit  int    `json:"qtyInit"`
	QtyEnd   int    `json:"qtyEnd"`
	Cost     int64  `json:"cost"`
	Turnover int64  `json:"turnover"`
}

// TurnoverTotalsDTO aggregates the report.
type TurnoverTotalsDTO struct {
	UnitsSold int   `json:"units_sold"`
	Turnover  int64 `json:"turnover"`
}

// SaleDTO is one recorded vend from the audit ledger.
type SaleDTO struct {
	ID     string `json:"id"`
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
	Total  int64  `json:"total"`
	Change int64  `json:"change"`
	At     string `json:"at"`
}

// StatusDTO reports the machine's current state.
type StatusDTO struct {
	State     string `json:"state"`
	ItemCount int    `json:"item_count"`
}

// ResetDTO acknowledges a completed reset.
type ResetDTO struct {
	Reset bool `json:"reset"`
}

// ErrorDTO is the body-flagged error payload.
type ErrorDTO struct {
	Error   bool   `json:"error"`
	Message string `json:"message,omitempty"`
}

// =============================================================================
// DOMAIN -> DTO MAPPING
// =============================================================================

func itemDTO(it machine.Item) ItemDTO {
	return ItemDTO{
		ID:      string(it.ID),
		Name:    it.Name,
		Cost:    it.Cost.Cents(),
		QtyInit: it.QtyInit,
		QtyEnd:  it.QtyEnd,
	}
}

// errorDTO maps the machine taxonomy onto the wire payload. Unauthorized
// carries no message on purpose.
func errorDTO(err error) ErrorDTO {
	switch {
	case errors.Is(err, machine.ErrUnauthorized):
		return ErrorDTO{Error: true}
	case errors.Is(err, machine.ErrItemUnavailable),
		errors.Is(err, machine.ErrInsufficientStock),
		errors.Is(err, machine.ErrStockCorrupted):
		return ErrorDTO{Error: true, Message: msgItemUnavailable}
	case errors.Is(err, machine.ErrInvalidAmount):
		return ErrorDTO{Error: true, Message: "Please insert a positive amount"}
	case errors.Is(err, machine.ErrBusy):
		return ErrorDTO{Error: true, Message: "Another purchase is in progress"}
	case errors.Is(err, machine.ErrResetNotAllowed):
		return ErrorDTO{Error: true, Message: "Reset requires a prior turnover report"}
	case errors.Is(err, machine.ErrNoActivePurchase):
		return ErrorDTO{Error: true, Message: "No purchase in progress"}
	default:
		return ErrorDTO{Error: true, Message: "The machine could not process your request"}
	}
}
