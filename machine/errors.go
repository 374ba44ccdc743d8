/*
errors.go - Centralized error types for the vending engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps these onto the body-flagged error convention;
  nothing in here knows about HTTP.

ERROR CATEGORIES:
  1. Purchase errors - Selection, payment, and vend failures
  2. Service errors - Authorization and report/reset ordering
  3. Corruption - Negative stock, which halts dispensing for the item

USAGE:
  if errors.Is(err, machine.ErrInsufficientStock) {
      // race-lost vend, refund already computed
  }

SEE ALSO:
  - inventory.go: Returns stock errors
  - turnover.go: Returns ErrResetNotAllowed
  - controller.go: Returns ErrBusy and ErrUnauthorized
*/
package machine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnauthorized is returned when a service-mode operation is attempted
	// without a valid session token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrItemUnavailable is returned for an unknown item id or an item with
	// zero remaining stock at selection time.
	ErrItemUnavailable = errors.New("item unavailable")

	// ErrInvalidAmount is returned for a non-positive payment increment.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientStock is returned when an atomic vend loses the race
	// for the last unit. The purchase aborts with a full refund.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrBusy is returned when a purchase is attempted while another
	// transaction is active. The machine dispenses one lane at a time.
	ErrBusy = errors.New("machine busy")

	// ErrResetNotAllowed is returned when reset is called without a
	// successful report read since the last reset.
	ErrResetNotAllowed = errors.New("reset requires a prior report")

	// ErrNoActivePurchase is returned when a payment or cancel arrives
	// with no transaction in flight.
	ErrNoActivePurchase = errors.New("no active purchase")

	// ErrStockCorrupted indicates a negative stock count was detected.
	// This is not a user error: the item is halted pending operator
	// intervention.
	ErrStockCorrupted = errors.New("stock corrupted")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports a vend that could not be satisfied.
type InsufficientStockError struct {
	ItemID    ItemID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// StockCorruptionError reports a negative counter. Dispensing for the item
// is halted until the operator restores a sane state.
type StockCorruptionError struct {
	ItemID ItemID
	QtyEnd int
}

func (e *StockCorruptionError) Error() string {
	return fmt.Sprintf("stock corruption on %s: qtyEnd=%d", e.ItemID, e.QtyEnd)
}

func (e *StockCorruptionError) Unwrap() error {
	return ErrStockCorrupted
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is a normal customer-facing
// outcome rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrItemUnavailable) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrBusy) ||
		errors.Is(err, ErrResetNotAllowed) ||
		errors.Is(err, ErrNoActivePurchase)
}

// IsFatal returns true if the error should halt dispensing for an item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStockCorrupted)
}
