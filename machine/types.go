/*
Package machine provides the core vending machine transaction engine.

PURPOSE:
  This package contains the accounting and control core of a single vending
  machine: the inventory ledger, the turnover ledger, the purchase state
  machine, and the controller that composes them. It knows nothing about
  HTTP or storage technology - those live in api/ and store/.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount in minor units (cents), backed by decimal
  - Item: A configured slot with price and stock counters
  - Sale: An immutable record of a committed vend
  - ItemID: Type-safe item identifier

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so turnover sums never drift
  2. Snapshot reads: Item values are copied out, never aliased
  3. Single writer: Both ledgers are mutated only through the
     controller's commit path

USAGE:
  cost := machine.NewMoneyFromCents(150)
  item := machine.Item{ID: "espresso", Name: "Espresso", Cost: cost,
      QtyInit: 5, QtyEnd: 5}

SEE ALSO:
  - inventory.go: Stock counters and atomic vend
  - turnover.go: Per-item and aggregate turnover accounting
  - transaction.go: Purchase lifecycle state machine
  - controller.go: Composition and the commit path
*/
package machine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount in minor units
// =============================================================================

// Money is a currency amount. It is constructed from integer minor-currency
// units (cents) and kept as a decimal so multiplication never loses precision.
type Money struct {
	Value decimal.Decimal
}

func NewMoneyFromCents(cents int64) Money {
	return Money{Value: decimal.NewFromInt(cents)}
}

func MoneyZero() Money {
	return Money{Value: decimal.Zero}
}

func (m Money) Add(b Money) Money        { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money        { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) MulInt(n int) Money       { return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (m Money) Neg() Money               { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) GreaterThan(b Money) bool { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool    { return m.Value.LessThan(b.Value) }
func (m Money) Equal(b Money) bool       { return m.Value.Equal(b.Value) }

// Cents returns the amount in integer minor units. This is the wire
// representation; the internal decimal is never serialized directly.
func (m Money) Cents() int64 { return m.Value.IntPart() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ItemID string

// =============================================================================
// ITEM - A configured slot with price and stock counters
// =============================================================================

// Item describes one vendable slot. QtyInit is the stock snapshot taken at
// the start of the accounting session; QtyEnd is the live count. The
// invariant 0 <= QtyEnd <= QtyInit holds at all times; only a committed
// vend decrements QtyEnd, and only a post-report reset reseeds QtyInit.
type Item struct {
	ID      ItemID
	Name    string
	Cost    Money
	QtyInit int
	QtyEnd  int
}

// Sold returns how many units were vended this session.
func (i Item) Sold() int { return i.QtyInit - i.QtyEnd }

// =============================================================================
// SALE - Immutable record of a committed vend
// =============================================================================

// Sale is an append-only audit record. Aborted purchases are never recorded;
// refunds happen before commit, so there is nothing to reverse.
type Sale struct {
	ID       string
	ItemID   ItemID
	Qty      int
	UnitCost Money
	Total    Money
	Change   Money
	At       time.Time
}

// =============================================================================
// RECEIPT - Outcome of a settled purchase
// =============================================================================

type Receipt struct {
	Dispensed bool
	ItemID    ItemID
	Change    Money
}
