/*
transaction.go - Purchase lifecycle state machine

PURPOSE:
  Drives a single purchase attempt through its states:

    idle -> item_selected -> awaiting_payment -> dispensing -> settled
                                   |                  |
                                   +----> aborted <---+

  Transition legality is enforced by go-fsm against an explicit
  transitions table. The auto-advance on sufficient payment is a pure,
  synchronous evaluation inside InsertCoin - never a background task.

SINGLE LANE:
  A Purchase is ephemeral and never persisted. The controller holds at
  most one at a time; concurrent attempts fail with ErrBusy there.

TIMEOUT:
  BeginPayment stamps a deadline. Expired() reports whether a purchase
  sat in awaiting_payment past it; the controller (or the API sweeper)
  cancels and refunds expired purchases.

SEE ALSO:
  - controller.go: Creates purchases and runs the commit path
  - errors.go: ErrInvalidAmount, ErrInsufficientStock
*/
package machine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-fsm"
)

// Error alias from go-fsm so callers need not import it.
var ErrInvalidStateTransition = fsm.ErrInvalidStateTransition

// Purchase states.
const (
	StateIdle            = "idle"
	StateItemSelected    = "item_selected"
	StateAwaitingPayment = "awaiting_payment"
	StateDispensing      = "dispensing"
	StateSettled         = "settled"
	StateAborted         = "aborted"
)

// PurchaseTransitions defines the valid edges of the purchase lifecycle.
var PurchaseTransitions = map[string][]string{
	StateIdle:            {StateItemSelected, StateAborted},
	StateItemSelected:    {StateAwaitingPayment, StateAborted},
	StateAwaitingPayment: {StateDispensing, StateAborted},
	StateDispensing:      {StateSettled, StateAborted},
	StateSettled:         {}, // terminal
	StateAborted:         {}, // terminal
}

// Purchase is one customer transaction. Not safe for concurrent use; the
// controller serializes access.
type Purchase struct {
	fsm      *fsm.Machine
	item     Item
	inserted Money
	deadline time.Time
}

// NewPurchase creates a purchase in the idle state. The caller validates
// item availability before selecting.
func NewPurchase(handler slog.Handler, item Item) (*Purchase, error) {
	m, err := fsm.New(handler, StateIdle, PurchaseTransitions)
	if err != nil {
		return nil, err
	}
	return &Purchase{
		fsm:      m,
		item:     item,
		inserted: MoneyZero(),
	}, nil
}

func (p *Purchase) State() string   { return p.fsm.GetState() }
func (p *Purchase) Item() Item      { return p.item }
func (p *Purchase) Inserted() Money { return p.inserted }

// Terminal reports whether the purchase has settled or aborted.
func (p *Purchase) Terminal() bool {
	s := p.State()
	return s == StateSettled || s == StateAborted
}

// Select confirms the item choice: idle -> item_selected.
func (p *Purchase) Select() error {
	return p.fsm.Transition(StateItemSelected)
}

// BeginPayment opens the payment window and stamps the timeout deadline.
func (p *Purchase) BeginPayment(now time.Time, timeout time.Duration) error {
	if err := p.fsm.Transition(StateAwaitingPayment); err != nil {
		return err
	}
	p.deadline = now.Add(timeout)
	return nil
}

// InsertCoin accumulates a payment increment. A non-positive amount is
// rejected without state change. When the running total covers the item
// cost the purchase auto-advances to dispensing; the returned bool
// reports whether that happened.
func (p *Purchase) InsertCoin(amount Money) (bool, error) {
	if p.State() != StateAwaitingPayment {
		return false, fmt.Errorf("insert in state %s: %w", p.State(), ErrInvalidStateTransition)
	}
	if !amount.IsPositive() {
		return false, ErrInvalidAmount
	}
	p.inserted = p.inserted.Add(amount)
	if p.inserted.LessThan(p.item.Cost) {
		return false, nil
	}
	if err := p.fsm.Transition(StateDispensing); err != nil {
		return false, err
	}
	return true, nil
}

// Commit runs the vend callback while in dispensing. On success it computes
// change and settles; on failure it aborts and returns the full inserted
// amount as the refund alongside the vend error.
func (p *Purchase) Commit(vend func(Item) error) (Money, error) {
	if p.State() != StateDispensing {
		return MoneyZero(), fmt.Errorf("commit in state %s: %w", p.State(), ErrInvalidStateTransition)
	}
	if err := vend(p.item); err != nil {
		refund := p.inserted
		if terr := p.fsm.Transition(StateAborted); terr != nil {
			return refund, terr
		}
		return refund, err
	}
	change := p.inserted.Sub(p.item.Cost)
	if err := p.fsm.Transition(StateSettled); err != nil {
		return MoneyZero(), err
	}
	return change, nil
}

// Cancel aborts from any non-terminal state and returns the refund due.
func (p *Purchase) Cancel() (Money, error) {
	if p.Terminal() {
		return MoneyZero(), fmt.Errorf("cancel in state %s: %w", p.State(), ErrInvalidStateTransition)
	}
	refund := p.inserted
	if err := p.fsm.Transition(StateAborted); err != nil {
		return MoneyZero(), err
	}
	return refund, nil
}

// Expired reports whether the purchase overstayed the payment window.
func (p *Purchase) Expired(now time.Time) bool {
	return p.State() == StateAwaitingPayment && now.After(p.deadline)
}
