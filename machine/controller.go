/*
controller.go - Machine controller: composition and the commit path

PURPOSE:
  Composes the inventory ledger, turnover ledger, purchase state machine,
  session gate, and store into one vending machine. Both ledgers are
  mutated exclusively through the commit path here - no other component
  writes them.

SINGLE LANE:
  One purchase at a time per machine. The controller's mutex is the
  serialization point; a second selection while a purchase is active
  fails with ErrBusy. An expired purchase is reaped (cancelled and
  refunded) before the next customer is turned away.

  Service-mode report and reset take the same mutex: a commit is a
  stock decrement followed by a turnover credit, and neither ledger
  may be read or reseeded between the two.

STATE OWNERSHIP:
  A Controller is an explicitly owned value, not a process-wide
  singleton. Tests run as many independent machines as they like.

SEE ALSO:
  - transaction.go: Purchase lifecycle
  - store.go: Persistence and authorization interfaces
  - api/handlers.go: The transport boundary over this controller
*/
package machine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultPaymentTimeout is how long a purchase may sit in awaiting_payment
// before it is auto-cancelled and refunded.
const DefaultPaymentTimeout = 90 * time.Second

// Config assembles a controller.
type Config struct {
	// Catalog seeds the inventory when the store holds no items yet.
	Catalog []Item

	// Store persists item counters and the sales ledger. Required.
	Store Store

	// Authorizer gates report/reset/sales. Required.
	Authorizer Authorizer

	// PaymentTimeout overrides DefaultPaymentTimeout when positive.
	PaymentTimeout time.Duration

	// LogHandler receives state machine transition logs. Defaults to
	// the process slog handler.
	LogHandler slog.Handler

	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

// Controller is one vending machine.
type Controller struct {
	mu        sync.Mutex
	inv       *Inventory
	turnover  *TurnoverLedger
	store     Store
	authz     Authorizer
	handler   slog.Handler
	timeout   time.Duration
	clock     func() time.Time
	active    *Purchase
	lastReset time.Time
}

// NewController builds a machine. Counters persisted by a previous run
// take precedence over the catalog; a fresh store is provisioned from it.
func NewController(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, errors.New("machine: store is required")
	}
	if cfg.Authorizer == nil {
		return nil, errors.New("machine: authorizer is required")
	}

	items, err := cfg.Store.LoadItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("machine: load items: %w", err)
	}
	provision := len(items) == 0
	if provision {
		items = cfg.Catalog
	}

	inv, err := NewInventory(items)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		inv:      inv,
		turnover: NewTurnoverLedger(),
		store:    cfg.Store,
		authz:    cfg.Authorizer,
		handler:  cfg.LogHandler,
		timeout:  cfg.PaymentTimeout,
		clock:    cfg.Clock,
	}
	if c.handler == nil {
		c.handler = slog.Default().Handler()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultPaymentTimeout
	}
	if c.clock == nil {
		c.clock = time.Now
	}

	if provision && len(items) > 0 {
		if err := cfg.Store.SaveItems(ctx, inv.ListAll()); err != nil {
			return nil, fmt.Errorf("machine: provision items: %w", err)
		}
	}
	return c, nil
}

// =============================================================================
// READ-ONLY SURFACE (unauthenticated)
// =============================================================================

// ListItems returns all items in configured order.
func (c *Controller) ListItems() []Item {
	return c.inv.ListAll()
}

// GetItem returns one item, or ErrItemUnavailable for an unknown id.
func (c *Controller) GetItem(id ItemID) (Item, error) {
	return c.inv.Get(id)
}

// State returns the current purchase state, or idle when no purchase is
// in flight. A purchase past its payment deadline is reaped here rather
// than reported as still awaiting payment.
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reapExpiredLocked()
	if c.active == nil {
		return StateIdle
	}
	return c.active.State()
}

// ItemCount returns the number of configured items.
func (c *Controller) ItemCount() int {
	return c.inv.Count()
}

// =============================================================================
// PURCHASE FLOW
// =============================================================================

// Select opens a purchase for an item: the machine moves from idle to
// awaiting payment. Fails with ErrBusy if another purchase is active and
// with ErrItemUnavailable if the item is unknown, out of stock, or halted.
func (c *Controller) Select(id ItemID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.selectLocked(id)
	return err
}

// InsertCoin adds a payment increment to the active purchase. When the
// total covers the cost the purchase commits synchronously and the
// settled receipt is returned; otherwise the receipt is nil and the
// machine keeps awaiting payment.
func (c *Controller) InsertCoin(ctx context.Context, amountCents int64) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reapExpiredLocked()
	if c.active == nil {
		return nil, ErrNoActivePurchase
	}

	ready, err := c.active.InsertCoin(NewMoneyFromCents(amountCents))
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, nil
	}
	return c.commitLocked(ctx)
}

// Cancel aborts the active purchase and returns the refund due.
func (c *Controller) Cancel() (Money, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return MoneyZero(), ErrNoActivePurchase
	}
	refund, err := c.active.Cancel()
	c.active = nil
	return refund, err
}

// SelectAndPay is the single-shot purchase: select an item and insert one
// amount. If the amount covers the cost the vend commits and the receipt
// carries the change; if it falls short the purchase stays open awaiting
// more coins and the receipt reports dispensed=false. A follow-up call
// for the same item adds to the open purchase; for a different item it
// fails with ErrBusy.
func (c *Controller) SelectAndPay(ctx context.Context, id ItemID, amountCents int64) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	c.reapExpiredLocked()
	if c.active == nil {
		if _, err := c.selectLocked(id); err != nil {
			return nil, err
		}
	} else if c.active.State() != StateAwaitingPayment || c.active.Item().ID != id {
		return nil, ErrBusy
	}

	ready, err := c.active.InsertCoin(NewMoneyFromCents(amountCents))
	if err != nil {
		return nil, err
	}
	if !ready {
		return &Receipt{Dispensed: false, ItemID: id, Change: MoneyZero()}, nil
	}
	return c.commitLocked(ctx)
}

// ExpireStalePayment reaps a purchase stuck past the payment deadline.
// It returns the refund issued and whether anything was reaped.
func (c *Controller) ExpireStalePayment() (Money, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reapExpiredLocked()
}

func (c *Controller) selectLocked(id ItemID) (*Purchase, error) {
	c.reapExpiredLocked()
	if c.active != nil {
		return nil, ErrBusy
	}

	item, err := c.inv.Get(id)
	if err != nil {
		return nil, err
	}
	if c.inv.Halted(id) {
		return nil, &StockCorruptionError{ItemID: id, QtyEnd: item.QtyEnd}
	}
	if item.QtyEnd <= 0 {
		return nil, ErrItemUnavailable
	}

	p, err := NewPurchase(c.handler, item)
	if err != nil {
		return nil, err
	}
	if err := p.Select(); err != nil {
		return nil, err
	}
	if err := p.BeginPayment(c.clock(), c.timeout); err != nil {
		return nil, err
	}
	c.active = p
	return p, nil
}

// commitLocked is the single write path for both ledgers: atomic stock
// decrement, turnover credit, sale record, counter snapshot.
func (c *Controller) commitLocked(ctx context.Context) (*Receipt, error) {
	p := c.active
	c.active = nil

	change, err := p.Commit(func(it Item) error {
		return c.inv.ReserveAndVend(it.ID, 1)
	})
	if err != nil {
		// change carries the refund of the full inserted amount.
		log.Printf("[Machine] vend aborted for %s, refunding %d: %v",
			p.Item().ID, change.Cents(), err)
		return nil, err
	}

	item := p.Item()
	c.turnover.Credit(item.ID, 1, item.Cost)

	sale := Sale{
		ID:       uuid.NewString(),
		ItemID:   item.ID,
		Qty:      1,
		UnitCost: item.Cost,
		Total:    item.Cost,
		Change:   change,
		At:       c.clock(),
	}
	if err := c.store.AppendSale(ctx, sale); err != nil {
		// The customer has the item; the audit record is best-effort.
		log.Printf("[Machine] warning: failed to record sale %s: %v", sale.ID, err)
	}
	if err := c.store.SaveItems(ctx, c.inv.ListAll()); err != nil {
		log.Printf("[Machine] warning: failed to persist counters: %v", err)
	}

	return &Receipt{Dispensed: true, ItemID: item.ID, Change: change}, nil
}

func (c *Controller) reapExpiredLocked() (Money, bool) {
	if c.active == nil || !c.active.Expired(c.clock()) {
		return MoneyZero(), false
	}
	refund, err := c.active.Cancel()
	c.active = nil
	if err != nil {
		return MoneyZero(), false
	}
	log.Printf("[Machine] payment window expired, refunding %d", refund.Cents())
	return refund, true
}

// =============================================================================
// SERVICE MODE (token required)
// =============================================================================

// TurnoverReport returns per-item records in listing order plus aggregate
// totals. Reading the report arms the reset. The controller mutex makes
// the stock and turnover reads one consistent snapshot: a commit cannot
// land between them.
func (c *Controller) TurnoverReport(token string) ([]TurnoverRecord, TurnoverTotals, error) {
	if err := c.authorize(token); err != nil {
		return nil, TurnoverTotals{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	records, totals := c.turnover.Report(c.inv.ListAll())
	return records, totals, nil
}

// ResetAfterReport closes the accounting session: turnover counters are
// zeroed and every item's QtyInit is reseeded to its current QtyEnd.
// Fails with ErrResetNotAllowed unless a report was read since the last
// reset.
func (c *Controller) ResetAfterReport(ctx context.Context, token string) error {
	if err := c.authorize(token); err != nil {
		return err
	}

	// Held across both ledgers so a reset never lands inside a commit,
	// between the stock decrement and the turnover credit.
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.turnover.ResetAfterReport(); err != nil {
		return err
	}
	c.inv.Reseed()
	c.lastReset = c.clock()

	if err := c.store.SaveItems(ctx, c.inv.ListAll()); err != nil {
		log.Printf("[Machine] warning: failed to persist counters after reset: %v", err)
	}
	return nil
}

// Sales returns the recorded sales since the last reset, oldest first.
func (c *Controller) Sales(ctx context.Context, token string) ([]Sale, error) {
	if err := c.authorize(token); err != nil {
		return nil, err
	}
	c.mu.Lock()
	since := c.lastReset
	c.mu.Unlock()
	return c.store.ListSales(ctx, since)
}

func (c *Controller) authorize(token string) error {
	if token == "" {
		return ErrUnauthorized
	}
	if _, err := c.authz.Authorize(token); err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}
