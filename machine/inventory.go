/*
inventory.go - Inventory ledger: stock counters and the atomic vend

PURPOSE:
  Holds per-item stock and price in configured order. The only mutation
  paths are ReserveAndVend (atomic check-and-decrement, called from the
  controller's commit) and Reseed (called from the post-report reset).

INVARIANTS:
  - 0 <= QtyEnd <= QtyInit for every item, at all times
  - ReserveAndVend is indivisible: no lost updates, no overselling
  - A negative counter halts dispensing for that item (corruption)

ORDERING:
  ListAll returns items in configured order. The item count is whatever
  the catalog configured - nothing here assumes a fixed number of slots.

SEE ALSO:
  - controller.go: The only caller of ReserveAndVend
  - turnover.go: Credited in the same commit
*/
package machine

import "sync"

// Inventory is the stock ledger for one machine.
type Inventory struct {
	mu     sync.RWMutex
	order  []ItemID
	items  map[ItemID]*Item
	halted map[ItemID]bool
}

// NewInventory builds an inventory from configured items, in the given
// order. It rejects duplicate ids and counters that already violate the
// stock invariant.
func NewInventory(items []Item) (*Inventory, error) {
	inv := &Inventory{
		items:  make(map[ItemID]*Item, len(items)),
		halted: make(map[ItemID]bool),
	}
	for _, it := range items {
		if _, dup := inv.items[it.ID]; dup {
			return nil, &StockCorruptionError{ItemID: it.ID, QtyEnd: it.QtyEnd}
		}
		if it.QtyEnd < 0 || it.QtyEnd > it.QtyInit || it.Cost.IsNegative() {
			return nil, &StockCorruptionError{ItemID: it.ID, QtyEnd: it.QtyEnd}
		}
		cp := it
		inv.items[it.ID] = &cp
		inv.order = append(inv.order, it.ID)
	}
	return inv, nil
}

// Get returns a snapshot of one item. Unknown ids surface as
// ErrItemUnavailable - the customer cannot tell an unknown slot from an
// empty one, and neither should the API.
func (inv *Inventory) Get(id ItemID) (Item, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	it, ok := inv.items[id]
	if !ok {
		return Item{}, ErrItemUnavailable
	}
	return *it, nil
}

// ListAll returns snapshots of every item in configured order.
func (inv *Inventory) ListAll() []Item {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]Item, 0, len(inv.order))
	for _, id := range inv.order {
		out = append(out, *inv.items[id])
	}
	return out
}

// Count returns the number of configured items.
func (inv *Inventory) Count() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.order)
}

// ReserveAndVend atomically checks and decrements stock. It succeeds only
// if qty units remain; concurrent vends on the last unit see exactly one
// winner.
func (inv *Inventory) ReserveAndVend(id ItemID, qty int) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	it, ok := inv.items[id]
	if !ok {
		return ErrItemUnavailable
	}
	if inv.halted[id] {
		return &StockCorruptionError{ItemID: id, QtyEnd: it.QtyEnd}
	}
	if it.QtyEnd < 0 {
		// Should be unreachable through this ledger; halt the item anyway.
		inv.halted[id] = true
		return &StockCorruptionError{ItemID: id, QtyEnd: it.QtyEnd}
	}
	if it.QtyEnd < qty {
		return &InsufficientStockError{ItemID: id, Requested: qty, Available: it.QtyEnd}
	}
	it.QtyEnd -= qty
	return nil
}

// Reseed snapshots the current counters as the new session baseline:
// QtyInit := QtyEnd for every item. Called only from the post-report reset.
func (inv *Inventory) Reseed() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, it := range inv.items {
		it.QtyInit = it.QtyEnd
	}
}

// Halted reports whether dispensing is halted for an item.
func (inv *Inventory) Halted(id ItemID) bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.halted[id]
}
