/*
turnover.go - Turnover ledger: per-item and aggregate sales accounting

PURPOSE:
  Accumulates units sold and turnover per item since the last reset, and
  produces the turnover report. Reset is only valid after a report has
  actually been read - the service flow is "report, then reset", never
  the other way around.

LIFECYCLE:
  Credit   - called from the controller's commit, once per vend
  Report   - builds per-item records in listing order, marks the
             report as read
  Reset    - fails with ErrResetNotAllowed unless a report was read
             since the last reset; otherwise zeroes all counters

SEE ALSO:
  - controller.go: Owns this ledger; pairs Reset with Inventory.Reseed
  - inventory.go: Supplies the item snapshots for the report
*/
package machine

import "sync"

// TurnoverRecord is one line of the turnover report.
type TurnoverRecord struct {
	ItemID   ItemID
	Name     string
	QtyInit  int
	QtyEnd   int
	Cost     Money
	Turnover Money
}

// TurnoverTotals aggregates the report: total units sold and the sum of
// per-item turnovers.
type TurnoverTotals struct {
	UnitsSold int
	Turnover  Money
}

// TurnoverLedger tracks sales counters for one machine.
type TurnoverLedger struct {
	mu       sync.Mutex
	sold     map[ItemID]int
	turnover map[ItemID]Money
	reported bool
}

func NewTurnoverLedger() *TurnoverLedger {
	return &TurnoverLedger{
		sold:     make(map[ItemID]int),
		turnover: make(map[ItemID]Money),
	}
}

// Credit records a committed vend. Only the controller's commit path calls
// this, after ReserveAndVend has succeeded.
func (l *TurnoverLedger) Credit(id ItemID, qty int, unitCost Money) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sold[id] += qty
	cur, ok := l.turnover[id]
	if !ok {
		cur = MoneyZero()
	}
	l.turnover[id] = cur.Add(unitCost.MulInt(qty))
}

// Report builds one record per item, in the given (listing) order, plus
// aggregate totals. Reading the report arms the reset.
func (l *TurnoverLedger) Report(items []Item) ([]TurnoverRecord, TurnoverTotals) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]TurnoverRecord, 0, len(items))
	totals := TurnoverTotals{Turnover: MoneyZero()}

	for _, it := range items {
		turnover, ok := l.turnover[it.ID]
		if !ok {
			turnover = MoneyZero()
		}
		records = append(records, TurnoverRecord{
			ItemID:   it.ID,
			Name:     it.Name,
			QtyInit:  it.QtyInit,
			QtyEnd:   it.QtyEnd,
			Cost:     it.Cost,
			Turnover: turnover,
		})
		totals.UnitsSold += l.sold[it.ID]
		totals.Turnover = totals.Turnover.Add(turnover)
	}

	l.reported = true
	return records, totals
}

// ResetAfterReport zeroes all counters. It fails unless a report was read
// since the last reset.
func (l *TurnoverLedger) ResetAfterReport() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.reported {
		return ErrResetNotAllowed
	}
	l.sold = make(map[ItemID]int)
	l.turnover = make(map[ItemID]Money)
	l.reported = false
	return nil
}

// Sold returns the units sold for one item since the last reset.
func (l *TurnoverLedger) Sold(id ItemID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sold[id]
}
