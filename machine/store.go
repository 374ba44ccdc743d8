/*
store.go - Persistence interface for machine state and the sales ledger

PURPOSE:
  Defines the interface between the engine and storage. The sales ledger
  is APPEND-ONLY: committed vends are recorded, nothing is ever updated
  or deleted. Aborted purchases refund before commit and leave no record.

KEY METHODS:
  AppendSale: Record one committed vend (the only sales write)
  ListSales:  Audit view of recorded sales
  SaveItems:  Persist the current stock/price counters
  LoadItems:  Restore counters on startup (empty slice = fresh machine)

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - machine/store: In-memory store for testing

SEE ALSO:
  - controller.go: Persists after each commit and after reset
*/
package machine

import (
	"context"
	"time"
)

// Store handles persistence for one machine. The sales ledger is
// append-only; item snapshots are overwritten in place since they are a
// cache of the in-memory ledger, not a source of truth for history.
type Store interface {
	// AppendSale records a committed vend. This is the only sales write.
	AppendSale(ctx context.Context, sale Sale) error

	// ListSales returns sales recorded at or after since, oldest first.
	// A zero since returns everything.
	ListSales(ctx context.Context, since time.Time) ([]Sale, error)

	// SaveItems persists the current item counters.
	SaveItems(ctx context.Context, items []Item) error

	// LoadItems restores item counters in configured order. An empty
	// result means the machine has never been provisioned.
	LoadItems(ctx context.Context) ([]Item, error)
}

// Authorizer gates service-mode operations (report, reset, sales audit).
// The controller holds no session state beyond asking per call.
type Authorizer interface {
	// Authorize validates a bearer token and returns the subject
	// identity, or an error for a missing/invalid/expired token.
	Authorize(token string) (string, error)
}
