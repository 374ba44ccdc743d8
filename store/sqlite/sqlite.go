/*
Package sqlite provides a SQLite-backed implementation of machine.Store.

PURPOSE:
  Persists the machine's item counters and the append-only sales ledger
  so turnover accounting survives a restart. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The sales table has no UPDATE or DELETE path. Item counters are a
  cache of the in-memory inventory ledger and are overwritten in place.

KEY TABLES:
  items: One row per configured slot, ordered by position
  sales: Immutable record of every committed vend

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/vending.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - machine/store.go: Interface definition
  - machine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/vending-engine/machine"
)

// Store implements machine.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Items (cache of the inventory ledger, ordered by position)
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		cost_cents INTEGER NOT NULL,
		qty_init INTEGER NOT NULL,
		qty_end INTEGER NOT NULL,
		position INTEGER NOT NULL
	);

	-- Sales (append-only ledger of committed vends)
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		qty INTEGER NOT NULL,
		unit_cost_cents INTEGER NOT NULL,
		total_cents INTEGER NOT NULL,
		change_cents INTEGER NOT NULL,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_at ON sales(at);
	CREATE INDEX IF NOT EXISTS idx_sales_item ON sales(item_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SALES LEDGER
// =============================================================================

// AppendSale records one committed vend. This is the only sales write.
func (s *Store) AppendSale(ctx context.Context, sale machine.Sale) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales (id, item_id, qty, unit_cost_cents, total_cents, change_cents, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, string(sale.ItemID), sale.Qty,
		sale.UnitCost.Cents(), sale.Total.Cents(), sale.Change.Cents(),
		sale.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append sale: %w", err)
	}
	return nil
}

// ListSales returns sales recorded at or after since, oldest first.
func (s *Store) ListSales(ctx context.Context, since time.Time) ([]machine.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, qty, unit_cost_cents, total_cents, change_cents, at
		FROM sales
		WHERE at >= ?
		ORDER BY at ASC`,
		since.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var sales []machine.Sale
	for rows.Next() {
		var (
			sale                    machine.Sale
			itemID                  string
			unitCost, total, change int64
			at                      string
		)
		if err := rows.Scan(&sale.ID, &itemID, &sale.Qty, &unitCost, &total, &change, &at); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sale.ItemID = machine.ItemID(itemID)
		sale.UnitCost = machine.NewMoneyFromCents(unitCost)
		sale.Total = machine.NewMoneyFromCents(total)
		sale.Change = machine.NewMoneyFromCents(change)
		sale.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sale time: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// =============================================================================
// ITEM COUNTERS
// =============================================================================

// SaveItems overwrites the persisted counters with the current snapshot.
func (s *Store) SaveItems(ctx context.Context, items []machine.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	for i, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, name, cost_cents, qty_init, qty_end, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(it.ID), it.Name, it.Cost.Cents(), it.QtyInit, it.QtyEnd, i,
		)
		if err != nil {
			return fmt.Errorf("failed to save item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

// LoadItems restores counters in configured order. An empty result means
// the machine has never been provisioned.
func (s *Store) LoadItems(ctx context.Context) ([]machine.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, cost_cents, qty_init, qty_end
		FROM items
		ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	var items []machine.Item
	for rows.Next() {
		var (
			it   machine.Item
			id   string
			cost int64
		)
		if err := rows.Scan(&id, &it.Name, &cost, &it.QtyInit, &it.QtyEnd); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.ID = machine.ItemID(id)
		it.Cost = machine.NewMoneyFromCents(cost)
		items = append(items, it)
	}
	return items, rows.Err()
}
