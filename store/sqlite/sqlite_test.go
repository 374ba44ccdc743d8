package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vending-engine/machine"
	"github.com/warp/vending-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_LoadItems_EmptyOnFreshDatabase(t *testing.T) {
	store := newTestStore(t)

	items, err := store.LoadItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStore_SaveAndLoadItems_PreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	items := []machine.Item{
		{ID: "espresso", Name: "Espresso", Cost: machine.NewMoneyFromCents(150), QtyInit: 5, QtyEnd: 3},
		{ID: "latte", Name: "Latte", Cost: machine.NewMoneyFromCents(250), QtyInit: 4, QtyEnd: 4},
	}
	require.NoError(t, store.SaveItems(ctx, items))

	loaded, err := store.LoadItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, loaded)

	// A second save replaces, not appends.
	items[0].QtyEnd = 2
	require.NoError(t, store.SaveItems(ctx, items))
	loaded, err = store.LoadItems(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 2, loaded[0].QtyEnd)
}

func TestStore_AppendAndListSales(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"sale-1", "sale-2", "sale-3"} {
		sale := machine.Sale{
			ID:       id,
			ItemID:   "espresso",
			Qty:      1,
			UnitCost: machine.NewMoneyFromCents(150),
			Total:    machine.NewMoneyFromCents(150),
			Change:   machine.NewMoneyFromCents(50),
			At:       base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.AppendSale(ctx, sale))
	}

	all, err := store.ListSales(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "sale-1", all[0].ID, "oldest first")
	assert.Equal(t, int64(150), all[0].Total.Cents())
	assert.Equal(t, int64(50), all[0].Change.Cents())
	assert.Equal(t, base, all[0].At)

	// The since filter is inclusive.
	recent, err := store.ListSales(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "sale-2", recent[0].ID)
}

func TestStore_AppendSale_DuplicateIDRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sale := machine.Sale{
		ID: "sale-1", ItemID: "espresso", Qty: 1,
		UnitCost: machine.NewMoneyFromCents(150),
		Total:    machine.NewMoneyFromCents(150),
		Change:   machine.MoneyZero(),
		At:       time.Now(),
	}
	require.NoError(t, store.AppendSale(ctx, sale))
	assert.Error(t, store.AppendSale(ctx, sale), "sales ledger is append-only and keyed by id")
}
