package machine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vending-engine/machine"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testItems() []machine.Item {
	return []machine.Item{
		{ID: "espresso", Name: "Espresso", Cost: machine.NewMoneyFromCents(150), QtyInit: 3, QtyEnd: 3},
		{ID: "latte", Name: "Latte", Cost: machine.NewMoneyFromCents(250), QtyInit: 5, QtyEnd: 5},
		{ID: "mocha", Name: "Mocha", Cost: machine.NewMoneyFromCents(300), QtyInit: 1, QtyEnd: 1},
	}
}

func newTestInventory(t *testing.T) *machine.Inventory {
	inv, err := machine.NewInventory(testItems())
	require.NoError(t, err)
	return inv
}

// =============================================================================
// SNAPSHOT READS
// =============================================================================

func TestInventory_ListAll_ConfiguredOrder(t *testing.T) {
	inv := newTestInventory(t)

	items := inv.ListAll()
	require.Len(t, items, 3)
	assert.Equal(t, machine.ItemID("espresso"), items[0].ID)
	assert.Equal(t, machine.ItemID("latte"), items[1].ID)
	assert.Equal(t, machine.ItemID("mocha"), items[2].ID)

	// Idempotent: a second listing without vends is identical.
	assert.Equal(t, items, inv.ListAll())
}

func TestInventory_Get_Unknown(t *testing.T) {
	inv := newTestInventory(t)

	_, err := inv.Get("x")
	assert.ErrorIs(t, err, machine.ErrItemUnavailable)
}

func TestInventory_Get_Snapshot(t *testing.T) {
	inv := newTestInventory(t)

	before, err := inv.Get("espresso")
	require.NoError(t, err)

	require.NoError(t, inv.ReserveAndVend("espresso", 1))

	// The earlier snapshot is unaffected by the vend.
	assert.Equal(t, 3, before.QtyEnd)

	after, err := inv.Get("espresso")
	require.NoError(t, err)
	assert.Equal(t, 2, after.QtyEnd)
	assert.Equal(t, 1, after.Sold())
}

// =============================================================================
// ATOMIC VEND
// =============================================================================

func TestInventory_ReserveAndVend_InsufficientStock(t *testing.T) {
	inv := newTestInventory(t)

	require.NoError(t, inv.ReserveAndVend("mocha", 1))

	err := inv.ReserveAndVend("mocha", 1)
	assert.Error(t, err)
	var stockErr *machine.InsufficientStockError
	assert.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, stockErr.Available)
	assert.ErrorIs(t, err, machine.ErrInsufficientStock)

	// Failed vend must not mutate anything.
	it, _ := inv.Get("mocha")
	assert.Equal(t, 0, it.QtyEnd)
	assert.Equal(t, 1, it.QtyInit)
}

func TestInventory_ReserveAndVend_ConcurrentLastUnit(t *testing.T) {
	inv := newTestInventory(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = inv.ReserveAndVend("mocha", 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, machine.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one vend wins the last unit")

	it, _ := inv.Get("mocha")
	assert.Equal(t, 0, it.QtyEnd, "inventory never goes negative")
}

// =============================================================================
// INVARIANTS
// =============================================================================

func TestInventory_New_RejectsCorruptCounters(t *testing.T) {
	_, err := machine.NewInventory([]machine.Item{
		{ID: "bad", Cost: machine.NewMoneyFromCents(100), QtyInit: 2, QtyEnd: 5},
	})
	assert.ErrorIs(t, err, machine.ErrStockCorrupted)

	_, err = machine.NewInventory([]machine.Item{
		{ID: "bad", Cost: machine.NewMoneyFromCents(100), QtyInit: 2, QtyEnd: -1},
	})
	assert.ErrorIs(t, err, machine.ErrStockCorrupted)
}

func TestInventory_New_RejectsDuplicateIDs(t *testing.T) {
	_, err := machine.NewInventory([]machine.Item{
		{ID: "a", Cost: machine.NewMoneyFromCents(100), QtyInit: 1, QtyEnd: 1},
		{ID: "a", Cost: machine.NewMoneyFromCents(100), QtyInit: 1, QtyEnd: 1},
	})
	assert.Error(t, err)
}

func TestInventory_Reseed(t *testing.T) {
	inv := newTestInventory(t)

	require.NoError(t, inv.ReserveAndVend("espresso", 1))
	require.NoError(t, inv.ReserveAndVend("espresso", 1))

	inv.Reseed()

	it, _ := inv.Get("espresso")
	assert.Equal(t, 1, it.QtyInit)
	assert.Equal(t, 1, it.QtyEnd)
	assert.Equal(t, 0, it.Sold())
}
