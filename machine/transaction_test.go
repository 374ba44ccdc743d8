package machine_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vending-engine/machine"
)

func discardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, nil)
}

func newTestPurchase(t *testing.T) *machine.Purchase {
	item := machine.Item{
		ID: "espresso", Name: "Espresso",
		Cost: machine.NewMoneyFromCents(150), QtyInit: 3, QtyEnd: 3,
	}
	p, err := machine.NewPurchase(discardHandler(), item)
	require.NoError(t, err)
	return p
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestPurchase_HappyPath(t *testing.T) {
	p := newTestPurchase(t)
	assert.Equal(t, machine.StateIdle, p.State())

	require.NoError(t, p.Select())
	assert.Equal(t, machine.StateItemSelected, p.State())

	require.NoError(t, p.BeginPayment(time.Now(), time.Minute))
	assert.Equal(t, machine.StateAwaitingPayment, p.State())

	ready, err := p.InsertCoin(machine.NewMoneyFromCents(100))
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, machine.StateAwaitingPayment, p.State())

	ready, err = p.InsertCoin(machine.NewMoneyFromCents(100))
	require.NoError(t, err)
	assert.True(t, ready, "payment covered, auto-advance to dispensing")
	assert.Equal(t, machine.StateDispensing, p.State())

	change, err := p.Commit(func(machine.Item) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, int64(50), change.Cents())
	assert.Equal(t, machine.StateSettled, p.State())
	assert.True(t, p.Terminal())
}

func TestPurchase_ExactPayment_NoChange(t *testing.T) {
	p := newTestPurchase(t)
	require.NoError(t, p.Select())
	require.NoError(t, p.BeginPayment(time.Now(), time.Minute))

	ready, err := p.InsertCoin(machine.NewMoneyFromCents(150))
	require.NoError(t, err)
	require.True(t, ready)

	change, err := p.Commit(func(machine.Item) error { return nil })
	require.NoError(t, err)
	assert.True(t, change.IsZero())
}

func TestPurchase_InvalidAmount(t *testing.T) {
	p := newTestPurchase(t)
	require.NoError(t, p.Select())
	require.NoError(t, p.BeginPayment(time.Now(), time.Minute))

	_, err := p.InsertCoin(machine.NewMoneyFromCents(0))
	assert.ErrorIs(t, err, machine.ErrInvalidAmount)
	_, err = p.InsertCoin(machine.NewMoneyFromCents(-50))
	assert.ErrorIs(t, err, machine.ErrInvalidAmount)

	// Rejected increments leave the state and the running total alone.
	assert.Equal(t, machine.StateAwaitingPayment, p.State())
	assert.True(t, p.Inserted().IsZero())
}

func TestPurchase_CancelRefundsInserted(t *testing.T) {
	p := newTestPurchase(t)
	require.NoError(t, p.Select())
	require.NoError(t, p.BeginPayment(time.Now(), time.Minute))

	_, err := p.InsertCoin(machine.NewMoneyFromCents(100))
	require.NoError(t, err)

	refund, err := p.Cancel()
	require.NoError(t, err)
	assert.Equal(t, int64(100), refund.Cents())
	assert.Equal(t, machine.StateAborted, p.State())

	// Terminal states reject a second cancel.
	_, err = p.Cancel()
	assert.ErrorIs(t, err, machine.ErrInvalidStateTransition)
}

func TestPurchase_CommitLosesRace_RefundsFullAmount(t *testing.T) {
	p := newTestPurchase(t)
	require.NoError(t, p.Select())
	require.NoError(t, p.BeginPayment(time.Now(), time.Minute))
	_, err := p.InsertCoin(machine.NewMoneyFromCents(200))
	require.NoError(t, err)

	refund, err := p.Commit(func(machine.Item) error {
		return &machine.InsufficientStockError{ItemID: "espresso", Requested: 1, Available: 0}
	})
	assert.ErrorIs(t, err, machine.ErrInsufficientStock)
	assert.Equal(t, int64(200), refund.Cents(), "full inserted amount refunded")
	assert.Equal(t, machine.StateAborted, p.State())
}

// =============================================================================
// TRANSITION LEGALITY
// =============================================================================

func TestPurchase_IllegalTransitions(t *testing.T) {
	p := newTestPurchase(t)

	// Cannot insert or commit before payment opens.
	_, err := p.InsertCoin(machine.NewMoneyFromCents(100))
	assert.ErrorIs(t, err, machine.ErrInvalidStateTransition)
	_, err = p.Commit(func(machine.Item) error { return nil })
	assert.ErrorIs(t, err, machine.ErrInvalidStateTransition)

	// Cannot open payment before selecting.
	assert.Error(t, p.BeginPayment(time.Now(), time.Minute))

	// Cannot select twice.
	require.NoError(t, p.Select())
	assert.Error(t, p.Select())
}

// =============================================================================
// TIMEOUT
// =============================================================================

func TestPurchase_Expired(t *testing.T) {
	p := newTestPurchase(t)
	require.NoError(t, p.Select())

	start := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.BeginPayment(start, 90*time.Second))

	assert.False(t, p.Expired(start.Add(89*time.Second)))
	assert.True(t, p.Expired(start.Add(91*time.Second)))

	// Only the payment window expires; a dispensing purchase does not.
	_, err := p.InsertCoin(machine.NewMoneyFromCents(150))
	require.NoError(t, err)
	assert.False(t, p.Expired(start.Add(time.Hour)))
}
