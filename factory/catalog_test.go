package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vending-engine/factory"
	"github.com/warp/vending-engine/machine"
)

func TestParseCatalog_DefaultLayout(t *testing.T) {
	items, err := factory.ParseCatalog(factory.DefaultCatalogJSON())
	require.NoError(t, err)
	require.Len(t, items, 5)

	assert.Equal(t, machine.ItemID("espresso"), items[0].ID)
	assert.Equal(t, int64(150), items[0].Cost.Cents())
	assert.Equal(t, items[0].QtyInit, items[0].QtyEnd, "qty seeds both counters")
}

func TestParseCatalog_PreservesOrder(t *testing.T) {
	items, err := factory.ParseCatalog(`{"items": [
		{"id": "b", "name": "B", "cost": 100, "qty": 1},
		{"id": "a", "name": "A", "cost": 200, "qty": 2}
	]}`)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, machine.ItemID("b"), items[0].ID)
	assert.Equal(t, machine.ItemID("a"), items[1].ID)
}

func TestParseCatalog_Invalid(t *testing.T) {
	cases := map[string]string{
		"malformed":     `{"items": [`,
		"empty":         `{"items": []}`,
		"missing id":    `{"items": [{"name": "A", "cost": 100, "qty": 1}]}`,
		"duplicate id":  `{"items": [{"id": "a", "cost": 100, "qty": 1}, {"id": "a", "cost": 100, "qty": 1}]}`,
		"negative cost": `{"items": [{"id": "a", "cost": -1, "qty": 1}]}`,
		"negative qty":  `{"items": [{"id": "a", "cost": 100, "qty": -1}]}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := factory.ParseCatalog(input)
			assert.Error(t, err)
		})
	}
}
