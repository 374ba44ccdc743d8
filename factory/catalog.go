/*
Package factory provides JSON to Go catalog conversion.

PURPOSE:
  Converts JSON catalog definitions into machine.Item values. This
  enables stocking configuration without code changes - an operator can
  define the slot layout in JSON, and the factory creates the proper Go
  structs. Nothing downstream assumes a particular slot count; the
  catalog is the single source of the item order and cardinality.

JSON SCHEMA:
  {
    "items": [
      {"id": "espresso", "name": "Espresso", "cost": 150, "qty": 5},
      {"id": "latte",    "name": "Latte",    "cost": 250, "qty": 5}
    ]
  }

  "cost" is in integer minor-currency units (cents). "qty" seeds both
  qtyInit and qtyEnd.

USAGE:
  items, err := factory.ParseCatalog(jsonString)

  // Or the built-in default layout:
  items, err := factory.ParseCatalog(factory.DefaultCatalogJSON())

SEE ALSO:
  - machine/inventory.go: Consumes the parsed items
  - cmd/server/main.go: Loads a catalog file or falls back to default
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/vending-engine/machine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CatalogJSON is the JSON representation of a machine catalog.
type CatalogJSON struct {
	Items []ItemJSON `json:"items"`
}

// ItemJSON is one configured slot.
type ItemJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cost int64  `json:"cost"`
	Qty  int    `json:"qty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseCatalog converts a JSON catalog into items in configured order.
func ParseCatalog(jsonStr string) ([]machine.Item, error) {
	var catalog CatalogJSON
	if err := json.Unmarshal([]byte(jsonStr), &catalog); err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}
	if len(catalog.Items) == 0 {
		return nil, fmt.Errorf("catalog has no items")
	}

	seen := make(map[string]bool, len(catalog.Items))
	items := make([]machine.Item, 0, len(catalog.Items))
	for _, ij := range catalog.Items {
		if ij.ID == "" {
			return nil, fmt.Errorf("catalog item with empty id")
		}
		if seen[ij.ID] {
			return nil, fmt.Errorf("duplicate catalog item id %q", ij.ID)
		}
		seen[ij.ID] = true
		if ij.Cost < 0 {
			return nil, fmt.Errorf("catalog item %q has negative cost", ij.ID)
		}
		if ij.Qty < 0 {
			return nil, fmt.Errorf("catalog item %q has negative quantity", ij.ID)
		}
		items = append(items, machine.Item{
			ID:      machine.ItemID(ij.ID),
			Name:    ij.Name,
			Cost:    machine.NewMoneyFromCents(ij.Cost),
			QtyInit: ij.Qty,
			QtyEnd:  ij.Qty,
		})
	}
	return items, nil
}

// DefaultCatalogJSON returns the built-in five-slot drink layout, used
// when no catalog file is configured.
func DefaultCatalogJSON() string {
	return `{
		"items": [
			{"id": "espresso",      "name": "Espresso",      "cost": 150, "qty": 10},
			{"id": "americano",     "name": "Americano",     "cost": 200, "qty": 10},
			{"id": "latte",         "name": "Latte",         "cost": 250, "qty": 10},
			{"id": "mocha",         "name": "Mocha",         "cost": 300, "qty": 10},
			{"id": "hot-chocolate", "name": "Hot Chocolate", "cost": 225, "qty": 10}
		]
	}`
}
