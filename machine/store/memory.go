// Package store provides Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/warp/vending-engine/machine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	sales []machine.Sale
	items []machine.Item
}

func NewMemory() *Memory {
	return &Memory{}
}

// AppendSale adds a sale record. Append-only.
func (m *Memory) AppendSale(_ context.Context, sale machine.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, sale)
	return nil
}

func (m *Memory) ListSales(_ context.Context, since time.Time) ([]machine.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []machine.Sale
	for _, s := range m.sales {
		if !s.At.Before(since) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *Memory) SaveItems(_ context.Context, items []machine.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]machine.Item{}, items...)
	return nil
}

func (m *Memory) LoadItems(_ context.Context) ([]machine.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]machine.Item{}, m.items...), nil
}
