package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps ledger state in process memory. It relies on the Service
// for write serialization but guards its maps so concurrent reads stay safe.
type MemoryStore struct {
	mu        sync.RWMutex
	order     []int
	inventory map[int]int
	orders    []Order
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		inventory: make(map[int]int),
		nextID:    1,
	}
}

func (m *MemoryStore) Seed(ctx context.Context, inventory []InventoryRecord, orders []Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range inventory {
		if _, ok := m.inventory[rec.ProductID]; !ok {
			m.order = append(m.order, rec.ProductID)
		}
		m.inventory[rec.ProductID] = rec.Quantity
	}
	for _, o := range orders {
		m.orders = append(m.orders, o)
		if o.ID >= m.nextID {
			m.nextID = o.ID + 1
		}
	}
	return nil
}

func (m *MemoryStore) Inventory(ctx context.Context) ([]InventoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]InventoryRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, InventoryRecord{ProductID: id, Quantity: m.inventory[id]})
	}
	return out, nil
}

func (m *MemoryStore) Orders(ctx context.Context) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Order, len(m.orders))
	copy(out, m.orders)
	return out, nil
}

func (m *MemoryStore) CommitPurchase(ctx context.Context, order Order) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Decrements and the append happen under one lock acquisition; a partial
	// commit is impossible.
	for _, item := range order.Items {
		m.inventory[item.ProductID] -= item.Quantity
	}
	order.ID = m.nextID
	m.nextID++
	m.orders = append(m.orders, order)
	return order, nil
}

func (m *MemoryStore) Close() error { return nil }
