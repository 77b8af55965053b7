package storage

import (
	"context"
	"sync"
)

// MemoryCache is the in-process fallback for the reservation store, used
// when no Redis address is configured. Same contract as RedisAdapter:
// decrementing an unseeded product reports insufficient stock.
type MemoryCache struct {
	mu          sync.Mutex
	stock       map[string]int
	idempotency map[string]bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		stock:       make(map[string]int),
		idempotency: make(map[string]bool),
	}
}

func (m *MemoryCache) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.stock[productID]
	if !ok || current < quantity {
		return false, nil
	}
	m.stock[productID] = current - quantity
	return true, nil
}

func (m *MemoryCache) IncrementStock(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stock[productID] += quantity
	return nil
}

func (m *MemoryCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotency[key] {
		return false, nil
	}
	m.idempotency[key] = true
	return true, nil
}

func (m *MemoryCache) SetStock(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stock[productID] = quantity
	return nil
}

// Stock reports the current reservation counter, for tests and the load
// generator.
func (m *MemoryCache) Stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[productID]
}
