package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/inversoft/pos-checkout/internal/core/domain"
	"github.com/inversoft/pos-checkout/internal/port"
)

// MemorySaleStore keeps committed receipts and inventory in process, used
// when no MySQL DSN is configured. Sale numbers are unique; a duplicate
// write is rejected so retried commits cannot record two sales.
type MemorySaleStore struct {
	mu        sync.Mutex
	receipts  map[string]domain.Receipt
	inventory map[string]*port.Inventory
}

func NewMemorySaleStore() *MemorySaleStore {
	return &MemorySaleStore{
		receipts:  make(map[string]domain.Receipt),
		inventory: make(map[string]*port.Inventory),
	}
}

// SeedInventory initializes the persisted stock counters from the catalog.
func (m *MemorySaleStore) SeedInventory(products []domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range products {
		m.inventory[p.ID] = &port.Inventory{ProductID: p.ID, Stock: p.Stock}
	}
}

func (m *MemorySaleStore) SaveReceipt(ctx context.Context, receipt domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.receipts[receipt.SaleNumber]; exists {
		return fmt.Errorf("duplicate sale number %s", receipt.SaleNumber)
	}

	for _, item := range receipt.Items {
		inv, ok := m.inventory[item.ProductID]
		if !ok || inv.Stock < item.Quantity {
			return ErrOptimisticLock
		}
	}
	for _, item := range receipt.Items {
		inv := m.inventory[item.ProductID]
		inv.Stock -= item.Quantity
		inv.Version++
	}

	m.receipts[receipt.SaleNumber] = receipt
	return nil
}

func (m *MemorySaleStore) GetInventory(ctx context.Context, productID string) (*port.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, ok := m.inventory[productID]
	if !ok {
		return nil, nil
	}
	copied := *inv
	return &copied, nil
}

func (m *MemorySaleStore) UpdateInventory(ctx context.Context, inv port.Inventory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.inventory[inv.ProductID]
	if !ok || current.Version != inv.Version {
		return ErrOptimisticLock
	}
	current.Stock = inv.Stock
	current.Version++
	return nil
}

// Receipts returns the committed receipts in no particular order.
func (m *MemorySaleStore) Receipts() []domain.Receipt {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Receipt, 0, len(m.receipts))
	for _, r := range m.receipts {
		out = append(out, r)
	}
	return out
}
