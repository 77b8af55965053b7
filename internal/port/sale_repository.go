package port

import (
	"context"

	"github.com/inversoft/pos-checkout/internal/core/domain"
)

type SaleRepository interface {
	// SaveReceipt persists the receipt and decrements inventory in one
	// transaction with optimistic locking; this is the atomic commit boundary
	SaveReceipt(ctx context.Context, receipt domain.Receipt) error

	// GetInventory retrieves persisted inventory by product ID
	GetInventory(ctx context.Context, productID string) (*Inventory, error)

	// UpdateInventory updates inventory with version check for optimistic locking
	UpdateInventory(ctx context.Context, inv Inventory) error
}

type Inventory struct {
	ProductID string
	Stock     int
	Version   int // optimistic locking
}
