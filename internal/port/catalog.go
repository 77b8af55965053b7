package port

import (
	"context"

	"github.com/inversoft/pos-checkout/internal/core/domain"
)

type ProductCatalog interface {
	// Search matches query case-insensitively against name, SKU and
	// description; results keep source order and are truncated to a
	// bounded top-N. No match is an empty slice, not an error.
	Search(ctx context.Context, query string) ([]domain.Product, error)

	// GetByID returns nil when the product does not exist
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type CustomerDirectory interface {
	// Search matches query against name, email, phone and tax ID
	Search(ctx context.Context, query string) ([]domain.Customer, error)

	// Create assigns an ID to an ad-hoc customer draft
	Create(ctx context.Context, draft domain.Customer) (domain.Customer, error)
}
