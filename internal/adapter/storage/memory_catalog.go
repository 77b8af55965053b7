package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/inversoft/pos-checkout/internal/core/domain"
)

// searchLimit bounds catalog search results.
const searchLimit = 8

// MemoryCatalog is the in-process product catalog. Reads return copies; the
// catalog itself is never mutated by a sale (inventory is decremented at the
// commit boundary, not here).
type MemoryCatalog struct {
	mu       sync.RWMutex
	products []domain.Product
}

func NewMemoryCatalog(products []domain.Product) *MemoryCatalog {
	return &MemoryCatalog{products: products}
}

func (c *MemoryCatalog) Search(ctx context.Context, query string) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	var results []domain.Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.SKU), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			results = append(results, p)
			if len(results) == searchLimit {
				break
			}
		}
	}
	return results, nil
}

func (c *MemoryCatalog) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, nil
}

// SeedProducts is the demo catalog used when no real catalog service is
// wired in. The iPad Air is deliberately out of stock.
func SeedProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "1",
			SKU:         "LAP001",
			Name:        "Laptop Dell XPS 13",
			Description: `Ultrabook 13.3" Intel i7 16GB RAM 512GB SSD`,
			Price:       decimal.RequireFromString("1299.99"),
			Stock:       15,
			Category:    "Computers",
		},
		{
			ID:          "2",
			SKU:         "MOU001",
			Name:        "Mouse Logitech MX Master 3",
			Description: "Wireless ergonomic productivity mouse",
			Price:       decimal.RequireFromString("89.99"),
			Stock:       45,
			Category:    "Peripherals",
		},
		{
			ID:          "3",
			SKU:         "KEY001",
			Name:        "Teclado Mecánico Corsair K70",
			Description: "Mechanical RGB keyboard, Cherry MX switches",
			Price:       decimal.RequireFromString("159.99"),
			Stock:       8,
			Category:    "Peripherals",
		},
		{
			ID:          "4",
			SKU:         "MON001",
			Name:        `Monitor Samsung 27" 4K`,
			Description: "27 inch 4K HDR monitor",
			Price:       decimal.RequireFromString("399.99"),
			Stock:       12,
			Category:    "Monitors",
		},
		{
			ID:          "5",
			SKU:         "TAB001",
			Name:        "Tablet iPad Air",
			Description: "Apple iPad Air 64GB WiFi",
			Price:       decimal.RequireFromString("649.99"),
			Stock:       0,
			Category:    "Tablets",
		},
	}
}
