package storage

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/inversoft/pos-checkout/internal/core/domain"
)

// MemoryDirectory is the in-process customer directory.
type MemoryDirectory struct {
	mu        sync.Mutex
	customers []domain.Customer
	nextID    int
}

func NewMemoryDirectory(customers []domain.Customer) *MemoryDirectory {
	return &MemoryDirectory{
		customers: customers,
		nextID:    len(customers) + 1,
	}
}

// Search matches name, email and tax ID case-insensitively; phone numbers
// are matched verbatim.
func (d *MemoryDirectory) Search(ctx context.Context, query string) ([]domain.Customer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	var results []domain.Customer
	for _, c := range d.customers {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Email), q) ||
			strings.Contains(c.Phone, strings.TrimSpace(query)) ||
			strings.Contains(strings.ToLower(c.TaxID), q) {
			results = append(results, c)
		}
	}
	return results, nil
}

func (d *MemoryDirectory) Create(ctx context.Context, draft domain.Customer) (domain.Customer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	draft.ID = strconv.Itoa(d.nextID)
	d.nextID++
	d.customers = append(d.customers, draft)
	return draft, nil
}

// SeedCustomers mirrors the demo directory.
func SeedCustomers() []domain.Customer {
	return []domain.Customer{
		{
			ID:      "1",
			Name:    "María González Pérez",
			Email:   "maria.gonzalez@email.com",
			Phone:   "+57 612 345 678",
			TaxID:   "12345678A",
			Address: "Calle Mayor 123, 28001 Madrid",
			Company: "Consultora MG S.L.",
		},
		{
			ID:      "2",
			Name:    "Carlos Rodríguez López",
			Email:   "carlos.rodriguez@empresa.com",
			Phone:   "+57 687 654 321",
			TaxID:   "87654321B",
			Address: "Avenida de la Paz 45, 08002 Barcelona",
			Company: "Tecnología CR",
		},
		{
			ID:      "3",
			Name:    "Ana Martín Sánchez",
			Email:   "ana.martin@gmail.com",
			Phone:   "+57 654 987 123",
			TaxID:   "45678912C",
			Address: "Plaza España 12, 41001 Sevilla",
		},
	}
}
