package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/inversoft/pos-checkout/internal/core/domain"
)

// MockGateway stands in for a real payment processor and approves every
// authorization. The checkout pipeline treats any returned error as a
// decline, so swapping in a real gateway needs no other change.
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (g *MockGateway) Authorize(ctx context.Context, method domain.PaymentMethod, amount decimal.Decimal) error {
	return ctx.Err()
}
