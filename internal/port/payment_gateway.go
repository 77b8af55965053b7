package port

import (
	"context"

	"github.com/inversoft/pos-checkout/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentGateway authorizes a payment before the sale is committed. A
// declined authorization must leave no trace; the checkout rolls back any
// stock it reserved.
type PaymentGateway interface {
	Authorize(ctx context.Context, method domain.PaymentMethod, amount decimal.Decimal) error
}
