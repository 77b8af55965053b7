package notify

import (
	"context"

	"github.com/inversoft/pos-checkout/internal/core/domain"
)

// NoopNotifier is used when no broker is configured.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (NoopNotifier) SaleCompleted(ctx context.Context, receipt domain.Receipt) error {
	return nil
}
