package port

import (
	"context"

	"github.com/inversoft/pos-checkout/internal/core/domain"
)

// ReceiptNotifier fans a completed receipt out to side channels
// (print/email/event bus). Fire-and-forget: callers log failures but never
// fail the sale over them.
type ReceiptNotifier interface {
	SaleCompleted(ctx context.Context, receipt domain.Receipt) error
}
