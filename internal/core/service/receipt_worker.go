package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inversoft/pos-checkout/internal/core/domain"
	"github.com/inversoft/pos-checkout/internal/port"
)

// ReceiptWorker drains the receipt queue and writes each sale through the
// atomic commit boundary. A failed write restores the reserved stock so the
// catalog does not leak units that were never sold.
type ReceiptWorker struct {
	queue    <-chan domain.Receipt
	sales    port.SaleRepository
	cache    port.CacheRepository
	notifier port.ReceiptNotifier
	timeout  time.Duration
}

func NewReceiptWorker(queue <-chan domain.Receipt, sales port.SaleRepository, cache port.CacheRepository, notifier port.ReceiptNotifier, timeout time.Duration) *ReceiptWorker {
	return &ReceiptWorker{
		queue:    queue,
		sales:    sales,
		cache:    cache,
		notifier: notifier,
		timeout:  timeout,
	}
}

// Run processes receipts until the queue is closed.
func (w *ReceiptWorker) Run(id int) {
	for receipt := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)

		if err := w.persist(ctx, receipt); err != nil {
			slog.Error("receipt persist failed",
				"worker", id, "sale_number", receipt.SaleNumber, "error", err)

			for _, item := range receipt.Items {
				if rollbackErr := w.cache.IncrementStock(ctx, item.ProductID, item.Quantity); rollbackErr != nil {
					slog.Error("stock rollback failed",
						"worker", id, "sale_number", receipt.SaleNumber,
						"product_id", item.ProductID, "error", rollbackErr)
				}
			}
			cancel()
			continue
		}

		if err := w.notifier.SaleCompleted(ctx, receipt); err != nil {
			// fire-and-forget channel; the sale stands
			slog.Warn("receipt notification failed",
				"worker", id, "sale_number", receipt.SaleNumber, "error", err)
		}

		slog.Info("sale committed", "worker", id, "sale_number", receipt.SaleNumber)
		cancel()
	}
}

func (w *ReceiptWorker) persist(ctx context.Context, receipt domain.Receipt) error {
	if err := w.sales.SaveReceipt(ctx, receipt); err != nil {
		return fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	return nil
}
