package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inversoft/pos-checkout/internal/core/domain"
	"github.com/inversoft/pos-checkout/internal/port"
)

var (
	ErrDuplicateRequest     = errors.New("duplicate request")
	ErrValidationIncomplete = errors.New("cart is empty or no payment method selected")
	ErrStockChanged         = errors.New("stock changed since product was added")
	ErrPaymentDeclined      = errors.New("payment declined")
	ErrCommitFailed         = errors.New("sale commit failed")
)

const saleNumberPrefix = "VTA-"

// CheckoutService runs the commit pipeline: validate -> reserve stock ->
// authorize payment -> issue receipt -> enqueue for persistence. Every
// failure is rolled back and returned as a value; the session stays usable.
type CheckoutService struct {
	sessions *SessionService
	cache    port.CacheRepository
	gateway  port.PaymentGateway

	// simulated gateway round-trip, cancellable through ctx
	processingDelay time.Duration

	receiptQueue chan domain.Receipt
}

func NewCheckoutService(sessions *SessionService, cache port.CacheRepository, gateway port.PaymentGateway, processingDelay time.Duration, queueSize int) *CheckoutService {
	return &CheckoutService{
		sessions:        sessions,
		cache:           cache,
		gateway:         gateway,
		processingDelay: processingDelay,
		receiptQueue:    make(chan domain.Receipt, queueSize),
	}
}

// Checkout commits the session identified by sessionID. requestID makes the
// call idempotent: retrying a timed-out commit with the same ID neither
// double-decrements stock nor issues a second receipt.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID, requestID string) (domain.Receipt, error) {
	idempotencyKey := "checkout:" + requestID

	ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return domain.Receipt{}, ErrDuplicateRequest
	}

	snapshot, err := s.sessions.beginCheckout(sessionID)
	if err != nil {
		return domain.Receipt{}, err
	}

	if err := s.wait(ctx); err != nil {
		s.sessions.failCheckout(sessionID)
		return domain.Receipt{}, err
	}

	reserved, err := s.reserveStock(ctx, snapshot.Items)
	if err != nil {
		s.releaseStock(ctx, reserved)
		s.sessions.failCheckout(sessionID)
		return domain.Receipt{}, err
	}

	if err := s.gateway.Authorize(ctx, snapshot.Payment, snapshot.Totals.Total); err != nil {
		s.releaseStock(ctx, snapshot.Items)
		s.sessions.failCheckout(sessionID)
		return domain.Receipt{}, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
	}

	receipt := domain.NewReceipt(
		saleNumberPrefix+uuid.NewString(),
		snapshot.Items,
		snapshot.Customer,
		snapshot.Payment,
		time.Now(),
	)

	s.receiptQueue <- receipt

	s.sessions.completeCheckout(sessionID)
	return receipt, nil
}

func (s *CheckoutService) wait(ctx context.Context) error {
	if s.processingDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.processingDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reserveStock decrements each line atomically against the reservation
// store. On a shortfall it reports the lines already taken so the caller can
// release them.
func (s *CheckoutService) reserveStock(ctx context.Context, items []domain.LineItem) ([]domain.LineItem, error) {
	var reserved []domain.LineItem
	for _, item := range items {
		ok, err := s.cache.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return reserved, fmt.Errorf("stock decrement failed: %w", err)
		}
		if !ok {
			return reserved, fmt.Errorf("%w: %s", ErrStockChanged, item.Name)
		}
		reserved = append(reserved, item)
	}
	return reserved, nil
}

func (s *CheckoutService) releaseStock(ctx context.Context, items []domain.LineItem) {
	for _, item := range items {
		// rollback is best effort; the persistence worker reconciles the rest
		s.cache.IncrementStock(ctx, item.ProductID, item.Quantity)
	}
}

// ReceiptQueue feeds the persistence workers.
func (s *CheckoutService) ReceiptQueue() <-chan domain.Receipt {
	return s.receiptQueue
}

func (s *CheckoutService) Close() {
	close(s.receiptQueue)
}
