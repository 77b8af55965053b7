package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/inversoft/pos-checkout/internal/core/domain"
	"github.com/inversoft/pos-checkout/internal/port"
)

// Mock SaleRepository
type mockSaleRepo struct {
	mu       sync.Mutex
	saved    []domain.Receipt
	failWith error
}

func (m *mockSaleRepo) SaveReceipt(ctx context.Context, receipt domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.saved = append(m.saved, receipt)
	return nil
}

func (m *mockSaleRepo) GetInventory(ctx context.Context, productID string) (*port.Inventory, error) {
	return nil, nil
}

func (m *mockSaleRepo) UpdateInventory(ctx context.Context, inv port.Inventory) error {
	return nil
}

func (m *mockSaleRepo) savedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

// Mock ReceiptNotifier
type mockNotifier struct {
	mu       sync.Mutex
	notified []string
	failWith error
}

func (m *mockNotifier) SaleCompleted(ctx context.Context, receipt domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.notified = append(m.notified, receipt.SaleNumber)
	return nil
}

func workerReceipt(saleNumber string) domain.Receipt {
	return domain.NewReceipt(saleNumber, []domain.LineItem{
		{ProductID: "1", SKU: "LAP001", Name: "Laptop Dell XPS 13",
			Price: testProducts()[0].Price, Stock: 15, Quantity: 2},
	}, domain.Customer{}, domain.PaymentCash, time.Now())
}

func TestReceiptWorker_Persists(t *testing.T) {
	queue := make(chan domain.Receipt, 1)
	repo := &mockSaleRepo{}
	notifier := &mockNotifier{}
	worker := NewReceiptWorker(queue, repo, newMockCache(), notifier, time.Second)

	done := make(chan struct{})
	go func() {
		worker.Run(1)
		close(done)
	}()

	queue <- workerReceipt("VTA-w1")
	close(queue)
	<-done

	if repo.savedCount() != 1 {
		t.Fatalf("expected 1 saved receipt, got %d", repo.savedCount())
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != "VTA-w1" {
		t.Errorf("expected notification for VTA-w1, got %v", notifier.notified)
	}
}

func TestReceiptWorker_RollsBackStockOnPersistFailure(t *testing.T) {
	queue := make(chan domain.Receipt, 1)
	repo := &mockSaleRepo{failWith: errors.New("connection refused")}
	cache := newMockCache()
	worker := NewReceiptWorker(queue, repo, cache, &mockNotifier{}, time.Second)

	done := make(chan struct{})
	go func() {
		worker.Run(1)
		close(done)
	}()

	queue <- workerReceipt("VTA-w2")
	close(queue)
	<-done

	if repo.savedCount() != 0 {
		t.Fatal("receipt must not be recorded on failure")
	}
	// the 2 reserved units go back to the reservation store
	if got := cache.get("1"); got != 2 {
		t.Errorf("expected 2 units restored, got %d", got)
	}
}

func TestReceiptWorker_NotifierFailureDoesNotRollBack(t *testing.T) {
	queue := make(chan domain.Receipt, 1)
	repo := &mockSaleRepo{}
	cache := newMockCache()
	notifier := &mockNotifier{failWith: errors.New("broker unreachable")}
	worker := NewReceiptWorker(queue, repo, cache, notifier, time.Second)

	done := make(chan struct{})
	go func() {
		worker.Run(1)
		close(done)
	}()

	queue <- workerReceipt("VTA-w3")
	close(queue)
	<-done

	if repo.savedCount() != 1 {
		t.Fatal("sale must stand when only the notification fails")
	}
	if got := cache.get("1"); got != 0 {
		t.Errorf("stock rolled back for a committed sale: %d", got)
	}
}
