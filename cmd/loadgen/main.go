package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/inversoft/pos-checkout/internal/adapter/notify"
	"github.com/inversoft/pos-checkout/internal/adapter/payment"
	"github.com/inversoft/pos-checkout/internal/adapter/storage"
	"github.com/inversoft/pos-checkout/internal/core/service"
)

const (
	productID      = "1" // Laptop Dell XPS 13, catalog stock 15
	reservedStock  = 10
	totalCheckouts = 50
	queueSize      = 100
	workerCount    = 4
)

// Drives many concurrent single-item checkouts against one product and
// verifies that exactly reservedStock of them commit.
func main() {
	ctx := context.Background()

	catalog := storage.NewMemoryCatalog(storage.SeedProducts())
	directory := storage.NewMemoryDirectory(storage.SeedCustomers())
	cache := storage.NewMemoryCache()
	store := storage.NewMemorySaleStore()

	// Reservation counter capped below the demand so the contention path
	// gets exercised.
	if err := cache.SetStock(ctx, productID, reservedStock); err != nil {
		log.Fatalf("failed to set stock: %v", err)
	}
	store.SeedInventory(storage.SeedProducts())

	sessions := service.NewSessionService(catalog, directory)
	checkout := service.NewCheckoutService(sessions, cache, payment.NewMockGateway(), 0, queueSize)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		worker := service.NewReceiptWorker(checkout.ReceiptQueue(), store, cache, notify.NewNoopNotifier(), 5*time.Second)
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker.Run(id)
		}(i)
	}

	var successCount atomic.Int32
	var failCount atomic.Int32

	var checkoutWg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalCheckouts; i++ {
		checkoutWg.Add(1)
		go func() {
			defer checkoutWg.Done()

			session := sessions.Create()
			if _, err := sessions.AddProduct(ctx, session.ID, productID); err != nil {
				failCount.Add(1)
				return
			}
			if _, err := sessions.SetPaymentMethod(session.ID, "cash"); err != nil {
				failCount.Add(1)
				return
			}

			_, err := checkout.Checkout(ctx, session.ID, uuid.NewString())
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	checkoutWg.Wait()
	elapsed := time.Since(start)

	checkout.Close()
	wg.Wait()

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== LOAD GENERATOR RESULTS ==========")
	fmt.Printf("Reserved Stock:   %d\n", reservedStock)
	fmt.Printf("Total Checkouts:  %d\n", totalCheckouts)
	fmt.Printf("Committed:        %d\n", success)
	fmt.Printf("Rejected:         %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("============================================")

	if success == int32(reservedStock) && fail == int32(totalCheckouts-reservedStock) {
		fmt.Printf("PASS: Exactly %d sales committed, %d rejected\n", reservedStock, totalCheckouts-reservedStock)
	} else {
		fmt.Printf("FAIL: Expected %d committed/%d rejected, got %d/%d\n",
			reservedStock, totalCheckouts-reservedStock, success, fail)
	}

	if remaining := cache.Stock(productID); remaining == 0 {
		fmt.Println("PASS: Reservation counter depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected reservation counter 0, got %d\n", remaining)
	}

	if receipts := len(store.Receipts()); receipts == int(success) {
		fmt.Printf("PASS: %d receipts persisted\n", receipts)
	} else {
		fmt.Printf("FAIL: Expected %d receipts, got %d\n", success, receipts)
	}
}
