package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/inversoft/pos-checkout/internal/core/domain"
	"github.com/inversoft/pos-checkout/internal/port"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/poscheckout?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	ensureSchema(t, db)
	return db
}

func ensureSchema(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sales (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			sale_number VARCHAR(64) NOT NULL UNIQUE,
			customer_id VARCHAR(36),
			customer_name VARCHAR(255),
			customer_tax_id VARCHAR(32),
			payment_method VARCHAR(20) NOT NULL,
			subtotal DECIMAL(20,4) NOT NULL,
			tax DECIMAL(20,4) NOT NULL,
			total DECIMAL(20,4) NOT NULL,
			issued_at DATETIME(6) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sale_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			sale_number VARCHAR(64) NOT NULL,
			product_id VARCHAR(36) NOT NULL,
			sku VARCHAR(32) NOT NULL,
			name VARCHAR(255) NOT NULL,
			price DECIMAL(20,4) NOT NULL,
			quantity INT NOT NULL,
			INDEX idx_sale_items_sale_number (sale_number)
		)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			product_id VARCHAR(36) PRIMARY KEY,
			stock INT NOT NULL,
			version INT NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("schema setup failed: %v", err)
		}
	}
}

func testReceipt(saleNumber, productID string, quantity int) domain.Receipt {
	items := []domain.LineItem{{
		ProductID: productID,
		SKU:       "TST001",
		Name:      "Test Product",
		Price:     decimal.RequireFromString("100.00"),
		Stock:     100,
		Quantity:  quantity,
	}}
	return domain.NewReceipt(saleNumber, items, domain.Customer{ID: "1", Name: "Test Customer"},
		domain.PaymentCash, time.Now())
}

func TestSaveReceipt_Success(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	_, err := db.ExecContext(ctx, `
		INSERT INTO inventory (product_id, stock, version) VALUES ('test-product', 100, 0)
		ON DUPLICATE KEY UPDATE stock = 100, version = 0`)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	db.ExecContext(ctx, `DELETE FROM sales WHERE sale_number LIKE 'VTA-test-%'`)
	db.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_number LIKE 'VTA-test-%'`)

	receipt := testReceipt("VTA-test-"+time.Now().Format("20060102150405"), "test-product", 2)

	if err := adapter.SaveReceipt(ctx, receipt); err != nil {
		t.Fatalf("SaveReceipt failed: %v", err)
	}

	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales WHERE sale_number = ?`, receipt.SaleNumber).Scan(&count)
	if count != 1 {
		t.Error("sale not found in database")
	}

	var itemCount int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sale_items WHERE sale_number = ?`, receipt.SaleNumber).Scan(&itemCount)
	if itemCount != 1 {
		t.Errorf("expected 1 sale item, got %d", itemCount)
	}

	var stock int
	db.QueryRowContext(ctx, `SELECT stock FROM inventory WHERE product_id = 'test-product'`).Scan(&stock)
	if stock != 98 {
		t.Errorf("expected stock 98, got %d", stock)
	}

	// Cleanup
	db.ExecContext(ctx, `DELETE FROM sales WHERE sale_number = ?`, receipt.SaleNumber)
	db.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_number = ?`, receipt.SaleNumber)
	db.ExecContext(ctx, `UPDATE inventory SET stock = 100, version = 0 WHERE product_id = 'test-product'`)
}

func TestSaveReceipt_InsufficientStock(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	_, err := db.ExecContext(ctx, `
		INSERT INTO inventory (product_id, stock, version) VALUES ('empty-product', 0, 0)
		ON DUPLICATE KEY UPDATE stock = 0, version = 0`)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	receipt := testReceipt("VTA-test-fail-"+time.Now().Format("20060102150405"), "empty-product", 1)

	err = adapter.SaveReceipt(ctx, receipt)
	if !errors.Is(err, ErrOptimisticLock) {
		t.Errorf("expected ErrOptimisticLock, got: %v", err)
	}

	// nothing committed
	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales WHERE sale_number = ?`, receipt.SaleNumber).Scan(&count)
	if count != 0 {
		t.Error("expected no sale row after failed commit")
	}
}

func TestGetInventory(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	_, err := db.ExecContext(ctx, `
		INSERT INTO inventory (product_id, stock, version) VALUES ('get-test-product', 50, 5)
		ON DUPLICATE KEY UPDATE stock = 50, version = 5`)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	inv, err := adapter.GetInventory(ctx, "get-test-product")
	if err != nil {
		t.Fatalf("GetInventory failed: %v", err)
	}

	if inv == nil {
		t.Fatal("expected inventory, got nil")
	}
	if inv.ProductID != "get-test-product" {
		t.Errorf("expected product_id 'get-test-product', got %s", inv.ProductID)
	}
	if inv.Stock != 50 {
		t.Errorf("expected stock 50, got %d", inv.Stock)
	}
	if inv.Version != 5 {
		t.Errorf("expected version 5, got %d", inv.Version)
	}
}

func TestGetInventory_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	inv, err := adapter.GetInventory(ctx, "nonexistent-product")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv != nil {
		t.Error("expected nil for nonexistent product")
	}
}

func TestUpdateInventory_OptimisticLock(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	_, err := db.ExecContext(ctx, `
		INSERT INTO inventory (product_id, stock, version) VALUES ('lock-test-product', 100, 1)
		ON DUPLICATE KEY UPDATE stock = 100, version = 1`)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	inv := port.Inventory{
		ProductID: "lock-test-product",
		Stock:     90,
		Version:   1,
	}

	if err := adapter.UpdateInventory(ctx, inv); err != nil {
		t.Fatalf("UpdateInventory failed: %v", err)
	}

	var version int
	db.QueryRowContext(ctx, `SELECT version FROM inventory WHERE product_id = 'lock-test-product'`).Scan(&version)
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	inv.Version = 1 // stale
	err = adapter.UpdateInventory(ctx, inv)
	if !errors.Is(err, ErrOptimisticLock) {
		t.Errorf("expected ErrOptimisticLock, got: %v", err)
	}
}
