package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/inversoft/pos-checkout/internal/core/domain"
	"github.com/inversoft/pos-checkout/internal/port"
)

var ErrOptimisticLock = errors.New("optimistic lock conflict")

// MySQLAdapter is the atomic commit boundary: the receipt, its line items and
// the inventory decrement are written in a single transaction, so a sale is
// either fully recorded or not at all.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) SaveReceipt(ctx context.Context, receipt domain.Receipt) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (sale_number, customer_id, customer_name, customer_tax_id,
			payment_method, subtotal, tax, total, issued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.SaleNumber, receipt.Customer.ID, receipt.Customer.Name,
		receipt.Customer.TaxID, receipt.Payment,
		receipt.Totals.Subtotal, receipt.Totals.Tax, receipt.Totals.Total,
		receipt.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	for _, item := range receipt.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_number, product_id, sku, name, price, quantity)
			VALUES (?, ?, ?, ?, ?, ?)`,
			receipt.SaleNumber, item.ProductID, item.SKU, item.Name, item.Price, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE inventory
			SET stock = stock - ?, version = version + 1, updated_at = NOW()
			WHERE product_id = ? AND stock >= ?`,
			item.Quantity, item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("update inventory: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return ErrOptimisticLock
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetInventory(ctx context.Context, productID string) (*port.Inventory, error) {
	var inv port.Inventory
	err := m.db.QueryRowContext(ctx, `
		SELECT product_id, stock, version
		FROM inventory WHERE product_id = ?`, productID,
	).Scan(&inv.ProductID, &inv.Stock, &inv.Version)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}

	return &inv, nil
}

func (m *MySQLAdapter) UpdateInventory(ctx context.Context, inv port.Inventory) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory
		SET stock = ?, version = version + 1, updated_at = NOW()
		WHERE product_id = ? AND version = ?`,
		inv.Stock, inv.ProductID, inv.Version,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOptimisticLock
	}

	return nil
}
