package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateValidating SessionState = "validating"
	StateProcessing SessionState = "processing"
	StateCompleted  SessionState = "completed"
)

var (
	ErrOutOfStock           = errors.New("product out of stock")
	ErrQuantityExceedsStock = errors.New("quantity exceeds available stock")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrLineNotFound         = errors.New("line item not found")
)

// StockConflictError carries the detail the caller needs to render a stock
// alert and offer the clamp-to-available remediation.
type StockConflictError struct {
	ProductName string
	Available   int
	Requested   int
	reason      error
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("%s: %q has %d available, %d requested",
		e.reason, e.ProductName, e.Available, e.Requested)
}

func (e *StockConflictError) Unwrap() error { return e.reason }

// LineItem is a product-quantity pairing with the price and stock captured
// at the moment the product was added to the sale.
type LineItem struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
}

// SaleSession is the mutable sale-in-progress aggregate: ordered line items,
// one customer, one payment method. All stock checks run against the stock
// snapshot taken when each product was added, not against the live catalog;
// that staleness window is accepted and only closed at commit time by the
// reservation step.
type SaleSession struct {
	ID        string
	Items     []LineItem
	Customer  Customer
	Payment   PaymentMethod
	State     SessionState
	CreatedAt time.Time
}

func NewSaleSession(id string) *SaleSession {
	return &SaleSession{
		ID:        id,
		State:     StateIdle,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *SaleSession) findLine(productID string) *LineItem {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return &s.Items[i]
		}
	}
	return nil
}

// AddProduct inserts a new line with quantity 1, or increments an existing
// line by 1. A zero-stock product is never added; an increment past the
// captured stock leaves the line untouched.
func (s *SaleSession) AddProduct(p Product) error {
	if line := s.findLine(p.ID); line != nil {
		if line.Quantity >= line.Stock {
			return &StockConflictError{
				ProductName: line.Name,
				Available:   line.Stock,
				Requested:   line.Quantity + 1,
				reason:      ErrQuantityExceedsStock,
			}
		}
		line.Quantity++
		return nil
	}

	if p.Stock == 0 {
		return &StockConflictError{
			ProductName: p.Name,
			Available:   0,
			Requested:   1,
			reason:      ErrOutOfStock,
		}
	}

	s.Items = append(s.Items, LineItem{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		Quantity:  1,
	})
	return nil
}

// SetQuantity replaces a line's quantity. On a stock conflict the line is not
// mutated; the caller may clamp by calling again with the available stock.
func (s *SaleSession) SetQuantity(productID string, quantity int) error {
	line := s.findLine(productID)
	if line == nil {
		return ErrLineNotFound
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if quantity > line.Stock {
		return &StockConflictError{
			ProductName: line.Name,
			Available:   line.Stock,
			Requested:   quantity,
			reason:      ErrQuantityExceedsStock,
		}
	}
	line.Quantity = quantity
	return nil
}

// RemoveItem deletes a line, preserving the order of the rest. Removing an
// absent line is a no-op.
func (s *SaleSession) RemoveItem(productID string) {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return
		}
	}
}

func (s *SaleSession) Clear() {
	s.Items = nil
}

// Reset returns the session to its initial state after a completed sale or
// an explicit cancel.
func (s *SaleSession) Reset() {
	s.Items = nil
	s.Customer = Customer{}
	s.Payment = ""
	s.State = StateIdle
}

func (s *SaleSession) Totals() Totals {
	return ComputeTotals(s.Items)
}

// Stats backs the quick-stats strip on the sale screen.
type SessionStats struct {
	LineCount  int             `json:"line_count"`
	UnitCount  int             `json:"unit_count"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	HasPayment bool            `json:"has_payment"`
}

func (s *SaleSession) Stats() SessionStats {
	units := 0
	for _, item := range s.Items {
		units += item.Quantity
	}
	return SessionStats{
		LineCount:  len(s.Items),
		UnitCount:  units,
		Subtotal:   s.Totals().Subtotal,
		HasPayment: s.Payment != "",
	}
}
