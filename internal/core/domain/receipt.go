package domain

import "time"

// Receipt is the immutable artifact of a committed sale. The session it was
// taken from is reset afterwards; the receipt keeps its own copies.
type Receipt struct {
	SaleNumber string        `json:"sale_number"`
	IssuedAt   time.Time     `json:"issued_at"`
	Items      []LineItem    `json:"items"`
	Customer   Customer      `json:"customer"`
	Payment    PaymentMethod `json:"payment_method"`
	Totals     Totals        `json:"totals"`
}

func NewReceipt(saleNumber string, items []LineItem, customer Customer, payment PaymentMethod, issuedAt time.Time) Receipt {
	snapshot := make([]LineItem, len(items))
	copy(snapshot, items)
	return Receipt{
		SaleNumber: saleNumber,
		IssuedAt:   issuedAt.UTC(),
		Items:      snapshot,
		Customer:   customer,
		Payment:    payment,
		Totals:     ComputeTotals(snapshot),
	}
}
