// Package sale models point-of-sale transactions. A Sale is created once,
// together with its stock decrements, and never modified.
package sale

import (
	"errors"
	"time"

	"gymdash/internal/domain/validation"
)

// Payment methods accepted at the till.
const (
	MethodCash   = "cash"
	MethodCard   = "card"
	MethodOnline = "online"
)

var ValidMethods = []string{MethodCash, MethodCard, MethodOnline}

var ErrEmptySale = errors.New("sale has no items")

// Item is one line. Name, SKU and UnitPrice are snapshots taken at checkout.
type Item struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Subtotal returns Quantity * UnitPrice.
func (i Item) Subtotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}

// Sale is one till transaction. Total is in cents.
type Sale struct {
	ID            string    `json:"id"`
	FranchiseID   string    `json:"franchise_id,omitempty"`
	Items         []Item    `json:"items"`
	Total         int64     `json:"total"`
	PaymentMethod string    `json:"payment_method"`
	Cashier       string    `json:"cashier"`
	Timestamp     time.Time `json:"timestamp"`
}

// ComputeTotal sums item subtotals.
func (s *Sale) ComputeTotal() int64 {
	var total int64
	for _, it := range s.Items {
		total += it.Subtotal()
	}
	return total
}

// Validate checks if the Sale has valid data.
// PRE: Sale struct is initialized
// POST: Returns validation.Errors if invalid
// INVARIANT: Total equals the sum of item subtotals
func (s *Sale) Validate() error {
	var errs validation.Errors
	if len(s.Items) == 0 {
		errs.Add("items", "at least one item is required")
	}
	seen := make(map[string]bool, len(s.Items))
	for _, it := range s.Items {
		if it.ProductID == "" {
			errs.Add("items", "every item needs a product_id")
			break
		}
		if it.Quantity <= 0 {
			errs.Add("items", "quantity must be positive")
			break
		}
		if seen[it.ProductID] {
			errs.Add("items", "product %s appears more than once", it.ProductID)
			break
		}
		seen[it.ProductID] = true
	}
	errs.OneOf("payment_method", s.PaymentMethod, ValidMethods...)
	errs.Required("cashier", s.Cashier)
	if len(s.Items) > 0 && s.Total != s.ComputeTotal() {
		errs.Add("total", "does not match item subtotals")
	}
	return errs.Err()
}

// ItemCount returns the number of units sold.
func (s *Sale) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// SearchFields returns the indexed fields used by the list filter.
func SearchFields() []func(Sale) string {
	return []func(Sale) string{
		func(s Sale) string { return s.Cashier },
		func(s Sale) string { return s.PaymentMethod },
		func(s Sale) string {
			names := ""
			for _, it := range s.Items {
				names += it.Name + " " + it.SKU + " "
			}
			return names
		},
	}
}
