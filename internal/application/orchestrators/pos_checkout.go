package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/adapters/cache"
	"gymdash/internal/adapters/storage"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/sale"
	"gymdash/internal/domain/validation"
	"gymdash/internal/logger"
	"gymdash/internal/metrics"
)

// CheckoutProductStore defines the product lookups needed to price a sale.
type CheckoutProductStore interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

// SaleStore records a sale together with its stock decrements.
type SaleStore interface {
	Checkout(ctx context.Context, s sale.Sale) error
}

// CheckoutItem is one requested line.
type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CheckoutInput carries input for the point-of-sale checkout.
type CheckoutInput struct {
	FranchiseID   string         `json:"franchise_id"`
	Items         []CheckoutItem `json:"items"`
	PaymentMethod string         `json:"payment_method"`
	Cashier       string         `json:"cashier"`
}

// CheckoutDeps holds dependencies for Checkout.
type CheckoutDeps struct {
	ProductStore CheckoutProductStore
	SaleStore    SaleStore
	Cache        cache.Cache
	Logger       *zap.Logger
	Now          func() time.Time
}

// ExecuteCheckout prices the cart from current product data and records the
// sale.
// PRE: every item names an active product with enough stock
// PRE: every product belongs to input.FranchiseID, or to the first item's
// franchise when input.FranchiseID is empty
// POST: sale stored; each product's stock decremented and status re-derived
// INVARIANT: the sale and all stock decrements commit together or not at all
func ExecuteCheckout(ctx context.Context, input CheckoutInput, deps CheckoutDeps) (s sale.Sale, err error) {
	defer func() { metrics.Event("pos_checkout", err) }()
	log := logger.OrNop(deps.Logger)

	s = sale.Sale{
		ID:            generateID(),
		FranchiseID:   input.FranchiseID,
		PaymentMethod: input.PaymentMethod,
		Cashier:       input.Cashier,
		Timestamp:     nowFrom(deps.Now),
		Items:         make([]sale.Item, 0, len(input.Items)),
	}
	for _, in := range input.Items {
		p, err := deps.ProductStore.GetByID(ctx, in.ProductID)
		if err == nil && s.FranchiseID != "" && p.FranchiseID != s.FranchiseID {
			// another franchise's stock reads as unknown
			err = storage.NotFound("product", in.ProductID)
		}
		if errors.Is(err, storage.ErrNotFound) {
			var errs validation.Errors
			errs.Add("items", "unknown product %q", in.ProductID)
			return sale.Sale{}, errs.Err()
		}
		if err != nil {
			return sale.Sale{}, err
		}
		if p.Status == product.StatusDiscontinued {
			return sale.Sale{}, fmt.Errorf("%s: %w", p.SKU, product.ErrDiscontinued)
		}
		if in.Quantity > p.Stock {
			return sale.Sale{}, fmt.Errorf("%s: %w", p.SKU, product.ErrInsufficientStock)
		}
		s.Items = append(s.Items, sale.Item{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Quantity:  in.Quantity,
			UnitPrice: p.Price,
		})
		if s.FranchiseID == "" {
			s.FranchiseID = p.FranchiseID
		}
	}
	s.Total = s.ComputeTotal()
	if err := s.Validate(); err != nil {
		return sale.Sale{}, err
	}

	if err := deps.SaleStore.Checkout(ctx, s); err != nil {
		log.Warn("pos_event", zap.String("event", "checkout_failed"), zap.String("sale_id", s.ID), zap.Error(err))
		return sale.Sale{}, err
	}

	log.Info("pos_event", zap.String("event", "sale_recorded"), zap.String("sale_id", s.ID),
		zap.Int("units", s.ItemCount()), zap.Int64("total", s.Total), zap.String("cashier", s.Cashier))
	invalidate(ctx, deps.Cache, s.FranchiseID, log)
	return s, nil
}
