package orchestrators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salestore "gymdash/internal/adapters/storage/sale"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/sale"
	"gymdash/internal/domain/validation"
)

func seedProducts(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.products.Save(ctx, product.Product{ID: "bar", SKU: "BAR-1", Name: "Protein Bar", Category: "food", Price: 350, Stock: 10, MinStock: 5}))
	require.NoError(t, f.products.Save(ctx, product.Product{ID: "towel", SKU: "TOWEL", Name: "Towel", Category: "gear", Price: 1500, Stock: 1, MinStock: 2}))
	require.NoError(t, f.products.Save(ctx, product.Product{ID: "old", SKU: "OLD", Name: "Old Shirt", Category: "gear", Price: 900, Stock: 4, Status: product.StatusDiscontinued}))
}

func checkoutDeps(f *fixture) CheckoutDeps {
	return CheckoutDeps{ProductStore: f.products, SaleStore: f.sales, Now: clock}
}

func TestExecuteCheckout(t *testing.T) {
	f := newFixture(t)
	seedProducts(t, f)
	ctx := context.Background()

	s, err := ExecuteCheckout(ctx, CheckoutInput{
		Items:         []CheckoutItem{{ProductID: "bar", Quantity: 6}, {ProductID: "towel", Quantity: 1}},
		PaymentMethod: sale.MethodCard,
		Cashier:       "front-desk",
	}, checkoutDeps(f))
	require.NoError(t, err)
	assert.Equal(t, int64(6*350+1500), s.Total)
	assert.Equal(t, "BAR-1", s.Items[0].SKU)

	bar, err := f.products.GetByID(ctx, "bar")
	require.NoError(t, err)
	assert.Equal(t, 4, bar.Stock)
	assert.Equal(t, product.StatusLowStock, bar.Status)
	towel, err := f.products.GetByID(ctx, "towel")
	require.NoError(t, err)
	assert.Equal(t, product.StatusOutOfStock, towel.Status)

	stored, err := f.sales.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
}

func TestExecuteCheckout_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	seedProducts(t, f)
	ctx := context.Background()

	_, err := ExecuteCheckout(ctx, CheckoutInput{
		Items:         []CheckoutItem{{ProductID: "bar", Quantity: 2}, {ProductID: "towel", Quantity: 3}},
		PaymentMethod: sale.MethodCash,
		Cashier:       "front-desk",
	}, checkoutDeps(f))
	assert.ErrorIs(t, err, product.ErrInsufficientStock)

	bar, err := f.products.GetByID(ctx, "bar")
	require.NoError(t, err)
	assert.Equal(t, 10, bar.Stock, "no partial decrement")
	sales, err := f.sales.List(ctx, salestore.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestExecuteCheckout_Rejections(t *testing.T) {
	f := newFixture(t)
	seedProducts(t, f)
	ctx := context.Background()
	base := CheckoutInput{PaymentMethod: sale.MethodCash, Cashier: "front-desk"}

	in := base
	in.Items = []CheckoutItem{{ProductID: "old", Quantity: 1}}
	_, err := ExecuteCheckout(ctx, in, checkoutDeps(f))
	assert.ErrorIs(t, err, product.ErrDiscontinued)

	in.Items = []CheckoutItem{{ProductID: "nope", Quantity: 1}}
	_, err = ExecuteCheckout(ctx, in, checkoutDeps(f))
	assert.True(t, validation.IsValidation(err))

	in.Items = nil
	_, err = ExecuteCheckout(ctx, in, checkoutDeps(f))
	assert.True(t, validation.IsValidation(err))
}

func TestExecuteCheckout_StaysInsideFranchise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.products.Save(ctx, product.Product{ID: "a-bar", FranchiseID: "fr-a", SKU: "A-BAR", Name: "Bar", Category: "food", Price: 300, Stock: 10}))
	require.NoError(t, f.products.Save(ctx, product.Product{ID: "b-bar", FranchiseID: "fr-b", SKU: "B-BAR", Name: "Bar", Category: "food", Price: 300, Stock: 10}))

	tests := []struct {
		name  string
		input CheckoutInput
	}{
		{"other franchise's product", CheckoutInput{FranchiseID: "fr-b", Items: []CheckoutItem{{ProductID: "a-bar", Quantity: 4}}}},
		{"mixed cart without franchise", CheckoutInput{Items: []CheckoutItem{{ProductID: "a-bar", Quantity: 1}, {ProductID: "b-bar", Quantity: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			in.PaymentMethod = sale.MethodCash
			in.Cashier = "front-desk"
			_, err := ExecuteCheckout(ctx, in, checkoutDeps(f))
			require.Error(t, err)
			assert.True(t, validation.IsValidation(err), "reads as an unknown product: %v", err)
		})
	}

	a, err := f.products.GetByID(ctx, "a-bar")
	require.NoError(t, err)
	assert.Equal(t, 10, a.Stock)
	b, err := f.products.GetByID(ctx, "b-bar")
	require.NoError(t, err)
	assert.Equal(t, 10, b.Stock)

	s, err := ExecuteCheckout(ctx, CheckoutInput{
		FranchiseID: "fr-a", Items: []CheckoutItem{{ProductID: "a-bar", Quantity: 4}},
		PaymentMethod: sale.MethodCash, Cashier: "front-desk",
	}, checkoutDeps(f))
	require.NoError(t, err)
	assert.Equal(t, "fr-a", s.FranchiseID)
}
