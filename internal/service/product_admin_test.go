package service

import (
	"context"
	"testing"
	"time"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func makhanaInput() ProductInput {
	return ProductInput{
		Name:        " Natural Puff Makhana - Cheese ",
		Description: "Cheesy roasted makhana",
		Category:    "flavoured",
		Price:       int64Ptr(149),
		Stock:       intPtr(100),
		ImageURL:    "https://cdn.example.com/cheese.jpg",
	}
}

func TestProductAdminCreate(t *testing.T) {
	a := NewProductAdmin(newFakeCatalog())

	product, err := a.Create(context.Background(), makhanaInput())
	require.NoError(t, err)
	assert.NotZero(t, product.ID)
	assert.Equal(t, "Natural Puff Makhana - Cheese", product.Name)
	assert.Equal(t, int64(149), product.Price)
	assert.Equal(t, 100, product.Stock)
}

func TestProductAdminValidation(t *testing.T) {
	a := NewProductAdmin(newFakeCatalog())

	tests := []struct {
		field  string
		mutate func(*ProductInput)
	}{
		{"name", func(in *ProductInput) { in.Name = "  " }},
		{"description", func(in *ProductInput) { in.Description = "" }},
		{"price", func(in *ProductInput) { in.Price = nil }},
		{"price", func(in *ProductInput) { in.Price = int64Ptr(-1) }},
		{"stock", func(in *ProductInput) { in.Stock = intPtr(-3) }},
		{"image_url", func(in *ProductInput) { in.ImageURL = "" }},
		{"category", func(in *ProductInput) { in.Category = "" }},
	}
	for _, tt := range tests {
		in := makhanaInput()
		tt.mutate(&in)

		_, err := a.Create(context.Background(), in)
		require.ErrorIs(t, err, ErrValidation, tt.field)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, tt.field, verr.Field)
	}
}

func TestProductAdminFreeProductAllowed(t *testing.T) {
	a := NewProductAdmin(newFakeCatalog())
	in := makhanaInput()
	in.Price = int64Ptr(0)
	in.Stock = intPtr(0)

	product, err := a.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Zero(t, product.Price)
}

func TestProductAdminUpdateAndDelete(t *testing.T) {
	created := time.Date(2025, 4, 29, 10, 0, 0, 0, time.UTC)
	a := NewProductAdmin(newFakeCatalog(models.Product{ID: 3, Name: "Pudina", Price: 149, CreatedAt: created}))
	ctx := context.Background()

	in := makhanaInput()
	in.Price = int64Ptr(179)
	product, err := a.Update(ctx, 3, in)
	require.NoError(t, err)
	assert.Equal(t, int64(179), product.Price)
	assert.Equal(t, created, product.CreatedAt)

	_, err = a.Update(ctx, 99, makhanaInput())
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, a.Delete(ctx, 3))
	_, err = a.Get(ctx, 3)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, a.Delete(ctx, 3), ErrProductNotFound)
}

func TestCreatedProductCanBeCheckedOut(t *testing.T) {
	catalog := newFakeCatalog()
	product, err := NewProductAdmin(catalog).Create(context.Background(), makhanaInput())
	require.NoError(t, err)

	o := NewCheckoutOrchestrator(newFakeSessions(), catalog, newFakeOrders(), NewCouponValidator(newFakeCoupons()),
		newFakeGateway(), &fakeShipper{}, &fakePublisher{}, nil, CheckoutConfig{SessionTTL: time.Hour})

	sess, err := o.Start(context.Background(), nil, []models.CartItem{{ProductID: product.ID, Name: "x", Price: 1, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(298), sess.Totals().Subtotal)
}
