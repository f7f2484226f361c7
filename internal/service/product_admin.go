package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"
	"github.com/coderkeshav-yt/naturalpuff/internal/store"
	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"go.uber.org/zap"
)

// ErrProductNotFound is returned for admin operations on a missing product
var ErrProductNotFound = errors.New("product not found")

// ProductInput is the editable part of a product. Price and Stock are
// pointers so that zero can be told apart from missing.
type ProductInput struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Details         string `json:"details"`
	NutritionalInfo string `json:"nutritional_info"`
	Category        string `json:"category"`
	Price           *int64 `json:"price"`
	Stock           *int   `json:"stock"`
	ImageURL        string `json:"image_url"`
}

// ProductAdmin manages the catalog checkout prices carts against
type ProductAdmin struct {
	products ProductRepository
	logger   *zap.Logger
}

// NewProductAdmin creates a product admin service
func NewProductAdmin(products ProductRepository) *ProductAdmin {
	return &ProductAdmin{
		products: products,
		logger:   util.ComponentLogger("product-admin"),
	}
}

func (a *ProductAdmin) build(in ProductInput) (*models.Product, error) {
	p := &models.Product{
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		Details:         strings.TrimSpace(in.Details),
		NutritionalInfo: strings.TrimSpace(in.NutritionalInfo),
		Category:        strings.TrimSpace(in.Category),
		ImageURL:        strings.TrimSpace(in.ImageURL),
	}

	switch {
	case p.Name == "":
		return nil, invalid("name", "Name is required")
	case p.Description == "":
		return nil, invalid("description", "Description is required")
	case in.Price == nil || *in.Price < 0:
		return nil, invalid("price", "Price must be a non-negative number")
	case in.Stock == nil || *in.Stock < 0:
		return nil, invalid("stock", "Stock must be a non-negative integer")
	case p.ImageURL == "":
		return nil, invalid("image_url", "Image URL is required")
	case p.Category == "":
		return nil, invalid("category", "Category is required")
	}
	p.Price = *in.Price
	p.Stock = *in.Stock
	return p, nil
}

// List returns the catalog, newest first
func (a *ProductAdmin) List(ctx context.Context) ([]models.Product, error) {
	products, err := a.products.ListProducts(ctx)
	if err != nil {
		return nil, a.mapErr(err)
	}
	return products, nil
}

// Get returns one product
func (a *ProductAdmin) Get(ctx context.Context, id int64) (*models.Product, error) {
	product, err := a.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, a.mapErr(err)
	}
	return product, nil
}

// Create adds a product
func (a *ProductAdmin) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductAdmin.Create")
	defer span.End()

	product, err := a.build(in)
	if err != nil {
		return nil, err
	}
	if err := a.products.CreateProduct(ctx, product); err != nil {
		return nil, util.FailSpan(span, a.mapErr(err))
	}
	a.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int64("price", product.Price))
	return product, nil
}

// Update replaces the editable fields of a product
func (a *ProductAdmin) Update(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductAdmin.Update")
	defer span.End()

	current, err := a.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, a.mapErr(err)
	}
	product, err := a.build(in)
	if err != nil {
		return nil, err
	}
	product.ID = id
	product.CreatedAt = current.CreatedAt

	if err := a.products.UpdateProduct(ctx, product); err != nil {
		return nil, util.FailSpan(span, a.mapErr(err))
	}
	a.logger.Info("Product updated", zap.Int64("product_id", id), zap.String("name", product.Name))
	return product, nil
}

// Delete removes a product
func (a *ProductAdmin) Delete(ctx context.Context, id int64) error {
	if err := a.products.DeleteProduct(ctx, id); err != nil {
		return a.mapErr(err)
	}
	a.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (a *ProductAdmin) mapErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrProductNotFound
	}
	return fmt.Errorf("product store: %w", err)
}
