package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coderkeshav-yt/naturalpuff/internal/models"
)

// ListProducts returns the catalog, newest first
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY created_at DESC, id DESC")
	return products, err
}

// GetProductByID retrieves one product
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (name, description, details, nutritional_info, category, price, stock, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		product.Name, product.Description, product.Details, product.NutritionalInfo,
		product.Category, product.Price, product.Stock, product.ImageURL,
	).Scan(&product.ID, &product.CreatedAt)
}

// UpdateProduct overwrites the editable columns of a product
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, details = $3, nutritional_info = $4,
			category = $5, price = $6, stock = $7, image_url = $8
		WHERE id = $9`

	res, err := s.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Details, product.NutritionalInfo,
		product.Category, product.Price, product.Stock, product.ImageURL, product.ID)
	if err != nil {
		return err
	}
	return expectAffected(res, "product", product.ID)
}

// DeleteProduct removes a product. Placed orders keep their item snapshots.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res, "product", id)
}
