package repository

import (
	"context"

	"delivery/internal/domain"
)

// ProductRepository defines the persistence operations for catalog products.
type ProductRepository interface {
	// ListActive returns active, in-stock products for a customer site plus
	// products available to every site. An empty siteID returns all of them.
	ListActive(ctx context.Context, siteID string) ([]domain.Product, error)

	// GetByID retrieves a product by ID.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// DecrementStock takes qty units from the product identified by id, or by
	// name when id is empty. Returns ErrStockInsufficient when the guard fails.
	DecrementStock(ctx context.Context, id, name string, qty int) error
}
