package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"delivery/internal/domain"
	"delivery/internal/repository"
)

const productColumns = `id, name, description, unit, category, image_url, customer_site_id, price, available_stock, is_active`

const (
	listActiveProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active = TRUE
			AND (available_stock IS NULL OR available_stock > 0)
			AND ($1 = '' OR customer_site_id IS NULL OR customer_site_id = $1)
		ORDER BY category, name
	`

	selectProductByIDQuery = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	decrementStockByIDQuery = `
		UPDATE products
		SET available_stock = available_stock - $2, updated_at = NOW()
		WHERE id = $1 AND (available_stock IS NULL OR available_stock >= $2)
	`

	decrementStockByNameQuery = `
		UPDATE products
		SET available_stock = available_stock - $2, updated_at = NOW()
		WHERE id = (
			SELECT id FROM products
			WHERE name = $1 AND is_active = TRUE AND (available_stock IS NULL OR available_stock >= $2)
			ORDER BY customer_site_id NULLS FIRST, id
			LIMIT 1
		)
		AND (available_stock IS NULL OR available_stock >= $2)
	`
)

// ProductRepository is a PostgreSQL implementation of repository.ProductRepository.
type ProductRepository struct {
	q Querier
}

// NewProductRepository creates a new PostgreSQL product repository.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{q: db}
}

// NewProductRepositoryWithTx creates a product repository using a transaction.
func NewProductRepositoryWithTx(tx *sql.Tx) *ProductRepository {
	return &ProductRepository{q: tx}
}

// ListActive returns active, in-stock products visible to a customer site.
func (r *ProductRepository) ListActive(ctx context.Context, siteID string) ([]domain.Product, error) {
	rows, err := r.q.QueryContext(ctx, listActiveProductsQuery, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// GetByID retrieves a product by ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx, selectProductByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// DecrementStock takes qty units from a product. Untracked stock always succeeds.
func (r *ProductRepository) DecrementStock(ctx context.Context, id, name string, qty int) error {
	query, key := decrementStockByIDQuery, id
	if id == "" {
		query, key = decrementStockByNameQuery, name
	}

	result, err := r.q.ExecContext(ctx, query, key, qty)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s (requested %d)", repository.ErrStockInsufficient, key, qty)
	}
	return nil
}

func scanProduct(s rowScanner) (*domain.Product, error) {
	var (
		p     domain.Product
		site  sql.NullString
		stock sql.NullInt64
	)
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Unit,
		&p.Category,
		&p.ImageURL,
		&site,
		&p.Price,
		&stock,
		&p.IsActive,
	)
	if err != nil {
		return nil, err
	}

	p.CustomerSiteID = site.String
	if stock.Valid {
		p.Stock = domain.LimitedStock(int(stock.Int64))
	} else {
		p.Stock = domain.UnlimitedStock()
	}
	return &p, nil
}
