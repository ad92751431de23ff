package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"delivery/internal/domain"
	internalRedis "delivery/internal/redis"
	"delivery/internal/repository"
)

// CatalogService serves the active product catalog through an optional cache.
type CatalogService struct {
	products repository.ProductRepository
	cache    internalRedis.CatalogCache
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(products repository.ProductRepository, cache internalRedis.CatalogCache) *CatalogService {
	return &CatalogService{products: products, cache: cache}
}

// ListProducts returns active, in-stock products for a customer site.
func (s *CatalogService) ListProducts(ctx context.Context, siteID string) ([]domain.Product, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetCatalog(ctx, siteID)
		if err != nil {
			log.WithError(err).WithField("site_id", siteID).Warn("catalog cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	products, err := s.products.ListActive(ctx, siteID)
	if err != nil {
		log.WithError(err).WithField("site_id", siteID).Error("failed to list products")
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCatalog(ctx, siteID, products); err != nil {
			log.WithError(err).WithField("site_id", siteID).Warn("catalog cache write failed")
		}
	}
	return products, nil
}

// Invalidate drops cached catalogs so the next read sees current stock.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		log.WithError(err).Warn("catalog cache invalidation failed")
	}
}
