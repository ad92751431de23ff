package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"delivery/internal/domain"
)

// CacheStore caches the product catalog per customer site.
type CacheStore struct {
	client *redis.Client
	ttl    time.Duration
}

// DefaultCatalogTTL bounds how stale a cached catalog can get.
const DefaultCatalogTTL = 60 * time.Second

const (
	catalogCachePrefix = "cache:catalog:"
	catalogIndexKey    = "cache:catalog:keys"
	allSitesKey        = "_all"
)

// NewCacheStore creates a new CacheStore. A non-positive ttl uses DefaultCatalogTTL.
func NewCacheStore(client *redis.Client, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CacheStore{client: client, ttl: ttl}
}

// cachedProduct is the cache representation of domain.Product.
type cachedProduct struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Unit           string       `json:"unit"`
	Category       string       `json:"category"`
	ImageURL       string       `json:"image_url"`
	CustomerSiteID string       `json:"customer_site_id,omitempty"`
	Price          float64      `json:"price"`
	Stock          domain.Stock `json:"available_stock"`
	IsActive       bool         `json:"is_active"`
}

func catalogKey(siteID string) string {
	if siteID == "" {
		siteID = allSitesKey
	}
	return catalogCachePrefix + siteID
}

// GetCatalog returns the cached catalog for a site. A miss returns nil, false.
func (s *CacheStore) GetCatalog(ctx context.Context, siteID string) ([]domain.Product, bool, error) {
	data, err := s.client.Get(ctx, catalogKey(siteID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var cached []cachedProduct
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, err
	}

	products := make([]domain.Product, len(cached))
	for i, c := range cached {
		products[i] = domain.Product{
			ID:             c.ID,
			Name:           c.Name,
			Description:    c.Description,
			Unit:           c.Unit,
			Category:       c.Category,
			ImageURL:       c.ImageURL,
			CustomerSiteID: c.CustomerSiteID,
			Price:          c.Price,
			Stock:          c.Stock,
			IsActive:       c.IsActive,
		}
	}
	return products, true, nil
}

// SetCatalog stores a site's catalog and remembers the key for invalidation.
func (s *CacheStore) SetCatalog(ctx context.Context, siteID string, products []domain.Product) error {
	cached := make([]cachedProduct, len(products))
	for i, p := range products {
		cached[i] = cachedProduct{
			ID:             p.ID,
			Name:           p.Name,
			Description:    p.Description,
			Unit:           p.Unit,
			Category:       p.Category,
			ImageURL:       p.ImageURL,
			CustomerSiteID: p.CustomerSiteID,
			Price:          p.Price,
			Stock:          p.Stock,
			IsActive:       p.IsActive,
		}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	key := catalogKey(siteID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, s.ttl)
	pipe.SAdd(ctx, catalogIndexKey, key)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateCatalog drops every cached catalog. Called after stock changes.
func (s *CacheStore) InvalidateCatalog(ctx context.Context) error {
	keys, err := s.client.SMembers(ctx, catalogIndexKey).Result()
	if err != nil {
		return err
	}
	keys = append(keys, catalogIndexKey)
	return s.client.Del(ctx, keys...).Err()
}
