package redis

import (
	"context"
	"time"

	"delivery/internal/domain"
)

// CatalogCache defines the interface for catalog caching.
type CatalogCache interface {
	GetCatalog(ctx context.Context, siteID string) ([]domain.Product, bool, error)
	SetCatalog(ctx context.Context, siteID string, products []domain.Product) error
	InvalidateCatalog(ctx context.Context) error
}

// PaymentLocker defines the interface for payment confirmation locking.
type PaymentLocker interface {
	AcquirePaymentLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error)
	ReleasePaymentLock(ctx context.Context, orderID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ CatalogCache  = (*CacheStore)(nil)
	_ PaymentLocker = (*LockStore)(nil)
)
