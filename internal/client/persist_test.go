package client_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery/internal/client"
	"delivery/internal/domain"
	"delivery/internal/testutil"
)

func TestFilePersister_MissingFile(t *testing.T) {
	p := client.NewFilePersister(filepath.Join(t.TempDir(), "state.json"))
	snap, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestFilePersister_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	p := client.NewFilePersister(path)
	ctx := context.Background()

	done := testutil.PendingOrder("order-1")
	done.Status = domain.OrderStatusDelivered
	catalog := testutil.Catalog()

	require.NoError(t, p.Save(ctx, &client.Snapshot{
		Cart:            []domain.CartItem{{ProductID: "p-5l", Name: "5L Water Bottle", Price: 5, Quantity: 2, Currency: domain.Currency}},
		Driver:          &domain.Driver{ID: "drv-1", Name: "Sam", Status: domain.DriverStatusOnline},
		Products:        catalog,
		CompletedOrders: []*domain.Order{done},
		SelectedOrderID: "order-1",
		PaymentMethod:   domain.PaymentMethodCard,
	}))

	snap, err := p.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "drv-1", snap.Driver.ID)
	assert.Equal(t, 2, snap.Cart[0].Quantity)
	assert.Equal(t, domain.PaymentMethodCard, snap.PaymentMethod)
	assert.Equal(t, "order-1", snap.SelectedOrderID)
	require.Len(t, snap.CompletedOrders, 1)
	assert.Equal(t, domain.OrderStatusDelivered, snap.CompletedOrders[0].Status)
	require.Len(t, snap.Products, len(catalog))
	assert.True(t, snap.Products[3].Stock.Unlimited)
	assert.Equal(t, domain.LimitedStock(10), snap.Products[0].Stock)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFilePersister_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := client.NewFilePersister(path).Load(context.Background())
	assert.Error(t, err)
}

func TestStore_LoadSurvivesCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	backend := newFakeBackend(testutil.PendingOrder("order-1"))
	s := client.NewStore(backend, backend, backend, client.WithPersister(client.NewFilePersister(path)))
	require.NoError(t, s.Load(context.Background()))
	assert.Len(t, s.AvailableOrders(), 1)
	assert.Nil(t, s.Driver())
}
