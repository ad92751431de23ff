package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery/internal/app"
	"delivery/internal/client"
	"delivery/internal/domain"
	"delivery/internal/handler"
	"delivery/internal/lifecycle"
	"delivery/internal/service"
	"delivery/internal/testutil"
)

func stubServer(t *testing.T, register func(r *gin.Engine)) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIClient_SendsBearerToken(t *testing.T) {
	var got string
	srv := stubServer(t, func(r *gin.Engine) {
		r.GET("/v1/orders/:id", func(c *gin.Context) {
			got = c.GetHeader("Authorization")
			c.JSON(http.StatusOK, gin.H{"order": gin.H{"id": c.Param("id"), "status": "assigned"}})
		})
	})

	api := client.NewAPIClient(srv.URL+"/", client.WithToken("first"))
	_, err := api.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer first", got)

	api.SetToken("second")
	order, err := api.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer second", got)
	assert.Equal(t, domain.OrderStatusAssigned, order.Status)
}

func TestAPIClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   error
	}{
		{http.StatusBadRequest, "invalid_status", client.ErrValidation},
		{http.StatusUnprocessableEntity, "totals_mismatch", client.ErrValidation},
		{http.StatusUnauthorized, "unauthorized", client.ErrUnauthorized},
		{http.StatusNotFound, "not_found", client.ErrNotFound},
		{http.StatusConflict, "stale_order", client.ErrConflict},
		{http.StatusTooManyRequests, "", client.ErrTransient},
		{http.StatusInternalServerError, "internal_error", client.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := stubServer(t, func(r *gin.Engine) {
				r.PUT("/v1/orders/:id/status", func(c *gin.Context) {
					c.JSON(tt.status, gin.H{"error": "nope", "code": tt.code})
				})
			})

			api := client.NewAPIClient(srv.URL)
			_, err := api.UpdateOrderStatus(context.Background(), "order-1", lifecycle.Transition{Status: domain.OrderStatusInProgress})
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.code, client.ErrorCode(err))

			var apiErr *client.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestAPIClient_NonJSONErrorBody(t *testing.T) {
	srv := stubServer(t, func(r *gin.Engine) {
		r.GET("/v1/products", func(c *gin.Context) {
			c.String(http.StatusBadGateway, "<html>bad gateway</html>")
		})
	})

	_, err := client.NewAPIClient(srv.URL).ListProducts(context.Background(), "")
	require.ErrorIs(t, err, client.ErrTransient)
	assert.Contains(t, err.Error(), "Bad Gateway")
}

func TestAPIClient_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.NewAPIClient(url).GetOrder(context.Background(), "order-1")
	assert.ErrorIs(t, err, client.ErrTransient)
}

func TestAPIClient_CancelledContext(t *testing.T) {
	srv := stubServer(t, func(r *gin.Engine) {
		r.GET("/v1/orders", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"orders": []any{}}) })
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.NewAPIClient(srv.URL).ListOrders(ctx, "drv-1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, client.ErrTransient)
}

func TestAPIClient_ListOrdersQueryAndLegacyShape(t *testing.T) {
	var query string
	srv := stubServer(t, func(r *gin.Engine) {
		r.GET("/v1/orders", func(c *gin.Context) {
			query = c.Request.URL.RawQuery
			c.JSON(http.StatusOK, gin.H{"orders": []gin.H{{
				"id":                 "legacy-1",
				"customer_name":      "Old Client",
				"five_litre_bottles": 3,
				"water_dispenser":    1,
				"total_amount":       "not a number",
			}}})
		})
	})

	orders, err := client.NewAPIClient(srv.URL).ListOrders(context.Background(), "drv-1", domain.ActiveOrderStatuses...)
	require.NoError(t, err)
	assert.Equal(t, "driver_id=drv-1&status=pending%2Cassigned%2Cin_progress", query)

	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, map[string]int{"5L Water Bottle": 3, "Water Dispenser": 1}, o.RequestedProducts)
	assert.Nil(t, o.Pricing)
}

func TestAPIClient_ListProductsDecodesStock(t *testing.T) {
	srv := stubServer(t, func(r *gin.Engine) {
		r.GET("/v1/products", func(c *gin.Context) {
			assert.Equal(t, "site-9", c.Query("customer_site_id"))
			c.JSON(http.StatusOK, gin.H{"success": true, "data": []gin.H{
				{"id": "p-1", "name": "Cups", "price": 3, "available_stock": "N/A"},
				{"id": "p-2", "name": "5L", "pricing": gin.H{"selling_price": 5.5}, "available_stock": 4, "is_active": false},
			}})
		})
	})

	products, err := client.NewAPIClient(srv.URL).ListProducts(context.Background(), "site-9")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.True(t, products[0].Stock.Unlimited)
	assert.True(t, products[0].IsActive)
	assert.Equal(t, 5.5, products[1].Price)
	assert.Equal(t, domain.LimitedStock(4), products[1].Stock)
	assert.False(t, products[1].IsActive)
}

const backendSecret = "client-secret"

func newBackend(t *testing.T) (*httptest.Server, *testutil.OrderStore, *testutil.ProductStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orders := testutil.NewOrderStore()
	products := testutil.NewProductStore(testutil.Catalog()...)
	expenses := testutil.NewExpenseStore()
	tx := testutil.NewTxRunner(orders, products)

	catalog := service.NewCatalogService(products, nil)
	router := app.NewRouter(app.RouterDeps{
		OrderHandler:   handler.NewOrderHandler(service.NewOrderService(orders, tx, nil, catalog, nil, nil, 0)),
		ProductHandler: handler.NewProductHandler(catalog),
		ExpenseHandler: handler.NewExpenseHandler(service.NewExpenseService(expenses, nil)),
		UserHandler:    handler.NewUserHandler(testutil.NewUserStore()),
		JWTSecret:      backendSecret,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, orders, products
}

func TestStore_AgainstBackend(t *testing.T) {
	srv, orders, products := newBackend(t)
	orders.Put(testutil.PendingOrder("order-1"))
	ctx := context.Background()

	unauthenticated := client.NewAPIClient(srv.URL)
	_, err := unauthenticated.ListOrders(ctx, "")
	require.ErrorIs(t, err, client.ErrUnauthorized)

	token := testutil.GenerateJWTHS256(t, backendSecret, "auth0|drv-1", "Sam Driver", "sam@example.com")
	api := client.NewAPIClient(srv.URL, client.WithToken(token))
	store := client.NewStore(api, api, api)
	store.InitializeDriver(client.IdentityProfile{DriverID: "drv-1", Subject: "auth0|drv-1", Name: "Sam Driver"})

	require.NoError(t, store.RefreshOrders(ctx))
	require.Len(t, store.AvailableOrders(), 1)

	_, err = store.AcceptOrder(ctx, "order-1")
	require.NoError(t, err)
	_, err = store.UpdateOrderStatus(ctx, "order-1", domain.OrderStatusInProgress, "", "")
	require.NoError(t, err)

	_, err = store.LoadCatalog(ctx, "")
	require.NoError(t, err)
	require.NoError(t, store.SelectOrder("order-1"))
	_, err = store.SeedQuantities()
	require.NoError(t, err)
	_, _, err = store.Checkout(nil)
	require.NoError(t, err)

	conf, err := store.ConfirmPayment(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-1", conf.ID)
	assert.Equal(t, 23.0, conf.TotalAmount)
	assert.Equal(t, domain.LimitedStock(8), products.Stock("p-5l"))

	_, err = store.ConfirmWalkInPayment(ctx, domain.CustomerSnapshot{Name: "x"})
	require.ErrorIs(t, err, client.ErrValidation)

	require.NoError(t, store.AddToCart(testutil.Catalog()[3], 2))
	_, err = store.ConfirmWalkInPayment(ctx, domain.CustomerSnapshot{Name: "Corner Shop", Phone: "+971511111111", Address: "Al Quoz"})
	require.NoError(t, err)
	require.NoError(t, store.RefreshOrders(ctx))
	assert.Empty(t, store.AvailableOrders())

	done, err := store.CompleteOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, done.Status)
	assert.True(t, done.IsPaid())

	_, err = store.UpdateOrderStatus(ctx, "order-1", domain.OrderStatusCancelled, "", "")
	require.ErrorIs(t, err, client.ErrNotFound)

	require.NoError(t, store.SyncHistory(ctx))
	history := store.OrderHistory()
	require.Len(t, history, 1)
	assert.Equal(t, "order-1", history[0].ID)
	assert.InDelta(t, 3.45, store.Driver().Metrics.TotalEarnings, 1e-9)

	_, err = store.SubmitExpense(ctx, client.ExpenseInput{Type: domain.ExpenseTypeFuel, Amount: 80})
	require.NoError(t, err)
	claims, err := store.Expenses(ctx, domain.ExpenseStatusPending)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, 80.0, claims[0].Amount)
}
