package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery/internal/domain"
	"delivery/internal/lifecycle"
	"delivery/internal/pricing"
	"delivery/internal/repository"
	"delivery/internal/service"
	"delivery/internal/testutil"
)

type fixture struct {
	orders   *testutil.OrderStore
	products *testutil.ProductStore
	tx       *testutil.TxRunner
	svc      *service.OrderService
}

func newFixture(t *testing.T, catalog ...domain.Product) *fixture {
	t.Helper()
	if len(catalog) == 0 {
		catalog = testutil.Catalog()
	}
	orders := testutil.NewOrderStore()
	products := testutil.NewProductStore(catalog...)
	tx := testutil.NewTxRunner(orders, products)
	catalogSvc := service.NewCatalogService(products, nil)
	svc := service.NewOrderService(orders, tx, nil, catalogSvc, nil, nil, 0)
	return &fixture{orders: orders, products: products, tx: tx, svc: svc}
}

func TestOrderService_EndToEndDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orders.Put(testutil.PendingOrder("order-1"))

	order, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{
		OrderID: "order-1", Status: "assigned", DriverID: "drv-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusAssigned, order.Status)
	require.NotNil(t, order.DriverID)

	order, err = f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{OrderID: "order-1", Status: "in_progress"})
	require.NoError(t, err)
	require.NotNil(t, order.StartedAt)

	paid, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentRequest{
		OrderID:       "order-1",
		PaymentMethod: "cash",
		Lines: []pricing.Line{
			{ProductID: "p-5l", Name: "5L Water Bottle", Price: pricing.Num(5), Quantity: pricing.Num(2)},
			{ProductID: "p-10l", Name: "10L Water Bottle", Price: pricing.Num(10), Quantity: pricing.Num(1)},
		},
		Totals: &pricing.Totals{Subtotal: 20, VAT: 3, Total: 23},
	})
	require.NoError(t, err)
	require.NotNil(t, paid.Pricing)
	assert.Equal(t, 23.0, paid.Pricing.Total)
	assert.Equal(t, domain.PaymentStatusPaid, paid.Pricing.PaymentStatus)
	assert.Equal(t, map[string]int{"5L Water Bottle": 2, "10L Water Bottle": 1}, paid.DeliveredProducts)
	assert.Equal(t, 8, f.products.Stock("p-5l").Quantity)
	assert.Equal(t, 4, f.products.Stock("p-10l").Quantity)

	order, err = f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{OrderID: "order-1", Status: "delivered"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, order.Status)
	require.NotNil(t, order.DeliveredAt)

	stored, err := f.orders.GetByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, stored.Status)
	require.NotNil(t, stored.Pricing)
	assert.Equal(t, 23.0, stored.Pricing.Total)

	history, err := f.svc.History(ctx, "drv-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "order-1", history[0].ID)

	active, err := f.svc.List(ctx, service.ListOrdersRequest{DriverID: "drv-1"})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestOrderService_FailedDeliveryWithoutNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := testutil.PendingOrder("order-2")
	o.Status = domain.OrderStatusInProgress
	f.orders.Put(o)

	order, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{
		OrderID: "order-2", Status: "failed", FailureReason: "Customer not available",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFailed, order.Status)
	require.NotNil(t, order.FailureReason)
	assert.Equal(t, "Customer not available", *order.FailureReason)
	assert.Nil(t, order.FailureNote)
	assert.Nil(t, order.DeliveredAt)
}

func TestOrderService_UpdateStatusRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := testutil.PendingOrder("order-3")
	o.Status = domain.OrderStatusInProgress
	f.orders.Put(o)

	_, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{OrderID: "order-3", Status: "failed"})
	assert.ErrorIs(t, err, lifecycle.ErrFailureReasonRequired)

	_, err = f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{OrderID: "order-3"})
	assert.ErrorIs(t, err, lifecycle.ErrMissingStatus)

	_, err = f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{OrderID: "order-3", Status: "lost"})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidStatus)

	_, err = f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{OrderID: "missing", Status: "delivered"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, f.orders.Count(), "no order may be created")

	stored, err := f.orders.GetByID(ctx, "order-3")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInProgress, stored.Status)
	assert.Equal(t, int32(0), f.orders.UpdateStatusCallCount)
}

func TestOrderService_TerminalOrdersStayTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := testutil.PendingOrder("order-4")
	o.Status = domain.OrderStatusDelivered
	f.orders.Put(o)

	_, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{
		OrderID: "order-4", Status: "failed", FailureReason: "Other",
	})
	assert.ErrorIs(t, err, lifecycle.ErrTerminalStatus)

	stored, _ := f.orders.GetByID(ctx, "order-4")
	assert.Equal(t, domain.OrderStatusDelivered, stored.Status)
	assert.Nil(t, stored.FailureReason)
}

func TestOrderService_ConfirmPaymentCreatesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentRequest{
		Customer:      walkIn(),
		PaymentMethod: "Card",
		Lines: []pricing.Line{
			{Name: "Paper Cups", Price: pricing.Num(3), Quantity: pricing.Num(4)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Regexp(t, `^ORD-\d+$`, order.OrderNumber)
	assert.Equal(t, domain.PaymentMethodCard, order.Pricing.PaymentMethod)
	assert.InDelta(t, 13.80, order.Pricing.Total, 1e-9)
	assert.Equal(t, 1, f.orders.Count())
	assert.True(t, f.products.Stock("p-cups").Unlimited)
}

func TestOrderService_ConfirmPaymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orders.Put(testutil.PendingOrder("order-5"))

	base := service.ConfirmPaymentRequest{
		OrderID:       "order-5",
		PaymentMethod: "cash",
		Lines:         []pricing.Line{{ProductID: "p-5l", Name: "5L Water Bottle", Price: pricing.Num(5), Quantity: pricing.Num(1)}},
	}

	req := base
	req.PaymentMethod = "bitcoin"
	_, err := f.svc.ConfirmPayment(ctx, req)
	assert.ErrorIs(t, err, service.ErrValidation)

	req = base
	req.Lines = nil
	_, err = f.svc.ConfirmPayment(ctx, req)
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.ErrorIs(t, err, pricing.ErrEmptyCart)

	req = base
	req.Lines = []pricing.Line{{Name: "5L Water Bottle", Price: pricing.Numeric{}, Quantity: pricing.Num(1)}}
	_, err = f.svc.ConfirmPayment(ctx, req)
	assert.ErrorIs(t, err, service.ErrValidation)

	req = base
	req.Totals = &pricing.Totals{Subtotal: 5, VAT: 0.75, Total: 9.99}
	_, err = f.svc.ConfirmPayment(ctx, req)
	assert.ErrorIs(t, err, service.ErrTotalsMismatch)

	assert.Equal(t, 10, f.products.Stock("p-5l").Quantity)
	assert.Equal(t, int32(0), f.tx.Commits)
}

func TestOrderService_ConfirmPaymentTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orders.Put(testutil.PendingOrder("order-6"))

	req := service.ConfirmPaymentRequest{
		OrderID:       "order-6",
		PaymentMethod: "cash",
		Lines:         []pricing.Line{{ProductID: "p-5l", Name: "5L Water Bottle", Price: pricing.Num(5), Quantity: pricing.Num(1)}},
	}
	_, err := f.svc.ConfirmPayment(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, req)
	assert.ErrorIs(t, err, service.ErrOrderAlreadyPaid)
	assert.Equal(t, 9, f.products.Stock("p-5l").Quantity)
}

func TestOrderService_ConfirmPaymentRollsBackOnStockShortage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orders.Put(testutil.PendingOrder("order-7"))

	_, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentRequest{
		OrderID:       "order-7",
		PaymentMethod: "cash",
		Lines: []pricing.Line{
			{ProductID: "p-5l", Name: "5L Water Bottle", Price: pricing.Num(5), Quantity: pricing.Num(2)},
			{ProductID: "p-disp", Name: "Water Dispenser", Price: pricing.Num(150), Quantity: pricing.Num(2)},
		},
	})
	assert.ErrorIs(t, err, repository.ErrStockInsufficient)

	assert.Equal(t, 10, f.products.Stock("p-5l").Quantity, "earlier decrement must roll back")
	stored, _ := f.orders.GetByID(ctx, "order-7")
	assert.Nil(t, stored.Pricing)
	assert.Equal(t, int32(1), f.tx.Rollbacks)
}

func TestOrderService_ConcurrentConfirmationsForLastUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 2
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		shortage int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentRequest{
				Customer:      walkIn(),
				PaymentMethod: "cash",
				Lines: []pricing.Line{
					{ProductID: "p-disp", Name: "Water Dispenser", Price: pricing.Num(150), Quantity: pricing.Num(1)},
				},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, repository.ErrStockInsufficient):
				shortage++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 1, shortage)
	assert.Equal(t, 0, f.products.Stock("p-disp").Quantity)
	assert.Equal(t, 1, f.orders.Count(), "losing confirmation must not leave an order behind")
}

func TestOrderService_CreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, service.CreateOrderRequest{RequestedProducts: map[string]int{"5L": 1}})
	assert.ErrorIs(t, err, service.ErrValidation)

	created, err := f.svc.Create(ctx, service.CreateOrderRequest{
		Customer:          domain.CustomerSnapshot{Name: "Villa 12"},
		RequestedProducts: map[string]int{"5L Water Bottle": 3, "Cups": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, created.Status)
	assert.Equal(t, map[string]int{"5L Water Bottle": 3}, created.RequestedProducts)

	orders, err := f.svc.List(ctx, service.ListOrdersRequest{Statuses: []string{"pending,assigned"}})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	_, err = f.svc.List(ctx, service.ListOrdersRequest{Statuses: []string{"bogus"}})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidStatus)
}

func TestOrderService_StaleWriteIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orders.Put(testutil.PendingOrder("order-8"))
	f.orders.UpdateStatusError = repository.ErrStaleOrder

	_, err := f.svc.UpdateStatus(ctx, service.UpdateStatusRequest{OrderID: "order-8", Status: "assigned"})
	assert.ErrorIs(t, err, repository.ErrStaleOrder)
}

func TestOrderService_Receipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orders.Put(testutil.PendingOrder("order-9"))

	_, err := f.svc.Receipt(ctx, "order-9")
	assert.ErrorIs(t, err, service.ErrOrderNotPaid)

	_, err = f.svc.ConfirmPayment(ctx, service.ConfirmPaymentRequest{
		OrderID:       "order-9",
		PaymentMethod: "wallet",
		Lines:         []pricing.Line{{ProductID: "p-10l", Name: "10L Water Bottle", Price: pricing.Num(10), Quantity: pricing.Num(2)}},
	})
	require.NoError(t, err)

	result, err := f.svc.Receipt(ctx, "order-9")
	require.NoError(t, err)
	assert.Equal(t, "ORD-order-9", result.Receipt.OrderNumber)
	require.Len(t, result.Receipt.Lines, 1)
	assert.Equal(t, 20.0, result.Receipt.Lines[0].Amount)
	assert.Contains(t, result.Text, "TOTAL:")
	assert.Contains(t, result.Text, "AED    23.00")
	assert.Contains(t, result.Text, "Method: wallet")
}

func walkIn() domain.CustomerSnapshot {
	return domain.CustomerSnapshot{Name: "Walk-in", Phone: "+971501234567", Address: "Marina Walk"}
}

func TestOrderService_ConfirmPaymentNewOrderNeedsContact(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ConfirmPayment(context.Background(), service.ConfirmPaymentRequest{
		Customer:      domain.CustomerSnapshot{Name: "Walk-in"},
		PaymentMethod: "cash",
		Lines:         []pricing.Line{{Name: "Paper Cups", Price: pricing.Num(3), Quantity: pricing.Num(1)}},
	})
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Equal(t, 0, f.orders.Count())
}
