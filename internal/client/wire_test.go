package client_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery/internal/client"
	"delivery/internal/domain"
)

func normalize(t *testing.T, raw string) *domain.Order {
	t.Helper()
	var w client.WireOrder
	require.NoError(t, json.Unmarshal([]byte(raw), &w))
	return client.NormalizeOrder(w)
}

func TestNormalizeOrder_Flat(t *testing.T) {
	o := normalize(t, `{
		"id": "o-1",
		"order_number": "ORD-1",
		"status": "in_progress",
		"driver_id": "drv-1",
		"customer_name": "Acme",
		"customer_phone": "+971500000000",
		"customer_address": "Tower 3",
		"latitude": 25.1,
		"products": {"5L Water Bottle": 2},
		"subtotal": 10,
		"vat": 1.5,
		"total_amount": 11.5,
		"payment_method": "cash",
		"payment_status": "paid",
		"started_at": "2026-01-02T09:00:00Z",
		"failure_reason": null
	}`)

	assert.Equal(t, domain.OrderStatusInProgress, o.Status)
	require.NotNil(t, o.DriverID)
	assert.Equal(t, "drv-1", *o.DriverID)
	assert.Equal(t, "Acme", o.Customer.Name)
	require.NotNil(t, o.Customer.Latitude)
	assert.Nil(t, o.Customer.Longitude)
	assert.Equal(t, "normal", o.Priority)
	assert.Equal(t, map[string]int{"5L Water Bottle": 2}, o.RequestedProducts)
	require.NotNil(t, o.Pricing)
	assert.Equal(t, 11.5, o.Pricing.Total)
	assert.True(t, o.IsPaid())
	require.NotNil(t, o.StartedAt)
	assert.Equal(t, time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC), o.StartedAt.UTC())
	assert.Nil(t, o.FailureReason)
}

func TestNormalizeOrder_NestedWins(t *testing.T) {
	o := normalize(t, `{
		"id": "o-2",
		"status": "failed",
		"driver_id": 42,
		"customer_name": "Flat Name",
		"customer": {"name": "Nested Name", "phone": "+1", "longitude": 55.2},
		"delivery_zone": "flat-zone",
		"delivery": {"delivery_zone": "Marina", "failure_reason": "Damaged goods", "failure_note": "cracked"},
		"tracking": {"assigned_at": "2026-01-01T08:00:00Z"},
		"total_amount": 1,
		"pricing": {"subtotal": 100, "vat": 15, "total_amount": 115, "payment_method": "card"}
	}`)

	require.NotNil(t, o.DriverID)
	assert.Equal(t, "42", *o.DriverID)
	assert.Equal(t, "Nested Name", o.Customer.Name)
	assert.Equal(t, "+1", o.Customer.Phone)
	require.NotNil(t, o.Customer.Longitude)
	assert.Equal(t, 55.2, *o.Customer.Longitude)
	assert.Equal(t, "Marina", o.DeliveryZone)
	require.NotNil(t, o.FailureReason)
	assert.Equal(t, "Damaged goods", *o.FailureReason)
	require.NotNil(t, o.FailureNote)
	assert.Equal(t, "cracked", *o.FailureNote)
	require.NotNil(t, o.AssignedAt)

	require.NotNil(t, o.Pricing)
	assert.Equal(t, 115.0, o.Pricing.Total)
	assert.Equal(t, domain.PaymentMethodCard, o.Pricing.PaymentMethod)
	assert.Equal(t, domain.PaymentStatusPending, o.Pricing.PaymentStatus)
	assert.False(t, o.IsPaid())
}

func TestNormalizeOrder_LegacyCounters(t *testing.T) {
	o := normalize(t, `{
		"id": "o-3",
		"ten_litre_bottles": 2,
		"three_hundred_ml_bottles": 24,
		"one_litre_bottles": 0,
		"twenty_litre_bottles": 1
	}`)

	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Nil(t, o.DriverID)
	assert.Equal(t, map[string]int{
		"10L Water Bottle":   2,
		"300ml Water Bottle": 24,
		"20L Water Bottle":   1,
	}, o.RequestedProducts)
	assert.Nil(t, o.Pricing)
}

func TestNormalizeOrder_ProductsMapBeatsLegacy(t *testing.T) {
	o := normalize(t, `{"id": "o-4", "products": {"Water Dispenser": 1}, "five_litre_bottles": 9}`)
	assert.Equal(t, map[string]int{"Water Dispenser": 1}, o.RequestedProducts)
}

func TestNormalizeOrder_MalformedTotalsDropPricing(t *testing.T) {
	o := normalize(t, `{"id": "o-5", "subtotal": "abc", "vat": null, "total_amount": "12.00"}`)
	assert.Nil(t, o.Pricing)
}
