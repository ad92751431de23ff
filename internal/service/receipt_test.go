package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery/internal/domain"
)

func TestReceiptService_FallsBackToDeliveredQuantities(t *testing.T) {
	paidAt := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	order := &domain.Order{
		ID:                "o1",
		OrderNumber:       "ORD-1",
		Customer:          domain.CustomerSnapshot{Name: "Acme"},
		DeliveredProducts: map[string]int{"b": 1, "a": 2, "zero": 0},
		Pricing: &domain.Pricing{
			Subtotal: 10, VAT: 1.5, Total: 11.5,
			PaymentMethod: domain.PaymentMethodCash,
			PaymentStatus: domain.PaymentStatusPaid,
			PaidAt:        &paidAt,
		},
	}

	svc := NewReceiptService()
	r, err := svc.GenerateReceipt(order)
	require.NoError(t, err)
	require.Len(t, r.Lines, 2)
	assert.Equal(t, "a", r.Lines[0].Name)
	assert.Equal(t, "b", r.Lines[1].Name)
	assert.Equal(t, paidAt, r.PaidAt)
	assert.Equal(t, domain.Currency, r.Currency)

	text := svc.FormatReceipt(r)
	assert.Contains(t, text, "Order:    ORD-1")
	assert.Contains(t, text, "Jun 01, 2024 10:30 AM")
}

func TestReceiptService_UnpaidOrder(t *testing.T) {
	_, err := NewReceiptService().GenerateReceipt(&domain.Order{ID: "o1"})
	assert.ErrorIs(t, err, ErrOrderNotPaid)
}
