package domain

import "time"

// PaymentMethod is how the customer settled an order.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodWallet:
		return true
	}
	return false
}

// PaymentStatus represents the settlement state of an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Currency is the display currency for every price in the system.
const Currency = "AED"

// VATRate is applied to the subtotal of every order.
const VATRate = 0.15

// Pricing is the snapshot recorded at payment confirmation.
// It is never recomputed afterwards.
type Pricing struct {
	Subtotal      float64
	VAT           float64
	Total         float64
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	PaidAt        *time.Time
}
