package domain

import "time"

// ReceiptLine is one delivered product on a receipt.
type ReceiptLine struct {
	Name      string
	Quantity  int
	UnitPrice float64
	Amount    float64
}

// Receipt is the printable proof of payment for a paid order.
type Receipt struct {
	OrderID       string
	OrderNumber   string
	CustomerName  string
	Address       string
	DriverID      string
	Lines         []ReceiptLine
	Subtotal      float64
	VAT           float64
	Total         float64
	Currency      string
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	PaidAt        time.Time
	IssuedAt      time.Time
}
