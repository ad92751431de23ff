package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"delivery/internal/domain"
	"delivery/internal/pricing"
)

// ReceiptService builds payment receipts for paid orders.
type ReceiptService struct{}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService() *ReceiptService {
	return &ReceiptService{}
}

// GenerateReceipt builds a receipt from a paid order's pricing snapshot.
func (s *ReceiptService) GenerateReceipt(order *domain.Order) (*domain.Receipt, error) {
	if order == nil || !order.IsPaid() {
		return nil, ErrOrderNotPaid
	}

	lines := make([]domain.ReceiptLine, 0, len(order.Items))
	for _, it := range order.Items {
		if it.Quantity <= 0 {
			continue
		}
		lines = append(lines, domain.ReceiptLine{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Amount:    pricing.Round2(it.UnitPrice * float64(it.Quantity)),
		})
	}

	// Orders paid before priced lines were recorded only carry quantities.
	if len(lines) == 0 {
		names := make([]string, 0, len(order.DeliveredProducts))
		for name := range order.DeliveredProducts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if qty := order.DeliveredProducts[name]; qty > 0 {
				lines = append(lines, domain.ReceiptLine{Name: name, Quantity: qty})
			}
		}
	}

	receipt := &domain.Receipt{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.Customer.Name,
		Address:       order.Customer.Address,
		DriverID:      derefString(order.DriverID),
		Lines:         lines,
		Subtotal:      order.Pricing.Subtotal,
		VAT:           order.Pricing.VAT,
		Total:         order.Pricing.Total,
		Currency:      domain.Currency,
		PaymentMethod: order.Pricing.PaymentMethod,
		PaymentStatus: order.Pricing.PaymentStatus,
		IssuedAt:      time.Now(),
	}
	if order.Pricing.PaidAt != nil {
		receipt.PaidAt = *order.Pricing.PaidAt
	}
	return receipt, nil
}

// FormatReceipt formats the receipt as printable text.
func (s *ReceiptService) FormatReceipt(r *domain.Receipt) string {
	var b strings.Builder
	rule := strings.Repeat("-", 37)

	b.WriteString(strings.Repeat("=", 37) + "\n")
	b.WriteString("          PAYMENT RECEIPT\n")
	b.WriteString(strings.Repeat("=", 37) + "\n")
	fmt.Fprintf(&b, "Order:    %s\n", r.OrderNumber)
	fmt.Fprintf(&b, "Customer: %s\n", r.CustomerName)
	if r.Address != "" {
		fmt.Fprintf(&b, "Address:  %s\n", r.Address)
	}
	if !r.PaidAt.IsZero() {
		fmt.Fprintf(&b, "Date:     %s\n", r.PaidAt.Format("Jan 02, 2006 3:04 PM"))
	}

	b.WriteString("\nITEMS\n" + rule + "\n")
	for _, l := range r.Lines {
		if l.UnitPrice > 0 {
			fmt.Fprintf(&b, "%-20s %3d x %7.2f\n", l.Name, l.Quantity, l.UnitPrice)
		} else {
			fmt.Fprintf(&b, "%-20s %3d\n", l.Name, l.Quantity)
		}
	}

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Subtotal:        %s %8.2f\n", r.Currency, r.Subtotal)
	fmt.Fprintf(&b, "VAT (15%%):       %s %8.2f\n", r.Currency, r.VAT)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "TOTAL:           %s %8.2f\n", r.Currency, r.Total)

	b.WriteString("\nPAYMENT\n" + rule + "\n")
	fmt.Fprintf(&b, "Method: %s\n", r.PaymentMethod)
	fmt.Fprintf(&b, "Status: %s\n", r.PaymentStatus)
	b.WriteString(strings.Repeat("=", 37) + "\n")

	return b.String()
}
