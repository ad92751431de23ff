// Package pricing reconciles a driver's cart against the catalog and
// computes order totals. It is used by both the backend and the client.
package pricing

import (
	"errors"
	"math"

	log "github.com/sirupsen/logrus"

	"delivery/internal/domain"
)

// ErrEmptyCart is returned when a checkout has no line with a positive quantity.
var ErrEmptyCart = errors.New("cart has no items")

// Line is a priced quantity as submitted by a caller.
type Line struct {
	ProductID string  `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Price     Numeric `json:"price"`
	Quantity  Numeric `json:"quantity"`
}

// Totals is the result of ComputeTotals.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	VAT      float64 `json:"vat"`
	Total    float64 `json:"total"`
	// Skipped counts lines dropped because price or quantity was malformed.
	Skipped int `json:"-"`
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals sums price × quantity over lines with a positive quantity and
// applies VAT. Malformed lines are logged and skipped.
func ComputeTotals(lines []Line) Totals {
	var (
		subtotal float64
		skipped  int
	)

	for _, l := range lines {
		if !l.Price.Valid || !l.Quantity.Valid {
			log.WithFields(log.Fields{
				"product_id": l.ProductID,
				"name":       l.Name,
			}).Warn("skipping cart line with non-numeric price or quantity")
			skipped++
			continue
		}
		if l.Quantity.Value <= 0 {
			continue
		}
		subtotal += l.Price.Value * l.Quantity.Value
	}

	subtotal = Round2(subtotal)
	vat := Round2(subtotal * domain.VATRate)
	return Totals{
		Subtotal: subtotal,
		VAT:      vat,
		Total:    Round2(subtotal + vat),
		Skipped:  skipped,
	}
}

// LinesFromCart converts cart items into pricing lines.
func LinesFromCart(items []domain.CartItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     Num(it.Price),
			Quantity:  Num(float64(it.Quantity)),
		})
	}
	return lines
}

// CartTotals is ComputeTotals over cart items.
func CartTotals(items []domain.CartItem) Totals {
	return ComputeTotals(LinesFromCart(items))
}

// ValidateCheckout rejects a cart without any positive line.
func ValidateCheckout(items []domain.CartItem) error {
	for _, it := range items {
		if it.Quantity > 0 {
			return nil
		}
	}
	return ErrEmptyCart
}

// TotalsMatch reports whether two totals agree within a cent.
func TotalsMatch(a, b Totals) bool {
	const tolerance = 0.01 + 1e-9
	return math.Abs(a.Subtotal-b.Subtotal) <= tolerance &&
		math.Abs(a.VAT-b.VAT) <= tolerance &&
		math.Abs(a.Total-b.Total) <= tolerance
}
