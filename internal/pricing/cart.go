package pricing

import (
	"sort"
	"strings"

	"delivery/internal/domain"
)

// nameMatcher decides whether a requested product key refers to a catalog name.
type nameMatcher func(key, name string) bool

// matchers are tried in order; the first strategy that finds a key wins.
var matchers = []nameMatcher{
	func(key, name string) bool { return key == name },
	func(key, name string) bool { return strings.EqualFold(key, name) },
	func(key, name string) bool {
		k, n := strings.ToLower(key), strings.ToLower(name)
		return strings.Contains(k, n) || strings.Contains(n, k)
	},
}

// SeedInitialQuantities maps each catalog product id to the quantity the
// order requested for it. Products with no matching request get zero.
func SeedInitialQuantities(requested map[string]int, catalog []domain.Product) map[string]int {
	keys := make([]string, 0, len(requested))
	for k, qty := range requested {
		if qty > 0 && k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make(map[string]int, len(catalog))
	for _, p := range catalog {
		out[p.ID] = 0
	}

	for _, p := range catalog {
	strategies:
		for _, match := range matchers {
			for _, k := range keys {
				if match(k, p.Name) {
					out[p.ID] = requested[k]
					break strategies
				}
			}
		}
	}

	return out
}

// TypeForUnit derives the product type tag from a unit label.
func TypeForUnit(unit string) domain.ProductType {
	switch {
	case strings.Contains(unit, "10L"):
		return domain.ProductType10L
	case strings.Contains(unit, "300ml"):
		return domain.ProductType300ml
	case strings.Contains(unit, "1L"):
		return domain.ProductType1L
	case strings.Contains(unit, "20L"):
		return domain.ProductType20L
	case strings.Contains(unit, "dispenser"):
		return domain.ProductTypeDispenser
	default:
		return domain.ProductType5L
	}
}

// BuildCart turns quantities keyed by product id into cart items, keeping
// catalog order and dropping non-positive quantities.
func BuildCart(catalog []domain.Product, quantities map[string]int) []domain.CartItem {
	var items []domain.CartItem
	for _, p := range catalog {
		qty := quantities[p.ID]
		if qty <= 0 {
			continue
		}
		items = append(items, domain.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			ImageURL:  p.ImageURL,
			Price:     p.Price,
			Quantity:  qty,
			Currency:  domain.Currency,
			Type:      TypeForUnit(p.Unit),
		})
	}
	return items
}

// Increment steps qty up by one unless stock is exhausted.
func Increment(qty int, stock domain.Stock) int {
	if !stock.Unlimited && qty >= stock.Quantity {
		return qty
	}
	return qty + 1
}

// Decrement steps qty down by one, never below zero.
func Decrement(qty int) int {
	if qty <= 0 {
		return 0
	}
	return qty - 1
}

// ClampToStock bounds a typed-in quantity to [0, stock].
func ClampToStock(qty int, stock domain.Stock) int {
	if qty < 0 {
		return 0
	}
	if !stock.Unlimited && qty > stock.Quantity {
		return stock.Quantity
	}
	return qty
}

// StockShortfall is a cart line that asks for more than the catalog holds.
type StockShortfall struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

// CheckStock reports cart lines exceeding tracked stock. Unknown products and
// unlimited stock are not reported.
func CheckStock(items []domain.CartItem, catalog []domain.Product) []StockShortfall {
	byID := make(map[string]domain.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	var out []StockShortfall
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok || p.Stock.Allows(it.Quantity) {
			continue
		}
		out = append(out, StockShortfall{
			ProductID: it.ProductID,
			Name:      it.Name,
			Requested: it.Quantity,
			Available: p.Stock.Quantity,
		})
	}
	return out
}
