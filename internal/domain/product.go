package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StockUnlimited is the wire sentinel for a product without stock tracking.
const StockUnlimited = "N/A"

// Stock is either a tracked quantity or unlimited.
type Stock struct {
	Quantity  int
	Unlimited bool
}

// LimitedStock returns a tracked stock level.
func LimitedStock(n int) Stock {
	return Stock{Quantity: n}
}

// UnlimitedStock returns a stock level that never constrains quantities.
func UnlimitedStock() Stock {
	return Stock{Unlimited: true}
}

// Allows reports whether qty units can be taken from this stock.
func (s Stock) Allows(qty int) bool {
	return s.Unlimited || qty <= s.Quantity
}

// MarshalJSON encodes unlimited stock as "N/A" and tracked stock as a number.
func (s Stock) MarshalJSON() ([]byte, error) {
	if s.Unlimited {
		return json.Marshal(StockUnlimited)
	}
	return json.Marshal(s.Quantity)
}

// UnmarshalJSON accepts a number, a numeric string, "N/A" or null.
func (s *Stock) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = UnlimitedStock()
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if strings.EqualFold(strings.TrimSpace(str), StockUnlimited) || str == "" {
			*s = UnlimitedStock()
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			return fmt.Errorf("invalid stock %q", str)
		}
		*s = LimitedStock(n)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid stock %s", string(data))
	}
	*s = LimitedStock(int(f))
	return nil
}

// Product is a catalog entry.
type Product struct {
	ID             string
	Name           string
	Description    string
	Unit           string
	Category       string
	ImageURL       string
	CustomerSiteID string
	Price          float64
	Stock          Stock
	IsActive       bool
}

// ProductType is the bottle/device tag derived from a product's unit label.
type ProductType string

const (
	ProductType5L        ProductType = "5L"
	ProductType10L       ProductType = "10L"
	ProductType300ml     ProductType = "300ml"
	ProductType1L        ProductType = "1L"
	ProductType20L       ProductType = "20L"
	ProductTypeDispenser ProductType = "dispenser"
)

// CartItem is one line of the driver's in-progress sale.
type CartItem struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	ImageURL  string      `json:"image_url,omitempty"`
	Price     float64     `json:"price"`
	Quantity  int         `json:"quantity"`
	Currency  string      `json:"currency"`
	Type      ProductType `json:"type"`
}
