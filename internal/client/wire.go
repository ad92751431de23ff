package client

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"delivery/internal/domain"
	"delivery/internal/pricing"
)

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(data))
	return nil
}

func (f flexString) ptr() *string {
	if f == "" {
		return nil
	}
	s := string(f)
	return &s
}

type wireCustomer struct {
	ID                   string   `json:"id"`
	SiteID               string   `json:"site_id"`
	Name                 string   `json:"name"`
	Phone                string   `json:"phone"`
	Email                string   `json:"email"`
	Address              string   `json:"address"`
	Latitude             *float64 `json:"latitude"`
	Longitude            *float64 `json:"longitude"`
	DeliveryInstructions string   `json:"delivery_instructions"`
}

type wirePricing struct {
	Subtotal      pricing.Numeric `json:"subtotal"`
	VAT           pricing.Numeric `json:"vat"`
	TotalAmount   pricing.Numeric `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	PaidAt        *time.Time      `json:"paid_at"`
}

type wireDelivery struct {
	DeliveryZone  string     `json:"delivery_zone"`
	StartedAt     *time.Time `json:"started_at"`
	DeliveredAt   *time.Time `json:"delivered_at"`
	FailureReason string     `json:"failure_reason"`
	FailureNote   string     `json:"failure_note"`
}

type wireTracking struct {
	AssignedAt  *time.Time `json:"assigned_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// WireOrder is an order as the backend or older clients encode it: nested
// sections, flat fields, or legacy per-bottle counters.
type WireOrder struct {
	ID          string     `json:"id"`
	OrderNumber string     `json:"order_number"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DriverID    flexString `json:"driver_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Customer *wireCustomer `json:"customer"`
	Pricing  *wirePricing  `json:"pricing"`
	Delivery *wireDelivery `json:"delivery"`
	Tracking *wireTracking `json:"tracking"`

	CustomerID           string   `json:"customer_id"`
	CustomerSiteID       string   `json:"customer_site_id"`
	CustomerName         string   `json:"customer_name"`
	CustomerPhone        string   `json:"customer_phone"`
	CustomerEmail        string   `json:"customer_email"`
	CustomerAddress      string   `json:"customer_address"`
	Latitude             *float64 `json:"latitude"`
	Longitude            *float64 `json:"longitude"`
	DeliveryInstructions string   `json:"delivery_instructions"`
	DeliveryZone         string   `json:"delivery_zone"`

	Products          map[string]int     `json:"products"`
	DeliveredProducts map[string]int     `json:"delivered_products"`
	Items             []domain.OrderItem `json:"items"`

	FiveLitreBottles      int `json:"five_litre_bottles"`
	TenLitreBottles       int `json:"ten_litre_bottles"`
	ThreeHundredMLBottles int `json:"three_hundred_ml_bottles"`
	OneLitreBottles       int `json:"one_litre_bottles"`
	TwentyLitreBottles    int `json:"twenty_litre_bottles"`
	WaterDispenser        int `json:"water_dispenser"`

	Subtotal      pricing.Numeric `json:"subtotal"`
	VAT           pricing.Numeric `json:"vat"`
	TotalAmount   pricing.Numeric `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	PaidAt        *time.Time      `json:"paid_at"`

	AssignedAt    *time.Time `json:"assigned_at"`
	StartedAt     *time.Time `json:"started_at"`
	DeliveredAt   *time.Time `json:"delivered_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	FailureReason string     `json:"failure_reason"`
	FailureNote   string     `json:"failure_note"`
}

// Product names the legacy per-bottle counters stand for.
var legacyProductNames = []string{
	"5L Water Bottle",
	"10L Water Bottle",
	"300ml Water Bottle",
	"1L Water Bottle",
	"20L Water Bottle",
	"Water Dispenser",
}

func (w *WireOrder) legacyProducts() map[string]int {
	counts := []int{
		w.FiveLitreBottles,
		w.TenLitreBottles,
		w.ThreeHundredMLBottles,
		w.OneLitreBottles,
		w.TwentyLitreBottles,
		w.WaterDispenser,
	}
	var out map[string]int
	for i, n := range counts {
		if n <= 0 {
			continue
		}
		if out == nil {
			out = make(map[string]int)
		}
		out[legacyProductNames[i]] = n
	}
	return out
}

// NormalizeOrder folds every accepted wire shape into one domain.Order.
// Nested sections win over flat fields; flat products win over legacy counters.
func NormalizeOrder(w WireOrder) *domain.Order {
	o := &domain.Order{
		ID:          w.ID,
		OrderNumber: w.OrderNumber,
		Status:      domain.OrderStatus(strings.TrimSpace(w.Status)),
		DriverID:    w.DriverID.ptr(),
		Priority:    firstNonEmpty(w.Priority, "normal"),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		Customer: domain.CustomerSnapshot{
			ID:                   w.CustomerID,
			SiteID:               w.CustomerSiteID,
			Name:                 w.CustomerName,
			Phone:                w.CustomerPhone,
			Email:                w.CustomerEmail,
			Address:              w.CustomerAddress,
			Latitude:             w.Latitude,
			Longitude:            w.Longitude,
			DeliveryInstructions: w.DeliveryInstructions,
		},
		DeliveryZone:      w.DeliveryZone,
		RequestedProducts: w.Products,
		DeliveredProducts: w.DeliveredProducts,
		Items:             w.Items,
		AssignedAt:        w.AssignedAt,
		StartedAt:         w.StartedAt,
		DeliveredAt:       w.DeliveredAt,
		CompletedAt:       w.CompletedAt,
		FailureReason:     flexString(w.FailureReason).ptr(),
		FailureNote:       flexString(w.FailureNote).ptr(),
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	if len(o.RequestedProducts) == 0 {
		o.RequestedProducts = w.legacyProducts()
	}

	if c := w.Customer; c != nil {
		o.Customer.ID = firstNonEmpty(c.ID, o.Customer.ID)
		o.Customer.SiteID = firstNonEmpty(c.SiteID, o.Customer.SiteID)
		o.Customer.Name = firstNonEmpty(c.Name, o.Customer.Name)
		o.Customer.Phone = firstNonEmpty(c.Phone, o.Customer.Phone)
		o.Customer.Email = firstNonEmpty(c.Email, o.Customer.Email)
		o.Customer.Address = firstNonEmpty(c.Address, o.Customer.Address)
		o.Customer.DeliveryInstructions = firstNonEmpty(c.DeliveryInstructions, o.Customer.DeliveryInstructions)
		if c.Latitude != nil {
			o.Customer.Latitude = c.Latitude
		}
		if c.Longitude != nil {
			o.Customer.Longitude = c.Longitude
		}
	}

	if d := w.Delivery; d != nil {
		o.DeliveryZone = firstNonEmpty(d.DeliveryZone, o.DeliveryZone)
		o.StartedAt = firstTime(d.StartedAt, o.StartedAt)
		o.DeliveredAt = firstTime(d.DeliveredAt, o.DeliveredAt)
		if d.FailureReason != "" {
			o.FailureReason = flexString(d.FailureReason).ptr()
		}
		if d.FailureNote != "" {
			o.FailureNote = flexString(d.FailureNote).ptr()
		}
	}

	if t := w.Tracking; t != nil {
		o.AssignedAt = firstTime(t.AssignedAt, o.AssignedAt)
		o.StartedAt = firstTime(t.StartedAt, o.StartedAt)
		o.CompletedAt = firstTime(t.CompletedAt, o.CompletedAt)
	}

	o.Pricing = normalizePricing(w)
	return o
}

func normalizePricing(w WireOrder) *domain.Pricing {
	subtotal, vat, total := w.Subtotal, w.VAT, w.TotalAmount
	method, status, paidAt := w.PaymentMethod, w.PaymentStatus, w.PaidAt
	if p := w.Pricing; p != nil {
		if p.TotalAmount.Valid {
			subtotal, vat, total = p.Subtotal, p.VAT, p.TotalAmount
		}
		method = firstNonEmpty(p.PaymentMethod, method)
		status = firstNonEmpty(p.PaymentStatus, status)
		paidAt = firstTime(p.PaidAt, paidAt)
	}
	if !total.Valid {
		return nil
	}
	return &domain.Pricing{
		Subtotal:      subtotal.Value,
		VAT:           vat.Value,
		Total:         total.Value,
		PaymentMethod: domain.PaymentMethod(method),
		PaymentStatus: domain.PaymentStatus(firstNonEmpty(status, string(domain.PaymentStatusPending))),
		PaidAt:        paidAt,
	}
}

// wireProduct accepts the flat catalog shape and the older nested pricing block.
type wireProduct struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          pricing.Numeric `json:"price"`
	Unit           string          `json:"unit"`
	AvailableStock domain.Stock    `json:"available_stock"`
	Category       string          `json:"category"`
	ImageURL       string          `json:"image_url"`
	CustomerSiteID string          `json:"customer_site_id"`
	IsActive       *bool           `json:"is_active"`
	Pricing        *struct {
		SellingPrice pricing.Numeric `json:"selling_price"`
	} `json:"pricing"`
}

func (w wireProduct) toDomain() domain.Product {
	price := w.Price
	if !price.Valid && w.Pricing != nil {
		price = w.Pricing.SellingPrice
	}
	active := true
	if w.IsActive != nil {
		active = *w.IsActive
	}
	return domain.Product{
		ID:             w.ID,
		Name:           w.Name,
		Description:    w.Description,
		Unit:           w.Unit,
		Category:       w.Category,
		ImageURL:       w.ImageURL,
		CustomerSiteID: w.CustomerSiteID,
		Price:          price.Value,
		Stock:          w.AvailableStock,
		IsActive:       active,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstTime(values ...*time.Time) *time.Time {
	for _, v := range values {
		if v != nil && !v.IsZero() {
			return v
		}
	}
	return nil
}
