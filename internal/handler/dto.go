package handler

import (
	"time"

	"delivery/internal/domain"
	"delivery/internal/lifecycle"
)

// OrderResponse is the flat wire shape of an order.
type OrderResponse struct {
	ID                   string             `json:"id"`
	OrderNumber          string             `json:"order_number"`
	Status               string             `json:"status"`
	DriverID             *string            `json:"driver_id"`
	CustomerID           string             `json:"customer_id,omitempty"`
	CustomerSiteID       string             `json:"customer_site_id,omitempty"`
	CustomerName         string             `json:"customer_name"`
	CustomerPhone        string             `json:"customer_phone"`
	CustomerEmail        string             `json:"customer_email,omitempty"`
	CustomerAddress      string             `json:"customer_address"`
	Latitude             *float64           `json:"latitude"`
	Longitude            *float64           `json:"longitude"`
	DeliveryInstructions string             `json:"delivery_instructions,omitempty"`
	DeliveryZone         string             `json:"delivery_zone,omitempty"`
	Priority             string             `json:"priority"`
	Products             map[string]int     `json:"products"`
	DeliveredProducts    map[string]int     `json:"delivered_products,omitempty"`
	Items                []domain.OrderItem `json:"items,omitempty"`
	Subtotal             *float64           `json:"subtotal"`
	VAT                  *float64           `json:"vat"`
	TotalAmount          *float64           `json:"total_amount"`
	PaymentMethod        string             `json:"payment_method,omitempty"`
	PaymentStatus        string             `json:"payment_status"`
	PaidAt               *time.Time         `json:"paid_at,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	AssignedAt           *time.Time         `json:"assigned_at"`
	StartedAt            *time.Time         `json:"started_at"`
	DeliveredAt          *time.Time         `json:"delivered_at"`
	CompletedAt          *time.Time         `json:"completed_at"`
	FailureReason        *string            `json:"failure_reason"`
	FailureNote          *string            `json:"failure_note"`
	NextStatuses         []string           `json:"next_statuses"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		Status:               string(o.Status),
		DriverID:             o.DriverID,
		CustomerID:           o.Customer.ID,
		CustomerSiteID:       o.Customer.SiteID,
		CustomerName:         o.Customer.Name,
		CustomerPhone:        o.Customer.Phone,
		CustomerEmail:        o.Customer.Email,
		CustomerAddress:      o.Customer.Address,
		Latitude:             o.Customer.Latitude,
		Longitude:            o.Customer.Longitude,
		DeliveryInstructions: o.Customer.DeliveryInstructions,
		DeliveryZone:         o.DeliveryZone,
		Priority:             o.Priority,
		Products:             o.RequestedProducts,
		DeliveredProducts:    o.DeliveredProducts,
		Items:                o.Items,
		PaymentStatus:        string(domain.PaymentStatusPending),
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		AssignedAt:           o.AssignedAt,
		StartedAt:            o.StartedAt,
		DeliveredAt:          o.DeliveredAt,
		CompletedAt:          o.CompletedAt,
		FailureReason:        o.FailureReason,
		FailureNote:          o.FailureNote,
	}
	next := lifecycle.Allowed(o.Status)
	resp.NextStatuses = make([]string, 0, len(next))
	for _, s := range next {
		resp.NextStatuses = append(resp.NextStatuses, string(s))
	}
	if resp.Products == nil {
		resp.Products = map[string]int{}
	}
	if p := o.Pricing; p != nil {
		subtotal, vat, total := p.Subtotal, p.VAT, p.Total
		resp.Subtotal = &subtotal
		resp.VAT = &vat
		resp.TotalAmount = &total
		resp.PaymentMethod = string(p.PaymentMethod)
		resp.PaymentStatus = string(p.PaymentStatus)
		resp.PaidAt = p.PaidAt
	}
	return resp
}

func toOrderResponses(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

// ProductResponse is the wire shape of a catalog product.
type ProductResponse struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Price          float64      `json:"price"`
	Unit           string       `json:"unit"`
	AvailableStock domain.Stock `json:"available_stock"`
	Category       string       `json:"category"`
	ImageURL       string       `json:"image_url"`
	CustomerSiteID string       `json:"customer_site_id,omitempty"`
	IsActive       bool         `json:"is_active"`
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		Unit:           p.Unit,
		AvailableStock: p.Stock,
		Category:       p.Category,
		ImageURL:       p.ImageURL,
		CustomerSiteID: p.CustomerSiteID,
		IsActive:       p.IsActive,
	}
}

// ExpenseResponse is the wire shape of an expense claim.
type ExpenseResponse struct {
	ID             string     `json:"id"`
	RequestID      string     `json:"request_id"`
	DriverID       string     `json:"driver_id"`
	Type           string     `json:"type"`
	Amount         float64    `json:"amount"`
	Description    *string    `json:"description"`
	ReceiptImage   *string    `json:"receipt_image,omitempty"`
	Status         string     `json:"status"`
	SubmissionDate time.Time  `json:"submission_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ReviewedAt     *time.Time `json:"reviewed_at"`
	ReviewedBy     *string    `json:"reviewed_by"`
	ReviewNotes    *string    `json:"review_notes"`
}

func toExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:             e.ID,
		RequestID:      e.RequestID,
		DriverID:       e.DriverID,
		Type:           string(e.Type),
		Amount:         e.Amount,
		Description:    e.Description,
		ReceiptImage:   e.ReceiptImage,
		Status:         string(e.Status),
		SubmissionDate: e.SubmissionDate,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		ReviewedAt:     e.ReviewedAt,
		ReviewedBy:     e.ReviewedBy,
		ReviewNotes:    e.ReviewNotes,
	}
}

// ReceiptLineResponse is one line of a receipt.
type ReceiptLineResponse struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Amount    float64 `json:"amount"`
}

// ReceiptResponse is the wire shape of a receipt.
type ReceiptResponse struct {
	OrderID       string                `json:"order_id"`
	OrderNumber   string                `json:"order_number"`
	CustomerName  string                `json:"customer_name"`
	Address       string                `json:"address"`
	DriverID      string                `json:"driver_id,omitempty"`
	Lines         []ReceiptLineResponse `json:"lines"`
	Subtotal      float64               `json:"subtotal"`
	VAT           float64               `json:"vat"`
	Total         float64               `json:"total_amount"`
	Currency      string                `json:"currency"`
	PaymentMethod string                `json:"payment_method"`
	PaymentStatus string                `json:"payment_status"`
	PaidAt        time.Time             `json:"paid_at"`
	IssuedAt      time.Time             `json:"issued_at"`
}

func toReceiptResponse(r *domain.Receipt) ReceiptResponse {
	lines := make([]ReceiptLineResponse, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, ReceiptLineResponse(l))
	}
	return ReceiptResponse{
		OrderID:       r.OrderID,
		OrderNumber:   r.OrderNumber,
		CustomerName:  r.CustomerName,
		Address:       r.Address,
		DriverID:      r.DriverID,
		Lines:         lines,
		Subtotal:      r.Subtotal,
		VAT:           r.VAT,
		Total:         r.Total,
		Currency:      r.Currency,
		PaymentMethod: string(r.PaymentMethod),
		PaymentStatus: string(r.PaymentStatus),
		PaidAt:        r.PaidAt,
		IssuedAt:      r.IssuedAt,
	}
}
