package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"delivery/internal/domain"
	"delivery/internal/pricing"
	"delivery/internal/service"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// List handles GET /v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	orders, err := h.orderService.List(c.Request.Context(), service.ListOrdersRequest{
		Statuses: statuses,
		DriverID: c.Query("driver_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"orders": toOrderResponses(orders), "count": len(orders)})
}

// History handles GET /v1/orders/history
func (h *OrderHandler) History(c *gin.Context) {
	orders, err := h.orderService.History(c.Request.Context(), c.Query("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"orders": toOrderResponses(orders), "count": len(orders)})
}

// Get handles GET /v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"order": toOrderResponse(order)})
}

// CreateOrderRequest is the HTTP request body for creating an order.
type CreateOrderRequest struct {
	CustomerID           string         `json:"customer_id"`
	CustomerSiteID       string         `json:"customer_site_id"`
	CustomerName         string         `json:"customer_name"`
	CustomerPhone        string         `json:"customer_phone"`
	CustomerEmail        string         `json:"customer_email"`
	CustomerAddress      string         `json:"customer_address"`
	Latitude             *float64       `json:"latitude"`
	Longitude            *float64       `json:"longitude"`
	DeliveryInstructions string         `json:"delivery_instructions"`
	DeliveryZone         string         `json:"delivery_zone"`
	Priority             string         `json:"priority"`
	Products             map[string]int `json:"products"`
}

// Create handles POST /v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), service.CreateOrderRequest{
		Customer: domain.CustomerSnapshot{
			ID:                   req.CustomerID,
			SiteID:               req.CustomerSiteID,
			Name:                 req.CustomerName,
			Phone:                req.CustomerPhone,
			Email:                req.CustomerEmail,
			Address:              req.CustomerAddress,
			Latitude:             req.Latitude,
			Longitude:            req.Longitude,
			DeliveryInstructions: req.DeliveryInstructions,
		},
		RequestedProducts: req.Products,
		DeliveryZone:      req.DeliveryZone,
		Priority:          req.Priority,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{"order": toOrderResponse(order)})
}

// UpdateStatusRequest is the HTTP request body for a status transition.
type UpdateStatusRequest struct {
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason"`
	FailureNote   string `json:"failure_note"`
	DriverID      string `json:"driver_id"`
}

// UpdateStatus handles PUT /v1/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), service.UpdateStatusRequest{
		OrderID:       c.Param("id"),
		Status:        req.Status,
		FailureReason: req.FailureReason,
		FailureNote:   req.FailureNote,
		DriverID:      req.DriverID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"order": toOrderResponse(order)})
}

// PaymentLine is one sold product in a payment confirmation.
type PaymentLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  pricing.Numeric `json:"quantity"`
	Price     pricing.Numeric `json:"price"`
}

// ConfirmPaymentRequest is the HTTP request body for a payment confirmation.
type ConfirmPaymentRequest struct {
	OrderID              string        `json:"order_id"`
	CustomerID           string        `json:"customer_id"`
	CustomerSiteID       string        `json:"customer_site_id"`
	CustomerName         string        `json:"customer_name"`
	CustomerPhone        string        `json:"customer_phone"`
	CustomerEmail        string        `json:"customer_email"`
	CustomerAddress      string        `json:"customer_address"`
	Latitude             *float64      `json:"latitude"`
	Longitude            *float64      `json:"longitude"`
	DeliveryInstructions string        `json:"delivery_instructions"`
	DeliveryZone         string        `json:"delivery_zone"`
	Products             []PaymentLine `json:"products"`
	Subtotal             *float64      `json:"subtotal"`
	VAT                  *float64      `json:"vat"`
	TotalAmount          *float64      `json:"total_amount"`
	PaymentMethod        string        `json:"payment_method"`
}

// ConfirmedOrder is the summary returned after a payment confirmation.
type ConfirmedOrder struct {
	ID            string    `json:"id"`
	OrderNumber   string    `json:"order_number"`
	CreatedAt     time.Time `json:"created_at"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
}

// ConfirmPaymentResponse is the HTTP response for a payment confirmation.
type ConfirmPaymentResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Order   ConfirmedOrder `json:"order"`
}

// ConfirmPayment handles POST /v1/orders/confirm-payment
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	lines := make([]pricing.Line, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, pricing.Line{
			ProductID: p.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  p.Quantity,
		})
	}

	// Client totals are compared only when the total was sent. Missing
	// components are not compared.
	var totals *pricing.Totals
	if req.TotalAmount != nil {
		computed := pricing.ComputeTotals(lines)
		totals = &pricing.Totals{Subtotal: computed.Subtotal, VAT: computed.VAT, Total: *req.TotalAmount}
		if req.Subtotal != nil {
			totals.Subtotal = *req.Subtotal
		}
		if req.VAT != nil {
			totals.VAT = *req.VAT
		}
	}

	order, err := h.orderService.ConfirmPayment(c.Request.Context(), service.ConfirmPaymentRequest{
		OrderID: req.OrderID,
		Customer: domain.CustomerSnapshot{
			ID:                   req.CustomerID,
			SiteID:               req.CustomerSiteID,
			Name:                 req.CustomerName,
			Phone:                req.CustomerPhone,
			Email:                req.CustomerEmail,
			Address:              req.CustomerAddress,
			Latitude:             req.Latitude,
			Longitude:            req.Longitude,
			DeliveryInstructions: req.DeliveryInstructions,
		},
		DeliveryZone:  req.DeliveryZone,
		Lines:         lines,
		PaymentMethod: req.PaymentMethod,
		Totals:        totals,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	summary := ConfirmedOrder{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		CreatedAt:   order.CreatedAt,
		Status:      string(order.Status),
	}
	if order.Pricing != nil {
		summary.TotalAmount = order.Pricing.Total
		summary.PaymentMethod = string(order.Pricing.PaymentMethod)
	}

	respondJSON(c, http.StatusCreated, ConfirmPaymentResponse{
		Success: true,
		Message: "Payment confirmed",
		Order:   summary,
	})
}

// Receipt handles GET /v1/orders/:id/receipt
func (h *OrderHandler) Receipt(c *gin.Context) {
	result, err := h.orderService.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"receipt": toReceiptResponse(result.Receipt), "text": result.Text})
}
