package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"delivery/internal/domain"
	"delivery/internal/lifecycle"
	"delivery/internal/pricing"
)

// OrderAPI is the backend's order surface.
type OrderAPI interface {
	ListOrders(ctx context.Context, driverID string, statuses ...domain.OrderStatus) ([]*domain.Order, error)
	OrderHistory(ctx context.Context, driverID string) ([]*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, t lifecycle.Transition) (*domain.Order, error)
	ConfirmPayment(ctx context.Context, req PaymentRequest) (*PaymentConfirmation, error)
}

// CatalogAPI is the backend's product catalog surface.
type CatalogAPI interface {
	ListProducts(ctx context.Context, siteID string) ([]domain.Product, error)
}

// ExpenseAPI is the backend's expense surface.
type ExpenseAPI interface {
	SubmitExpense(ctx context.Context, req ExpenseRequest) (*ExpenseReceipt, error)
	ListExpenses(ctx context.Context, driverID string, status domain.ExpenseStatus) ([]domain.Expense, error)
}

// PaymentLine is one sold product.
type PaymentLine struct {
	ProductID string  `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// PaymentRequest confirms a sale, either against an existing order or as a new one.
type PaymentRequest struct {
	OrderID              string        `json:"order_id,omitempty"`
	CustomerID           string        `json:"customer_id,omitempty"`
	CustomerSiteID       string        `json:"customer_site_id,omitempty"`
	CustomerName         string        `json:"customer_name"`
	CustomerPhone        string        `json:"customer_phone,omitempty"`
	CustomerEmail        string        `json:"customer_email,omitempty"`
	CustomerAddress      string        `json:"customer_address,omitempty"`
	Latitude             *float64      `json:"latitude,omitempty"`
	Longitude            *float64      `json:"longitude,omitempty"`
	DeliveryInstructions string        `json:"delivery_instructions,omitempty"`
	DeliveryZone         string        `json:"delivery_zone,omitempty"`
	Products             []PaymentLine `json:"products"`
	Subtotal             float64       `json:"subtotal"`
	VAT                  float64       `json:"vat"`
	TotalAmount          float64       `json:"total_amount"`
	PaymentMethod        string        `json:"payment_method"`
}

// PaymentConfirmation is the backend's summary of a confirmed sale.
type PaymentConfirmation struct {
	ID            string    `json:"id"`
	OrderNumber   string    `json:"order_number"`
	CreatedAt     time.Time `json:"created_at"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
}

// ExpenseRequest is a new expense claim.
type ExpenseRequest struct {
	DriverID     string  `json:"driver_id"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	Description  string  `json:"description,omitempty"`
	ReceiptImage string  `json:"receipt_image,omitempty"`
}

// ExpenseReceipt acknowledges a submitted expense claim.
type ExpenseReceipt struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const defaultHTTPTimeout = 30 * time.Second

// APIClient talks to the delivery backend over HTTP.
type APIClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// ClientOption configures an APIClient.
type ClientOption func(*APIClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *APIClient) { c.httpClient = h }
}

// WithToken sets the initial bearer token.
func WithToken(token string) ClientOption {
	return func(c *APIClient) { c.token = token }
}

// NewAPIClient creates a client for the backend rooted at baseURL.
func NewAPIClient(baseURL string, opts ...ClientOption) *APIClient {
	c := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token used on subsequent calls.
func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *APIClient) ListOrders(ctx context.Context, driverID string, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	q := url.Values{}
	if driverID != "" {
		q.Set("driver_id", driverID)
	}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		q.Set("status", strings.Join(names, ","))
	}
	return c.listOrders(ctx, "/v1/orders", q)
}

func (c *APIClient) OrderHistory(ctx context.Context, driverID string) ([]*domain.Order, error) {
	q := url.Values{}
	if driverID != "" {
		q.Set("driver_id", driverID)
	}
	return c.listOrders(ctx, "/v1/orders/history", q)
}

func (c *APIClient) listOrders(ctx context.Context, path string, q url.Values) ([]*domain.Order, error) {
	var resp struct {
		Orders []WireOrder `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, withQuery(path, q), nil, &resp); err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(resp.Orders))
	for _, w := range resp.Orders {
		orders = append(orders, NormalizeOrder(w))
	}
	return orders, nil
}

func (c *APIClient) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var resp struct {
		Order WireOrder `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return NormalizeOrder(resp.Order), nil
}

func (c *APIClient) UpdateOrderStatus(ctx context.Context, id string, t lifecycle.Transition) (*domain.Order, error) {
	body := map[string]string{"status": string(t.Status)}
	if t.FailureReason != "" {
		body["failure_reason"] = t.FailureReason
	}
	if t.FailureNote != "" {
		body["failure_note"] = t.FailureNote
	}
	if t.DriverID != "" {
		body["driver_id"] = t.DriverID
	}

	var resp struct {
		Order WireOrder `json:"order"`
	}
	if err := c.do(ctx, http.MethodPut, "/v1/orders/"+url.PathEscape(id)+"/status", body, &resp); err != nil {
		return nil, err
	}
	return NormalizeOrder(resp.Order), nil
}

func (c *APIClient) ConfirmPayment(ctx context.Context, req PaymentRequest) (*PaymentConfirmation, error) {
	var resp struct {
		Order PaymentConfirmation `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/orders/confirm-payment", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

func (c *APIClient) ListProducts(ctx context.Context, siteID string) ([]domain.Product, error) {
	q := url.Values{}
	if siteID != "" {
		q.Set("customer_site_id", siteID)
	}
	var resp struct {
		Data []wireProduct `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, withQuery("/v1/products", q), nil, &resp); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(resp.Data))
	for _, p := range resp.Data {
		products = append(products, p.toDomain())
	}
	return products, nil
}

func (c *APIClient) SubmitExpense(ctx context.Context, req ExpenseRequest) (*ExpenseReceipt, error) {
	var resp struct {
		Expense ExpenseReceipt `json:"expense"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/expenses", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Expense, nil
}

func (c *APIClient) ListExpenses(ctx context.Context, driverID string, status domain.ExpenseStatus) ([]domain.Expense, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	var resp struct {
		Data []struct {
			ID             string     `json:"id"`
			RequestID      string     `json:"request_id"`
			DriverID       string     `json:"driver_id"`
			Type           string     `json:"type"`
			Amount         float64    `json:"amount"`
			Description    *string    `json:"description"`
			ReceiptImage   *string    `json:"receipt_image"`
			Status         string     `json:"status"`
			SubmissionDate time.Time  `json:"submission_date"`
			CreatedAt      time.Time  `json:"created_at"`
			UpdatedAt      time.Time  `json:"updated_at"`
			ReviewedAt     *time.Time `json:"reviewed_at"`
			ReviewedBy     *string    `json:"reviewed_by"`
			ReviewNotes    *string    `json:"review_notes"`
		} `json:"data"`
	}
	path := "/v1/drivers/" + url.PathEscape(driverID) + "/expenses"
	if err := c.do(ctx, http.MethodGet, withQuery(path, q), nil, &resp); err != nil {
		return nil, err
	}
	expenses := make([]domain.Expense, 0, len(resp.Data))
	for _, e := range resp.Data {
		expenses = append(expenses, domain.Expense{
			ID:             e.ID,
			RequestID:      e.RequestID,
			DriverID:       e.DriverID,
			Type:           domain.ExpenseType(e.Type),
			Amount:         pricing.Round2(e.Amount),
			Description:    e.Description,
			ReceiptImage:   e.ReceiptImage,
			Status:         domain.ExpenseStatus(e.Status),
			SubmissionDate: e.SubmissionDate,
			CreatedAt:      e.CreatedAt,
			UpdatedAt:      e.UpdatedAt,
			ReviewedAt:     e.ReviewedAt,
			ReviewedBy:     e.ReviewedBy,
			ReviewNotes:    e.ReviewNotes,
		})
	}
	return expenses, nil
}

// do sends one request. Network failures and 5xx responses wrap ErrTransient;
// other non-2xx responses become *APIError.
func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var payload struct {
		Error   string `json:"error"`
		Code    string `json:"code"`
		Details string `json:"details"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
		}
		apiErr.Code = payload.Code
		apiErr.Details = payload.Details
	}
	return apiErr
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// Ensure APIClient implements the API interfaces.
var (
	_ OrderAPI   = (*APIClient)(nil)
	_ CatalogAPI = (*APIClient)(nil)
	_ ExpenseAPI = (*APIClient)(nil)
)
