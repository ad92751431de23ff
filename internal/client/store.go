package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"delivery/internal/domain"
	"delivery/internal/lifecycle"
	"delivery/internal/pricing"
)

// Store is the driver app's working state. Every status change is applied
// locally first and then sent to the backend; the backend's copy replaces
// the local one on success and the local change is undone on failure.
type Store struct {
	orders    OrderAPI
	catalog   CatalogAPI
	expenses  ExpenseAPI
	persister Persister
	now       func() time.Time

	mu            sync.Mutex
	available     []*domain.Order
	assigned      []*domain.Order
	completed     []*domain.Order
	selectedID    string
	driver        *domain.Driver
	products      []domain.Product
	cart          []domain.CartItem
	quantities    map[string]int
	paymentMethod domain.PaymentMethod
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPersister enables durable state.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) { s.persister = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store backed by the given APIs.
func NewStore(orders OrderAPI, catalog CatalogAPI, expenses ExpenseAPI, opts ...StoreOption) *Store {
	s := &Store{
		orders:        orders,
		catalog:       catalog,
		expenses:      expenses,
		now:           time.Now,
		quantities:    map[string]int{},
		paymentMethod: domain.PaymentMethodCash,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ──────────────────────────────────────────────
// LOADING
// ──────────────────────────────────────────────

// Load restores the persisted snapshot and re-fetches server-owned orders.
func (s *Store) Load(ctx context.Context) error {
	if s.persister != nil {
		snap, err := s.persister.Load(ctx)
		if err != nil {
			log.WithError(err).Warn("failed to restore client state")
		} else if snap != nil {
			s.mu.Lock()
			s.cart = snap.Cart
			s.driver = snap.Driver
			s.products = snap.Products
			s.completed = snap.CompletedOrders
			s.selectedID = snap.SelectedOrderID
			if snap.PaymentMethod.Valid() {
				s.paymentMethod = snap.PaymentMethod
			}
			s.mu.Unlock()
		}
	}
	return s.RefreshOrders(ctx)
}

// RefreshOrders replaces available and assigned orders with the backend's view.
func (s *Store) RefreshOrders(ctx context.Context) error {
	s.mu.Lock()
	driverID := s.driverIDLocked()
	s.mu.Unlock()

	orders, err := s.orders.ListOrders(ctx, driverID, domain.ActiveOrderStatuses...)
	if err != nil {
		return err
	}

	var available, assigned []*domain.Order
	for _, o := range orders {
		switch {
		case o.Status.Terminal():
			continue
		case o.DriverID == nil && o.Status == domain.OrderStatusPending && o.IsPaid():
			// Walk-in sales are settled on the spot.
			continue
		case o.DriverID == nil && o.Status == domain.OrderStatusPending:
			available = append(available, o)
		case o.DriverID == nil || driverID == "" || *o.DriverID == driverID:
			assigned = append(assigned, o)
		}
	}

	s.mu.Lock()
	s.available = available
	s.assigned = assigned
	s.mu.Unlock()
	return nil
}

// SyncHistory merges the backend's order history into completed orders.
// The backend's copy wins for orders known on both sides.
func (s *Store) SyncHistory(ctx context.Context) error {
	s.mu.Lock()
	driverID := s.driverIDLocked()
	s.mu.Unlock()

	history, err := s.orders.OrderHistory(ctx, driverID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range history {
		if i := indexOf(s.completed, o.ID); i >= 0 {
			s.completed[i] = o
		} else {
			s.completed = append(s.completed, o)
		}
	}
	s.persistLocked()
	return nil
}

// ──────────────────────────────────────────────
// ORDERS
// ──────────────────────────────────────────────

// SelectOrder marks the order the driver is working on.
func (s *Store) SelectOrder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) == nil {
		return fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	if s.selectedID != id {
		s.quantities = map[string]int{}
	}
	s.selectedID = id
	s.persistLocked()
	return nil
}

// AcceptOrder moves an available order to the driver's assigned list.
func (s *Store) AcceptOrder(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	idx := indexOf(s.available, id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: order %s is not available", ErrNotFound, id)
	}
	original := s.available[idx]
	t := lifecycle.Transition{Status: domain.OrderStatusAssigned, DriverID: s.driverIDLocked()}
	local := original.Clone()
	if err := lifecycle.Apply(local, t, s.now()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.available = append(s.available[:idx:idx], s.available[idx+1:]...)
	s.assigned = append(s.assigned, local)
	s.mu.Unlock()

	server, err := s.orders.UpdateOrderStatus(ctx, id, t)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.assigned = removeByID(s.assigned, id)
		if idx > len(s.available) {
			idx = len(s.available)
		}
		s.available = append(s.available[:idx:idx], append([]*domain.Order{original}, s.available[idx:]...)...)
		log.WithError(err).WithField("order_id", id).Warn("accept rejected by backend, reverted")
		return nil, err
	}
	s.reconcileLocked(server)
	return server.Clone(), nil
}

// UpdateOrderStatus applies a transition to an assigned order and sends it to
// the backend. Local validation failures never reach the backend.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, failureReason, failureNote string) (*domain.Order, error) {
	s.mu.Lock()
	idx := indexOf(s.assigned, id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: order %s is not assigned", ErrNotFound, id)
	}
	before := s.assigned[idx]
	t := lifecycle.Transition{Status: status, FailureReason: failureReason, FailureNote: failureNote}
	local := before.Clone()
	if err := lifecycle.Apply(local, t, s.now()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.assigned[idx] = local
	s.mu.Unlock()

	server, err := s.orders.UpdateOrderStatus(ctx, id, t)
	if err != nil {
		s.mu.Lock()
		s.replaceAssignedLocked(before)
		s.mu.Unlock()
		log.WithError(err).WithFields(log.Fields{"order_id": id, "status": status}).Warn("status change rejected by backend, reverted")

		// A conflict means the backend moved on without us.
		if errors.Is(err, ErrConflict) {
			if fresh, ferr := s.orders.GetOrder(ctx, id); ferr == nil {
				s.mu.Lock()
				s.reconcileLocked(fresh)
				s.mu.Unlock()
			}
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconcileLocked(server)
	return server.Clone(), nil
}

// CompleteOrder marks an assigned order delivered and moves it to history.
func (s *Store) CompleteOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.UpdateOrderStatus(ctx, id, domain.OrderStatusDelivered, "", "")
}

// reconcileLocked installs the backend's copy of an order. Terminal orders
// move to completed and count toward the driver's metrics.
func (s *Store) reconcileLocked(server *domain.Order) {
	if !server.Status.Terminal() {
		if i := indexOf(s.available, server.ID); i >= 0 && server.DriverID == nil && server.Status == domain.OrderStatusPending {
			s.available[i] = server
			return
		}
		s.available = removeByID(s.available, server.ID)
		s.replaceAssignedLocked(server)
		return
	}

	s.available = removeByID(s.available, server.ID)
	wasActive := indexOf(s.assigned, server.ID) >= 0
	s.assigned = removeByID(s.assigned, server.ID)
	if i := indexOf(s.completed, server.ID); i >= 0 {
		s.completed[i] = server
	} else {
		s.completed = append(s.completed, server)
	}
	if wasActive {
		s.recordMetricsLocked(server)
	}
	s.persistLocked()
}

func (s *Store) replaceAssignedLocked(o *domain.Order) {
	if i := indexOf(s.assigned, o.ID); i >= 0 {
		s.assigned[i] = o
		return
	}
	s.assigned = append(s.assigned, o)
}

func (s *Store) recordMetricsLocked(o *domain.Order) {
	if s.driver == nil {
		return
	}
	m := &s.driver.Metrics
	switch o.Status {
	case domain.OrderStatusDelivered:
		m.TotalDeliveries++
		m.CompletedDeliveries++
		if o.Pricing != nil {
			rate := m.CommissionRate
			if rate == 0 {
				rate = domain.DefaultCommissionRate
			}
			m.TotalEarnings = pricing.Round2(m.TotalEarnings + o.Pricing.Total*rate)
		}
	case domain.OrderStatusFailed:
		m.TotalDeliveries++
		m.FailedDeliveries++
	}
}

// ──────────────────────────────────────────────
// CATALOG & CART
// ──────────────────────────────────────────────

// LoadCatalog fetches the active catalog for a customer site.
func (s *Store) LoadCatalog(ctx context.Context, siteID string) ([]domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx, siteID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.persistLocked()
	return append([]domain.Product(nil), products...), nil
}

// SeedQuantities pre-fills working quantities from the selected order's request.
func (s *Store) SeedQuantities() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.findLocked(s.selectedID)
	if order == nil {
		return nil, fmt.Errorf("%w: no order selected", ErrNotFound)
	}
	s.quantities = pricing.SeedInitialQuantities(order.RequestedProducts, s.products)
	return copyQuantities(s.quantities), nil
}

// IncrementQuantity steps a working quantity up, bounded by stock.
func (s *Store) IncrementQuantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	qty := pricing.Increment(s.quantities[productID], s.stockLocked(productID))
	s.quantities[productID] = qty
	return qty
}

// DecrementQuantity steps a working quantity down, never below zero.
func (s *Store) DecrementQuantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	qty := pricing.Decrement(s.quantities[productID])
	s.quantities[productID] = qty
	return qty
}

// SetQuantity stores a typed-in working quantity clamped to stock.
func (s *Store) SetQuantity(productID string, qty int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	qty = pricing.ClampToStock(qty, s.stockLocked(productID))
	s.quantities[productID] = qty
	return qty
}

func (s *Store) stockLocked(productID string) domain.Stock {
	for _, p := range s.products {
		if p.ID == productID {
			return p.Stock
		}
	}
	return domain.LimitedStock(0)
}

// AddToCart adds qty of a product, merging with an existing line.
func (s *Store) AddToCart(product domain.Product, qty int) error {
	if strings.TrimSpace(product.ID) == "" || strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: product id and name are required", ErrValidation)
	}
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cart {
		if s.cart[i].ProductID == product.ID {
			s.cart[i].Quantity += qty
			s.persistLocked()
			return nil
		}
	}
	s.cart = append(s.cart, domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		ImageURL:  product.ImageURL,
		Price:     product.Price,
		Quantity:  qty,
		Currency:  domain.Currency,
		Type:      pricing.TypeForUnit(product.Unit),
	})
	s.persistLocked()
	return nil
}

// UpdateCartItemQuantity sets a line's quantity; zero or less removes it.
func (s *Store) UpdateCartItemQuantity(productID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if qty <= 0 {
		s.cart = removeCartLine(s.cart, productID)
	} else {
		for i := range s.cart {
			if s.cart[i].ProductID == productID {
				s.cart[i].Quantity = qty
			}
		}
	}
	s.persistLocked()
}

// RemoveFromCart drops a line.
func (s *Store) RemoveFromCart(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = removeCartLine(s.cart, productID)
	s.persistLocked()
}

// ClearCart empties the cart and working quantities.
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	s.quantities = map[string]int{}
	s.persistLocked()
}

// Checkout replaces the cart with the products picked in quantities, keyed by
// product id. A nil map uses the working quantities.
func (s *Store) Checkout(quantities map[string]int) ([]domain.CartItem, pricing.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantities == nil {
		quantities = s.quantities
	}
	items := pricing.BuildCart(s.products, quantities)
	if err := pricing.ValidateCheckout(items); err != nil {
		return nil, pricing.Totals{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	for _, short := range pricing.CheckStock(items, s.products) {
		log.WithFields(log.Fields{
			"product_id": short.ProductID,
			"requested":  short.Requested,
			"available":  short.Available,
		}).Warn("cart exceeds known stock")
	}

	s.cart = items
	s.quantities = copyQuantities(quantities)
	s.persistLocked()
	return append([]domain.CartItem(nil), items...), pricing.CartTotals(items), nil
}

// SetPaymentMethod chooses how the customer pays.
func (s *Store) SetPaymentMethod(m domain.PaymentMethod) error {
	if !m.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentMethod = m
	s.persistLocked()
	return nil
}

// Totals prices the current cart.
func (s *Store) Totals() pricing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.CartTotals(s.cart)
}

// ──────────────────────────────────────────────
// PAYMENT
// ──────────────────────────────────────────────

// ConfirmPayment sells the cart against the selected order. The cart is kept
// when the backend rejects the sale so the driver can retry.
func (s *Store) ConfirmPayment(ctx context.Context) (*PaymentConfirmation, error) {
	return s.confirm(ctx, nil)
}

// ConfirmWalkInPayment sells the cart to a customer without an existing order.
func (s *Store) ConfirmWalkInPayment(ctx context.Context, customer domain.CustomerSnapshot) (*PaymentConfirmation, error) {
	return s.confirm(ctx, &customer)
}

func (s *Store) confirm(ctx context.Context, walkIn *domain.CustomerSnapshot) (*PaymentConfirmation, error) {
	s.mu.Lock()
	if err := pricing.ValidateCheckout(s.cart); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	totals := pricing.CartTotals(s.cart)
	req := PaymentRequest{
		Subtotal:      totals.Subtotal,
		VAT:           totals.VAT,
		TotalAmount:   totals.Total,
		PaymentMethod: string(s.paymentMethod),
	}
	for _, item := range s.cart {
		if item.Quantity <= 0 {
			continue
		}
		req.Products = append(req.Products, PaymentLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	customer := walkIn
	if customer == nil {
		order := s.findLocked(s.selectedID)
		if order == nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: no order selected", ErrValidation)
		}
		if order.Status.Terminal() {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: order %s is %s", lifecycle.ErrTerminalStatus, order.ID, order.Status)
		}
		req.OrderID = order.ID
		req.DeliveryZone = order.DeliveryZone
		c := order.Customer
		customer = &c
	}
	req.CustomerID = customer.ID
	req.CustomerSiteID = customer.SiteID
	req.CustomerName = customer.Name
	req.CustomerPhone = customer.Phone
	req.CustomerEmail = customer.Email
	req.CustomerAddress = customer.Address
	req.Latitude = customer.Latitude
	req.Longitude = customer.Longitude
	req.DeliveryInstructions = customer.DeliveryInstructions
	s.mu.Unlock()

	conf, err := s.orders.ConfirmPayment(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cart = nil
	s.quantities = map[string]int{}
	s.persistLocked()
	s.mu.Unlock()

	if req.OrderID != "" {
		fresh, err := s.orders.GetOrder(ctx, req.OrderID)
		if err != nil {
			log.WithError(err).WithField("order_id", req.OrderID).Warn("failed to refresh paid order")
		} else {
			s.mu.Lock()
			s.reconcileLocked(fresh)
			s.mu.Unlock()
		}
	}
	return conf, nil
}

// ──────────────────────────────────────────────
// EXPENSES
// ──────────────────────────────────────────────

// ExpenseInput is an expense claim entered by the driver.
type ExpenseInput struct {
	Type         domain.ExpenseType
	Amount       float64
	Description  string
	ReceiptImage string
}

// SubmitExpense files a claim for the current driver.
func (s *Store) SubmitExpense(ctx context.Context, in ExpenseInput) (*ExpenseReceipt, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown expense type %q", ErrValidation, in.Type)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	s.mu.Lock()
	driverID := s.driverIDLocked()
	s.mu.Unlock()
	if driverID == "" {
		return nil, fmt.Errorf("%w: driver not initialized", ErrValidation)
	}

	return s.expenses.SubmitExpense(ctx, ExpenseRequest{
		DriverID:     driverID,
		Type:         string(in.Type),
		Amount:       pricing.Round2(in.Amount),
		Description:  strings.TrimSpace(in.Description),
		ReceiptImage: in.ReceiptImage,
	})
}

// Expenses lists the current driver's claims, optionally by review status.
func (s *Store) Expenses(ctx context.Context, status domain.ExpenseStatus) ([]domain.Expense, error) {
	s.mu.Lock()
	driverID := s.driverIDLocked()
	s.mu.Unlock()
	if driverID == "" {
		return nil, fmt.Errorf("%w: driver not initialized", ErrValidation)
	}
	return s.expenses.ListExpenses(ctx, driverID, status)
}

// ──────────────────────────────────────────────
// DRIVER
// ──────────────────────────────────────────────

// IdentityProfile is the signed-in user as reported by the identity provider.
type IdentityProfile struct {
	DriverID string
	Subject  string
	Name     string
	Email    string
	Phone    string
	ImageURL string
}

var defaultVehicle = domain.Vehicle{
	Type:        "Van",
	PlateNumber: "ABC-123",
	Model:       "Ford Transit",
	Year:        2020,
	Capacity:    1000,
}

// InitializeDriver creates the local driver profile on first sign-in. A
// profile for the same identity is kept as is.
func (s *Store) InitializeDriver(p IdentityProfile) *domain.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver != nil && s.driver.IdentityID == p.Subject {
		return cloneDriver(s.driver)
	}

	id := p.DriverID
	if id == "" {
		id = p.Subject
	}
	s.driver = &domain.Driver{
		ID:           id,
		IdentityID:   p.Subject,
		Name:         firstNonEmpty(p.Name, "Driver"),
		Email:        p.Email,
		Phone:        p.Phone,
		ProfileImage: p.ImageURL,
		Vehicle:      defaultVehicle,
		Status:       domain.DriverStatusOnline,
		Metrics:      domain.DriverMetrics{CommissionRate: domain.DefaultCommissionRate},
		JoinedAt:     s.now(),
	}
	s.persistLocked()
	return cloneDriver(s.driver)
}

// UpdateDriverStatus changes the driver's availability.
func (s *Store) UpdateDriverStatus(status domain.DriverStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown driver status %q", ErrValidation, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver == nil {
		return fmt.Errorf("%w: driver not initialized", ErrValidation)
	}
	s.driver.Status = status
	s.persistLocked()
	return nil
}

// UpdateDriverLocation records the driver's last known position.
func (s *Store) UpdateDriverLocation(latitude, longitude float64, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver == nil {
		return fmt.Errorf("%w: driver not initialized", ErrValidation)
	}
	s.driver.Location = &domain.DriverLocation{
		Latitude:  latitude,
		Longitude: longitude,
		Address:   address,
		UpdatedAt: s.now(),
	}
	s.persistLocked()
	return nil
}

// ──────────────────────────────────────────────
// GETTERS
// ──────────────────────────────────────────────

// OrderHistory returns completed orders, most recently finished first.
func (s *Store) OrderHistory() []*domain.Order {
	s.mu.Lock()
	out := cloneOrders(s.completed)
	s.mu.Unlock()

	finished := func(o *domain.Order) time.Time {
		for _, t := range []*time.Time{o.CompletedAt, o.DeliveredAt} {
			if t != nil {
				return *t
			}
		}
		return o.UpdatedAt
	}
	sort.SliceStable(out, func(i, j int) bool { return finished(out[i]).After(finished(out[j])) })
	return out
}

// AvailableOrders returns unassigned pending orders.
func (s *Store) AvailableOrders() []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrders(s.available)
}

// AssignedOrders returns the driver's active orders.
func (s *Store) AssignedOrders() []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrders(s.assigned)
}

// SelectedOrder returns the order being worked on, or nil.
func (s *Store) SelectedOrder() *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(s.selectedID).Clone()
}

// Driver returns the current driver, or nil before initialization.
func (s *Store) Driver() *domain.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDriver(s.driver)
}

// Products returns the loaded catalog.
func (s *Store) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Product(nil), s.products...)
}

// Cart returns the cart lines.
func (s *Store) Cart() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartItem(nil), s.cart...)
}

// Quantities returns the working quantities keyed by product id.
func (s *Store) Quantities() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyQuantities(s.quantities)
}

// PaymentMethod returns the chosen payment method.
func (s *Store) PaymentMethod() domain.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentMethod
}

// ──────────────────────────────────────────────
// HELPERS
// ──────────────────────────────────────────────

func (s *Store) driverIDLocked() string {
	if s.driver == nil {
		return ""
	}
	return s.driver.ID
}

func (s *Store) findLocked(id string) *domain.Order {
	if id == "" {
		return nil
	}
	for _, list := range [][]*domain.Order{s.assigned, s.available, s.completed} {
		if i := indexOf(list, id); i >= 0 {
			return list[i]
		}
	}
	return nil
}

// persistLocked saves the durable subset. Failures are logged, never returned.
func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	snap := &Snapshot{
		Cart:            append([]domain.CartItem(nil), s.cart...),
		Driver:          cloneDriver(s.driver),
		Products:        append([]domain.Product(nil), s.products...),
		CompletedOrders: cloneOrders(s.completed),
		SelectedOrderID: s.selectedID,
		PaymentMethod:   s.paymentMethod,
	}
	if err := s.persister.Save(context.Background(), snap); err != nil {
		log.WithError(err).Warn("failed to persist client state")
	}
}

func indexOf(orders []*domain.Order, id string) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func removeByID(orders []*domain.Order, id string) []*domain.Order {
	out := orders[:0:0]
	for _, o := range orders {
		if o.ID != id {
			out = append(out, o)
		}
	}
	return out
}

func removeCartLine(items []domain.CartItem, productID string) []domain.CartItem {
	var out []domain.CartItem
	for _, it := range items {
		if it.ProductID != productID {
			out = append(out, it)
		}
	}
	return out
}

func cloneOrders(orders []*domain.Order) []*domain.Order {
	out := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Clone())
	}
	return out
}

func cloneDriver(d *domain.Driver) *domain.Driver {
	if d == nil {
		return nil
	}
	c := *d
	if d.Location != nil {
		loc := *d.Location
		c.Location = &loc
	}
	return &c
}

func copyQuantities(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
