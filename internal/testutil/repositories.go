// Package testutil provides in-memory repositories and helpers shared by tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"delivery/internal/domain"
	"delivery/internal/repository"
)

// ──────────────────────────────────────────────
// ORDERS
// ──────────────────────────────────────────────

// OrderStore is an in-memory repository.OrderRepository.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	UpdateStatusCallCount int32

	// Error injection.
	CreateError       error
	ListError         error
	UpdateStatusError error
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*domain.Order)}
}

// Put stores an order as-is.
func (s *OrderStore) Put(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o.Clone()
}

// Count returns the number of stored orders.
func (s *OrderStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func (s *OrderStore) Create(ctx context.Context, o *domain.Order) error {
	if s.CreateError != nil {
		return s.CreateError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orders {
		if existing.ID == o.ID || existing.OrderNumber == o.OrderNumber {
			return repository.ErrConflict
		}
	}
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return o.Clone(), nil
}

func (s *OrderStore) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	out := s.filter(filter)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *OrderStore) ListHistory(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	if len(filter.Statuses) == 0 {
		filter.Statuses = domain.TerminalOrderStatuses
	}
	out := s.filter(filter)
	finished := func(o *domain.Order) int64 {
		if o.CompletedAt != nil {
			return o.CompletedAt.UnixNano()
		}
		return o.UpdatedAt.UnixNano()
	}
	sort.Slice(out, func(i, j int) bool { return finished(out[i]) > finished(out[j]) })
	return out, nil
}

func (s *OrderStore) filter(filter repository.OrderFilter) []*domain.Order {
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = domain.ActiveOrderStatuses
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Order, 0)
	for _, o := range s.orders {
		if !containsStatus(statuses, o.Status) {
			continue
		}
		if filter.DriverID != "" && o.DriverID != nil && *o.DriverID != filter.DriverID {
			continue
		}
		out = append(out, o.Clone())
	}
	return out
}

func (s *OrderStore) UpdateStatus(ctx context.Context, o *domain.Order, expected domain.OrderStatus) error {
	atomic.AddInt32(&s.UpdateStatusCallCount, 1)
	if s.UpdateStatusError != nil {
		return s.UpdateStatusError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[o.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != expected {
		return repository.ErrStaleOrder
	}
	c := o.Clone()
	updated := stored.Clone()
	updated.Status = c.Status
	updated.DriverID = c.DriverID
	updated.UpdatedAt = c.UpdatedAt
	updated.AssignedAt = c.AssignedAt
	updated.StartedAt = c.StartedAt
	updated.DeliveredAt = c.DeliveredAt
	updated.CompletedAt = c.CompletedAt
	updated.FailureReason = c.FailureReason
	updated.FailureNote = c.FailureNote
	s.orders[o.ID] = updated
	return nil
}

func (s *OrderStore) RecordPayment(ctx context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[o.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status.Terminal() || stored.IsPaid() {
		return repository.ErrStaleOrder
	}
	c := o.Clone()
	updated := stored.Clone()
	updated.DeliveredProducts = c.DeliveredProducts
	updated.Items = c.Items
	updated.Pricing = c.Pricing
	updated.UpdatedAt = c.UpdatedAt
	s.orders[o.ID] = updated
	return nil
}

func (s *OrderStore) snapshot() map[string]*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*domain.Order, len(s.orders))
	for id, o := range s.orders {
		out[id] = o.Clone()
	}
	return out
}

func (s *OrderStore) restore(orders map[string]*domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = orders
}

func containsStatus(list []domain.OrderStatus, s domain.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// PRODUCTS
// ──────────────────────────────────────────────

// ProductStore is an in-memory repository.ProductRepository.
type ProductStore struct {
	mu       sync.RWMutex
	products []domain.Product

	ListActiveCallCount int32
	ListError           error
}

// NewProductStore creates a ProductStore seeded with products.
func NewProductStore(products ...domain.Product) *ProductStore {
	return &ProductStore{products: append([]domain.Product(nil), products...)}
}

// Stock returns the current stock of a product.
func (s *ProductStore) Stock(id string) domain.Stock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p.Stock
		}
	}
	return domain.Stock{}
}

func (s *ProductStore) ListActive(ctx context.Context, siteID string) ([]domain.Product, error) {
	atomic.AddInt32(&s.ListActiveCallCount, 1)
	if s.ListError != nil {
		return nil, s.ListError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.IsActive || (!p.Stock.Unlimited && p.Stock.Quantity <= 0) {
			continue
		}
		if siteID != "" && p.CustomerSiteID != "" && p.CustomerSiteID != siteID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *ProductStore) DecrementStock(ctx context.Context, id, name string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if (id != "" && p.ID == id) || (id == "" && p.Name == name) {
			if !p.Stock.Allows(qty) {
				return repository.ErrStockInsufficient
			}
			if !p.Stock.Unlimited {
				s.products[i].Stock.Quantity -= qty
			}
			return nil
		}
	}
	return repository.ErrStockInsufficient
}

func (s *ProductStore) snapshot() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.products...)
}

func (s *ProductStore) restore(products []domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
}

// ──────────────────────────────────────────────
// TRANSACTIONS
// ──────────────────────────────────────────────

// TxRunner serializes transactions over in-memory stores and restores both
// stores when the callback fails.
type TxRunner struct {
	mu       sync.Mutex
	Orders   *OrderStore
	Products *ProductStore

	Commits   int32
	Rollbacks int32
}

// NewTxRunner creates a TxRunner over the given stores.
func NewTxRunner(orders *OrderStore, products *ProductStore) *TxRunner {
	return &TxRunner{Orders: orders, Products: products}
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(repos repository.TxRepositories) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders := r.Orders.snapshot()
	products := r.Products.snapshot()

	if err := fn(repository.TxRepositories{Orders: r.Orders, Products: r.Products}); err != nil {
		r.Orders.restore(orders)
		r.Products.restore(products)
		atomic.AddInt32(&r.Rollbacks, 1)
		return err
	}
	atomic.AddInt32(&r.Commits, 1)
	return nil
}

// ──────────────────────────────────────────────
// EXPENSES & USERS
// ──────────────────────────────────────────────

// ExpenseStore is an in-memory repository.ExpenseRepository.
type ExpenseStore struct {
	mu       sync.RWMutex
	expenses []*domain.Expense

	CreateError error
}

// NewExpenseStore creates an empty ExpenseStore.
func NewExpenseStore() *ExpenseStore {
	return &ExpenseStore{}
}

func (s *ExpenseStore) Create(ctx context.Context, e *domain.Expense) error {
	if s.CreateError != nil {
		return s.CreateError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.expenses {
		if existing.RequestID == e.RequestID {
			return repository.ErrConflict
		}
	}
	cp := *e
	s.expenses = append(s.expenses, &cp)
	return nil
}

func (s *ExpenseStore) ListByDriver(ctx context.Context, driverID string, status domain.ExpenseStatus) ([]*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Expense, 0)
	for i := len(s.expenses) - 1; i >= 0; i-- {
		e := s.expenses[i]
		if e.DriverID != driverID || (status != "" && e.Status != status) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu    sync.RWMutex
	users []*domain.User
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrConflict
		}
	}
	cp := *u
	s.users = append(s.users, &cp)
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.ID == id })
}

func (s *UserStore) GetByIdentityID(ctx context.Context, identityID string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.IdentityID == identityID })
}

func (s *UserStore) GetAll(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *UserStore) find(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Ensure in-memory types implement repository interfaces.
var (
	_ repository.OrderRepository   = (*OrderStore)(nil)
	_ repository.ProductRepository = (*ProductStore)(nil)
	_ repository.ExpenseRepository = (*ExpenseStore)(nil)
	_ repository.UserRepository    = (*UserStore)(nil)
	_ repository.TxRunner          = (*TxRunner)(nil)
)
