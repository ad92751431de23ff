package domain

import "time"

// OrderStatus represents the lifecycle state of a delivery order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusAssigned   OrderStatus = "assigned"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAssigned,
	OrderStatusInProgress,
	OrderStatusDelivered,
	OrderStatusFailed,
	OrderStatusCancelled,
}

// ActiveOrderStatuses are the statuses a driver still has work to do on.
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAssigned,
	OrderStatusInProgress,
}

// TerminalOrderStatuses are the statuses shown in delivery history.
var TerminalOrderStatuses = []OrderStatus{
	OrderStatusDelivered,
	OrderStatusFailed,
	OrderStatusCancelled,
}

// Valid reports whether s belongs to the closed status set.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusFailed || s == OrderStatusCancelled
}

// FailureReasons is the fixed list a driver picks from when a delivery fails.
var FailureReasons = []string{
	"Customer not available",
	"Wrong address provided",
	"Customer refused delivery",
	"Damaged goods",
	"Incomplete order",
	"Payment issue",
	"Weather conditions",
	"Vehicle breakdown",
	"Security restrictions",
	"Customer requested reschedule",
	"Delivery location inaccessible",
	"Customer phone unreachable",
	"Building access denied",
	"Package damaged during transport",
	"Other",
}

// IsFailureReason reports whether reason is one of FailureReasons.
func IsFailureReason(reason string) bool {
	for _, r := range FailureReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// CustomerSnapshot is the customer data captured when the order was created.
type CustomerSnapshot struct {
	ID                   string
	SiteID               string
	Name                 string
	Phone                string
	Email                string
	Address              string
	Latitude             *float64
	Longitude            *float64
	DeliveryInstructions string
}

// OrderItem is a priced line of a confirmed sale.
type OrderItem struct {
	ProductID string  `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Order represents a single customer delivery.
type Order struct {
	ID          string
	OrderNumber string
	Status      OrderStatus
	DriverID    *string
	Customer    CustomerSnapshot

	DeliveryZone string
	Priority     string

	// Product name to quantity.
	RequestedProducts map[string]int
	DeliveredProducts map[string]int
	// Priced lines recorded at payment confirmation.
	Items []OrderItem

	Pricing *Pricing

	CreatedAt   time.Time
	UpdatedAt   time.Time
	AssignedAt  *time.Time
	StartedAt   *time.Time
	DeliveredAt *time.Time
	CompletedAt *time.Time

	FailureReason *string
	FailureNote   *string
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.DriverID = cloneString(o.DriverID)
	c.Customer.Latitude = cloneFloat(o.Customer.Latitude)
	c.Customer.Longitude = cloneFloat(o.Customer.Longitude)
	c.RequestedProducts = cloneQuantities(o.RequestedProducts)
	c.DeliveredProducts = cloneQuantities(o.DeliveredProducts)
	if o.Items != nil {
		c.Items = append([]OrderItem(nil), o.Items...)
	}
	if o.Pricing != nil {
		p := *o.Pricing
		p.PaidAt = cloneTime(o.Pricing.PaidAt)
		c.Pricing = &p
	}
	c.AssignedAt = cloneTime(o.AssignedAt)
	c.StartedAt = cloneTime(o.StartedAt)
	c.DeliveredAt = cloneTime(o.DeliveredAt)
	c.CompletedAt = cloneTime(o.CompletedAt)
	c.FailureReason = cloneString(o.FailureReason)
	c.FailureNote = cloneString(o.FailureNote)
	return &c
}

// IsPaid reports whether payment confirmation has been recorded.
func (o *Order) IsPaid() bool {
	return o.Pricing != nil && o.Pricing.PaymentStatus == PaymentStatusPaid
}

func cloneQuantities(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
