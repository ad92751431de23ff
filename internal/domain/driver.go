package domain

import "time"

// DriverStatus represents the availability of a driver.
type DriverStatus string

const (
	DriverStatusOnline      DriverStatus = "online"
	DriverStatusOffline     DriverStatus = "offline"
	DriverStatusBusy        DriverStatus = "busy"
	DriverStatusUnavailable DriverStatus = "unavailable"
)

// Valid reports whether s is a known driver status.
func (s DriverStatus) Valid() bool {
	switch s {
	case DriverStatusOnline, DriverStatusOffline, DriverStatusBusy, DriverStatusUnavailable:
		return true
	}
	return false
}

// DefaultCommissionRate is the share of each delivery credited to the driver.
const DefaultCommissionRate = 0.15

// Vehicle describes the van a driver is using.
type Vehicle struct {
	Type        string  `json:"type"`
	PlateNumber string  `json:"plate_number"`
	Model       string  `json:"model"`
	Year        int     `json:"year"`
	Capacity    float64 `json:"capacity"`
}

// DriverLocation is the last reported position of a driver.
type DriverLocation struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Address   string    `json:"address,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DriverMetrics tracks delivery counters for the current driver.
type DriverMetrics struct {
	TotalDeliveries     int     `json:"total_deliveries"`
	CompletedDeliveries int     `json:"completed_deliveries"`
	FailedDeliveries    int     `json:"failed_deliveries"`
	TotalEarnings       float64 `json:"total_earnings"`
	CommissionRate      float64 `json:"commission_rate"`
}

// Driver is the signed-in delivery driver.
type Driver struct {
	ID           string          `json:"id"`
	IdentityID   string          `json:"identity_id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone,omitempty"`
	ProfileImage string          `json:"profile_image,omitempty"`
	Vehicle      Vehicle         `json:"vehicle"`
	Status       DriverStatus    `json:"status"`
	Location     *DriverLocation `json:"location,omitempty"`
	Metrics      DriverMetrics   `json:"metrics"`
	JoinedAt     time.Time       `json:"joined_at"`
}
