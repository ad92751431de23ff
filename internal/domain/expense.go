package domain

import "time"

// ExpenseType is the category of a driver expense claim.
type ExpenseType string

const (
	ExpenseTypeFuel        ExpenseType = "Fuel"
	ExpenseTypeParking     ExpenseType = "Parking"
	ExpenseTypeToll        ExpenseType = "Toll"
	ExpenseTypeMaintenance ExpenseType = "Maintenance"
	ExpenseTypeSupplies    ExpenseType = "Supplies"
	ExpenseTypeOther       ExpenseType = "Other"
)

// Valid reports whether t is an accepted expense type.
func (t ExpenseType) Valid() bool {
	switch t {
	case ExpenseTypeFuel, ExpenseTypeParking, ExpenseTypeToll,
		ExpenseTypeMaintenance, ExpenseTypeSupplies, ExpenseTypeOther:
		return true
	}
	return false
}

// ExpenseStatus is the review state of an expense claim.
type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "pending"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusRejected ExpenseStatus = "rejected"
)

// Valid reports whether s is a known review state.
func (s ExpenseStatus) Valid() bool {
	return s == ExpenseStatusPending || s == ExpenseStatusApproved || s == ExpenseStatusRejected
}

// Expense is a reimbursement claim submitted by a driver.
// Review fields are only ever written by an external reviewer.
type Expense struct {
	ID             string
	RequestID      string
	DriverID       string
	Type           ExpenseType
	Amount         float64
	Description    *string
	ReceiptImage   *string
	Status         ExpenseStatus
	SubmissionDate time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ReviewedAt     *time.Time
	ReviewedBy     *string
	ReviewNotes    *string
}
