package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborpm/harborpm/internal/shared"
)

// Status enumerates invoice lifecycle states.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Valid reports whether s names a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// Invoice is the canonical billing record. Number is its human-readable
// identity, distinct from the repository ID.
type Invoice struct {
	ID              uuid.UUID
	Number          string
	TenantID        shared.Ref
	TenantName      string
	PropertyID      shared.Ref
	PropertyName    string
	PropertyAddress string
	ManagerID       shared.Ref
	LeaseID         shared.Ref
	Amount          decimal.Decimal
	IssueDate       time.Time
	DueDate         time.Time
	Status          Status
	Description     string
	Month           string
	Year            int
	MarkdownPath    string
	PDFPath         string
	PaidAt          *time.Time
	OverdueAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LeaseStatus values consumed by the monthly generator.
const LeaseStatusActive = "active"

// Lease supplies tenant, property and rent data. Read-only here.
type Lease struct {
	ID          shared.Ref
	TenantID    shared.Ref
	PropertyID  shared.Ref
	RentAmount  decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time
	Status      string
}

// Tenant is the user record an invoice bills.
type Tenant struct {
	ID   shared.Ref
	Name string
}

// Property carries the display fields and manager reference.
type Property struct {
	ID        shared.Ref
	Name      string
	Address   string
	ManagerID shared.Ref
}
