package invoices

import (
	"fmt"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/harborpm/harborpm/internal/shared"
)

var validate = validator.New()

// CreateInvoiceRequest is the JSON body for invoice creation. Only tenantId
// and amount are mandatory; everything else is derived when omitted.
type CreateInvoiceRequest struct {
	TenantID        string          `json:"tenantId" validate:"required,uuid"`
	PropertyID      string          `json:"propertyId" validate:"omitempty,uuid"`
	LeaseID         string          `json:"leaseId" validate:"omitempty,uuid"`
	ManagerID       string          `json:"managerId" validate:"omitempty,uuid"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	IssueDate       string          `json:"issueDate" validate:"omitempty,datetime=2006-01-02"`
	DueDate         string          `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Month           string          `json:"month"`
	Year            int             `json:"year" validate:"omitempty,min=2000,max=2200"`
	Number          string          `json:"number"`
	Description     string          `json:"description"`
	TenantName      string          `json:"tenantName"`
	PropertyName    string          `json:"propertyName"`
	PropertyAddress string          `json:"propertyAddress"`
}

// ToInput validates the request and converts it to service input.
func (req CreateInvoiceRequest) ToInput() (CreateInvoiceInput, error) {
	if err := validate.Struct(req); err != nil {
		return CreateInvoiceInput{}, err
	}

	input := CreateInvoiceInput{
		Amount:          req.Amount,
		Month:           req.Month,
		Year:            req.Year,
		Number:          req.Number,
		Description:     req.Description,
		TenantName:      req.TenantName,
		PropertyName:    req.PropertyName,
		PropertyAddress: req.PropertyAddress,
	}

	var err error
	if input.Tenant, err = shared.ParseRef(req.TenantID); err != nil {
		return CreateInvoiceInput{}, fmt.Errorf("tenantId: %w", err)
	}
	if input.Property, err = shared.ParseRef(req.PropertyID); err != nil {
		return CreateInvoiceInput{}, fmt.Errorf("propertyId: %w", err)
	}
	if input.Lease, err = shared.ParseRef(req.LeaseID); err != nil {
		return CreateInvoiceInput{}, fmt.Errorf("leaseId: %w", err)
	}
	if input.Manager, err = shared.ParseRef(req.ManagerID); err != nil {
		return CreateInvoiceInput{}, fmt.Errorf("managerId: %w", err)
	}
	if req.IssueDate != "" {
		if input.IssueDate, err = time.Parse(dateLayout, req.IssueDate); err != nil {
			return CreateInvoiceInput{}, fmt.Errorf("issueDate: %w", err)
		}
	}
	if req.DueDate != "" {
		if input.DueDate, err = time.Parse(dateLayout, req.DueDate); err != nil {
			return CreateInvoiceInput{}, fmt.Errorf("dueDate: %w", err)
		}
	}
	return input, nil
}

// UpdateStatusRequest is the JSON body for status transitions.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid overdue"`
}

// ParseListRequest reads list filters from query parameters.
func ParseListRequest(q url.Values) (ListInvoicesRequest, error) {
	var req ListInvoicesRequest
	var err error
	if req.Tenant, err = shared.ParseRef(q.Get("tenantId")); err != nil {
		return req, fmt.Errorf("tenantId: %w", err)
	}
	if req.Lease, err = shared.ParseRef(q.Get("leaseId")); err != nil {
		return req, fmt.Errorf("leaseId: %w", err)
	}
	if req.Manager, err = shared.ParseRef(q.Get("managerId")); err != nil {
		return req, fmt.Errorf("managerId: %w", err)
	}
	if status := q.Get("status"); status != "" {
		req.Status = Status(status)
		if !req.Status.Valid() {
			return req, ErrInvalidStatus
		}
	}
	return req, nil
}
