package invoices

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceView is the externally exposed invoice shape: repository identity
// renamed to id, reference identities stringified, and artifact URLs attached.
// The URLs are link hints for the HTTP layer, not filesystem paths.
type InvoiceView struct {
	ID              string          `json:"id"`
	Number          string          `json:"number"`
	TenantID        string          `json:"tenantId"`
	TenantName      string          `json:"tenantName"`
	PropertyID      string          `json:"propertyId,omitempty"`
	PropertyName    string          `json:"propertyName,omitempty"`
	PropertyAddress string          `json:"propertyAddress,omitempty"`
	ManagerID       string          `json:"managerId,omitempty"`
	LeaseID         string          `json:"leaseId,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	IssueDate       string          `json:"issueDate"`
	DueDate         string          `json:"dueDate"`
	Status          Status          `json:"status"`
	Description     string          `json:"description"`
	Month           string          `json:"month"`
	Year            int             `json:"year"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	OverdueAt       *time.Time      `json:"overdueAt,omitempty"`
	OverdueDays     *int            `json:"overdueDays,omitempty"`
	PDFURL          string          `json:"pdfUrl"`
	MarkdownURL     string          `json:"markdownUrl"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewView maps an internal record to its external shape.
func NewView(inv Invoice) InvoiceView {
	return InvoiceView{
		ID:              inv.ID.String(),
		Number:          inv.Number,
		TenantID:        inv.TenantID.String(),
		TenantName:      inv.TenantName,
		PropertyID:      inv.PropertyID.String(),
		PropertyName:    inv.PropertyName,
		PropertyAddress: inv.PropertyAddress,
		ManagerID:       inv.ManagerID.String(),
		LeaseID:         inv.LeaseID.String(),
		Amount:          inv.Amount,
		IssueDate:       inv.IssueDate.Format(dateLayout),
		DueDate:         inv.DueDate.Format(dateLayout),
		Status:          inv.Status,
		Description:     inv.Description,
		Month:           inv.Month,
		Year:            inv.Year,
		PaidAt:          inv.PaidAt,
		OverdueAt:       inv.OverdueAt,
		PDFURL:          fmt.Sprintf("/invoices/%s/pdf", inv.ID),
		MarkdownURL:     fmt.Sprintf("/invoices/%s/markdown", inv.ID),
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}
