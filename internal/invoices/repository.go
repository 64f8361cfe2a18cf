package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/harborpm/harborpm/internal/artifacts"
	"github.com/harborpm/harborpm/internal/shared"
)

var (
	// ErrNotFound indicates the invoice does not exist.
	ErrNotFound = errors.New("invoices: not found")
	// ErrDuplicate indicates a second invoice for the same billing period.
	ErrDuplicate = errors.New("invoices: duplicate billing period")
	// ErrInvalidStatus indicates an unknown or disallowed status transition.
	ErrInvalidStatus = errors.New("invoices: invalid status")
	// ErrTenantRequired indicates a create call without a tenant reference.
	ErrTenantRequired = errors.New("invoices: tenant required")
)

// ListFilter narrows List queries. A manager filter is resolved by the
// service into PropertyIn before it reaches the repository.
type ListFilter struct {
	Tenant     shared.Ref
	Lease      shared.Ref
	Status     Status
	PropertyIn []shared.Ref
}

// RepositoryPort defines invoice persistence. FindByID and FindByPeriod
// return (nil, nil) when no record matches.
type RepositoryPort interface {
	Insert(ctx context.Context, inv Invoice) (*Invoice, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByPeriod(ctx context.Context, tenant shared.Ref, period BillingPeriod) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, paidAt, overdueAt *time.Time, updatedAt time.Time) error
	UpdateArtifactPaths(ctx context.Context, id uuid.UUID, markdownPath, pdfPath string, updatedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// LeaseReaderPort exposes the leases the monthly generator iterates.
type LeaseReaderPort interface {
	ListActive(ctx context.Context) ([]Lease, error)
}

// UserReaderPort resolves tenant display names.
type UserReaderPort interface {
	FindTenant(ctx context.Context, ref shared.Ref) (*Tenant, error)
}

// PropertyReaderPort resolves property display fields and manager membership.
type PropertyReaderPort interface {
	FindProperty(ctx context.Context, ref shared.Ref) (*Property, error)
	ListByManager(ctx context.Context, manager shared.Ref) ([]Property, error)
}

// ArtifactPort is the slice of the artifact store the service consumes.
type ArtifactPort interface {
	Paths(year int, month, number string) (markdownPath, pdfPath string)
	Ensure(year int, month, number, markdown string) (artifacts.Result, error)
	Remove(year int, month, number string)
	Read(path string) ([]byte, error)
}
