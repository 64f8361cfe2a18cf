package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborpm/harborpm/internal/shared"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const invoiceColumns = `id, number, tenant_id, tenant_name, property_id, property_name, property_address,
manager_id, lease_id, amount, issue_date, due_date, status, description, month, year,
markdown_path, pdf_path, paid_at, overdue_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	var propertyID, managerID, leaseID *uuid.UUID
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.TenantID.UUID, &inv.TenantName,
		&propertyID, &inv.PropertyName, &inv.PropertyAddress,
		&managerID, &leaseID,
		&inv.Amount, &inv.IssueDate, &inv.DueDate, &inv.Status, &inv.Description,
		&inv.Month, &inv.Year, &inv.MarkdownPath, &inv.PDFPath,
		&inv.PaidAt, &inv.OverdueAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.TenantID.Valid = inv.TenantID.UUID != uuid.Nil
	if propertyID != nil {
		inv.PropertyID = shared.NewRef(*propertyID)
	}
	if managerID != nil {
		inv.ManagerID = shared.NewRef(*managerID)
	}
	if leaseID != nil {
		inv.LeaseID = shared.NewRef(*leaseID)
	}
	return &inv, nil
}

// Insert stores a new invoice. A unique index on (tenant_id, month, year)
// backstops the service-level duplicate guard; violations surface as
// ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, inv Invoice) (*Invoice, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO invoices
(id, number, tenant_id, tenant_name, property_id, property_name, property_address,
 manager_id, lease_id, amount, issue_date, due_date, status, description, month, year,
 markdown_path, pdf_path, paid_at, overdue_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		inv.ID, inv.Number, inv.TenantID.UUID, inv.TenantName,
		inv.PropertyID.Ptr(), inv.PropertyName, inv.PropertyAddress,
		inv.ManagerID.Ptr(), inv.LeaseID.Ptr(),
		inv.Amount, inv.IssueDate, inv.DueDate, inv.Status, inv.Description,
		inv.Month, inv.Year, inv.MarkdownPath, inv.PDFPath,
		inv.PaidAt, inv.OverdueAt, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &inv, nil
}

// FindByID returns the invoice or (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

// FindByPeriod returns the tenant's invoice for a billing period, or (nil, nil).
func (r *Repository) FindByPeriod(ctx context.Context, tenant shared.Ref, period BillingPeriod) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices
WHERE tenant_id=$1 AND month=$2 AND year=$3`, tenant.UUID, period.Month, period.Year)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

// List returns invoices matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Tenant.Valid {
		conds = append(conds, "tenant_id="+arg(filter.Tenant.UUID))
	}
	if filter.Lease.Valid {
		conds = append(conds, "lease_id="+arg(filter.Lease.UUID))
	}
	if filter.Status != "" {
		conds = append(conds, "status="+arg(filter.Status))
	}
	if filter.PropertyIn != nil {
		ids := make([]uuid.UUID, 0, len(filter.PropertyIn))
		for _, ref := range filter.PropertyIn {
			ids = append(ids, ref.UUID)
		}
		conds = append(conds, "property_id = ANY("+arg(ids)+")")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status and transition timestamps.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, paidAt, overdueAt *time.Time, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices
SET status=$2,
    paid_at=COALESCE($3, paid_at),
    overdue_at=COALESCE($4, overdue_at),
    updated_at=$5
WHERE id=$1`, id, status, paidAt, overdueAt, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateArtifactPaths persists the rendered artifact locations.
func (r *Repository) UpdateArtifactPaths(ctx context.Context, id uuid.UUID, markdownPath, pdfPath string, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET markdown_path=$2, pdf_path=$3, updated_at=$4 WHERE id=$1`,
		id, markdownPath, pdfPath, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the invoice record, reporting whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// LeaseRepository reads leases.
type LeaseRepository struct {
	pool *pgxpool.Pool
}

// NewLeaseRepository constructs a lease reader.
func NewLeaseRepository(pool *pgxpool.Pool) *LeaseRepository {
	return &LeaseRepository{pool: pool}
}

// ListActive returns all leases with status 'active'.
func (r *LeaseRepository) ListActive(ctx context.Context) ([]Lease, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, property_id, rent_amount, start_date, end_date, status
FROM leases WHERE status=$1 ORDER BY start_date`, LeaseStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Lease
	for rows.Next() {
		var lease Lease
		var tenantID, propertyID *uuid.UUID
		var id uuid.UUID
		if err := rows.Scan(&id, &tenantID, &propertyID, &lease.RentAmount, &lease.StartDate, &lease.EndDate, &lease.Status); err != nil {
			return nil, err
		}
		lease.ID = shared.NewRef(id)
		if tenantID != nil {
			lease.TenantID = shared.NewRef(*tenantID)
		}
		if propertyID != nil {
			lease.PropertyID = shared.NewRef(*propertyID)
		}
		out = append(out, lease)
	}
	return out, rows.Err()
}

// UserRepository resolves tenant display names.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a user reader.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindTenant returns the user record or (nil, nil) when absent.
func (r *UserRepository) FindTenant(ctx context.Context, ref shared.Ref) (*Tenant, error) {
	var t Tenant
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM users WHERE id=$1`, ref.UUID).Scan(&id, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.ID = shared.NewRef(id)
	return &t, nil
}

// PropertyRepository resolves properties and manager membership.
type PropertyRepository struct {
	pool *pgxpool.Pool
}

// NewPropertyRepository constructs a property reader.
func NewPropertyRepository(pool *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{pool: pool}
}

// FindProperty returns the property record or (nil, nil) when absent.
func (r *PropertyRepository) FindProperty(ctx context.Context, ref shared.Ref) (*Property, error) {
	var p Property
	var id uuid.UUID
	var managerID *uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id, name, address, manager_id FROM properties WHERE id=$1`, ref.UUID).
		Scan(&id, &p.Name, &p.Address, &managerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.ID = shared.NewRef(id)
	if managerID != nil {
		p.ManagerID = shared.NewRef(*managerID)
	}
	return &p, nil
}

// ListByManager returns the properties a manager owns.
func (r *PropertyRepository) ListByManager(ctx context.Context, manager shared.Ref) ([]Property, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, address, manager_id FROM properties WHERE manager_id=$1`, manager.UUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Property
	for rows.Next() {
		var p Property
		var id uuid.UUID
		var managerID *uuid.UUID
		if err := rows.Scan(&id, &p.Name, &p.Address, &managerID); err != nil {
			return nil, err
		}
		p.ID = shared.NewRef(id)
		if managerID != nil {
			p.ManagerID = shared.NewRef(*managerID)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
