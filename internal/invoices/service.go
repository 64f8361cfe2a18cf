package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborpm/harborpm/internal/artifacts"
	"github.com/harborpm/harborpm/internal/shared"
)

// Service handles invoice business logic: derivation, the status state
// machine, batch passes and artifact consistency. Every code path that
// returns an invoice ensures its artifacts first.
type Service struct {
	logger     *slog.Logger
	repo       RepositoryPort
	leases     LeaseReaderPort
	users      UserReaderPort
	properties PropertyReaderPort
	store      ArtifactPort
	now        func() time.Time
}

// NewService builds a Service instance.
func NewService(logger *slog.Logger, repo RepositoryPort, leases LeaseReaderPort, users UserReaderPort, properties PropertyReaderPort, store ArtifactPort) *Service {
	return &Service{
		logger:     logger,
		repo:       repo,
		leases:     leases,
		users:      users,
		properties: properties,
		store:      store,
		now:        time.Now,
	}
}

// CreateInvoiceInput carries explicit fields; anything absent is derived.
type CreateInvoiceInput struct {
	Tenant          shared.Ref
	Property        shared.Ref
	Lease           shared.Ref
	Manager         shared.Ref
	Amount          decimal.Decimal
	IssueDate       time.Time
	DueDate         time.Time
	Month           string
	Year            int
	Number          string
	Description     string
	TenantName      string
	PropertyName    string
	PropertyAddress string
}

// Batch outcome statuses.
const (
	OutcomeCreated      = "created"
	OutcomeConfirmed    = "confirmed"
	OutcomeTransitioned = "transitioned"
	OutcomeSkipped      = "skipped"
	OutcomeFailed       = "failed"
)

// BatchOutcome reports what happened to one candidate during a batch pass.
type BatchOutcome struct {
	LeaseID   string `json:"leaseId,omitempty"`
	InvoiceID string `json:"invoiceId,omitempty"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// BatchResult aggregates a batch pass.
type BatchResult struct {
	Invoices []InvoiceView  `json:"invoices"`
	Outcomes []BatchOutcome `json:"outcomes"`
}

// Create derives and stores a new invoice. Creation is idempotent per
// (tenant, month, year): when an invoice already covers the billing period
// its artifacts are refreshed and the existing record is returned.
func (s *Service) Create(ctx context.Context, input CreateInvoiceInput) (*InvoiceView, error) {
	view, _, err := s.createOrConfirm(ctx, input)
	return view, err
}

func (s *Service) createOrConfirm(ctx context.Context, input CreateInvoiceInput) (*InvoiceView, bool, error) {
	if input.Tenant.IsZero() {
		return nil, false, ErrTenantRequired
	}

	now := s.now().UTC()
	issue := input.IssueDate
	if issue.IsZero() {
		issue = now
	}
	issue = time.Date(issue.Year(), issue.Month(), issue.Day(), 0, 0, 0, 0, time.UTC)

	due := input.DueDate
	if due.IsZero() {
		due = DefaultDueDate(issue)
	}

	period := PeriodOf(issue)
	if input.Month != "" {
		period.Month = input.Month
	}
	if input.Year != 0 {
		period.Year = input.Year
	}

	existing, err := s.repo.FindByPeriod(ctx, input.Tenant, period)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		view, err := s.refresh(ctx, existing)
		return view, false, err
	}

	number := input.Number
	if number == "" {
		number = NumberFromTime(now)
	}

	tenantName := input.TenantName
	if tenantName == "" {
		tenantName = s.resolveTenantName(ctx, input.Tenant)
	}

	inv := Invoice{
		ID:              uuid.New(),
		Number:          number,
		TenantID:        input.Tenant,
		TenantName:      tenantName,
		PropertyID:      input.Property,
		PropertyName:    input.PropertyName,
		PropertyAddress: input.PropertyAddress,
		ManagerID:       input.Manager,
		LeaseID:         input.Lease,
		Amount:          input.Amount,
		IssueDate:       issue,
		DueDate:         due,
		Status:          StatusPending,
		Description:     input.Description,
		Month:           period.Month,
		Year:            period.Year,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if input.Property.Valid {
		property, err := s.properties.FindProperty(ctx, input.Property)
		if err != nil {
			return nil, false, err
		}
		if property != nil {
			if inv.PropertyName == "" {
				inv.PropertyName = property.Name
			}
			if inv.PropertyAddress == "" {
				inv.PropertyAddress = property.Address
			}
			if inv.ManagerID.IsZero() {
				inv.ManagerID = property.ManagerID
			}
		}
	}
	if inv.Description == "" {
		inv.Description = fmt.Sprintf("Monthly rent for %s %d", inv.Month, inv.Year)
	}

	inserted, err := s.repo.Insert(ctx, inv)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			// lost the check-then-act race; the unique index kept the
			// invariant, so confirm the winner instead
			winner, lookupErr := s.repo.FindByPeriod(ctx, input.Tenant, period)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			if winner != nil {
				view, refreshErr := s.refresh(ctx, winner)
				return view, false, refreshErr
			}
		}
		return nil, false, err
	}

	view, err := s.refresh(ctx, inserted)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("invoice created",
		slog.String("number", inserted.Number),
		slog.String("tenant", inserted.TenantID.String()),
		slog.String("period", period.String()))
	return view, true, nil
}

func (s *Service) resolveTenantName(ctx context.Context, ref shared.Ref) string {
	tenant, err := s.users.FindTenant(ctx, ref)
	if err != nil {
		s.logger.Warn("resolve tenant name", slog.Any("error", err))
	}
	if tenant == nil || tenant.Name == "" {
		return "Tenant"
	}
	return tenant.Name
}

// ensureArtifacts renders any missing artifact and persists the paths back
// onto the record, mutating inv in place.
func (s *Service) ensureArtifacts(ctx context.Context, inv *Invoice) error {
	res, err := s.store.Ensure(inv.Year, inv.Month, inv.Number, ComposeMarkdown(*inv))
	if err != nil {
		return err
	}
	if res.MarkdownPath == inv.MarkdownPath && res.PDFPath == inv.PDFPath {
		return nil
	}
	now := s.now().UTC()
	if err := s.repo.UpdateArtifactPaths(ctx, inv.ID, res.MarkdownPath, res.PDFPath, now); err != nil {
		return err
	}
	inv.MarkdownPath = res.MarkdownPath
	inv.PDFPath = res.PDFPath
	inv.UpdatedAt = now
	return nil
}

// refresh ensures artifacts, re-reads the record and maps it for callers.
func (s *Service) refresh(ctx context.Context, inv *Invoice) (*InvoiceView, error) {
	if err := s.ensureArtifacts(ctx, inv); err != nil {
		return nil, err
	}
	reread, err := s.repo.FindByID(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	if reread == nil {
		return nil, ErrNotFound
	}
	view := NewView(*reread)
	return &view, nil
}

// ListInvoicesRequest filters List. A manager reference is resolved into
// property membership before querying.
type ListInvoicesRequest struct {
	Tenant  shared.Ref
	Lease   shared.Ref
	Manager shared.Ref
	Status  Status
}

// List returns invoices matching the request, artifacts ensured per row.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceView, error) {
	filter := ListFilter{Tenant: req.Tenant, Lease: req.Lease, Status: req.Status}
	if req.Manager.Valid {
		propertyIDs, err := s.managerProperties(ctx, req.Manager)
		if err != nil {
			return nil, err
		}
		if len(propertyIDs) == 0 {
			return []InvoiceView{}, nil
		}
		filter.PropertyIn = propertyIDs
	}

	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]InvoiceView, 0, len(records))
	for i := range records {
		if err := s.ensureArtifacts(ctx, &records[i]); err != nil {
			return nil, err
		}
		views = append(views, NewView(records[i]))
	}
	return views, nil
}

func (s *Service) managerProperties(ctx context.Context, manager shared.Ref) ([]shared.Ref, error) {
	properties, err := s.properties.ListByManager(ctx, manager)
	if err != nil {
		return nil, err
	}
	refs := make([]shared.Ref, 0, len(properties))
	for _, p := range properties {
		refs = append(refs, p.ID)
	}
	return refs, nil
}

// GetByID returns one invoice, artifacts ensured.
func (s *Service) GetByID(ctx context.Context, ref shared.Ref) (*InvoiceView, error) {
	inv, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, inv)
}

func (s *Service) find(ctx context.Context, ref shared.Ref) (*Invoice, error) {
	if ref.IsZero() {
		return nil, ErrNotFound
	}
	inv, err := s.repo.FindByID(ctx, ref.UUID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	return inv, nil
}

// UpdateStatus drives the state machine: pending→paid, pending→overdue and
// overdue→paid. There is no way back to pending.
func (s *Service) UpdateStatus(ctx context.Context, ref shared.Ref, status Status) (*InvoiceView, error) {
	if !status.Valid() || status == StatusPending {
		return nil, ErrInvalidStatus
	}
	inv, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var paidAt, overdueAt *time.Time
	switch status {
	case StatusPaid:
		paidAt = &now
	case StatusOverdue:
		if inv.Status != StatusPending {
			return nil, ErrInvalidStatus
		}
		overdueAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, inv.ID, status, paidAt, overdueAt, now); err != nil {
		return nil, err
	}
	updated, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.logger.Info("invoice status updated",
		slog.String("number", updated.Number),
		slog.String("status", string(status)))
	return s.refresh(ctx, updated)
}

// Delete removes the record and both artifacts. Artifact removal is
// best-effort; the logical record is deleted even if a stray file remains.
func (s *Service) Delete(ctx context.Context, ref shared.Ref) (bool, error) {
	inv, err := s.find(ctx, ref)
	if err != nil {
		return false, err
	}
	s.store.Remove(inv.Year, inv.Month, inv.Number)
	return s.repo.Delete(ctx, inv.ID)
}

// GenerateMonthly creates invoices for every active lease applicable to the
// current month. Candidates are processed independently: a failing lease is
// reported in its outcome and the pass continues.
func (s *Service) GenerateMonthly(ctx context.Context, manager shared.Ref) (*BatchResult, error) {
	leases, err := s.leases.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	result := &BatchResult{Invoices: []InvoiceView{}, Outcomes: []BatchOutcome{}}
	for _, lease := range leases {
		result.Outcomes = append(result.Outcomes, s.generateForLease(ctx, lease, manager, now, result))
	}
	return result, nil
}

func (s *Service) generateForLease(ctx context.Context, lease Lease, manager shared.Ref, now time.Time, result *BatchResult) BatchOutcome {
	outcome := BatchOutcome{LeaseID: lease.ID.String()}
	if !leaseApplies(lease, now) {
		outcome.Status, outcome.Reason = OutcomeSkipped, "outside billing window"
		return outcome
	}
	if lease.TenantID.IsZero() || lease.PropertyID.IsZero() {
		outcome.Status, outcome.Reason = OutcomeSkipped, "missing tenant or property reference"
		return outcome
	}

	property, err := s.properties.FindProperty(ctx, lease.PropertyID)
	if err != nil {
		outcome.Status, outcome.Reason = OutcomeFailed, err.Error()
		return outcome
	}
	if property == nil {
		outcome.Status, outcome.Reason = OutcomeSkipped, "property not found"
		return outcome
	}
	tenant, err := s.users.FindTenant(ctx, lease.TenantID)
	if err != nil {
		outcome.Status, outcome.Reason = OutcomeFailed, err.Error()
		return outcome
	}
	if tenant == nil {
		outcome.Status, outcome.Reason = OutcomeSkipped, "tenant not found"
		return outcome
	}
	if manager.Valid && !property.ManagerID.Equal(manager) {
		outcome.Status, outcome.Reason = OutcomeSkipped, "manager mismatch"
		return outcome
	}

	view, created, err := s.createOrConfirm(ctx, CreateInvoiceInput{
		Tenant:          lease.TenantID,
		Property:        lease.PropertyID,
		Lease:           lease.ID,
		Manager:         property.ManagerID,
		Amount:          lease.RentAmount,
		TenantName:      tenant.Name,
		PropertyName:    property.Name,
		PropertyAddress: property.Address,
	})
	if err != nil {
		s.logger.Error("generate invoice for lease",
			slog.String("lease", lease.ID.String()), slog.Any("error", err))
		outcome.Status, outcome.Reason = OutcomeFailed, err.Error()
		return outcome
	}
	outcome.InvoiceID = view.ID
	if created {
		outcome.Status = OutcomeCreated
	} else {
		outcome.Status = OutcomeConfirmed
	}
	result.Invoices = append(result.Invoices, *view)
	return outcome
}

// ProcessOverdue sweeps pending invoices whose due date has passed into the
// overdue state, annotating each with whole days elapsed. Pending invoices
// not yet due are left untouched.
func (s *Service) ProcessOverdue(ctx context.Context, manager shared.Ref) (*BatchResult, error) {
	filter := ListFilter{Status: StatusPending}
	if manager.Valid {
		propertyIDs, err := s.managerProperties(ctx, manager)
		if err != nil {
			return nil, err
		}
		if len(propertyIDs) == 0 {
			return &BatchResult{Invoices: []InvoiceView{}, Outcomes: []BatchOutcome{}}, nil
		}
		filter.PropertyIn = propertyIDs
	}

	pending, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	result := &BatchResult{Invoices: []InvoiceView{}, Outcomes: []BatchOutcome{}}
	for i := range pending {
		inv := &pending[i]
		outcome := BatchOutcome{InvoiceID: inv.ID.String()}
		if !now.After(inv.DueDate) {
			outcome.Status, outcome.Reason = OutcomeSkipped, "not yet due"
			result.Outcomes = append(result.Outcomes, outcome)
			continue
		}
		overdueAt := now
		if err := s.repo.UpdateStatus(ctx, inv.ID, StatusOverdue, nil, &overdueAt, now); err != nil {
			outcome.Status, outcome.Reason = OutcomeFailed, err.Error()
			result.Outcomes = append(result.Outcomes, outcome)
			continue
		}
		updated, err := s.repo.FindByID(ctx, inv.ID)
		if err != nil || updated == nil {
			outcome.Status, outcome.Reason = OutcomeFailed, "reload after transition failed"
			result.Outcomes = append(result.Outcomes, outcome)
			continue
		}
		if err := s.ensureArtifacts(ctx, updated); err != nil {
			outcome.Status, outcome.Reason = OutcomeFailed, err.Error()
			result.Outcomes = append(result.Outcomes, outcome)
			continue
		}
		view := NewView(*updated)
		days := OverdueDays(now, updated.DueDate)
		view.OverdueDays = &days
		result.Invoices = append(result.Invoices, view)
		outcome.Status = OutcomeTransitioned
		result.Outcomes = append(result.Outcomes, outcome)
	}
	if len(result.Invoices) > 0 {
		s.logger.Info("overdue sweep", slog.Int("transitioned", len(result.Invoices)))
	}
	return result, nil
}

// Markdown returns the filename and content of the markdown artifact,
// regenerating it first if missing.
func (s *Service) Markdown(ctx context.Context, ref shared.Ref) (string, []byte, error) {
	inv, err := s.find(ctx, ref)
	if err != nil {
		return "", nil, err
	}
	if err := s.ensureArtifacts(ctx, inv); err != nil {
		return "", nil, err
	}
	data, err := s.store.Read(inv.MarkdownPath)
	if err != nil {
		return "", nil, err
	}
	return artifacts.Sanitize(inv.Number) + ".md", data, nil
}

// PDF returns the filename and bytes of the PDF artifact, regenerating it
// first if missing.
func (s *Service) PDF(ctx context.Context, ref shared.Ref) (string, []byte, error) {
	inv, err := s.find(ctx, ref)
	if err != nil {
		return "", nil, err
	}
	if err := s.ensureArtifacts(ctx, inv); err != nil {
		return "", nil, err
	}
	data, err := s.store.Read(inv.PDFPath)
	if err != nil {
		return "", nil, err
	}
	return artifacts.Sanitize(inv.Number) + ".pdf", data, nil
}
