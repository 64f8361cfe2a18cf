package invoices

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/harborpm/harborpm/internal/shared"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func newTestRouter(t *testing.T) (*chi.Mux, *serviceFixture) {
	t.Helper()
	f := newFixture(t)
	handler := NewHandler(f.service.logger, f.service)
	router := chi.NewRouter()
	handler.MountRoutes(router)
	return router, f
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateInvoice(t *testing.T) {
	router, f := newTestRouter(t)
	tenant := f.addTenant("Ada Lovelace")

	rec := doJSON(t, router, http.MethodPost, "/invoices", map[string]any{
		"tenantId": tenant.String(),
		"amount":   "1450.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var view InvoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "Ada Lovelace", view.TenantName)
	require.Equal(t, StatusPending, view.Status)

	// same period again returns the existing invoice
	rec = doJSON(t, router, http.MethodPost, "/invoices", map[string]any{
		"tenantId": tenant.String(),
		"amount":   "1450.00",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var again InvoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	require.Equal(t, view.ID, again.ID)
}

func TestHandlerCreateInvoiceValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/invoices", map[string]any{"amount": "100"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/invoices", map[string]any{
		"tenantId": "not-a-uuid",
		"amount":   "100",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerGetInvoice(t *testing.T) {
	router, f := newTestRouter(t)
	tenant := f.addTenant("Ada Lovelace")

	rec := doJSON(t, router, http.MethodPost, "/invoices", map[string]any{
		"tenantId": tenant.String(),
		"amount":   "1450.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var view InvoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	rec = doJSON(t, router, http.MethodGet, "/invoices/"+view.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/invoices/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/invoices/nope", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerListInvoices(t *testing.T) {
	router, f := newTestRouter(t)
	tenant := f.addTenant("Ada Lovelace")

	rec := doJSON(t, router, http.MethodPost, "/invoices", map[string]any{
		"tenantId": tenant.String(),
		"amount":   "1450.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/invoices?tenantId="+tenant.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []InvoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)

	rec = doJSON(t, router, http.MethodGet, "/invoices?status=bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdateStatus(t *testing.T) {
	router, f := newTestRouter(t)
	tenant := f.addTenant("Ada Lovelace")

	rec := doJSON(t, router, http.MethodPost, "/invoices", map[string]any{
		"tenantId": tenant.String(),
		"amount":   "1450.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var view InvoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	rec = doJSON(t, router, http.MethodPatch, "/invoices/"+view.ID+"/status", map[string]string{"status": "paid"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated InvoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, StatusPaid, updated.Status)
	require.NotNil(t, updated.PaidAt)

	rec = doJSON(t, router, http.MethodPatch, "/invoices/"+view.ID+"/status", map[string]string{"status": "overdue"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, "/invoices/"+view.ID+"/status", map[string]string{"status": "void"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerDeleteInvoice(t *testing.T) {
	router, f := newTestRouter(t)
	tenant := f.addTenant("Ada Lovelace")

	rec := doJSON(t, router, http.MethodPost, "/invoices", map[string]any{
		"tenantId": tenant.String(),
		"amount":   "1450.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var view InvoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	rec = doJSON(t, router, http.MethodDelete, "/invoices/"+view.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/invoices/"+view.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerGenerateMonthly(t *testing.T) {
	router, f := newTestRouter(t)
	manager := shared.NewRef(uuid.New())
	tenant := f.addTenant("Ada Lovelace")
	property := f.addProperty("Harbor View", "12 Pier Road", manager)
	f.leases.leases = []Lease{{
		ID:         shared.NewRef(uuid.New()),
		TenantID:   tenant,
		PropertyID: property,
		RentAmount: mustDecimal(t, "1450.00"),
		StartDate:  f.now.AddDate(-1, 0, 0),
		Status:     LeaseStatusActive,
	}}

	rec := doJSON(t, router, http.MethodPost, "/invoices/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Invoices, 1)
	require.Equal(t, OutcomeCreated, result.Outcomes[0].Status)

	rec = doJSON(t, router, http.MethodPost, "/invoices/generate?managerId=junk", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerProcessOverdue(t *testing.T) {
	router, f := newTestRouter(t)
	tenant := f.addTenant("Ada Lovelace")

	rec := doJSON(t, router, http.MethodPost, "/invoices", map[string]any{
		"tenantId": tenant.String(),
		"amount":   "1450.00",
		"dueDate":  "2024-03-05",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/invoices/process-overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Invoices, 1)
	require.Equal(t, StatusOverdue, result.Invoices[0].Status)
}

func TestHandlerDownloads(t *testing.T) {
	router, f := newTestRouter(t)
	tenant := f.addTenant("Ada Lovelace")

	rec := doJSON(t, router, http.MethodPost, "/invoices", map[string]any{
		"tenantId": tenant.String(),
		"amount":   "1450.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var view InvoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	rec = doJSON(t, router, http.MethodGet, "/invoices/"+view.ID+"/markdown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), view.Number+".md")
	require.Contains(t, rec.Body.String(), "# RENT INVOICE")

	rec = doJSON(t, router, http.MethodGet, "/invoices/"+view.ID+"/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Equal(t, "%PDF-", rec.Body.String()[:5])

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/invoices/%s/pdf", uuid.NewString()), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
