package invoices

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/harborpm/harborpm/internal/platform/httpx"
	"github.com/harborpm/harborpm/internal/shared"
)

// Handler manages invoice endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices", h.createInvoice)
	r.Get("/invoices", h.listInvoices)
	r.Get("/invoices/{id}", h.getInvoice)
	r.Patch("/invoices/{id}/status", h.updateStatus)
	r.Delete("/invoices/{id}", h.deleteInvoice)

	r.Post("/invoices/generate", h.generateMonthly)
	r.Post("/invoices/process-overdue", h.processOverdue)

	r.Get("/invoices/{id}/markdown", h.downloadMarkdown)
	r.Get("/invoices/{id}/pdf", h.downloadPDF)
}

// createInvoice handles invoice creation. Creating twice for the same
// tenant and billing period returns the existing invoice with 200.
func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	input, err := req.ToInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", validationDetail(err))
		return
	}

	view, created, err := h.service.createOrConfirm(r.Context(), input)
	if err != nil {
		h.respondError(w, "create invoice", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, view)
}

// listInvoices returns invoices filtered by query parameters.
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	req, err := ParseListRequest(r.URL.Query())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	views, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}

// getInvoice returns a single invoice.
func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.pathRef(w, r)
	if !ok {
		return
	}
	view, err := h.service.GetByID(r.Context(), ref)
	if err != nil {
		h.respondError(w, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

// updateStatus applies a status transition.
func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.pathRef(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", validationDetail(err))
		return
	}

	view, err := h.service.UpdateStatus(r.Context(), ref, Status(req.Status))
	if err != nil {
		h.respondError(w, "update invoice status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

// deleteInvoice removes an invoice and its artifacts.
func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.pathRef(w, r)
	if !ok {
		return
	}
	deleted, err := h.service.Delete(r.Context(), ref)
	if err != nil {
		h.respondError(w, "delete invoice", err)
		return
	}
	if !deleted {
		httpx.Problem(w, http.StatusNotFound, "Not found", "invoice does not exist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// generateMonthly runs the monthly generation pass, optionally scoped to a
// manager via the managerId query parameter.
func (h *Handler) generateMonthly(w http.ResponseWriter, r *http.Request) {
	manager, err := shared.ParseRef(r.URL.Query().Get("managerId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "managerId: "+err.Error())
		return
	}
	result, err := h.service.GenerateMonthly(r.Context(), manager)
	if err != nil {
		h.respondError(w, "generate monthly invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// processOverdue runs the overdue sweep.
func (h *Handler) processOverdue(w http.ResponseWriter, r *http.Request) {
	manager, err := shared.ParseRef(r.URL.Query().Get("managerId"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "managerId: "+err.Error())
		return
	}
	result, err := h.service.ProcessOverdue(r.Context(), manager)
	if err != nil {
		h.respondError(w, "process overdue invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// downloadMarkdown serves the markdown artifact.
func (h *Handler) downloadMarkdown(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.pathRef(w, r)
	if !ok {
		return
	}
	filename, data, err := h.service.Markdown(r.Context(), ref)
	if err != nil {
		h.respondError(w, "download markdown", err)
		return
	}
	h.serveFile(w, filename, "text/markdown; charset=utf-8", data)
}

// downloadPDF serves the PDF artifact.
func (h *Handler) downloadPDF(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.pathRef(w, r)
	if !ok {
		return
	}
	filename, data, err := h.service.PDF(r.Context(), ref)
	if err != nil {
		h.respondError(w, "download PDF", err)
		return
	}
	h.serveFile(w, filename, "application/pdf", data)
}

func (h *Handler) serveFile(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) pathRef(w http.ResponseWriter, r *http.Request) (shared.Ref, bool) {
	ref, err := shared.ParseRef(chi.URLParam(r, "id"))
	if err != nil || !ref.Valid {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid invoice ID")
		return shared.Ref{}, false
	}
	return ref, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not found", "invoice does not exist")
	case errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid transition", err.Error())
	case errors.Is(err, ErrTenantRequired):
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate billing period", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal error", "the request could not be completed")
	}
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field() + " failed " + verrs[0].Tag() + " validation"
	}
	return err.Error()
}
