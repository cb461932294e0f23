package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tooldesk/quoteflow/internal/auth"
	"github.com/tooldesk/quoteflow/internal/export"
	"github.com/tooldesk/quoteflow/internal/httpx"
	"github.com/tooldesk/quoteflow/internal/models"
	"github.com/tooldesk/quoteflow/internal/services"
	"github.com/tooldesk/quoteflow/internal/validation"
	"github.com/tooldesk/quoteflow/internal/workflow"
)

type QuotationHandler struct {
	Service *services.QuotationService
}

func NewQuotationHandler(svc *services.QuotationService) *QuotationHandler {
	return &QuotationHandler{Service: svc}
}

// violations collects field-level problems before the service runs, so the
// client gets them keyed by field like the master handlers do.
func violations(in services.QuotationInput) validation.Violations {
	v := validation.Violations{}
	validation.MinInt("lead_time_days", in.LeadTimeDays, 0, v)
	validation.Percent("discount_percent", in.DiscountPercent, v)
	validation.Percent("margin_percent", in.MarginPercent, v)
	validation.Percent("vat_percent", in.VATPercent, v)
	return v
}

func (h *QuotationHandler) actor(w http.ResponseWriter, r *http.Request) (*workflow.Actor, bool) {
	uid, _ := auth.UserIDFromContext(r.Context())
	actor, err := h.Service.ActorFor(r.Context(), uid)
	if err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", "", nil)
		return nil, false
	}
	return actor, true
}

func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	f := services.ListFilter{
		Status: models.Status(r.URL.Query().Get("status")),
		Query:  searchTerm(r),
		Limit:  limit,
		Offset: offset,
	}
	if v := r.URL.Query().Get("customer_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.CustomerID = uint(n)
		}
	}
	items, total, err := h.Service.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var in services.QuotationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", "", nil)
		return
	}
	if v := violations(in); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "", v)
		return
	}
	q, err := h.Service.Create(r.Context(), actor, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *QuotationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	q, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	var in services.QuotationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", "", nil)
		return
	}
	if v := violations(in); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "", v)
		return
	}
	q, err := h.Service.Update(r.Context(), actor, id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Transition applies a workflow action (submit, engineer_approve,
// management_approve, reject, issue, revert_to_draft) to the quotation.
func (h *QuotationHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	var in struct {
		Action  string `json:"action"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", "", nil)
		return
	}
	action, err := workflow.ParseAction(in.Action)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "unknown_action", in.Action, nil)
		return
	}
	q, err := h.Service.Transition(r.Context(), actor, id, action, in.Comment)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuotationHandler) Audits(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	entries, err := h.Service.Audits(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": entries})
}

// PDF streams the quotation document rendered from the resolved snapshot.
func (h *QuotationHandler) PDF(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	data, err := export.PDF(doc)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_render_failed", "", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", doc.Number))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Excel streams the quotation cost breakdown as a workbook.
func (h *QuotationHandler) Excel(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	data, err := export.Excel(doc)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "excel_render_failed", "", nil)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", doc.Number))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *QuotationHandler) resolve(w http.ResponseWriter, r *http.Request) (*export.ResolvedQuotation, bool) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return nil, false
	}
	doc, err := h.Service.Resolve(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return doc, true
}
