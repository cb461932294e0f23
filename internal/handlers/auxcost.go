package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tooldesk/quoteflow/internal/httpx"
	"github.com/tooldesk/quoteflow/internal/models"
	"github.com/tooldesk/quoteflow/internal/validation"
)

// AuxCostTypeHandler manages the catalog of non-machine cost kinds. Lines
// copy the default amount when created and never look back here.
type AuxCostTypeHandler struct{ DB *gorm.DB }

func NewAuxCostTypeHandler(db *gorm.DB) *AuxCostTypeHandler { return &AuxCostTypeHandler{DB: db} }

type auxCostTypeInput struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	DefaultAmount decimal.Decimal `json:"default_amount"`
	Active        *bool           `json:"active"`
}

func (in auxCostTypeInput) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("code", in.Code, v)
	validation.Required("name", in.Name, v)
	validation.NonNegative("default_amount", in.DefaultAmount, v)
	return v
}

func (in auxCostTypeInput) apply(t *models.AuxiliaryCostType) {
	t.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	t.Name = strings.TrimSpace(in.Name)
	t.Description = in.Description
	t.DefaultAmount = in.DefaultAmount.Round(2)
	if in.Active != nil {
		t.Active = *in.Active
	}
}

func (h *AuxCostTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	dbq := h.DB.Model(&models.AuxiliaryCostType{})
	if q := searchTerm(r); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(code) LIKE ?", like, like)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	var items []models.AuxiliaryCostType
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

func (h *AuxCostTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	var t models.AuxiliaryCostType
	if err := h.DB.First(&t, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", "", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *AuxCostTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in auxCostTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", "", nil)
		return
	}
	if v := in.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "", v)
		return
	}
	t := models.AuxiliaryCostType{Active: true}
	in.apply(&t)
	if err := h.DB.Create(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.JSONError(w, http.StatusConflict, "code_already_exists", "", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *AuxCostTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	var in auxCostTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", "", nil)
		return
	}
	if v := in.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "", v)
		return
	}
	var t models.AuxiliaryCostType
	if err := h.DB.First(&t, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", "", nil)
		return
	}
	in.apply(&t)
	if err := h.DB.Save(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.JSONError(w, http.StatusConflict, "code_already_exists", "", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *AuxCostTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	res := h.DB.Delete(&models.AuxiliaryCostType{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", "", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
