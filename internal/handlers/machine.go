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

type MachineHandler struct{ DB *gorm.DB }

func NewMachineHandler(db *gorm.DB) *MachineHandler { return &MachineHandler{DB: db} }

type machineInput struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	Active      *bool           `json:"active"`
}

func (in machineInput) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("code", in.Code, v)
	validation.Required("name", in.Name, v)
	validation.NonNegative("hourly_rate", in.HourlyRate, v)
	return v
}

func (h *MachineHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	dbq := h.DB.Model(&models.Machine{})
	if q := searchTerm(r); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(code) LIKE ?", like, like)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	var items []models.Machine
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

func (h *MachineHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	var m models.Machine
	if err := h.DB.First(&m, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", "", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *MachineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in machineInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", "", nil)
		return
	}
	if v := in.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "", v)
		return
	}
	m := models.Machine{
		Code:        strings.ToUpper(strings.TrimSpace(in.Code)),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		HourlyRate:  in.HourlyRate.Round(2),
		Active:      true,
	}
	if in.Active != nil {
		m.Active = *in.Active
	}
	if err := h.DB.Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.JSONError(w, http.StatusConflict, "code_already_exists", "", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

// Update edits the catalog entry only. Operations created earlier keep their
// snapshotted rate.
func (h *MachineHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	var in machineInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", "", nil)
		return
	}
	if v := in.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "", v)
		return
	}
	var m models.Machine
	if err := h.DB.First(&m, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", "", nil)
		return
	}
	m.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	m.Name = strings.TrimSpace(in.Name)
	m.Description = in.Description
	m.HourlyRate = in.HourlyRate.Round(2)
	if in.Active != nil {
		m.Active = *in.Active
	}
	if err := h.DB.Save(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.JSONError(w, http.StatusConflict, "code_already_exists", "", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *MachineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	res := h.DB.Delete(&models.Machine{}, id)
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
