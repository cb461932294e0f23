package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/tooldesk/quoteflow/internal/httpx"
	"github.com/tooldesk/quoteflow/internal/models"
	"github.com/tooldesk/quoteflow/internal/validation"
)

type CustomerHandler struct{ DB *gorm.DB }

func NewCustomerHandler(db *gorm.DB) *CustomerHandler { return &CustomerHandler{DB: db} }

type customerInput struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	AddressLine1  string `json:"address_line1"`
	AddressLine2  string `json:"address_line2"`
	PostalCode    string `json:"postal_code"`
	City          string `json:"city"`
	Country       string `json:"country"`
	TaxNumber     string `json:"tax_number"`
	Active        *bool  `json:"active"`
}

func (in customerInput) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("code", in.Code, v)
	validation.Required("name", in.Name, v)
	return v
}

func (in customerInput) apply(c *models.Customer) {
	c.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	c.Name = strings.TrimSpace(in.Name)
	c.ContactPerson = in.ContactPerson
	c.Email = in.Email
	c.Phone = in.Phone
	c.AddressLine1 = in.AddressLine1
	c.AddressLine2 = in.AddressLine2
	c.PostalCode = in.PostalCode
	c.City = in.City
	c.Country = in.Country
	c.TaxNumber = in.TaxNumber
	if in.Active != nil {
		c.Active = *in.Active
	}
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	dbq := h.DB.Model(&models.Customer{})
	if q := searchTerm(r); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(code) LIKE ?", like, like)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	var items []models.Customer
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	var c models.Customer
	if err := h.DB.First(&c, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", "", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in customerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", "", nil)
		return
	}
	if v := in.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "", v)
		return
	}
	c := models.Customer{Active: true}
	in.apply(&c)
	if err := h.DB.Create(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.JSONError(w, http.StatusConflict, "code_already_exists", "", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	var in customerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", "", nil)
		return
	}
	if v := in.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "", v)
		return
	}
	var c models.Customer
	if err := h.DB.First(&c, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", "", nil)
		return
	}
	in.apply(&c)
	if err := h.DB.Save(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.JSONError(w, http.StatusConflict, "code_already_exists", "", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Delete soft-deletes the customer. Existing quotations keep their reference;
// new quotations can no longer pick it.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", "", nil)
		return
	}
	res := h.DB.Delete(&models.Customer{}, id)
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
