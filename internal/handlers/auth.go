package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/tooldesk/quoteflow/internal/auth"
	"github.com/tooldesk/quoteflow/internal/httpx"
	"github.com/tooldesk/quoteflow/internal/models"
	"github.com/tooldesk/quoteflow/internal/validation"
)

type AuthHandler struct{ DB *gorm.DB }

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

type userView struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
}

func viewOf(u *models.User) userView {
	return userView{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role.Name, Active: u.Active}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", "", nil)
		return
	}
	var user models.User
	err := h.DB.Preload("Role").Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error
	if err != nil || !user.Active || !auth.CheckPassword(user.Password, input.Password) {
		// same answer for unknown email and wrong password
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", "", nil)
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, viewOf(&user))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var user models.User
	if err := h.DB.Preload("Role").First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", "", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(&user))
}

// CreateUser provisions an account with a role. Admin only; the seeded admin
// bootstraps the first session.
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var actor models.User
	if err := h.DB.Preload("Role").First(&actor, uid).Error; err != nil || actor.Role.Name != models.RoleAdmin {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", "admin role required", nil)
		return
	}
	var input struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", "", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("email", input.Email, v)
	validation.Required("password", input.Password, v)
	validation.Required("role", input.Role, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "", v)
		return
	}
	var role models.Role
	if err := h.DB.Where("name = ?", input.Role).First(&role).Error; err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", "unknown role "+input.Role, nil)
		return
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	user := models.User{
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Password:  hash,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		RoleID:    role.ID,
		Active:    true,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.JSONError(w, http.StatusConflict, "email_already_exists", "", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
		return
	}
	user.Role = role
	httpx.JSON(w, http.StatusCreated, viewOf(&user))
}
