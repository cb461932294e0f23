package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tooldesk/quoteflow/internal/auth"
	"github.com/tooldesk/quoteflow/internal/db"
	"github.com/tooldesk/quoteflow/internal/models"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:h_%s?mode=memory&cache=shared", t.Name())), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, m := range db.AllModels() {
		if err := dbi.AutoMigrate(m); err != nil {
			t.Fatalf("migrate %T: %v", m, err)
		}
	}
	return dbi
}

// seedUser creates a role (if needed) and a user, returning the user id.
func seedUser(t *testing.T, dbi *gorm.DB, email, password, roleName string) uint {
	t.Helper()
	var role models.Role
	if err := dbi.Where("name = ?", roleName).First(&role).Error; err != nil {
		role = models.Role{Name: roleName}
		if err := dbi.Create(&role).Error; err != nil {
			t.Fatalf("role: %v", err)
		}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := models.User{Email: email, Password: hash, RoleID: role.ID, Active: true}
	if err := dbi.Create(&u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	return u.ID
}

// jsonRequest builds an authenticated JSON request with optional path id.
func jsonRequest(t *testing.T, method, target string, uid uint, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), uid))
	}
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rr.Body.String())
	}
}

func seedMachine(t *testing.T, dbi *gorm.DB, code, rate string) models.Machine {
	t.Helper()
	m := models.Machine{Code: code, Name: code, HourlyRate: decimal.RequireFromString(rate), Active: true}
	if err := dbi.Create(&m).Error; err != nil {
		t.Fatalf("machine: %v", err)
	}
	return m
}

func seedCustomer(t *testing.T, dbi *gorm.DB, code string) models.Customer {
	t.Helper()
	c := models.Customer{Code: code, Name: code + " GmbH", Active: true}
	if err := dbi.Create(&c).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	return c
}
