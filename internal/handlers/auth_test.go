package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tooldesk/quoteflow/internal/models"
)

func TestLoginSetsSessionCookie(t *testing.T) {
	dbi := setupHandlerDB(t)
	seedUser(t, dbi, "sales@test", "secret", models.RoleSales)
	h := NewAuthHandler(dbi)

	rr := httptest.NewRecorder()
	h.Login(rr, jsonRequest(t, http.MethodPost, "/api/login", 0, map[string]string{
		"email": "sales@test", "password": "wrong",
	}))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Login(rr, jsonRequest(t, http.MethodPost, "/api/login", 0, map[string]string{
		"email": "sales@test", "password": "secret",
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	var hasSession bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			hasSession = true
		}
	}
	if !hasSession {
		t.Fatalf("no session cookie set")
	}
	var u userView
	decodeBody(t, rr, &u)
	if u.Role != models.RoleSales {
		t.Fatalf("user view: %+v", u)
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	dbi := setupHandlerDB(t)
	uid := seedUser(t, dbi, "sales@test", "secret", models.RoleSales)
	if err := dbi.Model(&models.User{}).Where("id = ?", uid).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	h := NewAuthHandler(dbi)

	rr := httptest.NewRecorder()
	h.Login(rr, jsonRequest(t, http.MethodPost, "/api/login", 0, map[string]string{
		"email": "sales@test", "password": "secret",
	}))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("inactive login: %d", rr.Code)
	}
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	dbi := setupHandlerDB(t)
	admin := seedUser(t, dbi, "admin@test", "pw", models.RoleAdmin)
	sales := seedUser(t, dbi, "sales@test", "pw", models.RoleSales)
	// roles the new user can pick from
	if err := dbi.Create(&models.Role{Name: models.RoleEngineer}).Error; err != nil {
		t.Fatalf("role: %v", err)
	}
	h := NewAuthHandler(dbi)

	body := map[string]string{"email": "eva@test", "password": "pw", "role": models.RoleEngineer}
	rr := httptest.NewRecorder()
	h.CreateUser(rr, jsonRequest(t, http.MethodPost, "/api/users", sales, body))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-admin: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.CreateUser(rr, jsonRequest(t, http.MethodPost, "/api/users", admin, body))
	if rr.Code != http.StatusCreated {
		t.Fatalf("admin create: %d %s", rr.Code, rr.Body.String())
	}
	var u userView
	decodeBody(t, rr, &u)
	if u.Role != models.RoleEngineer || u.Email != "eva@test" {
		t.Fatalf("created user: %+v", u)
	}

	// duplicate email
	rr = httptest.NewRecorder()
	h.CreateUser(rr, jsonRequest(t, http.MethodPost, "/api/users", admin, body))
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate email: %d", rr.Code)
	}
}
