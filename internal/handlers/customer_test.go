package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tooldesk/quoteflow/internal/models"
)

func TestCustomerCreateListUpdateDelete(t *testing.T) {
	dbi := setupHandlerDB(t)
	uid := seedUser(t, dbi, "sales@test", "pw", models.RoleSales)
	h := NewCustomerHandler(dbi)

	rr := httptest.NewRecorder()
	h.Create(rr, jsonRequest(t, http.MethodPost, "/api/customers", uid, map[string]any{
		"code": "acme", "name": "Acme Tools", "city": "Aachen",
	}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	var created models.Customer
	decodeBody(t, rr, &created)
	if created.Code != "ACME" {
		t.Fatalf("code not uppercased: %q", created.Code)
	}

	// duplicate code
	rr = httptest.NewRecorder()
	h.Create(rr, jsonRequest(t, http.MethodPost, "/api/customers", uid, map[string]any{
		"code": "ACME", "name": "Other",
	}))
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d %s", rr.Code, rr.Body.String())
	}

	// missing name
	rr = httptest.NewRecorder()
	h.Create(rr, jsonRequest(t, http.MethodPost, "/api/customers", uid, map[string]any{"code": "X1"}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("validation: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.List(rr, jsonRequest(t, http.MethodGet, "/api/customers?q=acme", uid, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list: %d", rr.Code)
	}
	var page struct {
		Items []models.Customer `json:"items"`
		Total int64             `json:"total"`
	}
	decodeBody(t, rr, &page)
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("list filter: total=%d len=%d", page.Total, len(page.Items))
	}

	req := jsonRequest(t, http.MethodPut, "/api/customers/1", uid, map[string]any{
		"code": "ACME", "name": "Acme Tooling", "active": false,
	})
	req.SetPathValue("id", "1")
	rr = httptest.NewRecorder()
	h.Update(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rr.Code, rr.Body.String())
	}
	var updated models.Customer
	decodeBody(t, rr, &updated)
	if updated.Name != "Acme Tooling" || updated.Active {
		t.Fatalf("update result: %+v", updated)
	}

	req = jsonRequest(t, http.MethodDelete, "/api/customers/1", uid, nil)
	req.SetPathValue("id", "1")
	rr = httptest.NewRecorder()
	h.Delete(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: %d", rr.Code)
	}

	req = jsonRequest(t, http.MethodGet, "/api/customers/1", uid, nil)
	req.SetPathValue("id", "1")
	rr = httptest.NewRecorder()
	h.Get(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rr.Code)
	}
}

func TestMachineCreateValidatesRate(t *testing.T) {
	dbi := setupHandlerDB(t)
	uid := seedUser(t, dbi, "sales@test", "pw", models.RoleSales)
	h := NewMachineHandler(dbi)

	rr := httptest.NewRecorder()
	h.Create(rr, jsonRequest(t, http.MethodPost, "/api/machines", uid, map[string]any{
		"code": "mill1", "name": "CNC Mill", "hourly_rate": "-5",
	}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("negative rate: %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.Create(rr, jsonRequest(t, http.MethodPost, "/api/machines", uid, map[string]any{
		"code": "mill1", "name": "CNC Mill", "hourly_rate": "52.50",
	}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	var m models.Machine
	decodeBody(t, rr, &m)
	if m.Code != "MILL1" || !m.Active {
		t.Fatalf("machine: %+v", m)
	}
}
