package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	CreateSession(rec, 42)
	c := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	uid, ok := ParseSession(req)
	if !ok || uid != 42 {
		t.Fatalf("ParseSession = %d %v", uid, ok)
	}
}

func TestSessionRejectsTamperedValue(t *testing.T) {
	rec := httptest.NewRecorder()
	CreateSession(rec, 42)
	c := sessionCookie(t, rec)

	// swap the uid but keep the signature
	parts := strings.SplitN(c.Value, ".", 2)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "7." + parts[1]})
	if _, ok := ParseSession(req); ok {
		t.Fatal("tampered session accepted")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "garbage"})
	if _, ok := ParseSession(req); ok {
		t.Fatal("malformed session accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("password stored in plain text")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestMiddlewareAttachesUserID(t *testing.T) {
	rec := httptest.NewRecorder()
	CreateSession(rec, 5)
	c := sessionCookie(t, rec)

	var seen uint
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != 5 {
		t.Fatalf("context uid = %d", seen)
	}

	seen = 0
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if seen != 0 {
		t.Fatalf("uid leaked without cookie: %d", seen)
	}
}
