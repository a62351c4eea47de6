package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestSessionMintsCookieForNewVisitor(t *testing.T) {
	var seen string
	handler := Session(nil, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("context should carry a fresh session id, got %q", seen)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName || cookies[0].Value != seen {
		t.Fatalf("cookie not set correctly: %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("session cookie must be http-only")
	}
}

func TestSessionReusesExistingCookie(t *testing.T) {
	existing := uuid.NewString()
	var seen string
	handler := Session(nil, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: existing})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != existing {
		t.Fatalf("expected reused session %q, got %q", existing, seen)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("no new cookie should be minted for returning visitors")
	}
}

func TestSessionReplacesGarbageCookie(t *testing.T) {
	var seen string
	handler := Session(nil, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == "not-a-uuid" {
		t.Fatal("garbage cookie must be replaced")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("replacement should be a uuid, got %q", seen)
	}
}
