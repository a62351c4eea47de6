package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/sanbenito/ferreteria-backend/pkg/auth"
	"github.com/sanbenito/ferreteria-backend/pkg/config"
)

type stubSessionVerifier struct {
	ok bool
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, nil
}

func testJWT() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
}

func mintToken(t *testing.T, userID uuid.UUID, isAdmin bool) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testJWT(), time.Now(), pkgauth.AccessTokenPayload{
		UserID:  userID,
		Email:   "usuario@example.com",
		IsAdmin: isAdmin,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingCredentials(t *testing.T) {
	handler := Auth(testJWT(), stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT(), stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthSeedsContext(t *testing.T) {
	userID := uuid.New()
	token := mintToken(t, userID, true)

	var captured struct {
		userID  uuid.UUID
		isAdmin bool
	}
	handler := Auth(testJWT(), stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.userID = UserIDFromContext(r.Context())
		captured.isAdmin = IsAdminFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if captured.userID != userID || !captured.isAdmin {
		t.Fatalf("context not seeded: %+v", captured)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token := mintToken(t, uuid.New(), false)
	handler := Auth(testJWT(), stubSessionVerifier{ok: false}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session, got %d", resp.Code)
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	var userID uuid.UUID
	handler := OptionalAuth(testJWT(), stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("anonymous requests must pass, got %d", resp.Code)
	}
	if userID != uuid.Nil {
		t.Fatalf("anonymous request should carry no user, got %s", userID)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without admin claim, got %d", resp.Code)
	}

	ctx := context.WithValue(context.Background(), ctxIsAdmin, true)
	req = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with admin claim, got %d", resp.Code)
	}
}

func TestCartIdentityFromContext(t *testing.T) {
	userID := uuid.New()
	ctx := WithSessionID(context.Background(), "sess-1")
	ctx = WithUserID(ctx, userID)

	id := CartIdentityFromContext(ctx)
	if id.SessionID != "sess-1" {
		t.Fatalf("unexpected session %q", id.SessionID)
	}
	if id.UserID == nil || *id.UserID != userID {
		t.Fatalf("unexpected user %v", id.UserID)
	}

	anonymous := CartIdentityFromContext(WithSessionID(context.Background(), "sess-2"))
	if anonymous.UserID != nil {
		t.Fatal("anonymous identity must carry no user")
	}
}
