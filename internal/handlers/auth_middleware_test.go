package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

const testSecret = "super_secret_for_tests_0123456789abcdef"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func runAuth(h *Handler, req *http.Request, next http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.AuthMiddleware(next).ServeHTTP(rec, req)
	return rec
}

// checks that with no secret configured every request goes through
func TestAuthMiddleware_Disabled(t *testing.T) {
	h := &Handler{}
	nextCalled := false
	next := func(w http.ResponseWriter, r *http.Request) { nextCalled = true }

	rec := runAuth(h, httptest.NewRequest(http.MethodGet, "/any", nil), next)

	if !nextCalled || rec.Code != http.StatusOK {
		t.Fatalf("want pass-through, got %d (next called: %v)", rec.Code, nextCalled)
	}
}

// checks that returns 401 if Authorization header is missing
func TestAuthMiddleware_MissingAuthorizationHeader(t *testing.T) {
	h := &Handler{JWTSecret: testSecret}
	nextCalled := false
	next := func(w http.ResponseWriter, r *http.Request) { nextCalled = true }

	rec := runAuth(h, httptest.NewRequest(http.MethodGet, "/any", nil), next)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d body=%s", rec.Code, rec.Body.String())
	}
	if nextCalled {
		t.Fatalf("next should NOT be called")
	}
}

func TestAuthMiddleware_Rejected(t *testing.T) {
	hour := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name   string
		header string
	}{
		{"garbage token", "Bearer obviously.invalid.token"},
		{"not a bearer scheme", "Basic dXNlcjpwYXNz"},
		{"missing exp", "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})},
		{"missing sub", "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"exp": hour})},
		{"expired", "Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"unexpected alg", "Bearer " + signToken(t, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "user-1", "exp": hour})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handler{JWTSecret: testSecret}
			next := func(w http.ResponseWriter, r *http.Request) { t.Fatalf("next must not be called") }

			req := httptest.NewRequest(http.MethodGet, "/any", nil)
			req.Header.Set("Authorization", tt.header)
			rec := runAuth(h, req, next)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("want 401, got %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}

// checks that a valid token passes and its subject lands in the context
func TestAuthMiddleware_Valid_PassesSubjectInContext(t *testing.T) {
	h := &Handler{JWTSecret: testSecret}
	wantSub := "22222222-2222-2222-2222-222222222222"
	signed := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": wantSub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	nextCalled := false
	next := func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		if got := SubjectFromContext(r.Context()); got != wantSub {
			t.Fatalf("subject in ctx = %q, want %q", got, wantSub)
		}
		w.WriteHeader(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/any", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := runAuth(h, req, next)

	if !nextCalled {
		t.Fatalf("next should be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	h := &Handler{JWTSecret: testSecret}
	signed := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ws-client",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	nextCalled := false
	next := func(w http.ResponseWriter, r *http.Request) { nextCalled = true }
	rec := runAuth(h, httptest.NewRequest(http.MethodGet, "/ws?access_token="+signed, nil), next)

	if !nextCalled {
		t.Fatalf("next should be called, got %d body=%s", rec.Code, rec.Body.String())
	}
}

// the API routes are guarded, /healthz is not
func TestRoutes_AuthScope(t *testing.T) {
	h := newTestHandler(t)
	h.JWTSecret = testSecret

	if rec := doRequest(h, http.MethodGet, "/api/board", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 on /api/board, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("want 200 on /healthz, got %d", rec.Code)
	}
}

// repository failures are logged with the authenticated subject
func TestRepoErrorLogIncludesSubject(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	h := &Handler{BoardRepo: &stubBoardRepo{getErr: errors.New("disk on fire")}, JWTSecret: testSecret}
	signed := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/api/board", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d body=%s", rec.Code, rec.Body.String())
	}
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.ErrorLevel {
			if got := entry.Data["subject"]; got != "user-42" {
				t.Fatalf("subject field = %v, want user-42", got)
			}
			return
		}
	}
	t.Fatalf("no error entry logged")
}
