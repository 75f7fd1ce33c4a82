package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/linkmap/internal/model"
)

type mockVerifier struct {
	verifyFn func(tokenString string) (string, error)
}

func (m *mockVerifier) Verify(tokenString string) (string, error) {
	if m.verifyFn != nil {
		return m.verifyFn(tokenString)
	}
	return "", model.NewInvalidTokenError()
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body.Code
}

func TestAuthMiddleware_ValidToken_InjectsPrincipalID(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (string, error) {
			if tokenString != "valid-token" {
				t.Errorf("token = %q, want %q", tokenString, "valid-token")
			}
			return "principal-123", nil
		},
	}

	var gotPrincipalID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := PrincipalIDFromContext(r.Context())
		if err != nil {
			t.Fatalf("PrincipalIDFromContext() error = %v", err)
		}
		gotPrincipalID = id
		w.WriteHeader(http.StatusOK)
	})

	handler := NewAuthMiddleware(verifier)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotPrincipalID != "principal-123" {
		t.Errorf("principalID = %q, want %q", gotPrincipalID, "principal-123")
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (string, error) {
			t.Error("Verify should not be called for malformed headers")
			return "", nil
		},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	})
	handler := NewAuthMiddleware(verifier)(next)

	tests := []struct {
		name   string
		header string
	}{
		{name: "ヘッダーなし", header: ""},
		{name: "スキームなし", header: "some-token"},
		{name: "スキームが小文字", header: "bearer some-token"},
		{name: "トークンが空", header: "Bearer "},
		{name: "トークンに空白を含む", header: "Bearer abc def"},
		{name: "別のスキーム", header: "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if code := decodeErrorCode(t, w); code != model.ErrCodeMissingToken {
				t.Errorf("Code = %q, want %q", code, model.ErrCodeMissingToken)
			}
		})
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (string, error) {
			return "", model.NewTokenExpiredError()
		},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	})
	handler := NewAuthMiddleware(verifier)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeTokenExpired {
		t.Errorf("Code = %q, want %q", code, model.ErrCodeTokenExpired)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (string, error) {
			return "", model.NewInvalidTokenError()
		},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	})
	handler := NewAuthMiddleware(verifier)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeInvalidToken {
		t.Errorf("Code = %q, want %q", code, model.ErrCodeInvalidToken)
	}
}

func TestPrincipalIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, err := PrincipalIDFromContext(req.Context()); err == nil {
		t.Error("PrincipalIDFromContext() error = nil, want error")
	}
}
