package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/placescout/placescout-backend/pkg/ctxutil"
)

type tokenValidatorMock struct {
	ValidateAccessTokenFunc func(token string) (uuid.UUID, error)
	calls                   int
}

func (m *tokenValidatorMock) ValidateAccessToken(token string) (uuid.UUID, error) {
	m.calls++
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	return uuid.Nil, errors.New("invalid token")
}

func TestAuth_ValidToken(t *testing.T) {
	ownerID := uuid.New()
	validator := &tokenValidatorMock{
		ValidateAccessTokenFunc: func(token string) (uuid.UUID, error) {
			if token == "valid-token" {
				return ownerID, nil
			}
			return uuid.Nil, errors.New("invalid token")
		},
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwnerID, ok := ctxutil.OwnerIDFromCtx(r.Context())
		if !ok {
			t.Error("expected ownerID in context")
			return
		}
		if gotOwnerID != ownerID {
			t.Errorf("expected ownerID %v, got %v", ownerID, gotOwnerID)
		}
		w.WriteHeader(http.StatusOK)
	})

	wrappedHandler := Auth(validator)(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	validator := &tokenValidatorMock{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for invalid token")
	})

	wrappedHandler := Auth(validator)(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuth_NoAuthHeader(t *testing.T) {
	validator := &tokenValidatorMock{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called without a token")
	})

	wrappedHandler := Auth(validator)(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if validator.calls > 0 {
		t.Error("ValidateAccessToken should not be called without a header")
	}
}

func TestAuth_NonBearerToken(t *testing.T) {
	validator := &tokenValidatorMock{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for non-Bearer auth")
	})

	wrappedHandler := Auth(validator)(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if validator.calls > 0 {
		t.Error("ValidateAccessToken should not be called for non-Bearer auth")
	}
}

func TestExtractBearerToken_Cases(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"empty header", "", ""},
		{"bearer with token", "Bearer valid-token", "valid-token"},
		{"basic auth", "Basic dXNlcjpwYXNz", ""},
		{"bearer no space", "Bearertoken", ""},
		{"just bearer", "Bearer", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			got := extractBearerToken(req)
			if got != tc.want {
				t.Errorf("extractBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}
