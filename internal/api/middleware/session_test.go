package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSessionValidator struct {
	mock.Mock
}

func (m *MockSessionValidator) ValidateSession(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func TestRequireSession_BearerToken(t *testing.T) {
	mockValidator := new(MockSessionValidator)
	mockValidator.On("ValidateSession", mock.Anything, "sbt_good").Return("admin:1234", nil)

	var captured string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetAdminIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge", nil)
	req.Header.Set("Authorization", "Bearer sbt_good")
	w := httptest.NewRecorder()

	RequireSession(mockValidator)(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin:1234", captured)
	mockValidator.AssertExpectations(t)
}

func TestRequireSession_Cookie(t *testing.T) {
	mockValidator := new(MockSessionValidator)
	mockValidator.On("ValidateSession", mock.Anything, "sbt_cookie").Return("admin:abcd", nil)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sbt_cookie"})
	w := httptest.NewRecorder()

	RequireSession(mockValidator)(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockValidator.AssertExpectations(t)
}

func TestRequireSession_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(r *http.Request)
		message string
	}{
		{"missing credentials", func(r *http.Request) {}, "authenticated session required"},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc123") }, "invalid authorization format"},
		{"empty bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer   ") }, "authenticated session required"},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer sbt_bad") }, "invalid session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockValidator := new(MockSessionValidator)
			mockValidator.On("ValidateSession", mock.Anything, "sbt_bad").Return("", errors.New("unknown token"))

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			})

			req := httptest.NewRequest(http.MethodPost, "/api/knowledge/upload", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()

			RequireSession(mockValidator)(handler).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestGetAdminIdentity_MissingContext(t *testing.T) {
	assert.Equal(t, "", GetAdminIdentity(context.Background()))
}
