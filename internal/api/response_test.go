package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/escience/sitebot/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "value", result["key"])
}

func TestJSON_NilData(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusOK, map[string]string{"status": "ok"})

	var result SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "invalid input")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "invalid input", result.Error)
}

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation error", domain.ErrContentRequired, http.StatusBadRequest},
		{"not found error", domain.ErrKnowledgeChunkNotFound, http.StatusNotFound},
		{"unauthorized error", domain.ErrInvalidSession, http.StatusUnauthorized},
		{"provider error", domain.ErrGenerationFailed.WithCause(errors.New("timeout")), http.StatusInternalServerError},
		{"missing provider", domain.ErrProviderNotConfigured, http.StatusInternalServerError},
		{"internal error", domain.ErrStorageOperationFail, http.StatusInternalServerError},
		{"wrapped domain error", fmt.Errorf("delete: %w", domain.ErrKnowledgeChunkNotFound), http.StatusNotFound},
		{"unknown domain error", domain.NewDomainError("UNKNOWN", "unknown"), http.StatusInternalServerError},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"non-domain error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError_ClientError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/knowledge", nil)

	HandleError(w, r, fmt.Errorf("delete: %w", domain.ErrKnowledgeChunkNotFound))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var result ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "knowledge chunk not found", result.Error)
}

func TestHandleError_ServerErrorHidesCause(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	r = r.WithContext(log.Logger.WithContext(r.Context()))

	HandleError(w, r, domain.ErrGenerationFailed.WithCause(errors.New("invalid api key sk-live-123")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "sk-live-123")
	assert.Contains(t, w.Body.String(), GenericErrorMessage)
	assert.Contains(t, buf.String(), "sk-live-123")
	assert.Contains(t, buf.String(), domain.ErrCodeProvider)
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Message string `json:"message"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"hi"}`))
	require.NoError(t, DecodeJSON(r, &body))
	assert.Equal(t, "hi", body.Message)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
	err := DecodeJSON(r, &body)
	assert.Equal(t, http.StatusBadRequest, DomainErrorToHTTP(err))
}
