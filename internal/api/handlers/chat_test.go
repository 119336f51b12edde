package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/escience/sitebot/internal/api"
	"github.com/escience/sitebot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChatHandler_Chat_Success(t *testing.T) {
	mockSvc := new(MockChatService)
	handler := NewChatHandler(mockSvc)

	expectedHistory := []domain.ChatTurn{
		{Sender: "user", Text: "Hi"},
		{Sender: "bot", Text: "Hello! How can I help?"},
	}
	mockSvc.On("Respond", mock.Anything, "What does Swift-Forms do?", expectedHistory).
		Return("Swift-Forms turns paper forms into a mobile app.", nil)

	body := `{"message":"What does Swift-Forms do?","history":[{"sender":"user","text":"Hi"},{"sender":"bot","text":"Hello! How can I help?"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.Chat(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Swift-Forms turns paper forms into a mobile app.", resp.Reply)
	mockSvc.AssertExpectations(t)
}

func TestChatHandler_Chat_NoHistory(t *testing.T) {
	mockSvc := new(MockChatService)
	handler := NewChatHandler(mockSvc)

	mockSvc.On("Respond", mock.Anything, "Hello", []domain.ChatTurn{}).Return("Hi there!", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"Hello"}`))
	w := httptest.NewRecorder()

	handler.Chat(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reply":"Hi there!"`)
}

func TestChatHandler_Chat_InvalidBody(t *testing.T) {
	mockSvc := new(MockChatService)
	handler := NewChatHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()

	handler.Chat(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
	mockSvc.AssertNotCalled(t, "Respond")
}

func TestChatHandler_Chat_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"missing message", domain.ErrMessageRequired},
		{"bad sender", domain.ErrInvalidSender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockChatService)
			handler := NewChatHandler(mockSvc)
			mockSvc.On("Respond", mock.Anything, mock.Anything, mock.Anything).Return("", tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":""}`))
			w := httptest.NewRecorder()

			handler.Chat(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.err.(*domain.DomainError).Message, resp.Error)
		})
	}
}

func TestChatHandler_Chat_ProviderFailureIsGeneric(t *testing.T) {
	mockSvc := new(MockChatService)
	handler := NewChatHandler(mockSvc)

	cause := errors.New("dial tcp: i/o timeout")
	mockSvc.On("Respond", mock.Anything, "Hello", mock.Anything).
		Return("", domain.ErrGenerationFailed.WithCause(cause))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"Hello"}`))
	w := httptest.NewRecorder()

	handler.Chat(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), api.GenericErrorMessage)
	assert.NotContains(t, w.Body.String(), "i/o timeout")
}
