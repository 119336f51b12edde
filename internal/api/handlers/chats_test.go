package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/escience/sitebot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChatsHandler_List(t *testing.T) {
	mockSvc := new(MockChatLogService)
	handler := NewChatsHandler(mockSvc)

	created := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	mockSvc.On("ListRecent", mock.Anything, 20).Return([]*domain.ChatLog{
		{ID: "l-1", UserMessage: "Are you hiring?", BotResponse: "Yes, send your resume.", CreatedAt: created},
	}, nil)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/api/chats?limit=20", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []ChatLogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Are you hiring?", resp[0].UserMessage)
	assert.Equal(t, "2026-05-02T10:00:00Z", resp[0].CreatedAt)
	mockSvc.AssertExpectations(t)
}

func TestChatsHandler_List_LimitFallback(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"no limit", ""},
		{"not a number", "?limit=many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockChatLogService)
			handler := NewChatsHandler(mockSvc)
			mockSvc.On("ListRecent", mock.Anything, 0).Return([]*domain.ChatLog{}, nil)

			w := httptest.NewRecorder()
			handler.List(w, httptest.NewRequest(http.MethodGet, "/api/chats"+tt.query, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestChatsHandler_List_StorageError(t *testing.T) {
	mockSvc := new(MockChatLogService)
	handler := NewChatsHandler(mockSvc)
	mockSvc.On("ListRecent", mock.Anything, 0).Return(nil, errors.New("connection refused"))

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/api/chats", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
