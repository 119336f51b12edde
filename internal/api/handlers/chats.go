package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/escience/sitebot/internal/api"
	"github.com/escience/sitebot/internal/domain"
)

type ChatLogService interface {
	ListRecent(ctx context.Context, limit int) ([]*domain.ChatLog, error)
}

type ChatsHandler struct {
	svc ChatLogService
}

func NewChatsHandler(svc ChatLogService) *ChatsHandler {
	return &ChatsHandler{svc: svc}
}

type ChatLogResponse struct {
	ID          string `json:"id"`
	UserMessage string `json:"userMessage"`
	BotResponse string `json:"botResponse"`
	CreatedAt   string `json:"createdAt"`
}

// List returns the newest chat logs. Unparseable limits fall back to the default.
func (h *ChatsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	logs, err := h.svc.ListRecent(r.Context(), limit)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	responses := make([]*ChatLogResponse, len(logs))
	for i, l := range logs {
		responses[i] = &ChatLogResponse{
			ID:          l.ID,
			UserMessage: l.UserMessage,
			BotResponse: l.BotResponse,
			CreatedAt:   l.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	api.JSON(w, http.StatusOK, responses)
}
