package handlers

import (
	"context"
	"net/http"

	"github.com/escience/sitebot/internal/api"
	"github.com/escience/sitebot/internal/domain"
)

type ChatService interface {
	Respond(ctx context.Context, message string, history []domain.ChatTurn) (string, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatTurnRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type ChatRequest struct {
	Message string            `json:"message"`
	History []ChatTurnRequest `json:"history"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// Chat answers one widget message. The response body is flat so the widget
// can read the reply field directly.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}

	history := make([]domain.ChatTurn, len(req.History))
	for i, turn := range req.History {
		history[i] = domain.ChatTurn{Sender: turn.Sender, Text: turn.Text}
	}

	reply, err := h.svc.Respond(r.Context(), req.Message, history)
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, ChatResponse{Reply: reply})
}
