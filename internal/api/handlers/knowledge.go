package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/escience/sitebot/internal/api"
	"github.com/escience/sitebot/internal/domain"
	"github.com/escience/sitebot/internal/service"
	"github.com/go-chi/chi/v5"
)

type KnowledgeService interface {
	Upload(ctx context.Context, input service.UploadInput) (*service.UploadResult, error)
	List(ctx context.Context) ([]*domain.KnowledgeChunk, error)
	Delete(ctx context.Context, id string) error
}

type KnowledgeHandler struct {
	svc KnowledgeService
}

func NewKnowledgeHandler(svc KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

type UploadKnowledgeRequest struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

type UploadKnowledgeResponse struct {
	Success       bool `json:"success"`
	ChunksCreated int  `json:"chunksCreated"`
}

type DeleteKnowledgeRequest struct {
	ID string `json:"id"`
}

type SuccessFlagResponse struct {
	Success bool `json:"success"`
}

type KnowledgeChunkResponse struct {
	ID           string          `json:"id"`
	Content      string          `json:"content"`
	Metadata     domain.Metadata `json:"metadata"`
	HasEmbedding bool            `json:"hasEmbedding"`
	CreatedAt    string          `json:"createdAt"`
}

func chunkToResponse(c *domain.KnowledgeChunk) *KnowledgeChunkResponse {
	metadata := c.Metadata
	if metadata == nil {
		metadata = domain.Metadata{}
	}
	return &KnowledgeChunkResponse{
		ID:           c.ID,
		Content:      c.Content,
		Metadata:     metadata,
		HasEmbedding: c.HasEmbedding(),
		CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *KnowledgeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req UploadKnowledgeRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.HandleError(w, r, err)
		return
	}

	result, err := h.svc.Upload(r.Context(), service.UploadInput{
		Content: req.Content,
		Source:  req.Source,
	})
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, UploadKnowledgeResponse{
		Success:       true,
		ChunksCreated: result.ChunksCreated,
	})
}

// List returns every chunk newest first. Vectors are not included.
func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	chunks, err := h.svc.List(r.Context())
	if err != nil {
		api.HandleError(w, r, err)
		return
	}

	responses := make([]*KnowledgeChunkResponse, len(chunks))
	for i, c := range chunks {
		responses[i] = chunkToResponse(c)
	}

	api.JSON(w, http.StatusOK, responses)
}

// Delete accepts the id either as a path parameter or in a JSON body.
func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		var req DeleteKnowledgeRequest
		if err := api.DecodeJSON(r, &req); err != nil {
			api.HandleError(w, r, err)
			return
		}
		id = strings.TrimSpace(req.ID)
	}
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, SuccessFlagResponse{Success: true})
}
