package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/escience/sitebot/internal/domain"
	"github.com/escience/sitebot/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// DefaultSearchLimit is the number of chunks returned when k is not set.
const DefaultSearchLimit = 3

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SearchChunkRepository provides the candidate set for similarity search.
type SearchChunkRepository interface {
	ListWithEmbedding(ctx context.Context) ([]*domain.KnowledgeChunk, error)
}

// ScoredChunk is a search hit.
type ScoredChunk struct {
	ID       string          `json:"id"`
	Content  string          `json:"content"`
	Metadata domain.Metadata `json:"metadata"`
	Score    float64         `json:"score"`
}

// SearchService ranks stored chunks against a query by cosine similarity.
// Every embedded chunk is scored, so results are the exact top-k.
type SearchService struct {
	embedder EmbeddingClient
	repo     SearchChunkRepository
}

// NewSearchService creates a new SearchService instance
func NewSearchService(embedder EmbeddingClient, repo SearchChunkRepository) *SearchService {
	return &SearchService{
		embedder: embedder,
		repo:     repo,
	}
}

// Search returns at most k chunks ordered by descending score. Ties keep the
// repository's order.
func (s *SearchService) Search(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		Operation: "search",
		Count:     k,
	})
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrQueryRequired
	}
	if k <= 0 {
		k = DefaultSearchLimit
	}

	queryVec, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, domain.ErrEmbeddingFailed.WithCause(err)
	}

	candidates, err := s.repo.ListWithEmbedding(ctx)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to list embedded chunks: %w", err)
	}

	return rankChunks(queryVec, candidates, k), nil
}

func rankChunks(queryVec []float32, candidates []*domain.KnowledgeChunk, k int) []ScoredChunk {
	scored := make([]ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		if !c.HasEmbedding() {
			continue
		}
		score, ok := CosineSimilarity(queryVec, c.Embedding)
		if !ok {
			log.Debug().
				Str("chunk_id", c.ID).
				Int("dimensions", len(c.Embedding)).
				Msg("skipping chunk with unusable embedding")
			continue
		}
		scored = append(scored, ScoredChunk{
			ID:       c.ID,
			Content:  c.Content,
			Metadata: c.Metadata,
			Score:    score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
