package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/escience/sitebot/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	// MaxRetries is the number of failed embedding attempts after which a
	// chunk is skipped until the process restarts.
	MaxRetries = 3
	// DefaultBackfillBatch is the number of chunks embedded per pass.
	DefaultBackfillBatch = 20
)

// MissingEmbeddingRepository finds chunks stored without an embedding and
// re-creates them with one.
type MissingEmbeddingRepository interface {
	ListMissingEmbedding(ctx context.Context, limit int) ([]*domain.KnowledgeChunk, error)
	Recreate(ctx context.Context, id string, embedding []float32) (string, error)
}

// Embedder generates an embedding for a chunk's text.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// BackfillStats summarises one backfill pass.
type BackfillStats struct {
	Embedded int
	Failed   int
	Skipped  int
}

// BackfillWorker embeds chunks that were stored without a vector, such as
// legacy rows. Such chunks are invisible to search until replaced.
type BackfillWorker struct {
	repo     MissingEmbeddingRepository
	embedder Embedder
	batch    int

	mu       sync.Mutex
	failures map[string]int
}

// NewBackfillWorker creates a new BackfillWorker instance
func NewBackfillWorker(repo MissingEmbeddingRepository, embedder Embedder, batch int) *BackfillWorker {
	if batch <= 0 {
		batch = DefaultBackfillBatch
	}
	return &BackfillWorker{
		repo:     repo,
		embedder: embedder,
		batch:    batch,
		failures: make(map[string]int),
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *BackfillWorker) ProcessJobs(ctx context.Context) error {
	_, err := w.RunOnce(ctx)
	return err
}

// RunOnce embeds up to one batch of chunks missing an embedding.
func (w *BackfillWorker) RunOnce(ctx context.Context) (BackfillStats, error) {
	var stats BackfillStats

	w.mu.Lock()
	exhausted := 0
	for _, n := range w.failures {
		if n >= MaxRetries {
			exhausted++
		}
	}
	w.mu.Unlock()

	// Over-fetch so exhausted chunks cannot starve the rest of the queue
	chunks, err := w.repo.ListMissingEmbedding(ctx, w.batch+exhausted)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch chunks missing embeddings: %w", err)
	}

	for _, chunk := range chunks {
		if stats.Embedded+stats.Failed >= w.batch {
			break
		}
		if w.exhausted(chunk.ID) {
			stats.Skipped++
			continue
		}
		if err := w.processChunk(ctx, chunk); err != nil {
			stats.Failed++
			w.handleFailure(chunk.ID, err)
			continue
		}
		stats.Embedded++
	}

	if stats.Embedded > 0 || stats.Failed > 0 {
		log.Info().
			Int("embedded", stats.Embedded).
			Int("failed", stats.Failed).
			Int("skipped", stats.Skipped).
			Msg("embedding backfill pass finished")
	}

	return stats, nil
}

func (w *BackfillWorker) processChunk(ctx context.Context, chunk *domain.KnowledgeChunk) error {
	embedding, err := w.embedder.GenerateEmbedding(ctx, chunk.Content)
	if err != nil {
		return err
	}
	newID, err := w.repo.Recreate(ctx, chunk.ID, embedding)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	log.Debug().Str("chunk_id", chunk.ID).Str("new_id", newID).Msg("chunk re-created with embedding")

	w.mu.Lock()
	delete(w.failures, chunk.ID)
	w.mu.Unlock()
	return nil
}

func (w *BackfillWorker) handleFailure(id string, err error) {
	w.mu.Lock()
	w.failures[id]++
	attempts := w.failures[id]
	w.mu.Unlock()

	event := log.Warn()
	if attempts >= MaxRetries {
		event = log.Error()
	}
	event.Err(err).
		Str("chunk_id", id).
		Int("attempt", attempts).
		Int("max_retries", MaxRetries).
		Msg("failed to backfill chunk embedding")
}

func (w *BackfillWorker) exhausted(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failures[id] >= MaxRetries
}
