package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/escience/sitebot/internal/domain"
	"github.com/escience/sitebot/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultEmbedConcurrency bounds parallel embedding calls during an upload.
const DefaultEmbedConcurrency = 4

// KnowledgeChunkRepositoryInterface defines the repository interface for chunk persistence
type KnowledgeChunkRepositoryInterface interface {
	Insert(ctx context.Context, content string, embedding []float32, metadata domain.Metadata) (string, error)
	ListAll(ctx context.Context) ([]*domain.KnowledgeChunk, error)
	DeleteByID(ctx context.Context, id string) error
}

// DocumentArchive stores the raw text of an upload.
type DocumentArchive interface {
	ArchiveDocument(ctx context.Context, key, content string) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// KnowledgeOptions tunes ingestion.
type KnowledgeOptions struct {
	ChunkSize        int
	EmbedConcurrency int
	Archive          DocumentArchive
	UUIDGen          UUIDGenerator
	Now              func() time.Time
}

// KnowledgeService ingests, lists and deletes knowledge chunks.
type KnowledgeService struct {
	repo        KnowledgeChunkRepositoryInterface
	embedder    EmbeddingClient
	archive     DocumentArchive
	uuidGen     UUIDGenerator
	now         func() time.Time
	chunkSize   int
	concurrency int
}

// NewKnowledgeService creates a new KnowledgeService instance
func NewKnowledgeService(repo KnowledgeChunkRepositoryInterface, embedder EmbeddingClient, opts KnowledgeOptions) *KnowledgeService {
	svc := &KnowledgeService{
		repo:        repo,
		embedder:    embedder,
		archive:     opts.Archive,
		uuidGen:     opts.UUIDGen,
		now:         opts.Now,
		chunkSize:   opts.ChunkSize,
		concurrency: opts.EmbedConcurrency,
	}
	if svc.uuidGen == nil {
		svc.uuidGen = &DefaultUUIDGenerator{}
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.chunkSize <= 0 {
		svc.chunkSize = DefaultChunkSize
	}
	if svc.concurrency <= 0 {
		svc.concurrency = DefaultEmbedConcurrency
	}
	return svc
}

// UploadInput represents the input for ingesting a document
type UploadInput struct {
	Content string
	Source  string
}

// UploadResult reports what an upload created.
type UploadResult struct {
	ChunksCreated int
	ChunkIDs      []string
	ArchiveKey    string
}

// Upload chunks the content, embeds every chunk and stores it. Chunks are
// inserted independently: when one fails the upload returns the error and
// chunks already written stay in place.
func (s *KnowledgeService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = domain.DefaultSource
	}

	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Upload", telemetry.SpanAttributes{
		Source:    source,
		Operation: "upload",
	})
	defer span.End()

	if strings.TrimSpace(input.Content) == "" {
		return nil, domain.ErrContentRequired
	}

	now := s.now().UTC()
	result := &UploadResult{}

	if s.archive != nil {
		key := archiveKey(now, s.uuidGen.NewString())
		if err := s.archive.ArchiveDocument(ctx, key, input.Content); err != nil {
			span.SetError(err)
			return nil, domain.ErrStorageOperationFail.WithCause(err)
		}
		result.ArchiveKey = key
	}

	chunks := ChunkText(input.Content, s.chunkSize)
	ids := make([]string, len(chunks))
	timestamp := now.Format(time.RFC3339)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			embedding, err := s.embedder.GenerateEmbedding(gCtx, chunk)
			if err != nil {
				return domain.ErrEmbeddingFailed.WithCause(fmt.Errorf("chunk %d: %w", i, err))
			}

			metadata := domain.Metadata{
				domain.MetaSource:     source,
				domain.MetaChunkIndex: i,
				domain.MetaTimestamp:  timestamp,
			}
			if result.ArchiveKey != "" {
				metadata[domain.MetaArchiveKey] = result.ArchiveKey
			}

			id, err := s.repo.Insert(gCtx, chunk, embedding, metadata)
			if err != nil {
				return fmt.Errorf("failed to insert chunk %d: %w", i, err)
			}
			ids[i] = id
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.SetError(err)
		log.Ctx(ctx).Warn().Err(err).
			Str("source", source).
			Int("chunks", len(chunks)).
			Msg("knowledge upload failed")
		return nil, err
	}

	result.ChunksCreated = len(ids)
	result.ChunkIDs = ids

	log.Ctx(ctx).Info().
		Str("source", source).
		Int("chunks_created", result.ChunksCreated).
		Msg("knowledge uploaded")

	return result, nil
}

// List returns every chunk, newest first.
func (s *KnowledgeService) List(ctx context.Context) ([]*domain.KnowledgeChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	return s.repo.ListAll(ctx)
}

// Delete removes a chunk. Ids that are not UUIDs cannot exist and report not found.
func (s *KnowledgeService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Delete", telemetry.SpanAttributes{
		ChunkID:   id,
		Operation: "delete",
	})
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrKnowledgeChunkNotFound
	}

	return s.repo.DeleteByID(ctx, id)
}

func archiveKey(now time.Time, id string) string {
	return fmt.Sprintf("documents/%s/%s.txt", now.Format("2006/01/02"), id)
}
