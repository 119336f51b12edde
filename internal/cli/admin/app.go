package admin

import (
	"context"
	"fmt"

	"github.com/escience/sitebot/internal/config"
	"github.com/escience/sitebot/internal/database"
	"github.com/escience/sitebot/internal/jobs"
	"github.com/escience/sitebot/internal/logging"
	"github.com/escience/sitebot/internal/openai"
	"github.com/escience/sitebot/internal/repository"
	"github.com/escience/sitebot/internal/service"
	"github.com/escience/sitebot/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	goopenai "github.com/sashabaranov/go-openai"
)

// provider is the language model surface the services depend on.
type provider interface {
	service.EmbeddingClient
	service.ChatCompletionClient
}

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	provider provider
	// configured is false when no provider credentials are set.
	configured bool
	archive    *storage.S3Client
	dimensions int
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(cfg.Debug, cfg.LogFormat)
	return cfg, nil
}

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, pool: pool, dimensions: cfg.EmbeddingDimensions}

	if cfg.HasOpenAI() {
		client, err := openai.NewClientFromConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.OpenAIBaseURL,
			EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
			EmbeddingDimensions: cfg.EmbeddingDimensions,
			ChatModel:           cfg.ChatModel,
			MaxTokens:           cfg.ChatMaxTokens,
			Temperature:         cfg.ChatTemperature,
			Timeout:             cfg.ProviderTimeout,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create language model client: %w", err)
		}
		a.provider = client
		a.dimensions = client.Dimensions()
		a.configured = true
	} else {
		log.Warn().Msg("SITEBOT_OPENAI_API_KEY not set, chat and uploads will fail")
		a.provider = service.UnconfiguredProvider{}
	}

	if cfg.HasS3() {
		archive, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		a.archive = archive
	}

	return a, nil
}

func (a *app) Close() {
	a.pool.Close()
}

func (a *app) knowledgeService() *service.KnowledgeService {
	opts := service.KnowledgeOptions{
		ChunkSize:        a.cfg.ChunkSize,
		EmbedConcurrency: a.cfg.EmbedConcurrency,
	}
	if a.archive != nil {
		opts.Archive = a.archive
	}
	return service.NewKnowledgeService(repository.NewKnowledgeChunkRepository(a.pool, a.dimensions), a.provider, opts)
}

func (a *app) searchService() *service.SearchService {
	return service.NewSearchService(a.provider, repository.NewKnowledgeChunkRepository(a.pool, a.dimensions))
}

func (a *app) backfillWorker() *jobs.BackfillWorker {
	return jobs.NewBackfillWorker(repository.NewKnowledgeChunkRepository(a.pool, a.dimensions), a.provider, a.cfg.BackfillBatch)
}

func (a *app) chatLogService() *service.ChatLogService {
	return service.NewChatLogService(repository.NewChatLogRepository(a.pool))
}

// chatService wires retrieval only when it can work: without a provider every
// search would fail before reaching the model anyway.
func (a *app) chatService(recorder service.ChatLogRecorder) *service.ChatService {
	opts := service.ChatOptions{
		TopK:         a.cfg.RetrievalTopK,
		HistoryLimit: a.cfg.ChatHistoryLimit,
		Recorder:     recorder,
	}
	if a.configured && a.cfg.RetrievalEnabled {
		opts.Retriever = a.searchService()
	}
	return service.NewChatService(a.provider, opts)
}
