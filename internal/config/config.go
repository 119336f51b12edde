package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	Debug     bool   `envconfig:"DEBUG" default:"false"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`

	OpenAIAPIKey        string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string        `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel      string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	ChatModel           string        `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	ChatMaxTokens       int           `envconfig:"CHAT_MAX_TOKENS" default:"300"`
	ChatTemperature     float32       `envconfig:"CHAT_TEMPERATURE" default:"0.7"` // 0 requests greedy sampling
	ChatHistoryLimit    int           `envconfig:"CHAT_HISTORY_LIMIT" default:"10"`
	ProviderTimeout     time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`

	RetrievalEnabled bool `envconfig:"RETRIEVAL_ENABLED" default:"true"`
	RetrievalTopK    int  `envconfig:"RETRIEVAL_TOP_K" default:"3"`
	ChunkSize        int  `envconfig:"CHUNK_SIZE" default:"500"`
	EmbedConcurrency int  `envconfig:"EMBED_CONCURRENCY" default:"4"`

	// Chunks stored without an embedding are repaired on this interval; 0 disables.
	BackfillInterval time.Duration `envconfig:"BACKFILL_INTERVAL" default:"5m"`
	BackfillBatch    int           `envconfig:"BACKFILL_BATCH" default:"20"`

	// Bearer tokens accepted as admin sessions.
	AdminTokens []string `envconfig:"ADMIN_TOKENS"`

	// Raw uploads are archived here when configured.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"sitebot-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("SITEBOT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if cfg.ChatTemperature < 0 || cfg.ChatTemperature > 2 {
		return nil, fmt.Errorf("SITEBOT_CHAT_TEMPERATURE must be between 0 and 2, got %g", cfg.ChatTemperature)
	}

	return &cfg, nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) != ""
}

func (c *Config) HasAdminTokens() bool {
	for _, t := range c.AdminTokens {
		if t != "" {
			return true
		}
	}
	return false
}
