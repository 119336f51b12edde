package domain

import (
	"fmt"
	"time"
)

// DefaultEmbeddingDimensions matches text-embedding-ada-002.
const DefaultEmbeddingDimensions = 1536

// Metadata is an open key/value document attached to a chunk. Keys are
// defined by whoever writes the chunk.
type Metadata map[string]any

// Well-known metadata keys written during ingestion.
const (
	MetaSource     = "source"
	MetaChunkIndex = "chunkIndex"
	MetaTimestamp  = "timestamp"
	MetaArchiveKey = "archiveKey"
)

// DefaultSource labels chunks uploaded without an explicit source.
const DefaultSource = "manual_upload"

// KnowledgeChunk is a bounded segment of uploaded text with its embedding.
// Chunks are write-once: correcting content means delete and re-create.
type KnowledgeChunk struct {
	ID        string
	Content   string
	Embedding []float32 // nil when not embedded
	Metadata  Metadata
	CreatedAt time.Time
}

// HasEmbedding reports whether the chunk carries a vector.
func (c *KnowledgeChunk) HasEmbedding() bool {
	return c != nil && len(c.Embedding) > 0
}

// Source returns the metadata source label, if any.
func (m Metadata) Source() string {
	s, _ := m[MetaSource].(string)
	return s
}

// ValidateEmbedding checks a present embedding against the model dimension.
// An empty vector counts as absent and is stored as NULL.
func ValidateEmbedding(embedding []float32, dimensions int) error {
	if len(embedding) == 0 {
		return nil
	}
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	if len(embedding) != dimensions {
		return ErrInvalidEmbedding.WithCause(fmt.Errorf("got %d, want %d", len(embedding), dimensions))
	}
	return nil
}
