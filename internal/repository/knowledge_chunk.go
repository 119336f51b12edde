package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/escience/sitebot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// KnowledgeChunkRepository persists knowledge chunks. Embeddings live in a
// TEXT column using the pgvector text form "[0.1,0.2,...]".
type KnowledgeChunkRepository struct {
	db         dbtx
	dimensions int
}

// NewKnowledgeChunkRepository returns a repository that rejects embeddings
// whose length differs from dimensions. Zero means the model default.
func NewKnowledgeChunkRepository(pool *pgxpool.Pool, dimensions int) *KnowledgeChunkRepository {
	return &KnowledgeChunkRepository{db: pool, dimensions: dimensions}
}

// Insert stores one chunk and returns the id assigned by the database.
func (r *KnowledgeChunkRepository) Insert(ctx context.Context, content string, embedding []float32, metadata domain.Metadata) (string, error) {
	if err := domain.ValidateEmbedding(embedding, r.dimensions); err != nil {
		return "", err
	}
	if metadata == nil {
		metadata = domain.Metadata{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	var id string
	err = r.db.QueryRow(ctx,
		`INSERT INTO knowledge_chunks (content, embedding, metadata)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		content, encodeEmbedding(embedding), meta,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListAll returns every chunk, newest first.
func (r *KnowledgeChunkRepository) ListAll(ctx context.Context) ([]*domain.KnowledgeChunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, content, embedding, metadata, created_at
		 FROM knowledge_chunks
		 ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

// ListWithEmbedding returns chunks that carry an embedding, newest first.
func (r *KnowledgeChunkRepository) ListWithEmbedding(ctx context.Context) ([]*domain.KnowledgeChunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, content, embedding, metadata, created_at
		 FROM knowledge_chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

// ListMissingEmbedding returns up to limit chunks stored without an embedding, oldest first.
func (r *KnowledgeChunkRepository) ListMissingEmbedding(ctx context.Context, limit int) ([]*domain.KnowledgeChunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, content, embedding, metadata, created_at
		 FROM knowledge_chunks
		 WHERE embedding IS NULL
		 ORDER BY created_at, id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

// Recreate replaces a chunk stored without an embedding by a new row carrying
// the same content and metadata plus embedding, in one statement. Chunks are
// write-once, so the replacement gets a new id and creation time.
func (r *KnowledgeChunkRepository) Recreate(ctx context.Context, id string, embedding []float32) (string, error) {
	if len(embedding) == 0 {
		return "", domain.ErrInvalidEmbedding.WithCause(errors.New("embedding is required"))
	}
	if err := domain.ValidateEmbedding(embedding, r.dimensions); err != nil {
		return "", err
	}

	var newID string
	err := r.db.QueryRow(ctx,
		`WITH old AS (
			DELETE FROM knowledge_chunks
			WHERE id = $1 AND embedding IS NULL
			RETURNING content, metadata
		)
		INSERT INTO knowledge_chunks (content, embedding, metadata)
		SELECT content, $2::text, metadata FROM old
		RETURNING id`,
		id, encodeEmbedding(embedding),
	).Scan(&newID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrKnowledgeChunkNotFound
	}
	if err != nil {
		return "", err
	}
	return newID, nil
}

// DeleteByID removes a chunk, reporting ErrKnowledgeChunkNotFound when no row matched.
func (r *KnowledgeChunkRepository) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM knowledge_chunks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrKnowledgeChunkNotFound
	}
	return nil
}

func scanChunkRows(rows pgx.Rows) ([]*domain.KnowledgeChunk, error) {
	chunks := make([]*domain.KnowledgeChunk, 0)
	for rows.Next() {
		var c domain.KnowledgeChunk
		var embedding *string
		var meta []byte
		if err := rows.Scan(&c.ID, &c.Content, &embedding, &meta, &c.CreatedAt); err != nil {
			return nil, err
		}

		vec, err := decodeEmbedding(embedding)
		if err != nil {
			return nil, domain.ErrStorageOperationFail.WithCause(fmt.Errorf("chunk %s: %w", c.ID, err))
		}
		c.Embedding = vec

		c.Metadata = domain.Metadata{}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &c.Metadata); err != nil {
				return nil, domain.ErrStorageOperationFail.WithCause(fmt.Errorf("chunk %s metadata: %w", c.ID, err))
			}
		}

		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

func encodeEmbedding(embedding []float32) *string {
	if len(embedding) == 0 {
		return nil
	}
	s := pgvector.NewVector(embedding).String()
	return &s
}

func decodeEmbedding(s *string) ([]float32, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	if len(*s) < 3 || (*s)[0] != '[' || (*s)[len(*s)-1] != ']' {
		return nil, fmt.Errorf("invalid embedding encoding %.32q", *s)
	}
	var v pgvector.Vector
	if err := v.Parse(*s); err != nil {
		return nil, fmt.Errorf("invalid embedding encoding: %w", err)
	}
	return v.Slice(), nil
}
