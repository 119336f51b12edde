package service

import (
	"context"
	"sync"

	"github.com/escience/sitebot/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockKnowledgeChunkRepository is a mock implementation of the chunk store
type MockKnowledgeChunkRepository struct {
	mock.Mock
}

func (m *MockKnowledgeChunkRepository) Insert(ctx context.Context, content string, embedding []float32, metadata domain.Metadata) (string, error) {
	args := m.Called(ctx, content, embedding, metadata)
	return args.String(0), args.Error(1)
}

func (m *MockKnowledgeChunkRepository) ListAll(ctx context.Context) ([]*domain.KnowledgeChunk, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeChunk), args.Error(1)
}

func (m *MockKnowledgeChunkRepository) ListWithEmbedding(ctx context.Context) ([]*domain.KnowledgeChunk, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeChunk), args.Error(1)
}

func (m *MockKnowledgeChunkRepository) DeleteByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDocumentArchive is a mock implementation of DocumentArchive
type MockDocumentArchive struct {
	mock.Mock
}

func (m *MockDocumentArchive) ArchiveDocument(ctx context.Context, key, content string) error {
	args := m.Called(ctx, key, content)
	return args.Error(0)
}

// MockChatCompletionClient is a mock implementation of ChatCompletionClient
type MockChatCompletionClient struct {
	mock.Mock
}

func (m *MockChatCompletionClient) GenerateReply(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// MockRetriever is a mock implementation of Retriever
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Search(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ScoredChunk), args.Error(1)
}

// MockChatLogRecorder is a mock implementation of ChatLogRecorder
type MockChatLogRecorder struct {
	mock.Mock
}

func (m *MockChatLogRecorder) Record(ctx context.Context, userMessage, botResponse string) {
	m.Called(ctx, userMessage, botResponse)
}

// MockChatLogRepository is a mock implementation of ChatLogRepositoryInterface
type MockChatLogRepository struct {
	mock.Mock
}

func (m *MockChatLogRepository) Create(ctx context.Context, userMessage, botResponse string) (*domain.ChatLog, error) {
	args := m.Called(ctx, userMessage, botResponse)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatLog), args.Error(1)
}

func (m *MockChatLogRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ChatLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatLog), args.Error(1)
}

// MockUUIDGenerator is a mock implementation of UUIDGenerator
type MockUUIDGenerator struct {
	mu        sync.Mutex
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.callCount < len(m.uuids) {
		uuid := m.uuids[m.callCount]
		m.callCount++
		return uuid
	}
	return "default-uuid"
}
