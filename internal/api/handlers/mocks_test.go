package handlers

import (
	"context"

	"github.com/escience/sitebot/internal/domain"
	"github.com/escience/sitebot/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Respond(ctx context.Context, message string, history []domain.ChatTurn) (string, error) {
	args := m.Called(ctx, message, history)
	return args.String(0), args.Error(1)
}

type MockKnowledgeService struct {
	mock.Mock
}

func (m *MockKnowledgeService) Upload(ctx context.Context, input service.UploadInput) (*service.UploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockKnowledgeService) List(ctx context.Context) ([]*domain.KnowledgeChunk, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeChunk), args.Error(1)
}

func (m *MockKnowledgeService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockChatLogService struct {
	mock.Mock
}

func (m *MockChatLogService) ListRecent(ctx context.Context, limit int) ([]*domain.ChatLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatLog), args.Error(1)
}
