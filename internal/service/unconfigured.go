package service

import (
	"context"

	"github.com/escience/sitebot/internal/domain"
)

// UnconfiguredProvider stands in for the language model client when no
// credentials are configured. Every call fails with ErrProviderNotConfigured.
type UnconfiguredProvider struct{}

func (UnconfiguredProvider) GenerateEmbedding(context.Context, string) ([]float32, error) {
	return nil, domain.ErrProviderNotConfigured
}

func (UnconfiguredProvider) GenerateReply(context.Context, []domain.ChatMessage) (string, error) {
	return "", domain.ErrProviderNotConfigured
}
