package service

import (
	"context"
	"sync"
	"time"

	"github.com/escience/sitebot/internal/domain"
	"github.com/escience/sitebot/internal/telemetry"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultChatLogLimit is the number of exchanges listed by default.
	DefaultChatLogLimit = 100
	// MaxChatLogLimit caps a single listing.
	MaxChatLogLimit = 500
	// DefaultChatLogWriteTimeout bounds a background chat log insert.
	DefaultChatLogWriteTimeout = 5 * time.Second
)

// ChatLogRepositoryInterface defines the repository interface for chat log persistence
type ChatLogRepositoryInterface interface {
	Create(ctx context.Context, userMessage, botResponse string) (*domain.ChatLog, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.ChatLog, error)
}

// AsyncChatLogger writes chat logs in the background. Write failures are
// logged and reported to Sentry but never surface to the chat caller.
type AsyncChatLogger struct {
	repo    ChatLogRepositoryInterface
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncChatLogger creates a recorder backed by repo.
func NewAsyncChatLogger(repo ChatLogRepositoryInterface, timeout time.Duration) *AsyncChatLogger {
	if timeout <= 0 {
		timeout = DefaultChatLogWriteTimeout
	}
	return &AsyncChatLogger{repo: repo, timeout: timeout}
}

// Record schedules the insert. The write outlives the request context.
func (l *AsyncChatLogger) Record(ctx context.Context, userMessage, botResponse string) {
	ctx = context.WithoutCancel(ctx)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		writeCtx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()

		if _, err := l.repo.Create(writeCtx, userMessage, botResponse); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("failed to record chat log")
			telemetry.CaptureError(ctx, err)
		}
	}()
}

// Wait blocks until pending writes finish or ctx is done.
func (l *AsyncChatLogger) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ChatLogService serves the admin chat log listing.
type ChatLogService struct {
	repo ChatLogRepositoryInterface
}

// NewChatLogService creates a new ChatLogService instance
func NewChatLogService(repo ChatLogRepositoryInterface) *ChatLogService {
	return &ChatLogService{repo: repo}
}

// ListRecent returns the newest exchanges first. Out of range limits fall
// back to DefaultChatLogLimit.
func (s *ChatLogService) ListRecent(ctx context.Context, limit int) ([]*domain.ChatLog, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChatLogService.ListRecent", telemetry.SpanAttributes{
		Operation: "list",
		Count:     limit,
	})
	defer span.End()

	if limit <= 0 || limit > MaxChatLogLimit {
		limit = DefaultChatLogLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
