package repository

import (
	"context"

	"github.com/escience/sitebot/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatLogRepository struct {
	db dbtx
}

func NewChatLogRepository(pool *pgxpool.Pool) *ChatLogRepository {
	return &ChatLogRepository{db: pool}
}

func (r *ChatLogRepository) Create(ctx context.Context, userMessage, botResponse string) (*domain.ChatLog, error) {
	l := domain.ChatLog{UserMessage: userMessage, BotResponse: botResponse}
	err := r.db.QueryRow(ctx,
		`INSERT INTO chat_logs (user_message, bot_response)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		userMessage, botResponse,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ChatLogRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ChatLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_message, bot_response, created_at
		 FROM chat_logs
		 ORDER BY created_at DESC, id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*domain.ChatLog, 0)
	for rows.Next() {
		var l domain.ChatLog
		if err := rows.Scan(&l.ID, &l.UserMessage, &l.BotResponse, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
