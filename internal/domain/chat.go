package domain

import (
	"strings"
	"time"
)

// ChatRole is the role tag of a message sent to the chat model.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one role-tagged entry of a chat-completion prompt.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// ChatTurn is a history entry as sent by the chat widget.
type ChatTurn struct {
	Sender string
	Text   string
}

// Role maps the widget's sender label onto a prompt role.
func (t ChatTurn) Role() (ChatRole, error) {
	switch strings.ToLower(strings.TrimSpace(t.Sender)) {
	case "user":
		return ChatRoleUser, nil
	case "assistant", "bot":
		return ChatRoleAssistant, nil
	}
	return "", ErrInvalidSender
}

// ChatLog records one successful exchange. Rows are append-only.
type ChatLog struct {
	ID          string
	UserMessage string
	BotResponse string
	CreatedAt   time.Time
}
