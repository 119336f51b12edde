package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/escience/sitebot/internal/domain"
	"github.com/escience/sitebot/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// DefaultChatHistoryLimit is the number of prior turns forwarded to the model.
const DefaultChatHistoryLimit = 10

// Persona is the fixed system instruction of the site assistant.
const Persona = `You are the eScience AI Assistant on the website of eScience (Electronic Science), a mobile software company based in Manila, Philippines with a team of 100+ tech specialists.

What you know about the company:
- Products: PocketWiSE (sales force effectiveness: field attendance, inventory and sales orders in real time), Swift-Forms (turns paper forms such as leave requests, expense reports and surveys into a mobile app), SwiftPoint/IMS (inventory management) and Swift Rewards (loyalty systems).
- Careers: the company hires developers, QA engineers and sales professionals and runs an internship/OJT program. Resumes go to careers@electronicscience.net.
- Sales and general contact: sales@electronicscience.net, phone 02-8850-1324.

Style: friendly, concise and professional. Keep answers under 120 words. If you do not know something, say so and point the visitor to the contact details. Never invent prices, clients or features.`

// ChatCompletionClient generates a reply from role-tagged messages.
type ChatCompletionClient interface {
	GenerateReply(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// Retriever finds knowledge relevant to a message.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]ScoredChunk, error)
}

// ChatLogRecorder persists a successful exchange without blocking the caller.
type ChatLogRecorder interface {
	Record(ctx context.Context, userMessage, botResponse string)
}

// ChatOptions tunes prompt assembly.
type ChatOptions struct {
	// Retriever is optional; without it replies are grounded on the persona only.
	Retriever    Retriever
	TopK         int
	HistoryLimit int
	Recorder     ChatLogRecorder
}

// ChatService answers chat widget messages.
type ChatService struct {
	llm          ChatCompletionClient
	retriever    Retriever
	recorder     ChatLogRecorder
	topK         int
	historyLimit int
}

// NewChatService creates a new ChatService instance
func NewChatService(llm ChatCompletionClient, opts ChatOptions) *ChatService {
	svc := &ChatService{
		llm:          llm,
		retriever:    opts.Retriever,
		recorder:     opts.Recorder,
		topK:         opts.TopK,
		historyLimit: opts.HistoryLimit,
	}
	if svc.topK <= 0 {
		svc.topK = DefaultSearchLimit
	}
	if svc.historyLimit <= 0 {
		svc.historyLimit = DefaultChatHistoryLimit
	}
	return svc
}

// Respond builds the prompt, calls the model once and records the exchange
// after a successful reply.
func (s *ChatService) Respond(ctx context.Context, message string, history []domain.ChatTurn) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChatService.Respond", telemetry.SpanAttributes{
		Operation: "chat",
		Count:     len(history),
	})
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.ErrMessageRequired
	}

	turns, err := historyMessages(history, s.historyLimit)
	if err != nil {
		return "", err
	}

	chunks := s.retrieve(ctx, message)

	messages := make([]domain.ChatMessage, 0, len(turns)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.ChatRoleSystem, Content: SystemPrompt(chunks)})
	messages = append(messages, turns...)
	messages = append(messages, domain.ChatMessage{Role: domain.ChatRoleUser, Content: message})

	reply, err := s.llm.GenerateReply(ctx, messages)
	if err != nil {
		span.SetError(err)
		return "", domain.ErrGenerationFailed.WithCause(err)
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, message, reply)
	}

	return reply, nil
}

// retrieve returns grounding chunks. Retrieval problems degrade the answer to
// persona-only grounding instead of failing the chat.
func (s *ChatService) retrieve(ctx context.Context, message string) []ScoredChunk {
	if s.retriever == nil {
		return nil
	}

	chunks, err := s.retriever.Search(ctx, message, s.topK)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("knowledge retrieval failed, answering without context")
		telemetry.CaptureError(ctx, err)
		return nil
	}

	telemetry.AddBreadcrumb(ctx, "retrieval", fmt.Sprintf("%d chunks retrieved", len(chunks)))
	return chunks
}

// SystemPrompt returns the persona, followed by the retrieved chunks when
// there are any.
func SystemPrompt(chunks []ScoredChunk) string {
	if len(chunks) == 0 {
		return Persona
	}

	var sb strings.Builder
	sb.WriteString(Persona)
	sb.WriteString("\n\nRelevant knowledge (use it when it answers the question):\n")
	for i, c := range chunks {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, strings.TrimSpace(c.Content))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func historyMessages(history []domain.ChatTurn, limit int) ([]domain.ChatMessage, error) {
	messages := make([]domain.ChatMessage, 0, len(history))
	for _, turn := range history {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		role, err := turn.Role()
		if err != nil {
			return nil, err
		}
		messages = append(messages, domain.ChatMessage{Role: role, Content: text})
	}

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}
