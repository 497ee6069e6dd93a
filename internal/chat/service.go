package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/entity"
	"github.com/mediread/vault/internal/extract"
	"github.com/mediread/vault/internal/llm"
)

const (
	chatTemperature = 0.7
	chatMaxTokens   = 2048
	maxHistory      = 20
)

// Request carries one user question plus the read-only health context it
// should be answered against.
type Request struct {
	Question string
	Profile  *entity.Profile
	Snapshot *entity.HealthSnapshot
	History  []entity.ChatMessage
}

// Service answers questions about the user's stored health data.
type Service struct {
	completer llm.Completer
	logger    *slog.Logger
}

// NewService builds a chat service. completer may be nil, in which case
// Ask returns a configuration notice instead of calling a model.
func NewService(completer llm.Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{completer: completer, logger: logger}
}

// Ask sends the sanitized question, the capped conversation history, and
// the health-data context to the model and returns its reply.
func (s *Service) Ask(ctx context.Context, req Request) (string, error) {
	question := extract.SanitizeText(req.Question, extract.MaxQuestionChars)
	if extract.IsBlank(question) {
		return "", common.ValidationErrorf("question is required")
	}

	if s.completer == nil {
		s.logger.WarnContext(ctx, "chat.ask.unconfigured")
		return NotConfiguredReply, nil
	}

	system := AssistantSystemPrompt
	if hc := BuildContext(req.Profile, req.Snapshot); hc != "" {
		system += "\n\nHere is the user's health data:" + hc
	} else {
		system += "\n\nNo health data is available for this user yet."
	}

	history := req.History
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	messages := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		content := extract.SanitizeText(m.Content, extract.MaxQuestionChars)
		if content == "" {
			continue
		}
		role := m.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, llm.Message{Role: role, Content: content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: question})

	start := time.Now()
	s.logger.InfoContext(ctx, "chat.ask.start", "history", len(messages)-1)

	reply, err := s.completer.Complete(ctx, llm.CompletionRequest{
		System:      system,
		Messages:    messages,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		if llm.IsRateLimited(err) {
			s.logger.WarnContext(ctx, "chat.ask.rate_limited", "elapsed_ms", time.Since(start).Milliseconds())
			return RateLimitedReply, nil
		}
		s.logger.ErrorContext(ctx, "chat.ask.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: %v", common.ErrServiceUnavailable, err)
	}

	s.logger.InfoContext(ctx, "chat.ask.ok", "elapsed_ms", time.Since(start).Milliseconds())
	return reply, nil
}
