// Package bot implements the inbound message turn: load the conversation
// context, enrich it with retrieved knowledge, generate a reply, deliver
// it, and persist both sides of the exchange.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/conversation"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/eventstream"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/llm"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/messenger"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/rag"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/utils"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
)

// DefaultSystemPrompt frames the assistant when no prompt is configured.
const DefaultSystemPrompt = "You are a helpful assistant. Answer using the " +
	"provided knowledge when it is relevant, and say so when you do not know."

// Config holds tunables for the bot service.
type Config struct {
	// SystemPrompt frames every generation. Empty uses DefaultSystemPrompt.
	SystemPrompt string

	// TopK bounds retrieved knowledge chunks per turn. Non-positive defers
	// to the retrieval engine's default.
	TopK int
}

// InboundMessage is one user message arriving from a channel.
type InboundMessage struct {
	// ConversationID groups the message with its history.
	ConversationID string

	// From is the reply-to address, e.g. a phone number.
	From string

	// Text is the message body.
	Text string

	// Channel names the transport, e.g. "whatsapp".
	Channel string

	// ReceivedAt is when the channel accepted the message.
	ReceivedAt time.Time
}

// Service handles inbound messages end to end.
type Service struct {
	conversations *conversation.Manager
	retrieval     *rag.Engine
	generator     llm.Generator
	messenger     messenger.Messenger
	publisher     eventstream.Publisher
	config        Config
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates a bot service.
func NewService(conversations *conversation.Manager, retrieval *rag.Engine, generator llm.Generator, m messenger.Messenger, publisher eventstream.Publisher, config Config, logger *zap.Logger) *Service {
	return NewServiceWithClock(conversations, retrieval, generator, m, publisher, config, logger, time.Now)
}

// NewServiceWithClock is NewService with an injected clock for tests.
func NewServiceWithClock(conversations *conversation.Manager, retrieval *rag.Engine, generator llm.Generator, m messenger.Messenger, publisher eventstream.Publisher, config Config, logger *zap.Logger, now func() time.Time) *Service {
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}

	return &Service{
		conversations: conversations,
		retrieval:     retrieval,
		generator:     generator,
		messenger:     m,
		publisher:     publisher,
		config:        config,
		logger:        logger,
		now:           now,
	}
}

// HandleMessage runs one full turn. Retrieval failures degrade to a
// history-only prompt; generation and delivery failures abort the turn.
func (s *Service) HandleMessage(ctx context.Context, msg InboundMessage) error {
	started := s.now()

	s.logger.Debug("handling inbound message",
		zap.String("conversation_id", msg.ConversationID),
		zap.String("channel", msg.Channel),
		zap.String("preview", utils.Truncate(msg.Text, 80)),
	)

	history := s.conversations.GetContext(ctx, msg.ConversationID)

	chunks, degraded := s.retrieve(ctx, msg)

	reply, err := s.generator.Generate(ctx, s.buildPrompt(history, chunks, msg.Text))
	if err != nil {
		return fmt.Errorf("generating reply: %w", err)
	}

	if err := s.messenger.SendText(ctx, msg.From, reply); err != nil {
		return fmt.Errorf("delivering reply: %w", err)
	}

	s.persistTurn(ctx, msg, reply)
	s.publishHandled(ctx, msg, started, len(chunks), degraded)

	return nil
}

// retrieve fetches knowledge chunks for the message. A retrieval failure is
// a degradation, not a turn failure.
func (s *Service) retrieve(ctx context.Context, msg InboundMessage) ([]vector.Result, bool) {
	chunks, err := s.retrieval.Retrieve(ctx, msg.Text, vector.Scope{}, s.config.TopK)
	if err != nil {
		s.logger.Warn("retrieval failed, answering from history alone",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
		return nil, true
	}
	return chunks, false
}

// buildPrompt assembles system framing, retrieved knowledge, conversation
// history and the new user message, in that order.
func (s *Service) buildPrompt(history conversation.Context, chunks []vector.Result, userText string) []llm.Message {
	system := s.config.SystemPrompt
	if len(chunks) > 0 {
		var b strings.Builder
		b.WriteString(system)
		b.WriteString("\n\nRelevant knowledge:\n")
		for _, c := range chunks {
			b.WriteString("- ")
			b.WriteString(c.SourceText)
			b.WriteString("\n")
		}
		system = b.String()
	}

	prompt := make([]llm.Message, 0, len(history.Messages)+2)
	prompt = append(prompt, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, m := range history.Messages {
		prompt = append(prompt, llm.Message{Role: m.Role, Content: m.Text})
	}
	prompt = append(prompt, llm.Message{Role: llm.RoleUser, Content: userText})

	return prompt
}

// persistTurn appends both sides of the exchange. The reply was already
// delivered, so persistence failures are logged rather than surfaced.
func (s *Service) persistTurn(ctx context.Context, msg InboundMessage, reply string) {
	now := s.now()

	if err := s.conversations.AppendMessage(ctx, msg.ConversationID, conversation.Message{
		Role:      llm.RoleUser,
		Text:      msg.Text,
		Timestamp: now,
	}); err != nil {
		s.logger.Error("persisting user message failed",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
	}

	if err := s.conversations.AppendMessage(ctx, msg.ConversationID, conversation.Message{
		Role:      llm.RoleAssistant,
		Text:      reply,
		Timestamp: now,
	}); err != nil {
		s.logger.Error("persisting assistant reply failed",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
	}
}

func (s *Service) publishHandled(ctx context.Context, msg InboundMessage, started time.Time, retrieved int, degraded bool) {
	event := &eventstream.MessageHandledEvent{
		SchemaVersion:   eventstream.SchemaVersionV1,
		EventType:       eventstream.EventTypeMessageHandled,
		EventID:         uuid.NewString(),
		EmittedAt:       s.now().UTC(),
		ConversationID:  msg.ConversationID,
		Channel:         msg.Channel,
		DurationMs:      s.now().Sub(started).Milliseconds(),
		RetrievedChunks: retrieved,
		Degraded:        degraded,
	}

	if err := s.publisher.PublishMessageHandled(ctx, event); err != nil {
		s.logger.Warn("publishing message event failed",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
	}
}
