package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/cache"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/storage"
)

const (
	// DefaultActiveWindow is the default bound on fast-tier message count.
	DefaultActiveWindow = 10

	// DefaultContextTTL is the default fast-tier context lifetime.
	DefaultContextTTL = time.Hour

	// DefaultStateTTL is the default lifetime of the lifecycle marker.
	DefaultStateTTL = 7 * 24 * time.Hour
)

// Config holds tunables for the conversation manager.
type Config struct {
	// ActiveWindow bounds how many recent messages the fast tier holds.
	ActiveWindow int

	// ContextTTL is the fast-tier TTL, refreshed on every append.
	ContextTTL time.Duration

	// StateTTL is the lifetime of the per-conversation state marker. It is
	// lifecycle bookkeeping only; history is never discarded because of it.
	StateTTL time.Duration
}

// Manager reads and writes conversation history through the fast cache
// first and the durable store second.
type Manager struct {
	cache  cache.Driver
	store  storage.Driver
	config Config
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates a conversation manager. Zero config fields fall back
// to the package defaults.
func NewManager(c cache.Driver, s storage.Driver, config Config, logger *zap.Logger) *Manager {
	return NewManagerWithClock(c, s, config, logger, time.Now)
}

// NewManagerWithClock is NewManager with an injected clock for tests.
func NewManagerWithClock(c cache.Driver, s storage.Driver, config Config, logger *zap.Logger, now func() time.Time) *Manager {
	if config.ActiveWindow <= 0 {
		config.ActiveWindow = DefaultActiveWindow
	}
	if config.ContextTTL <= 0 {
		config.ContextTTL = DefaultContextTTL
	}
	if config.StateTTL <= 0 {
		config.StateTTL = DefaultStateTTL
	}

	return &Manager{
		cache:  c,
		store:  s,
		config: config,
		logger: logger,
		now:    now,
	}
}

// storageKey is the durable-tier key for a conversation's full history.
func storageKey(conversationID string) string {
	return fmt.Sprintf("conversations/%s.json", conversationID)
}

// GetContext returns the conversation's context, reading the fast tier
// first and falling back to the durable tier. A fast-tier miss that the
// durable tier can serve repopulates the fast tier with the most recent
// active window. A conversation with no history anywhere, or with both
// tiers unavailable, yields an empty context; GetContext never fails.
func (m *Manager) GetContext(ctx context.Context, conversationID string) Context {
	if cached, ok := m.getFromCache(ctx, conversationID); ok {
		return cached
	}

	data, err := m.store.Get(ctx, storageKey(conversationID))
	if err != nil {
		var notFound storage.NotFoundError
		if !errors.As(err, &notFound) {
			m.logger.Warn("durable read failed, serving empty context",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}
		return m.emptyContext(conversationID)
	}

	var stored storedConversation
	if err := json.Unmarshal(data, &stored); err != nil {
		m.logger.Error("corrupt conversation blob, serving empty context",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return m.emptyContext(conversationID)
	}

	window := lastN(stored.Messages, m.config.ActiveWindow)
	m.repopulateFastTier(ctx, conversationID, window, stored.LastUpdated)

	return Context{
		ConversationID: conversationID,
		Messages:       window,
		LastUpdated:    stored.LastUpdated,
		Source:         FromStore,
	}
}

// AppendMessage appends to the conversation: the durable tier receives the
// full untruncated history, the fast tier the most recent active window
// with a refreshed TTL, and the state marker its longer lifecycle TTL.
//
// A single tier failing degrades to the other and is only logged; the
// append fails only when both tiers reject the write. Callers serialize
// appends per conversation id.
func (m *Manager) AppendMessage(ctx context.Context, conversationID string, msg Message) error {
	now := m.now()

	full, durableErr := m.loadHistory(ctx, conversationID)
	if durableErr == nil {
		full = append(full, msg)
		durableErr = m.putHistory(ctx, conversationID, full, now)
	}

	window := full
	if durableErr != nil {
		m.logger.Warn("durable tier unavailable, appending to fast tier only",
			zap.String("conversation_id", conversationID),
			zap.Error(durableErr),
		)
		// Extend whatever window the fast tier had.
		if cached, ok := m.getFromCache(ctx, conversationID); ok {
			window = append(cached.Messages, msg)
		} else {
			window = []Message{msg}
		}
	}
	window = lastN(window, m.config.ActiveWindow)

	fastErr := m.writeFastTier(ctx, conversationID, window, now)
	if fastErr != nil {
		m.logger.Warn("fast tier write failed, continuing durable-only",
			zap.String("conversation_id", conversationID),
			zap.Error(fastErr),
		)
	}

	if durableErr != nil && fastErr != nil {
		return fmt.Errorf("append failed on both tiers: %w", errors.Join(durableErr, fastErr))
	}

	return nil
}

// getFromCache reads the fast tier. Backend failures and corrupt entries
// count as misses so the durable fallback can take over.
func (m *Manager) getFromCache(ctx context.Context, conversationID string) (Context, bool) {
	raw, ok, err := m.cache.Get(ctx, cache.ContextKey(conversationID))
	if err != nil {
		m.logger.Warn("fast tier read failed, falling back to durable store",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return Context{}, false
	}
	if !ok {
		return Context{}, false
	}

	var stored storedConversation
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		m.logger.Warn("corrupt fast-tier entry, falling back to durable store",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return Context{}, false
	}

	return Context{
		ConversationID: conversationID,
		Messages:       stored.Messages,
		LastUpdated:    stored.LastUpdated,
		Source:         FromCache,
	}, true
}

// loadHistory reads the full durable history. An absent conversation is an
// empty history, not an error.
func (m *Manager) loadHistory(ctx context.Context, conversationID string) ([]Message, error) {
	data, err := m.store.Get(ctx, storageKey(conversationID))
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}

	var stored storedConversation
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("corrupt conversation blob: %w", err)
	}
	return stored.Messages, nil
}

func (m *Manager) putHistory(ctx context.Context, conversationID string, messages []Message, now time.Time) error {
	data, err := json.Marshal(storedConversation{
		ConversationID: conversationID,
		Messages:       messages,
		LastUpdated:    now,
	})
	if err != nil {
		return fmt.Errorf("marshaling conversation: %w", err)
	}
	return m.store.Put(ctx, storageKey(conversationID), data)
}

func (m *Manager) writeFastTier(ctx context.Context, conversationID string, window []Message, now time.Time) error {
	data, err := json.Marshal(storedConversation{
		ConversationID: conversationID,
		Messages:       window,
		LastUpdated:    now,
	})
	if err != nil {
		return fmt.Errorf("marshaling window: %w", err)
	}

	if err := m.cache.Set(ctx, cache.ContextKey(conversationID), string(data), m.config.ContextTTL); err != nil {
		return err
	}

	// The state marker is bookkeeping; losing it never degrades the chat
	// path, so its failure is only logged.
	if err := m.cache.Set(ctx, cache.StateKey(conversationID), now.UTC().Format(time.RFC3339Nano), m.config.StateTTL); err != nil {
		m.logger.Debug("state marker write failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}

	return nil
}

// repopulateFastTier writes the reconstructed window back to the fast tier
// after a durable fallback read. Best effort.
func (m *Manager) repopulateFastTier(ctx context.Context, conversationID string, window []Message, lastUpdated time.Time) {
	data, err := json.Marshal(storedConversation{
		ConversationID: conversationID,
		Messages:       window,
		LastUpdated:    lastUpdated,
	})
	if err != nil {
		return
	}

	if err := m.cache.Set(ctx, cache.ContextKey(conversationID), string(data), m.config.ContextTTL); err != nil {
		m.logger.Debug("fast tier repopulation failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}
}

func (m *Manager) emptyContext(conversationID string) Context {
	return Context{
		ConversationID: conversationID,
		Messages:       []Message{},
		Source:         Empty,
	}
}

func lastN(messages []Message, n int) []Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
