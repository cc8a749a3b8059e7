package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent veaconnect configuration stored as
// config.toml in the .veaconnect/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version      int                `toml:"version"`
	API          APIConfig          `toml:"api"`
	Client       ClientConfig       `toml:"client"`
	Storage      StorageConfig      `toml:"storage"`
	Cache        CacheConfig        `toml:"cache"`
	VectorStore  VectorStoreConfig  `toml:"vector_store"`
	Embedding    EmbeddingConfig    `toml:"embedding"`
	LLM          LLMConfig          `toml:"llm"`
	Conversation ConversationConfig `toml:"conversation"`
	RAG          RAGConfig          `toml:"rag"`
	Deletion     DeletionConfig     `toml:"deletion"`
	Messenger    MessengerConfig    `toml:"messenger"`
	Events       EventsConfig       `toml:"events"`
	Ingest       IngestConfig       `toml:"ingest"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server (e.g. vea search, vea delete). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// StorageConfig holds durable blob store settings.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// CacheConfig holds fast-tier cache settings.
type CacheConfig struct {
	Provider string `toml:"provider,omitempty"`
	RedisURL string `toml:"redis_url,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// LLMConfig holds chat completion provider settings.
type LLMConfig struct {
	Target    string `toml:"target,omitempty"`
	Model     string `toml:"model,omitempty"`
	APIKey    string `toml:"api_key,omitempty"`
	MaxTokens uint   `toml:"max_tokens,omitempty"`
}

// ConversationConfig holds conversation manager settings. TTLs are Go
// duration strings, e.g. "1h" or "168h".
type ConversationConfig struct {
	ActiveWindow uint   `toml:"active_window,omitempty"`
	ContextTTL   string `toml:"context_ttl,omitempty"`
	StateTTL     string `toml:"state_ttl,omitempty"`
}

// RAGConfig holds retrieval engine settings.
type RAGConfig struct {
	TopK         uint   `toml:"top_k,omitempty"`
	EmbeddingTTL string `toml:"embedding_ttl,omitempty"`
}

// DeletionConfig holds deletion orchestrator settings.
type DeletionConfig struct {
	BackendTimeout string `toml:"backend_timeout,omitempty"`
}

// MessengerConfig holds outbound messaging settings.
type MessengerConfig struct {
	Endpoint    string `toml:"endpoint,omitempty"`
	ChannelID   string `toml:"channel_id,omitempty"`
	AccessToken string `toml:"access_token,omitempty"`
}

// EventsConfig holds event stream settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// IngestConfig holds ingest pool settings. Chunking units are words.
type IngestConfig struct {
	Workers   uint `toml:"workers,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
	ChunkSize uint `toml:"chunk_size,omitempty"`
	Overlap   uint `toml:"overlap,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(get func(c *Config) *uint, name string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *get(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*get(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*get(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"cache.provider": {
		get: func(c *Config) string { return c.Cache.Provider },
		set: func(c *Config, v string) error { c.Cache.Provider = v; return nil },
	},
	"cache.redis_url": {
		get: func(c *Config) string { return c.Cache.RedisURL },
		set: func(c *Config, v string) error { c.Cache.RedisURL = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": uintKey(func(c *Config) *uint { return &c.Embedding.Dimensions }, "embedding.dimensions"),
	"llm.target": {
		get: func(c *Config) string { return c.LLM.Target },
		set: func(c *Config, v string) error { c.LLM.Target = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"llm.max_tokens":            uintKey(func(c *Config) *uint { return &c.LLM.MaxTokens }, "llm.max_tokens"),
	"conversation.active_window": uintKey(func(c *Config) *uint { return &c.Conversation.ActiveWindow }, "conversation.active_window"),
	"conversation.context_ttl": {
		get: func(c *Config) string { return c.Conversation.ContextTTL },
		set: func(c *Config, v string) error { return setDuration(&c.Conversation.ContextTTL, "conversation.context_ttl", v) },
	},
	"conversation.state_ttl": {
		get: func(c *Config) string { return c.Conversation.StateTTL },
		set: func(c *Config, v string) error { return setDuration(&c.Conversation.StateTTL, "conversation.state_ttl", v) },
	},
	"rag.top_k": uintKey(func(c *Config) *uint { return &c.RAG.TopK }, "rag.top_k"),
	"rag.embedding_ttl": {
		get: func(c *Config) string { return c.RAG.EmbeddingTTL },
		set: func(c *Config, v string) error { return setDuration(&c.RAG.EmbeddingTTL, "rag.embedding_ttl", v) },
	},
	"deletion.backend_timeout": {
		get: func(c *Config) string { return c.Deletion.BackendTimeout },
		set: func(c *Config, v string) error { return setDuration(&c.Deletion.BackendTimeout, "deletion.backend_timeout", v) },
	},
	"messenger.endpoint": {
		get: func(c *Config) string { return c.Messenger.Endpoint },
		set: func(c *Config, v string) error { c.Messenger.Endpoint = v; return nil },
	},
	"messenger.channel_id": {
		get: func(c *Config) string { return c.Messenger.ChannelID },
		set: func(c *Config, v string) error { c.Messenger.ChannelID = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"ingest.workers":    uintKey(func(c *Config) *uint { return &c.Ingest.Workers }, "ingest.workers"),
	"ingest.queue_size": uintKey(func(c *Config) *uint { return &c.Ingest.QueueSize }, "ingest.queue_size"),
	"ingest.chunk_size": uintKey(func(c *Config) *uint { return &c.Ingest.ChunkSize }, "ingest.chunk_size"),
	"ingest.overlap":    uintKey(func(c *Config) *uint { return &c.Ingest.Overlap }, "ingest.overlap"),
}
