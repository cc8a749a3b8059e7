package config

const (
	defaultAPIListen = ":8080"

	defaultClientAPITarget = "http://localhost:8080"

	defaultStorageProvider = "sqlite"
	defaultCacheProvider   = "memory"
	defaultVectorProvider  = "sqlite"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultLLMModel     = "gpt-4o-mini"
	defaultLLMMaxTokens = 1000

	defaultActiveWindow = 10
	defaultContextTTL   = "1h"
	defaultStateTTL     = "168h"

	defaultTopK         = 5
	defaultEmbeddingTTL = "24h"

	defaultBackendTimeout = "30s"

	defaultEventsProvider = "nop"

	defaultIngestWorkers   = 3
	defaultIngestQueueSize = 256
	defaultIngestChunkSize = 200
	defaultIngestOverlap   = 20
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		Cache: CacheConfig{
			Provider: defaultCacheProvider,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Model:     defaultLLMModel,
			MaxTokens: defaultLLMMaxTokens,
		},
		Conversation: ConversationConfig{
			ActiveWindow: defaultActiveWindow,
			ContextTTL:   defaultContextTTL,
			StateTTL:     defaultStateTTL,
		},
		RAG: RAGConfig{
			TopK:         defaultTopK,
			EmbeddingTTL: defaultEmbeddingTTL,
		},
		Deletion: DeletionConfig{
			BackendTimeout: defaultBackendTimeout,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
		},
		Ingest: IngestConfig{
			Workers:   defaultIngestWorkers,
			QueueSize: defaultIngestQueueSize,
			ChunkSize: defaultIngestChunkSize,
			Overlap:   defaultIngestOverlap,
		},
	}
}
