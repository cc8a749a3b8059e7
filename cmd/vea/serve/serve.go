// Package servecmder provides the serve command running the Vea Connect API server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/api"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/bot"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/cache"
	cacheinmemory "github.com/dfernandezmOnesec/vea-connect-go/pkg/cache/inmemory"
	cacheredis "github.com/dfernandezmOnesec/vea-connect-go/pkg/cache/redis"
	cacheristretto "github.com/dfernandezmOnesec/vea-connect-go/pkg/cache/ristretto"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/config"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/conversation"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/deletion"
	embeddingutils "github.com/dfernandezmOnesec/vea-connect-go/pkg/embeddings/utils"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/eventstream"
	eventkafka "github.com/dfernandezmOnesec/vea-connect-go/pkg/eventstream/kafka"
	eventnop "github.com/dfernandezmOnesec/vea-connect-go/pkg/eventstream/nop"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/ingest"
	llmopenai "github.com/dfernandezmOnesec/vea-connect-go/pkg/llm/openai"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/logger"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/messenger/acs"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/rag"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/storage"
	storageinmemory "github.com/dfernandezmOnesec/vea-connect-go/pkg/storage/inmemory"
	storagepostgres "github.com/dfernandezmOnesec/vea-connect-go/pkg/storage/postgres"
	storagesqlite "github.com/dfernandezmOnesec/vea-connect-go/pkg/storage/sqlite"
	vectorutils "github.com/dfernandezmOnesec/vea-connect-go/pkg/vector/utils"
)

type ServeCommander struct {
	listen          string
	storageProvider string
	sqlitePath      string
	postgresDSN     string
	cacheProvider   string
	redisURL        string
	vectorProvider  string
	vectorTarget    string
	embedProvider   string
	embedTarget     string
	embedModel      string
	embedDims       uint
	eventsProvider  string
	eventsBrokers   string
	eventsTopic     string

	debug  bool
	viper  *viper.Viper
	logger *zap.Logger
}

// serveFlags is the registry of flags the serve command exposes. Flag
// definitions live here so the same logical flag never drifts between
// commands.
var serveFlags = config.FlagSet{
	config.FlagAPIListen: {
		Name: "listen", Shorthand: "l", ViperKey: "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagStorageProvider: {
		Name: "storage-provider", ViperKey: "storage.provider",
		Description: "Durable store provider (memory, sqlite, postgres)",
	},
	config.FlagSQLite: {
		Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path",
		Description: "Path to SQLite database (default: in-memory)",
	},
	config.FlagPostgresDSN: {
		Name: "postgres-dsn", ViperKey: "storage.postgres_dsn",
		Description: "Postgres connection string (when storage-provider is postgres)",
	},
	config.FlagCacheProvider: {
		Name: "cache-provider", ViperKey: "cache.provider",
		Description: "Fast cache provider (memory, redis, ristretto)",
	},
	config.FlagRedisURL: {
		Name: "redis-url", ViperKey: "cache.redis_url",
		Description: "Redis connection URL (when cache-provider is redis)",
	},
	config.FlagVectorStoreProv: {
		Name: "vector-store-provider", ViperKey: "vector_store.provider",
		Description: "Vector store provider (memory, sqlite, chromem)",
	},
	config.FlagVectorStoreTgt: {
		Name: "vector-store-target", ViperKey: "vector_store.target",
		Description: "Vector store path or URL",
	},
	config.FlagEmbeddingProv: {
		Name: "embedding-provider", ViperKey: "embedding.provider",
		Description: "Embedding provider (ollama, openai)",
	},
	config.FlagEmbeddingTgt: {
		Name: "embedding-target", ViperKey: "embedding.target",
		Description: "Embedding provider URL",
	},
	config.FlagEmbeddingModel: {
		Name: "embedding-model", ViperKey: "embedding.model",
		Description: "Embedding model name (e.g., nomic-embed-text)",
	},
	config.FlagEmbeddingDims: {
		Name: "embedding-dimensions", ViperKey: "embedding.dimensions",
		Description: "Embedding vector dimensionality",
	},
	config.FlagEventsProvider: {
		Name: "events-provider", ViperKey: "events.provider",
		Description: "Lifecycle event publisher (nop, kafka)",
	},
	config.FlagEventsBrokers: {
		Name: "events-brokers", ViperKey: "events.brokers",
		Description: "Comma-separated Kafka broker addresses",
	},
	config.FlagEventsTopic: {
		Name: "events-topic", ViperKey: "events.topic",
		Description: "Kafka topic for lifecycle events",
	},
}

const serveLongDesc string = `Run the Vea Connect API server.

Serves conversation context, semantic search, document upload and deletion
over HTTP, and handles inbound messaging webhooks when a messenger channel
is configured.

Configuration precedence: CLI flags, then VEA_ environment variables, then
config.toml in the .veaconnect/ directory, then built-in defaults.

Examples:
  vea serve
  vea serve --listen :9090 --cache-provider redis --redis-url redis://localhost:6379/0
  VEA_EMBEDDING_PROVIDER=openai VEA_EMBEDDING_API_KEY=sk-... vea serve`

const serveShortDesc string = "Run the Vea Connect API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, serveFlags, []string{
				config.FlagAPIListen,
				config.FlagStorageProvider,
				config.FlagSQLite,
				config.FlagPostgresDSN,
				config.FlagCacheProvider,
				config.FlagRedisURL,
				config.FlagVectorStoreProv,
				config.FlagVectorStoreTgt,
				config.FlagEmbeddingProv,
				config.FlagEmbeddingTgt,
				config.FlagEmbeddingModel,
				config.FlagEmbeddingDims,
				config.FlagEventsProvider,
				config.FlagEventsBrokers,
				config.FlagEventsTopic,
			})

			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, serveFlags, config.FlagCacheProvider, &cmder.cacheProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagRedisURL, &cmder.redisURL)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingProv, &cmder.embedProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, serveFlags, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	v := c.viper
	ctx := context.Background()

	// Fast cache tier
	cacheDriver, err := c.newCacheDriver(ctx, v)
	if err != nil {
		return err
	}
	defer cacheDriver.Close()

	// Durable store
	store, err := c.newStorageDriver(ctx, v)
	if err != nil {
		return err
	}
	defer store.Close()

	// Vector index
	vectors, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: v.GetString("vector_store.provider"),
		Target:       v.GetString("vector_store.target"),
		Dimensions:   v.GetUint("embedding.dimensions"),
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer vectors.Close()

	// Embedder
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
		APIKey:       v.GetString("embedding.api_key"),
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	// Lifecycle event publisher
	publisher, err := c.newPublisher(v)
	if err != nil {
		return err
	}
	defer publisher.Close()

	conversations := conversation.NewManager(cacheDriver, store, conversation.Config{
		ActiveWindow: int(v.GetUint("conversation.active_window")),
		ContextTTL:   config.Duration(v.GetString("conversation.context_ttl"), conversation.DefaultContextTTL),
		StateTTL:     config.Duration(v.GetString("conversation.state_ttl"), conversation.DefaultStateTTL),
	}, c.logger)

	retrieval := rag.NewEngine(embedder, vectors, cacheDriver, rag.Config{
		TopK:         int(v.GetUint("rag.top_k")),
		EmbeddingTTL: config.Duration(v.GetString("rag.embedding_ttl"), rag.DefaultEmbeddingTTL),
		Dimensions:   int(v.GetUint("embedding.dimensions")),
	}, c.logger)

	deleter := deletion.NewOrchestrator(store, cacheDriver, vectors, publisher, deletion.Config{
		BackendTimeout: config.Duration(v.GetString("deletion.backend_timeout"), deletion.DefaultBackendTimeout),
	}, c.logger)

	pool, err := ingest.NewPool(&ingest.Config{
		Cache:      cacheDriver,
		Embedder:   embedder,
		Vectors:    vectors,
		NumWorkers: v.GetUint("ingest.workers"),
		QueueSize:  v.GetUint("ingest.queue_size"),
		ChunkSize:  int(v.GetUint("ingest.chunk_size")),
		Overlap:    int(v.GetUint("ingest.overlap")),
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating ingest pool: %w", err)
	}
	defer pool.Close()

	botService, closeBot, err := c.newBotService(v, conversations, retrieval, publisher)
	if err != nil {
		return err
	}
	if closeBot != nil {
		defer closeBot()
	}

	apiConfig := api.Config{
		ListenAddr: v.GetString("api.listen"),
	}

	server := api.NewServer(apiConfig, api.Deps{
		Conversations: conversations,
		Retrieval:     retrieval,
		Deleter:       deleter,
		Store:         store,
		Ingest:        pool,
		Bot:           botService,
	}, c.logger)

	c.logger.Info("serving",
		zap.String("listen", apiConfig.ListenAddr),
		zap.Bool("bot_enabled", botService != nil),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

func (c *ServeCommander) newCacheDriver(ctx context.Context, v *viper.Viper) (cache.Driver, error) {
	provider := v.GetString("cache.provider")
	switch provider {
	case "memory":
		c.logger.Info("using in-memory cache")
		return cacheinmemory.NewDriver(), nil
	case "redis":
		url := v.GetString("cache.redis_url")
		driver, err := cacheredis.NewDriver(ctx, cacheredis.Config{URL: url}, c.logger)
		if err != nil {
			return nil, fmt.Errorf("creating redis cache: %w", err)
		}
		c.logger.Info("using redis cache", zap.String("url", url))
		return driver, nil
	case "ristretto":
		driver, err := cacheristretto.NewDriver(cacheristretto.Config{})
		if err != nil {
			return nil, fmt.Errorf("creating ristretto cache: %w", err)
		}
		c.logger.Info("using ristretto cache")
		return driver, nil
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", provider)
	}
}

func (c *ServeCommander) newStorageDriver(ctx context.Context, v *viper.Viper) (storage.Driver, error) {
	provider := v.GetString("storage.provider")
	switch provider {
	case "memory":
		c.logger.Info("using in-memory storage")
		return storageinmemory.NewDriver(), nil
	case "sqlite":
		path := v.GetString("storage.sqlite_path")
		driver, err := storagesqlite.NewDriver(path)
		if err != nil {
			return nil, fmt.Errorf("creating SQLite storage: %w", err)
		}
		c.logger.Info("using SQLite storage", zap.String("path", path))
		return driver, nil
	case "postgres":
		dsn := v.GetString("storage.postgres_dsn")
		driver, err := storagepostgres.NewDriver(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("creating Postgres storage: %w", err)
		}
		c.logger.Info("using Postgres storage")
		return driver, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", provider)
	}
}

func (c *ServeCommander) newPublisher(v *viper.Viper) (eventstream.Publisher, error) {
	provider := v.GetString("events.provider")
	switch provider {
	case "", "nop":
		return eventnop.NewPublisher(), nil
	case "kafka":
		brokers := strings.Split(v.GetString("events.brokers"), ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		publisher, err := eventkafka.NewPublisher(eventkafka.Config{
			Brokers: brokers,
			Topic:   v.GetString("events.topic"),
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		c.logger.Info("publishing lifecycle events to kafka",
			zap.Strings("brokers", brokers),
			zap.String("topic", v.GetString("events.topic")),
		)
		return publisher, nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", provider)
	}
}

// newBotService wires the inbound messaging bot when a messenger channel and
// an LLM API key are configured. Without both, the webhook route stays off
// and the server runs context, search, upload and deletion only.
func (c *ServeCommander) newBotService(v *viper.Viper, conversations *conversation.Manager, retrieval *rag.Engine, publisher eventstream.Publisher) (*bot.Service, func(), error) {
	endpoint := v.GetString("messenger.endpoint")
	llmKey := v.GetString("llm.api_key")

	if endpoint == "" || llmKey == "" {
		c.logger.Info("messenger channel not configured, bot disabled")
		return nil, nil, nil
	}

	sender, err := acs.NewMessenger(acs.Config{
		Endpoint:              endpoint,
		AccessToken:           v.GetString("messenger.access_token"),
		ChannelRegistrationID: v.GetString("messenger.channel_id"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating messenger: %w", err)
	}

	generator, err := llmopenai.NewGenerator(llmopenai.Config{
		APIKey:    llmKey,
		BaseURL:   v.GetString("llm.target"),
		Model:     v.GetString("llm.model"),
		MaxTokens: int(v.GetUint("llm.max_tokens")),
	})
	if err != nil {
		_ = sender.Close()
		return nil, nil, fmt.Errorf("creating generator: %w", err)
	}

	service := bot.NewService(conversations, retrieval, generator, sender, publisher, bot.Config{
		TopK: int(v.GetUint("rag.top_k")),
	}, c.logger)

	closeAll := func() {
		_ = generator.Close()
		_ = sender.Close()
	}

	c.logger.Info("messenger bot enabled", zap.String("endpoint", endpoint))
	return service, closeAll, nil
}
