package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/bot"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/conversation"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/deletion"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/ingest"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/rag"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/storage"
)

// Deps are the collaborators the server routes requests to. They are
// injected to allow sharing with other components and swapping in test
// doubles.
type Deps struct {
	// Conversations serves the conversation context endpoint.
	Conversations *conversation.Manager

	// Retrieval serves the knowledge search endpoint.
	Retrieval *rag.Engine

	// Deleter fans document deletions out across backends.
	Deleter *deletion.Orchestrator

	// Store receives uploaded document blobs.
	Store storage.Driver

	// Ingest indexes uploaded documents asynchronously.
	Ingest *ingest.Pool

	// Bot handles inbound messages from the webhook. Optional; when nil
	// the webhook route is not registered.
	Bot *bot.Service
}

// Server is the HTTP API server.
type Server struct {
	config Config
	deps   Deps
	logger *zap.Logger
	app    *fiber.App
	now    func() time.Time
}

// NewServer creates a new API server.
func NewServer(config Config, deps Deps, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		deps:   deps,
		logger: logger,
		app:    app,
		now:    time.Now,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/search", s.handleSearch)
	app.Post("/v1/documents", s.handleUploadDocument)
	app.Delete("/v1/documents", s.handleDeleteDocument)
	app.Get("/v1/conversations/:id/context", s.handleGetContext)

	if deps.Bot != nil {
		app.Post("/v1/messages/events", s.handleMessageEvents)
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
