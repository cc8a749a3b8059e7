package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/conversation"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/ingest"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/llm"
)

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// ContextResponse is the payload for GET /v1/conversations/:id/context.
type ContextResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Messages       []conversation.Message `json:"messages"`
	LastUpdated    string                 `json:"last_updated,omitempty"`
	Source         string                 `json:"source"`
}

// handleGetContext returns a conversation's active context and which tier
// served it.
func (s *Server) handleGetContext(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "conversation id required"})
	}

	cctx := s.deps.Conversations.GetContext(c.Context(), id)

	resp := ContextResponse{
		ConversationID: cctx.ConversationID,
		Messages:       cctx.Messages,
		Source:         string(cctx.Source),
	}
	if !cctx.LastUpdated.IsZero() {
		resp.LastUpdated = cctx.LastUpdated.UTC().Format(time.RFC3339)
	}

	return c.JSON(resp)
}

// UploadRequest is the payload for POST /v1/documents.
type UploadRequest struct {
	// DocumentID is optional; one is generated when empty.
	DocumentID string `json:"document_id"`

	// Text is the extracted document text to index.
	Text string `json:"text"`
}

// UploadResponse acknowledges an accepted upload.
type UploadResponse struct {
	DocumentID string `json:"document_id"`
	BlobKey    string `json:"blob_key"`
	Queued     bool   `json:"queued"`
}

// handleUploadDocument stores the raw text durably and queues it for
// asynchronous ingestion.
func (s *Server) handleUploadDocument(c *fiber.Ctx) error {
	var req UploadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "text is required"})
	}

	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}
	blobKey := fmt.Sprintf("documents/%s.txt", documentID)

	if err := s.deps.Store.Put(c.Context(), blobKey, []byte(req.Text)); err != nil {
		s.logger.Error("storing uploaded document failed",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "storing document failed"})
	}

	queued := s.deps.Ingest.Enqueue(ingest.Job{
		DocumentID: documentID,
		BlobKey:    blobKey,
		Text:       req.Text,
	})
	if !queued {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{Error: "ingest queue is full"})
	}

	return c.Status(fiber.StatusAccepted).JSON(UploadResponse{
		DocumentID: documentID,
		BlobKey:    blobKey,
		Queued:     true,
	})
}
