package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/deletion"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/llm"
)

// DeleteResponse is the payload for DELETE /v1/documents. A partial failure
// returns 500 with the same shape so callers can see exactly which backends
// still hold data.
type DeleteResponse struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	DocumentID      string          `json:"document_id,omitempty"`
	BlobKey         string          `json:"blob_key,omitempty"`
	DeletionDetails deletion.Result `json:"deletion_details"`
	Timestamp       string          `json:"timestamp"`
}

// handleDeleteDocument handles DELETE /v1/documents requests. The body is a
// deletion.Request naming the document id, the blob key, or both.
func (s *Server) handleDeleteDocument(c *fiber.Ctx) error {
	var req deletion.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	result, err := s.deps.Deleter.Delete(c.Context(), req)
	if err != nil {
		if errors.Is(err, deletion.ErrMissingIdentifiers) {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	resp := DeleteResponse{
		Success:         result.Success(),
		DocumentID:      req.DocumentID,
		BlobKey:         req.BlobKey,
		DeletionDetails: result,
		Timestamp:       s.now().UTC().Format(time.RFC3339),
	}

	if !result.Success() {
		resp.Message = "document partially deleted"
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}

	resp.Message = "document deleted"
	return c.JSON(resp)
}
