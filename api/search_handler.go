package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/llm"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
)

// SearchResult is one ranked chunk in a search response.
type SearchResult struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// SearchResponse is the payload for GET /v1/search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// handleSearch handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional): number of results to return
//   - document_id (optional): restrict the search to one document
func (s *Server) handleSearch(c *fiber.Ctx) error {
	if s.deps.Retrieval == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{
			Error: "search is not configured",
		})
	}

	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK := 0
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
				Error: "top_k must be a positive integer",
			})
		}
		topK = parsed
	}

	scope := vector.Scope{DocumentID: c.Query("document_id")}

	results, err := s.deps.Retrieval.Retrieve(c.Context(), query, scope, topK)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{
			Error: err.Error(),
		})
	}

	resp := SearchResponse{
		Query:   query,
		Results: make([]SearchResult, 0, len(results)),
		Count:   len(results),
	}
	for _, r := range results {
		resp.Results = append(resp.Results, SearchResult{
			DocumentID: r.DocumentID,
			ChunkID:    r.ChunkID,
			Text:       r.SourceText,
			Score:      r.Score,
		})
	}

	return c.JSON(resp)
}
