// Package llm provides the text generation boundary. The core assembles an
// enriched context and hands it to a Generator; everything past that call is
// an external collaborator.
package llm

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single prompt message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces a completion for an assembled prompt context.
type Generator interface {
	// Generate returns the completion text for the given messages.
	Generate(ctx context.Context, messages []Message) (string, error)

	// Close releases any resources held by the generator.
	Close() error
}

// ErrorResponse is the JSON error payload shape used by the HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}
