// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/embeddings"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/embeddings/ollama"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/embeddings/openai"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "openai":
		return openai.NewEmbedder(openai.EmbedderConfig{
			APIKey:  o.APIKey,
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
