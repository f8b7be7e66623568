package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexatlas/citegraph/internal/config"
)

// NewEmbedder selects an embedding provider by configured name. Ollama
// is driven through its OpenAI-compatible API. An empty provider means
// no embedder: the server then requires callers to supply precomputed
// query embeddings.
func NewEmbedder(ctx context.Context, cfg config.LLMConfig) (EmbedderClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "":
		return nil, nil

	case "openai":
		return NewOpenAIEmbedder(cfg.APIKey, cfg.EmbeddingModel, cfg.BaseURL), nil

	case "gemini":
		return NewGeminiEmbedder(ctx, cfg.APIKey, cfg.EmbeddingModel)

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}

		// API key is ignored by Ollama but required by the client config.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIEmbedder(apiKey, cfg.EmbeddingModel, baseURL), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
