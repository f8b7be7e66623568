package llm

import (
	"context"
)

// EmbedderClient produces a fixed-dimension embedding for a piece of
// text. The engine itself only ever consumes precomputed vectors; this
// client exists at the server boundary to embed incoming search queries.
type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
