package chat

import (
	"context"

	"github.com/cowlitea/cowlitea/internal/domain"
	"github.com/cowlitea/cowlitea/internal/domain/search/filter"
)

// Retriever runs filtered vector search over the catalog.
type Retriever interface {
	Query(ctx context.Context, vector []float32, filters filter.Expression, topK int) ([]domain.Match, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Streamer opens a streaming chat completion.
type Streamer interface {
	Stream(ctx context.Context, msgs []domain.Message) (<-chan domain.StreamEvent, error)
}

// ConversationLog records finished turns.
type ConversationLog interface {
	Append(ctx context.Context, conversationID string, msgs ...domain.Message) error
}
