package chat

import (
	"context"

	"github.com/cowlitea/cowlitea/internal/domain"
	"github.com/cowlitea/cowlitea/internal/domain/search/filter"
)

type mockRetriever struct {
	queryFunc func(ctx context.Context, vector []float32, filters filter.Expression, topK int) ([]domain.Match, error)
	calls     int
}

func (m *mockRetriever) Query(ctx context.Context, vector []float32, filters filter.Expression, topK int) ([]domain.Match, error) {
	m.calls++
	return m.queryFunc(ctx, vector, filters, topK)
}

type mockEmbedder struct {
	embedFunc func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls     int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.embedFunc(ctx, text)
}

type mockStreamer struct {
	streamFunc func(ctx context.Context, msgs []domain.Message) (<-chan domain.StreamEvent, error)
	calls      int
}

func (m *mockStreamer) Stream(ctx context.Context, msgs []domain.Message) (<-chan domain.StreamEvent, error) {
	m.calls++
	return m.streamFunc(ctx, msgs)
}

type mockConversationLog struct {
	appendFunc func(ctx context.Context, conversationID string, msgs ...domain.Message) error
	calls      int
}

func (m *mockConversationLog) Append(ctx context.Context, conversationID string, msgs ...domain.Message) error {
	m.calls++
	if m.appendFunc == nil {
		return nil
	}
	return m.appendFunc(ctx, conversationID, msgs...)
}

// eventChan builds a pre-filled closed event channel.
func eventChan(events ...domain.StreamEvent) <-chan domain.StreamEvent {
	ch := make(chan domain.StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}
