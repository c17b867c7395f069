package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/cowlitea/cowlitea/internal/domain"
	"github.com/cowlitea/cowlitea/internal/metrics"
)

// Streamer streams chat completions from the OpenAI-compatible API.
type Streamer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewStreamer creates a streaming chat completion client.
func NewStreamer(cfg *Config, model string) *Streamer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Streamer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: cfg.Logger,
	}
}

// recvStream abstracts the upstream completion stream.
type recvStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// Stream opens a completion stream for the given messages.
// A returned error means the stream never started. Otherwise the channel
// carries zero or more chunk events followed by exactly one terminal event,
// then closes. Cancelling ctx abandons the upstream stream.
func (s *Streamer) Stream(ctx context.Context, msgs []domain.Message) (<-chan domain.StreamEvent, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("no messages to complete: %w", domain.ErrInvalidInput)
	}

	req := openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: toWireMessages(msgs),
		Stream:   true,
	}

	upstream, err := s.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(s.model, "error").Inc()
		return nil, fmt.Errorf("create completion stream: %w", domain.ErrGenerationFailed)
	}

	metrics.ChatRequestsTotal.WithLabelValues(s.model, "success").Inc()

	events := make(chan domain.StreamEvent)
	go s.pump(ctx, upstream, events)
	return events, nil
}

// pump forwards upstream deltas as chunk events until EOF or failure.
func (s *Streamer) pump(ctx context.Context, upstream recvStream, events chan<- domain.StreamEvent) {
	defer close(events)
	defer func() {
		if err := upstream.Close(); err != nil {
			s.logger.Warn("Failed to close completion stream", zap.Error(err))
		}
	}()

	for {
		resp, err := upstream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.emit(ctx, events, domain.DoneEvent())
				return
			}
			s.emit(ctx, events, domain.ErrorEvent(fmt.Errorf("completion stream: %w", domain.ErrGenerationFailed)))
			return
		}

		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}

		metrics.ChatStreamChunksTotal.Inc()
		if !s.emit(ctx, events, domain.ChunkEvent(chunk)) {
			return
		}
	}
}

// emit delivers an event unless the consumer is gone. Returns false when ctx
// is cancelled, which abandons the upstream stream.
func (s *Streamer) emit(ctx context.Context, events chan<- domain.StreamEvent, ev domain.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func toWireMessages(msgs []domain.Message) []openai.ChatCompletionMessage {
	wire := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		wire = append(wire, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return wire
}
