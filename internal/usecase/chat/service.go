package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cowlitea/cowlitea/internal/domain"
	"github.com/cowlitea/cowlitea/internal/domain/query"
	"github.com/cowlitea/cowlitea/internal/domain/search/filter"
	"github.com/cowlitea/cowlitea/internal/metrics"
)

// Config holds chat pipeline settings.
type Config struct {
	TopK            int
	EmbedTimeout    time.Duration
	RetrieveTimeout time.Duration
}

// Service runs the retrieval-augmented chat pipeline: extract filters from
// the latest user message, embed it, retrieve matching catalog entries, and
// stream a grounded completion.
type Service struct {
	extractor *query.Extractor
	planner   *Planner
	embed     Embedder
	retriever Retriever
	streamer  Streamer
	log       ConversationLog
	cfg       Config
	logger    *zap.Logger
}

// New creates a chat service.
func New(
	extractor *query.Extractor,
	planner *Planner,
	embed Embedder,
	retriever Retriever,
	streamer Streamer,
	log ConversationLog,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &Service{
		extractor: extractor,
		planner:   planner,
		embed:     embed,
		retriever: retriever,
		streamer:  streamer,
		log:       log,
		cfg:       cfg,
		logger:    logger,
	}
}

// Answer processes one chat turn. A returned error means nothing was
// streamed; otherwise the channel carries the completion and, when a
// conversation id is given, the finished turn lands in the conversation log
// after the terminal event.
func (s *Service) Answer(
	ctx context.Context, conversationID string, history []domain.Message,
) (<-chan domain.StreamEvent, error) {
	text, err := lastUserMessage(history)
	if err != nil {
		return nil, err
	}

	vector, filters, err := s.prepare(ctx, text)
	if err != nil {
		return nil, err
	}

	matches, err := s.retrieve(ctx, vector, filters)
	if err != nil {
		return nil, err
	}

	msgs := buildPromptMessages(history, text+formatMatches(matches))

	events, err := s.streamer.Stream(ctx, msgs)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.StreamEvent)
	go s.relay(ctx, conversationID, text, events, out)
	return out, nil
}

// prepare embeds the message and plans the filter expression concurrently.
// An embedding failure aborts the turn before any retrieval or generation.
func (s *Service) prepare(ctx context.Context, text string) ([]float32, filter.Expression, error) {
	var (
		vector  []float32
		filters filter.Expression
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		embedCtx := gctx
		if s.cfg.EmbedTimeout > 0 {
			var cancel context.CancelFunc
			embedCtx, cancel = context.WithTimeout(gctx, s.cfg.EmbedTimeout)
			defer cancel()
		}
		res, err := s.embed.Embed(embedCtx, text)
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		vector = res.Embedding
		return nil
	})

	g.Go(func() error {
		fs := s.extractor.Extract(text)
		expr, err := s.planner.Plan(fs)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		filters = expr
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, filter.Expression{}, err
	}
	return vector, filters, nil
}

func (s *Service) retrieve(
	ctx context.Context, vector []float32, filters filter.Expression,
) ([]domain.Match, error) {
	if s.cfg.RetrieveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RetrieveTimeout)
		defer cancel()
	}

	start := time.Now()
	matches, err := s.retriever.Query(ctx, vector, filters, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
	}

	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	metrics.RetrievalMatches.Observe(float64(len(matches)))

	if len(matches) > s.cfg.TopK {
		matches = matches[:s.cfg.TopK]
	}
	return matches, nil
}

// relay forwards completion events, accumulating the reply so the finished
// turn can be logged after the terminal event.
func (s *Service) relay(
	ctx context.Context, conversationID, userText string,
	events <-chan domain.StreamEvent, out chan<- domain.StreamEvent,
) {
	defer close(out)

	var reply strings.Builder
	for ev := range events {
		if ev.Chunk != "" {
			reply.WriteString(ev.Chunk)
		}
		if ev.Done && conversationID != "" {
			s.appendTurn(ctx, conversationID, userText, reply.String())
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// appendTurn logs the finished turn. The log write must survive the request
// context ending right after the terminal event.
func (s *Service) appendTurn(ctx context.Context, conversationID, userText, reply string) {
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.log.Append(logCtx, conversationID,
		domain.Message{Role: domain.RoleUser, Content: userText},
		domain.Message{Role: domain.RoleAssistant, Content: reply},
	)
	if err != nil {
		s.logger.Warn("Failed to append conversation turn",
			zap.String("conversation_id", conversationID), zap.Error(err))
	}
}

// lastUserMessage validates the history and returns the message to answer.
func lastUserMessage(history []domain.Message) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("empty message history: %w", domain.ErrInvalidInput)
	}
	last := history[len(history)-1]
	if last.Role != domain.RoleUser {
		return "", fmt.Errorf("last message must be from the user: %w", domain.ErrInvalidInput)
	}
	text := strings.TrimSpace(last.Content)
	if text == "" {
		return "", fmt.Errorf("empty user message: %w", domain.ErrInvalidInput)
	}
	return text, nil
}

// buildPromptMessages prepends the system prompt and replaces the last user
// message with its retrieval-augmented form.
func buildPromptMessages(history []domain.Message, augmented string) []domain.Message {
	msgs := make([]domain.Message, 0, len(history)+1)
	msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: systemPrompt})
	msgs = append(msgs, history[:len(history)-1]...)
	msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: augmented})
	return msgs
}
