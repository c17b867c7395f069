package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cowlitea/cowlitea/internal/domain"
)

const keyPrefix = domain.KeyPrefix + "conv:"

// store is the consumer interface for the conversation log (ISP).
type store interface {
	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// Repo persists conversation history as an append-only list per conversation.
type Repo struct {
	store store
}

// New creates a conversation repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

type storedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Append adds messages to the tail of a conversation log.
func (r *Repo) Append(ctx context.Context, conversationID string, msgs ...domain.Message) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id is required: %w", domain.ErrInvalidInput)
	}
	if len(msgs) == 0 {
		return nil
	}

	values := make([]string, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(storedMessage{Role: m.Role, Content: m.Content})
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		values = append(values, string(data))
	}

	key := keyPrefix + conversationID
	if err := r.store.RPush(ctx, key, values...); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}

// History returns the full conversation log in order.
func (r *Repo) History(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation id is required: %w", domain.ErrInvalidInput)
	}

	key := keyPrefix + conversationID
	raw, err := r.store.LRange(ctx, key, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	msgs := make([]domain.Message, 0, len(raw))
	for _, v := range raw {
		var sm storedMessage
		if err := json.Unmarshal([]byte(v), &sm); err != nil {
			// Skip malformed entries rather than failing the whole history.
			continue
		}
		msgs = append(msgs, domain.Message{Role: sm.Role, Content: sm.Content})
	}
	return msgs, nil
}
