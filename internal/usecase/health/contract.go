package health

import "context"

// DBPinger reports whether the backing store answers.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker reports whether the embedding provider answers.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
