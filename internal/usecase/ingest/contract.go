package ingest

import (
	"context"

	"github.com/cowlitea/cowlitea/internal/domain"
)

// Scraper downloads and parses a profile page.
type Scraper interface {
	Scrape(ctx context.Context, url string, kind domain.RecordKind) (*domain.Record, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Upserter writes records and their vectors into the catalog.
type Upserter interface {
	Upsert(ctx context.Context, rec *domain.Record, vector []float32) error
}
