// Package ingest scrapes profile pages, embeds them, and upserts the result
// into the catalog.
package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cowlitea/cowlitea/internal/domain"
	"github.com/cowlitea/cowlitea/internal/metrics"
)

// Source allows one scrapeable site for a record kind.
type Source struct {
	Kind          domain.RecordKind
	AllowedDomain string
}

// Service runs the scrape-embed-upsert pipeline.
type Service struct {
	scraper Scraper
	embed   Embedder
	catalog Upserter
	allowed map[domain.RecordKind]string
	logger  *zap.Logger
}

// New creates an ingestion service. Only kinds present in sources can be
// ingested.
func New(scraper Scraper, embed Embedder, catalog Upserter, sources []Source, logger *zap.Logger) *Service {
	allowed := make(map[domain.RecordKind]string, len(sources))
	for _, s := range sources {
		allowed[s.Kind] = strings.ToLower(s.AllowedDomain)
	}
	return &Service{
		scraper: scraper,
		embed:   embed,
		catalog: catalog,
		allowed: allowed,
		logger:  logger,
	}
}

// Ingest scrapes rawURL as the given kind, embeds the record, and stores it.
// The URL host must belong to the allowed domain configured for the kind.
func (s *Service) Ingest(ctx context.Context, rawURL string, kind domain.RecordKind) (*domain.Record, error) {
	if err := s.checkURL(rawURL, kind); err != nil {
		return nil, err
	}

	start := time.Now()
	rec, err := s.scraper.Scrape(ctx, rawURL, kind)
	if err != nil {
		metrics.IngestRecordsTotal.WithLabelValues(string(kind), "error").Inc()
		return nil, fmt.Errorf("scrape %s: %w", rawURL, err)
	}
	metrics.ScrapeDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	res, err := s.embed.Embed(ctx, rec.EmbeddingText())
	if err != nil {
		metrics.IngestRecordsTotal.WithLabelValues(string(kind), "error").Inc()
		return nil, fmt.Errorf("embed record %q: %w", rec.Name, err)
	}

	if err := s.catalog.Upsert(ctx, rec, res.Embedding); err != nil {
		metrics.IngestRecordsTotal.WithLabelValues(string(kind), "error").Inc()
		return nil, fmt.Errorf("upsert record %q: %w", rec.Name, err)
	}

	metrics.IngestRecordsTotal.WithLabelValues(string(kind), "success").Inc()
	s.logger.Info("Ingested record",
		zap.String("kind", string(kind)),
		zap.String("name", rec.Name),
		zap.Float64("rating", rec.Rating),
		zap.Int("reviews", len(rec.Reviews)))
	return rec, nil
}

// checkURL enforces the per-kind allowed-domain gate.
func (s *Service) checkURL(rawURL string, kind domain.RecordKind) error {
	allowed, ok := s.allowed[kind]
	if !ok || allowed == "" {
		return fmt.Errorf("no source configured for kind %q: %w", kind, domain.ErrForbiddenDomain)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("malformed url %q: %w", rawURL, domain.ErrInvalidInput)
	}

	host := strings.ToLower(u.Hostname())
	if host != allowed && !strings.HasSuffix(host, "."+allowed) {
		return fmt.Errorf("host %q is not allowed for kind %q: %w", host, kind, domain.ErrForbiddenDomain)
	}
	return nil
}
