package catalog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cowlitea/cowlitea/internal/db"
	"github.com/cowlitea/cowlitea/internal/domain"
	"github.com/cowlitea/cowlitea/internal/domain/search/filter"
)

const keyPrefix = domain.KeyPrefix + "catalog:"

// Hash field names backing the search index.
const (
	FieldName       = "name"
	FieldKind       = "kind"
	FieldLocation   = "location"
	FieldCity       = "city"
	FieldState      = "state"
	FieldPostalCode = "postal_code"
	FieldSubject    = "subject"
	FieldStars      = "stars"
	FieldReviews    = "reviews"
	FieldOpenDays   = "open_days"
	FieldVector     = "__vector"
)

// store is the consumer interface for the catalog (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo stores catalog records as hashes searchable via an HNSW vector index.
type Repo struct {
	store     store
	indexName string
}

// New creates a catalog repository.
func New(s store, indexName string) *Repo {
	return &Repo{store: s, indexName: indexName}
}

// IndexParams holds vector index construction settings.
type IndexParams struct {
	Dimensions  int
	M           int
	EFConstruct int
}

// EnsureIndex creates the catalog search index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, p IndexParams) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName, err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(r.indexName).
		Prefix(keyPrefix).
		Tag(FieldName).
		Tag(FieldKind).
		Tag(FieldLocation).
		Tag(FieldCity).
		Tag(FieldState).
		Tag(FieldPostalCode).
		Tag(FieldSubject).
		Numeric(FieldStars).
		Text(FieldReviews).
		TagWithSeparator(FieldOpenDays, ",").
		VectorHNSW(FieldVector, p.Dimensions, db.DistanceCosine, p.M, p.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

// Upsert writes a record and its embedding vector as one hash.
func (r *Repo) Upsert(ctx context.Context, rec *domain.Record, vector []float32) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if len(vector) == 0 {
		return fmt.Errorf("embedding vector is required: %w", domain.ErrInvalidInput)
	}

	key := recordKey(rec.Name)
	fields := buildHashFields(rec)
	fields[FieldVector] = vectorToBytes(vector)

	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns the stored hash fields for a record name.
func (r *Repo) Get(ctx context.Context, name string) (map[string]string, error) {
	key := recordKey(name)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	delete(fields, FieldVector)
	return fields, nil
}

// Delete removes a record.
func (r *Repo) Delete(ctx context.Context, name string) error {
	key := recordKey(name)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Query runs a filtered KNN search and returns matches ordered by similarity.
func (r *Repo) Query(
	ctx context.Context, vector []float32, filters filter.Expression, topK int,
) ([]domain.Match, error) {
	q := &db.KNNQuery{
		IndexName: r.indexName,
		Filters:   filters,
		Vector:    vector,
		K:         topK,
		ReturnFields: []string{
			FieldName, FieldKind, FieldLocation, FieldCity, FieldState,
			FieldPostalCode, FieldSubject, FieldStars, FieldReviews,
			FieldOpenDays, "__vector_score",
		},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, err)
	}

	return parseMatches(sr), nil
}

func parseMatches(sr *db.SearchResult) []domain.Match {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	matches := make([]domain.Match, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, keyPrefix)
		tags := make(map[string]string)
		numerics := make(map[string]float64)

		for k, v := range entry.Fields {
			if k == FieldStars {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					numerics[k] = f
					continue
				}
			}
			tags[k] = v
		}

		matches = append(matches, domain.Match{
			ID:       id,
			Score:    entry.Score,
			Tags:     tags,
			Numerics: numerics,
		})
	}
	return matches
}

func buildHashFields(rec *domain.Record) map[string]string {
	fields := map[string]string{
		FieldName:  rec.Name,
		FieldKind:  string(rec.Kind),
		FieldStars: strconv.FormatFloat(rec.Rating, 'f', -1, 64),
	}

	if loc := rec.Location.String(); loc != "" {
		fields[FieldLocation] = loc
	}
	if rec.Location.City != "" {
		fields[FieldCity] = rec.Location.City
	}
	if rec.Location.State != "" {
		fields[FieldState] = rec.Location.State
	}
	if rec.Location.PostalCode != "" {
		fields[FieldPostalCode] = rec.Location.PostalCode
	}
	if rec.Subject != "" {
		fields[FieldSubject] = rec.Subject
	}
	if text := rec.ReviewText(); text != "" {
		fields[FieldReviews] = text
	}
	if days := rec.OpenDays(); len(days) > 0 {
		names := make([]string, 0, len(days))
		for _, d := range days {
			names = append(names, string(d))
		}
		fields[FieldOpenDays] = strings.Join(names, ",")
	}

	return fields
}

// recordKey derives the hash key from the record name.
func recordKey(name string) string {
	return keyPrefix + slug(name)
}

// slug lowercases the name and folds runs of non-alphanumerics into hyphens.
func slug(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
