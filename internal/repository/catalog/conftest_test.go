package catalog

import (
	"context"
	"testing"

	"github.com/cowlitea/cowlitea/internal/db"
	"github.com/cowlitea/cowlitea/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	delFn         func(ctx context.Context, key string) error
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "catalog:idx"), ms
}

func testVector() []float32 {
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec
}

func testShop() *domain.Record {
	return &domain.Record{
		Name: "Boba Guys",
		Kind: domain.KindShop,
		Location: domain.Location{
			Address:    "429 Stockton St",
			City:       "San Francisco",
			State:      "CA",
			PostalCode: "94108",
			Country:    "USA",
		},
		Rating:      4.5,
		ReviewCount: 120,
		Hours: map[domain.Weekday]string{
			domain.Monday:  "11:00 AM - 9:00 PM",
			domain.Tuesday: "11:00 AM - 9:00 PM",
			domain.Sunday:  "Closed",
		},
		Reviews: []domain.Review{
			{Rating: 5, Comment: "Great matcha latte", Reviewer: "Ana"},
			{Rating: 4, Comment: "Solid taro milk tea", Reviewer: "Ben"},
		},
	}
}

func testProfessor() *domain.Record {
	return &domain.Record{
		Name:        "Jane Smith",
		Kind:        domain.KindProfessor,
		Subject:     "Computer Science",
		Rating:      4.8,
		ReviewCount: 35,
		Reviews: []domain.Review{
			{Rating: 5, Comment: "Clear lectures and fair exams"},
		},
	}
}
