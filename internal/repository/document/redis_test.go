package document

import (
	"context"
	"errors"
	"testing"

	"github.com/tgassist/tgassist/internal/db"
	"github.com/tgassist/tgassist/internal/db/redis"
)

func TestRedis_SearchSimilar_AppliesThreshold(t *testing.T) {
	var gotQuery *db.KNNQuery
	s := &mockStore{
		searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
			gotQuery = q
			return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
				{Key: "tg:doc:1", Score: 0.9, Fields: map[string]string{"content": "hi", "file_id": "f1", "file_name": "One"}},
				{Key: "tg:doc:2", Score: 0.3, Fields: map[string]string{"content": "lo"}},
			}}, nil
		},
	}
	repo := NewRedis(s, "tg:", "docs")

	got, err := repo.SearchSimilar(context.Background(), []float32{1, 0}, 0.5, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery.IndexName != "docs" || gotQuery.K != 5 || gotQuery.VectorField != "vector" {
		t.Errorf("unexpected query: %+v", gotQuery)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result above threshold, got %d", len(got))
	}
	if got[0].Document.ID() != "1" || got[0].Document.Metadata().FileName.Value() != "One" {
		t.Errorf("unexpected document: %+v", got[0].Document)
	}
}

func TestRedis_SearchSimilar_Error(t *testing.T) {
	s := &mockStore{
		searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
			return nil, &db.Error{Op: db.OpSearch, Err: errors.New("no such index")}
		},
	}
	repo := NewRedis(s, "tg:", "docs")
	if _, err := repo.SearchSimilar(context.Background(), []float32{1}, 0, 5); err == nil {
		t.Fatal("expected error")
	}
}

func TestRedis_ListEmbedded(t *testing.T) {
	s := &mockStore{
		scanFn: func(_ context.Context, pattern string, limit int) ([]string, error) {
			if pattern != "tg:doc:*" || limit != 0 {
				t.Errorf("unexpected scan %q limit=%d", pattern, limit)
			}
			return []string{"tg:doc:a", "tg:doc:b", "tg:doc:c", "tg:doc:gone"}, nil
		},
		hgetAllMultiFn: func(_ context.Context, keys []string) ([]map[string]string, error) {
			return []map[string]string{
				{"content": "alpha", "vector": redis.VectorToBytes([]float32{1, 0, 0}), "ingested_at": "1700000000"},
				{"content": "beta"},                  // no vector
				{"content": "gamma", "vector": "xyz"}, // malformed blob
				{},                                   // deleted
			}, nil
		},
	}
	repo := NewRedis(s, "tg:", "docs")

	got, err := repo.ListEmbedded(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "a" {
		t.Fatalf("expected only document a, got %+v", got)
	}
	if got[0].IngestionDate().Unix() != 1700000000 {
		t.Errorf("ingestion date: got %v", got[0].IngestionDate())
	}
}

func TestRedis_ListSample(t *testing.T) {
	s := &mockStore{
		scanFn: func(_ context.Context, _ string, limit int) ([]string, error) {
			if limit != 2 {
				t.Errorf("expected limit 2, got %d", limit)
			}
			return []string{"tg:doc:1", "tg:doc:2"}, nil
		},
		hgetAllMultiFn: func(_ context.Context, keys []string) ([]map[string]string, error) {
			return []map[string]string{
				{"content": "one", "file_id": "f1", "vector": redis.VectorToBytes([]float32{1})},
				{"content": "two"},
			}, nil
		},
	}
	repo := NewRedis(s, "tg:", "docs")

	got, err := repo.ListSample(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(got))
	}
	if got[0].HasEmbedding() {
		t.Error("sample documents are loaded without vectors")
	}
	if got[0].Metadata().FileID.Value() != "f1" || got[1].Metadata().FileID.IsPresent() {
		t.Errorf("unexpected metadata: %+v / %+v", got[0].Metadata(), got[1].Metadata())
	}
}

func TestRedis_ListSample_ScanError(t *testing.T) {
	s := &mockStore{
		scanFn: func(context.Context, string, int) ([]string, error) {
			return nil, &db.Error{Op: db.OpScan, Err: errors.New("down")}
		},
	}
	repo := NewRedis(s, "tg:", "docs")
	if _, err := repo.ListSample(context.Background(), 2); err == nil {
		t.Fatal("expected error")
	}
}

func TestRedis_EnsureIndex_Creates(t *testing.T) {
	var created *db.IndexDefinition
	s := &mockStore{
		createIndexFn: func(_ context.Context, def *db.IndexDefinition) error {
			created = def
			return nil
		},
	}
	repo := NewRedis(s, "tg:", "docs")

	if err := repo.EnsureIndex(context.Background(), IndexOptions{Dimensions: 3, M: 16, EFConstruct: 200}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil || created.Name != "docs" || created.Prefixes[0] != "tg:doc:" {
		t.Fatalf("unexpected definition: %+v", created)
	}
	last := created.Fields[len(created.Fields)-1]
	if last.Type != db.IndexFieldVector || last.VectorDim != 3 || last.VectorDistance != db.DistanceCosine {
		t.Errorf("unexpected vector field: %+v", last)
	}
}

func TestRedis_EnsureIndex_Existing(t *testing.T) {
	s := &mockStore{
		indexExistsFn: func(context.Context, string) (bool, error) { return true, nil },
		createIndexFn: func(context.Context, *db.IndexDefinition) error {
			t.Error("CreateIndex must not be called for an existing index")
			return nil
		},
	}
	repo := NewRedis(s, "tg:", "docs")
	if err := repo.EnsureIndex(context.Background(), IndexOptions{Dimensions: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRedis_EnsureIndex_RaceIsTolerated(t *testing.T) {
	s := &mockStore{
		createIndexFn: func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists },
	}
	repo := NewRedis(s, "tg:", "docs")
	if err := repo.EnsureIndex(context.Background(), IndexOptions{Dimensions: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
