package retrieval

import (
	"context"
	"errors"
	"time"

	domdoc "github.com/tgassist/tgassist/internal/domain/document"
)

var errStoreDown = errors.New("store unavailable")

// mockStore implements DocumentStore with overridable func fields.
type mockStore struct {
	searchFn func(ctx context.Context, vector []float32, threshold float64, limit int) ([]domdoc.Scored, error)
	listFn   func(ctx context.Context) ([]domdoc.Document, error)
	sampleFn func(ctx context.Context, limit int) ([]domdoc.Document, error)

	searchCalls, listCalls, sampleCalls int
}

func (m *mockStore) SearchSimilar(
	ctx context.Context, vector []float32, threshold float64, limit int,
) ([]domdoc.Scored, error) {
	m.searchCalls++
	if m.searchFn != nil {
		return m.searchFn(ctx, vector, threshold, limit)
	}
	return nil, errStoreDown
}

func (m *mockStore) ListEmbedded(ctx context.Context) ([]domdoc.Document, error) {
	m.listCalls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, errStoreDown
}

func (m *mockStore) ListSample(ctx context.Context, limit int) ([]domdoc.Document, error) {
	m.sampleCalls++
	if m.sampleFn != nil {
		return m.sampleFn(ctx, limit)
	}
	return nil, errStoreDown
}

func doc(id string, embedding ...float32) domdoc.Document {
	md := domdoc.MetadataFromStrings(map[string]string{
		domdoc.KeyFileID:   "file-" + id,
		domdoc.KeyFileName: id,
		domdoc.KeyType:     "video",
	})
	return domdoc.Reconstruct(id, "content "+id, embedding, md, time.Unix(0, 0))
}

func scored(id string, sim float64) domdoc.Scored {
	return domdoc.Scored{Document: doc(id), Similarity: sim}
}

func listing(docs ...domdoc.Document) func(context.Context) ([]domdoc.Document, error) {
	return func(context.Context) ([]domdoc.Document, error) { return docs, nil }
}
