package document

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/db"
	"github.com/tgassist/tgassist/internal/db/redis"
	domdoc "github.com/tgassist/tgassist/internal/domain/document"
	"github.com/tgassist/tgassist/internal/logger"
)

// Hash field names of a stored document.
const (
	fieldContent    = "content"
	fieldVector     = "vector"
	fieldIngestedAt = "ingested_at"
)

// hgetBatch bounds a single HGETALL pipeline.
const hgetBatch = 200

// redisStore is the consumer interface for Redis-backed documents (ISP).
type redisStore interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string, limit int) ([]string, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// RedisRepo reads hash-encoded documents and queries them through an FT index.
type RedisRepo struct {
	store     redisStore
	keyPrefix string
	indexName string
}

// NewRedis creates a Redis document repository. Documents live at <prefix>doc:<id>.
func NewRedis(s redisStore, keyPrefix, indexName string) *RedisRepo {
	return &RedisRepo{store: s, keyPrefix: keyPrefix, indexName: indexName}
}

// IndexOptions tune the HNSW vector field.
type IndexOptions struct {
	Dimensions  int
	M           int
	EFConstruct int
}

// EnsureIndex creates the FT index on first start. An existing index is left as is.
func (r *RedisRepo) EnsureIndex(ctx context.Context, opts IndexOptions) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName, err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(r.indexName).
		Prefix(r.docPrefix()).
		Text(fieldContent).
		Tag(domdoc.KeyFileID).
		Tag(domdoc.KeyType).
		Numeric(fieldIngestedAt).
		VectorHNSW(fieldVector, opts.Dimensions, db.DistanceCosine, opts.M, opts.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	logger.FromContext(ctx).Info("document index created", zap.String("index", def.String()))
	return nil
}

// SearchSimilar runs FT.SEARCH KNN and keeps hits scoring at least threshold.
func (r *RedisRepo) SearchSimilar(
	ctx context.Context, vector []float32, threshold float64, limit int,
) ([]domdoc.Scored, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  fieldVector,
		Vector:       vector,
		K:            limit,
		ReturnFields: []string{fieldContent, domdoc.KeyFileID, domdoc.KeyFileName, domdoc.KeyType, fieldIngestedAt},
	})
	if err != nil {
		return nil, fmt.Errorf("knn %s: %w", r.indexName, err)
	}

	out := make([]domdoc.Scored, 0, len(res.Entries))
	for _, e := range res.Entries {
		if e.Score < threshold {
			continue
		}
		d := r.parseHash(ctx, e.Key, e.Fields, false)
		out = append(out, domdoc.Scored{Document: d, Similarity: e.Score})
	}
	return out, nil
}

// ListEmbedded returns every stored document whose vector decodes cleanly.
func (r *RedisRepo) ListEmbedded(ctx context.Context) ([]domdoc.Document, error) {
	docs, err := r.load(ctx, 0, true)
	if err != nil {
		return nil, err
	}
	out := docs[:0]
	for _, d := range docs {
		if d.HasEmbedding() {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListSample returns up to limit documents in keyspace scan order.
func (r *RedisRepo) ListSample(ctx context.Context, limit int) ([]domdoc.Document, error) {
	return r.load(ctx, limit, false)
}

func (r *RedisRepo) load(ctx context.Context, limit int, withVector bool) ([]domdoc.Document, error) {
	keys, err := r.store.Scan(ctx, r.docPrefix()+"*", limit)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	out := make([]domdoc.Document, 0, len(keys))
	for start := 0; start < len(keys); start += hgetBatch {
		end := min(start+hgetBatch, len(keys))
		batch := keys[start:end]

		hashes, err := r.store.HGetAllMulti(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("load documents: %w", err)
		}
		for i, h := range hashes {
			if len(h) == 0 {
				continue // deleted between SCAN and HGETALL
			}
			out = append(out, r.parseHash(ctx, batch[i], h, withVector))
		}
	}
	return out, nil
}

// parseHash maps a flat hash to a Document. Unreadable optional fields are dropped.
func (r *RedisRepo) parseHash(ctx context.Context, key string, h map[string]string, withVector bool) domdoc.Document {
	id := strings.TrimPrefix(key, r.docPrefix())

	var vector []float32
	if raw, ok := h[fieldVector]; ok && withVector {
		v, err := redis.BytesToVector(raw)
		if err != nil {
			logger.FromContext(ctx).Warn("malformed document vector", zap.String("id", id), zap.Error(err))
		} else {
			vector = v
		}
	}

	var ingestedAt time.Time
	if raw, ok := h[fieldIngestedAt]; ok {
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ingestedAt = time.Unix(secs, 0).UTC()
		}
	}

	return domdoc.Reconstruct(id, h[fieldContent], vector, domdoc.MetadataFromStrings(h), ingestedAt)
}

func (r *RedisRepo) docPrefix() string {
	return r.keyPrefix + "doc:"
}
