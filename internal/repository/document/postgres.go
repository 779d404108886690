package document

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/db"
	domdoc "github.com/tgassist/tgassist/internal/domain/document"
	"github.com/tgassist/tgassist/internal/logger"
)

// PostgresRepo reads documents from a pgvector table and its similarity function.
type PostgresRepo struct {
	db    *sql.DB
	table string
	rpc   string
}

// NewPostgres creates a Postgres document repository.
// table and rpc must be validated SQL identifiers (see config.Validate).
func NewPostgres(conn *sql.DB, table, rpc string) *PostgresRepo {
	return &PostgresRepo{db: conn, table: table, rpc: rpc}
}

// SearchSimilar calls the server-side similarity function with (query, threshold, limit).
// The function returns only content, metadata and similarity; rows carry no id.
func (r *PostgresRepo) SearchSimilar(
	ctx context.Context, vector []float32, threshold float64, limit int,
) ([]domdoc.Scored, error) {
	query := fmt.Sprintf(`SELECT content, metadata, similarity FROM %s($1::vector, $2, $3)`, r.rpc)

	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(vector), threshold, limit)
	if err != nil {
		return nil, &db.Error{Op: db.OpRPC, Err: fmt.Errorf("%s: %w", r.rpc, err)}
	}
	defer rows.Close()

	log := logger.FromContext(ctx)
	var out []domdoc.Scored
	for rows.Next() {
		var (
			content    sql.NullString
			metadata   []byte
			similarity sql.NullFloat64
		)
		if err := rows.Scan(&content, &metadata, &similarity); err != nil {
			log.Warn("skip unreadable similarity row", zap.Error(err))
			continue
		}
		d := domdoc.Reconstruct("", content.String, nil, parseMetadata(ctx, "", metadata), time.Time{})
		out = append(out, domdoc.Scored{Document: d, Similarity: similarity.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpRPC, Err: err}
	}
	return out, nil
}

// ListEmbedded returns every document that has a non-null embedding.
func (r *PostgresRepo) ListEmbedded(ctx context.Context) ([]domdoc.Document, error) {
	query := fmt.Sprintf(
		`SELECT id, content, embedding, metadata, ingestion_date FROM %s WHERE embedding IS NOT NULL`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	log := logger.FromContext(ctx)
	var out []domdoc.Document
	for rows.Next() {
		var (
			id         string
			content    sql.NullString
			embedding  pgvector.Vector
			metadata   []byte
			ingestedAt sql.NullTime
		)
		if err := rows.Scan(&id, &content, &embedding, &metadata, &ingestedAt); err != nil {
			log.Warn("skip unreadable document row", zap.Error(err))
			continue
		}
		out = append(out, domdoc.Reconstruct(
			id, content.String, embedding.Slice(), parseMetadata(ctx, id, metadata), ingestedAt.Time))
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

// ListSample returns up to limit documents in table order, without embeddings.
func (r *PostgresRepo) ListSample(ctx context.Context, limit int) ([]domdoc.Document, error) {
	query := fmt.Sprintf(`SELECT id, content, metadata, ingestion_date FROM %s LIMIT $1`, r.table)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	log := logger.FromContext(ctx)
	var out []domdoc.Document
	for rows.Next() {
		var (
			id         string
			content    sql.NullString
			metadata   []byte
			ingestedAt sql.NullTime
		)
		if err := rows.Scan(&id, &content, &metadata, &ingestedAt); err != nil {
			log.Warn("skip unreadable document row", zap.Error(err))
			continue
		}
		out = append(out, domdoc.Reconstruct(
			id, content.String, nil, parseMetadata(ctx, id, metadata), ingestedAt.Time))
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

// parseMetadata never fails: malformed JSON yields all-missing fields.
func parseMetadata(ctx context.Context, id string, raw []byte) domdoc.Metadata {
	md, err := domdoc.ParseMetadata(raw)
	if err != nil {
		logger.FromContext(ctx).Warn("malformed document metadata", zap.String("id", id), zap.Error(err))
		return domdoc.Metadata{}
	}
	return md
}
