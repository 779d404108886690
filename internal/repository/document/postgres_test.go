package document

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgassist/tgassist/internal/db"
)

func newPostgresRepo(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewPostgres(conn, "documents", "search_similar_documents"), mock
}

func TestPostgres_SearchSimilar(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	rows := sqlmock.NewRows([]string{"content", "metadata", "similarity"}).
		AddRow("intro text", []byte(`{"file_id":"f1","file_name":"Intro","type":"video"}`), 0.92).
		AddRow("broken", []byte(`{oops`), 0.81)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT content, metadata, similarity FROM search_similar_documents($1::vector, $2, $3)`)).
		WithArgs(sqlmock.AnyArg(), 0.5, 5).
		WillReturnRows(rows)

	got, err := repo.SearchSimilar(context.Background(), []float32{1, 0, 0}, 0.5, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	md := got[0].Document.Metadata()
	assert.Equal(t, "f1", md.FileID.Value())
	assert.Equal(t, "Intro", md.FileName.Value())
	assert.InDelta(t, 0.92, got[0].Similarity, 1e-9)
	assert.Empty(t, got[0].Document.ID(), "the function returns no id column")

	// malformed metadata keeps the row with missing fields
	assert.Equal(t, "broken", got[1].Document.Content())
	assert.False(t, got[1].Document.Metadata().FileID.IsPresent())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SearchSimilar_RPCError(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectQuery("search_similar_documents").WillReturnError(errors.New("function does not exist"))

	_, err := repo.SearchSimilar(context.Background(), []float32{1}, 0.5, 5)
	var dbErr *db.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, db.OpRPC, dbErr.Op)
}

func TestPostgres_ListEmbedded(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "content", "embedding", "metadata", "ingestion_date"}).
		AddRow("A", "alpha", "[1,0,0]", []byte(`{"file_id":"a"}`), at).
		AddRow("B", "beta", "[0,1,0]", nil, nil).
		AddRow("C", "gamma", 42, nil, nil) // unscannable embedding is skipped

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, content, embedding, metadata, ingestion_date FROM documents WHERE embedding IS NOT NULL`)).
		WillReturnRows(rows)

	got, err := repo.ListEmbedded(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []float32{1, 0, 0}, got[0].Embedding())
	assert.True(t, got[0].IngestionDate().Equal(at))
	assert.Equal(t, "B", got[1].ID())
	assert.False(t, got[1].Metadata().FileID.IsPresent())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListEmbedded_QueryError(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectQuery("FROM documents").WillReturnError(errors.New("timeout"))

	_, err := repo.ListEmbedded(context.Background())
	var dbErr *db.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, db.OpQuery, dbErr.Op)
}

func TestPostgres_ListSample(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	rows := sqlmock.NewRows([]string{"id", "content", "metadata", "ingestion_date"}).
		AddRow("1", "one", []byte(`{"file_id":"x","file_name":"X"}`), nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, content, metadata, ingestion_date FROM documents LIMIT $1`)).
		WithArgs(3).
		WillReturnRows(rows)

	got, err := repo.ListSample(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].HasEmbedding())
	assert.Equal(t, "X", got[0].Metadata().FileName.Value())

	assert.NoError(t, mock.ExpectationsWereMet())
}
