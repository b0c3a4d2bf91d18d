package vectorstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-recommender/internal/recommend"
)

type hitRow struct {
	id       string
	distance float64
}

// fakeRows replays hit rows through the pgx.Rows interface.
type fakeRows struct {
	rows []hitRow
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error) {
	row := r.rows[r.pos-1]
	return []any{row.id, row.distance}, nil
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	*dest[0].(*string) = row.id
	*dest[1].(*float64) = row.distance
	return nil
}

type fakeRow struct {
	vec []float32
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*pgvector.Vector) = pgvector.NewVector(r.vec)
	return nil
}

type fakeDB struct {
	rows     []hitRow
	queryErr error
	row      fakeRow

	sql  []string
	args [][]any
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{rows: f.rows}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return f.row
}

type fixedEmbedder struct {
	vectors [][]float32
	err     error
	texts   []string
}

func (e *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.texts = append(e.texts, texts...)
	return e.vectors, e.err
}

func TestBuildQuery(t *testing.T) {
	vec := pgvector.NewVector([]float32{1, 0})

	sql, args := buildQuery("job_postings", vec, 50, 0.6, nil)
	assert.NotContains(t, sql, "career_min")
	assert.Contains(t, sql, "embedding <=> $1 <= $3")
	assert.Contains(t, sql, "ORDER BY distance, doc_id")
	assert.Equal(t, []any{vec, "job_postings", 0.6, 50}, args)

	sql, args = buildQuery("job_postings", vec, 50, 0.6, &recommend.Filter{CareerYears: 4})
	assert.Contains(t, sql, "metadata->>'career_min' IS NULL")
	assert.Contains(t, sql, "(metadata->>'career_max')::int >= $5")
	assert.Equal(t, 4, args[4])
	assert.True(t, strings.HasSuffix(sql, "LIMIT $4"))
}

func TestQueryByEmbedding(t *testing.T) {
	db := &fakeDB{rows: []hitRow{{"101", 0.1}, {"104", 0.35}}}
	store := New(db, nil, nil)

	res, err := store.QueryByEmbedding(context.Background(), "job_postings", []float32{1, 0}, 50, 0.7, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"101", "104"}, res.IDs)
	assert.Equal(t, []float64{0.1, 0.35}, res.Distances)
	assert.InDelta(t, 0.6, db.args[0][2].(float64), 1e-9)
}

func TestQueryByEmbeddingErrors(t *testing.T) {
	store := New(&fakeDB{queryErr: errors.New("boom")}, nil, nil)

	_, err := store.QueryByEmbedding(context.Background(), "job_postings", []float32{1}, 5, 0.7, nil)
	assert.ErrorContains(t, err, "boom")

	_, err = store.QueryByEmbedding(context.Background(), "job_postings", nil, 5, 0.7, nil)
	assert.Error(t, err)
}

func TestQueryByText(t *testing.T) {
	db := &fakeDB{rows: []hitRow{{"7", 0}}}
	embedder := &fixedEmbedder{vectors: [][]float32{{0, 1}}}
	store := New(db, embedder, nil)

	res, err := store.QueryByText(context.Background(), "job_postings", "skills: Go", 5, 0.7, &recommend.Filter{CareerYears: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, res.IDs)
	assert.Equal(t, []string{"skills: Go"}, embedder.texts)
	assert.Len(t, db.args[0], 5)
}

func TestQueryByTextWithoutEmbedder(t *testing.T) {
	_, err := New(&fakeDB{}, nil, nil).QueryByText(context.Background(), "job_postings", "x", 5, 0.7, nil)
	assert.Error(t, err)

	embedder := &fixedEmbedder{vectors: [][]float32{}}
	_, err = New(&fakeDB{}, embedder, nil).QueryByText(context.Background(), "job_postings", "x", 5, 0.7, nil)
	assert.ErrorContains(t, err, "0 vectors")
}

func TestGetEmbedding(t *testing.T) {
	store := New(&fakeDB{row: fakeRow{vec: []float32{0.5, 0.5}}}, nil, nil)
	vec, err := store.GetEmbedding(context.Background(), "resumes", "1")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)

	store = New(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}}, nil, nil)
	vec, err = store.GetEmbedding(context.Background(), "resumes", "2")
	require.NoError(t, err)
	assert.Nil(t, vec)

	store = New(&fakeDB{row: fakeRow{err: errors.New("conn reset")}}, nil, nil)
	_, err = store.GetEmbedding(context.Background(), "resumes", "3")
	assert.ErrorContains(t, err, "conn reset")
}
