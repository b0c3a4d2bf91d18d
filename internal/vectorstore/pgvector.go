// Package vectorstore implements the vector store port on PostgreSQL with the
// pgvector extension.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/recommend"
)

// querier is satisfied by *pgxpool.Pool.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGVector searches the embeddings table with the cosine distance operator.
// Documents carry career bounds in their jsonb metadata.
type PGVector struct {
	db       querier
	embedder ai.Embedder
	logger   *zap.Logger
}

var _ recommend.VectorStore = (*PGVector)(nil)

// New returns a store over db. embedder serves text queries; nil disables them.
func New(db querier, embedder ai.Embedder, logger *zap.Logger) *PGVector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PGVector{db: db, embedder: embedder, logger: logger}
}

func (s *PGVector) QueryByEmbedding(ctx context.Context, collection string, embedding []float32, nResults int, minSimilarity float64, filter *recommend.Filter) (recommend.QueryResult, error) {
	if len(embedding) == 0 {
		return recommend.QueryResult{}, errors.New("empty query embedding")
	}

	sql, args := buildQuery(collection, pgvector.NewVector(embedding), nResults, recommend.MaxDistance(minSimilarity), filter)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return recommend.QueryResult{}, fmt.Errorf("failed to query embeddings: %w", err)
	}

	type hit struct {
		id       string
		distance float64
	}
	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (hit, error) {
		var h hit
		err := row.Scan(&h.id, &h.distance)
		return h, err
	})
	if err != nil {
		return recommend.QueryResult{}, fmt.Errorf("failed to scan embeddings: %w", err)
	}

	result := recommend.QueryResult{IDs: make([]string, len(hits)), Distances: make([]float64, len(hits))}
	for i, h := range hits {
		result.IDs[i] = h.id
		result.Distances[i] = h.distance
	}

	s.logger.Debug("vector query",
		zap.String("collection", collection),
		zap.Bool("filtered", filter != nil),
		zap.Int("hits", len(hits)),
	)
	return result, nil
}

func (s *PGVector) QueryByText(ctx context.Context, collection, text string, nResults int, minSimilarity float64, filter *recommend.Filter) (recommend.QueryResult, error) {
	if s.embedder == nil {
		return recommend.QueryResult{}, errors.New("text queries need an embedder")
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return recommend.QueryResult{}, fmt.Errorf("embed query text: %w", err)
	}
	if len(vectors) != 1 {
		return recommend.QueryResult{}, fmt.Errorf("embedder returned %d vectors for one text", len(vectors))
	}
	return s.QueryByEmbedding(ctx, collection, vectors[0], nResults, minSimilarity, filter)
}

// GetEmbedding returns nil without error when the document is not indexed.
func (s *PGVector) GetEmbedding(ctx context.Context, collection, docID string) ([]float32, error) {
	var vec pgvector.Vector
	err := s.db.QueryRow(ctx,
		`SELECT embedding FROM embeddings WHERE collection = $1 AND doc_id = $2`,
		collection, docID,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	return vec.Slice(), nil
}

// buildQuery renders the nearest-neighbour query. Argument order: embedding,
// collection, max distance, limit and, when filtered, career years.
func buildQuery(collection string, embedding pgvector.Vector, nResults int, maxDistance float64, filter *recommend.Filter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT doc_id, embedding <=> $1 AS distance
FROM embeddings
WHERE collection = $2 AND embedding <=> $1 <= $3`)

	args := []any{embedding, collection, maxDistance, nResults}
	if filter != nil {
		b.WriteString(`
  AND (metadata->>'career_min' IS NULL OR (metadata->>'career_min')::int <= $5)
  AND (metadata->>'career_max' IS NULL OR (metadata->>'career_max')::int >= $5)`)
		args = append(args, filter.CareerYears)
	}
	b.WriteString(`
ORDER BY distance, doc_id
LIMIT $4`)

	return b.String(), args
}
