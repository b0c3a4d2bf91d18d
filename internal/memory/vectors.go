// Package memory provides deterministic in-memory implementations of the
// recommendation ports, used by tests and by the CLI fixture mode.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/recommend"
)

// Metadata carries the filterable attributes of a vector document.
type Metadata struct {
	CareerMin *int
	CareerMax *int
}

type document struct {
	id        string
	embedding []float32
	meta      Metadata
}

// Query records one query issued against the store.
type Query struct {
	Collection string
	Text       string
	Filtered   bool
}

// Vectors is an in-memory vector store using cosine distance.
type Vectors struct {
	mu          sync.RWMutex
	collections map[string]map[string]document
	embedder    ai.Embedder
	queries     []Query
}

var _ recommend.VectorStore = (*Vectors)(nil)

// NewVectors returns an empty store. embedder serves text queries; nil disables them.
func NewVectors(embedder ai.Embedder) *Vectors {
	return &Vectors{collections: make(map[string]map[string]document), embedder: embedder}
}

// Upsert stores or replaces a document.
func (v *Vectors) Upsert(collection, id string, embedding []float32, meta Metadata) {
	v.mu.Lock()
	defer v.mu.Unlock()
	docs, ok := v.collections[collection]
	if !ok {
		docs = make(map[string]document)
		v.collections[collection] = docs
	}
	docs[id] = document{id: id, embedding: append([]float32(nil), embedding...), meta: meta}
}

// Queries returns the queries issued so far.
func (v *Vectors) Queries() []Query {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Query(nil), v.queries...)
}

func (v *Vectors) QueryByEmbedding(_ context.Context, collection string, embedding []float32, nResults int, minSimilarity float64, filter *recommend.Filter) (recommend.QueryResult, error) {
	v.record(Query{Collection: collection, Filtered: filter != nil})
	return v.search(collection, embedding, nResults, minSimilarity, filter)
}

func (v *Vectors) QueryByText(ctx context.Context, collection, text string, nResults int, minSimilarity float64, filter *recommend.Filter) (recommend.QueryResult, error) {
	v.record(Query{Collection: collection, Text: text, Filtered: filter != nil})
	if v.embedder == nil {
		return recommend.QueryResult{}, errors.New("text queries need an embedder")
	}
	vectors, err := v.embedder.Embed(ctx, []string{text})
	if err != nil {
		return recommend.QueryResult{}, fmt.Errorf("embed query text: %w", err)
	}
	return v.search(collection, vectors[0], nResults, minSimilarity, filter)
}

func (v *Vectors) GetEmbedding(_ context.Context, collection, docID string) ([]float32, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	doc, ok := v.collections[collection][docID]
	if !ok {
		return nil, nil
	}
	return append([]float32(nil), doc.embedding...), nil
}

func (v *Vectors) record(q Query) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queries = append(v.queries, q)
}

type hit struct {
	id       string
	distance float64
}

func (v *Vectors) search(collection string, embedding []float32, nResults int, minSimilarity float64, filter *recommend.Filter) (recommend.QueryResult, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	maxDistance := recommend.MaxDistance(minSimilarity)
	hits := make([]hit, 0)
	for _, doc := range v.collections[collection] {
		if filter != nil && !doc.meta.posting().AcceptsCareer(filter.CareerYears) {
			continue
		}
		d := CosineDistance(embedding, doc.embedding)
		if d > maxDistance+1e-9 {
			continue
		}
		hits = append(hits, hit{id: doc.id, distance: d})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].id < hits[j].id
	})
	if nResults > 0 && len(hits) > nResults {
		hits = hits[:nResults]
	}

	result := recommend.QueryResult{IDs: make([]string, len(hits)), Distances: make([]float64, len(hits))}
	for i, h := range hits {
		result.IDs[i] = h.id
		result.Distances[i] = h.distance
	}
	return result, nil
}

// posting carries the indexed career bounds for filtering.
func (m Metadata) posting() *jobs.Posting {
	return &jobs.Posting{CareerMin: m.CareerMin, CareerMax: m.CareerMax}
}

// CosineDistance returns 1 - cosine similarity, in [0, 2]. Mismatched or zero vectors are at distance 2.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
