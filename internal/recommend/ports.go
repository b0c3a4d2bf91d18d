package recommend

import (
	"context"

	"github.com/spigell/job-recommender/internal/jobs"
)

// Filter restricts vector queries to postings whose career bounds accept CareerYears.
// A posting without a bound is not restricted by it.
type Filter struct {
	CareerYears int
}

// QueryResult holds vector hits ordered by ascending cosine distance.
// IDs and Distances are index-aligned.
type QueryResult struct {
	IDs       []string
	Distances []float64
}

// Len returns the number of hits.
func (r QueryResult) Len() int {
	return min(len(r.IDs), len(r.Distances))
}

// Similarity converts a cosine distance in [0, 2] into a similarity in [0, 1].
func Similarity(distance float64) float64 {
	return 1 - distance/2
}

// MaxDistance is the largest cosine distance that still satisfies minSimilarity.
func MaxDistance(minSimilarity float64) float64 {
	return 2 * (1 - minSimilarity)
}

// VectorStore performs nearest-neighbour search over embedded documents.
// Implementations drop hits below minSimilarity. A nil filter disables filtering.
type VectorStore interface {
	QueryByEmbedding(ctx context.Context, collection string, embedding []float32, nResults int, minSimilarity float64, filter *Filter) (QueryResult, error)
	QueryByText(ctx context.Context, collection, text string, nResults int, minSimilarity float64, filter *Filter) (QueryResult, error)
	// GetEmbedding returns nil without error when the document has no embedding.
	GetEmbedding(ctx context.Context, collection, docID string) ([]float32, error)
}

// GraphStore answers skill-graph questions about postings.
type GraphStore interface {
	GetPostingsBySkills(ctx context.Context, skills []string, limit int) ([]int, error)
	// GetRequiredSkills returns an empty set for postings absent from the graph.
	GetRequiredSkills(ctx context.Context, postingID int) ([]string, error)
}

// PostingRepository loads posting summaries. Unknown ids are omitted from the result.
type PostingRepository interface {
	GetPostings(ctx context.Context, ids []int) (map[int]*jobs.Posting, error)
}

// ResumeRepository loads résumé profiles; both methods return nil without error when nothing matches.
type ResumeRepository interface {
	GetResume(ctx context.Context, id int) (*jobs.Resume, error)
	LatestResume(ctx context.Context, userID int) (*jobs.Resume, error)
}

// PromptRepository loads evaluator prompts; GetPrompt returns nil without error for unknown ids.
type PromptRepository interface {
	GetPrompt(ctx context.Context, id int) (*jobs.Prompt, error)
}

// CandidateFilter drops candidates after posting data is attached and before hybrid ranking.
type CandidateFilter interface {
	Name() string
	Apply(ctx context.Context, userID int, candidates []*Candidate) ([]*Candidate, error)
}
