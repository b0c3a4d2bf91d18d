package ai

import (
	"context"

	"github.com/spigell/job-recommender/internal/jobs"
)

const (
	// FallbackScore is assigned to every posting the evaluator could not rate.
	FallbackScore = 50
	// FallbackReason accompanies FallbackScore.
	FallbackReason = "analysis unavailable"
	// MaxBatchSize is the largest number of postings sent in one evaluator call.
	MaxBatchSize = 10
)

// Assessment is an evaluator verdict for one posting.
type Assessment struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// SearchContext carries retrieval signals for one posting into the evaluator prompt.
type SearchContext struct {
	VectorSimilarity float64 `json:"vector_similarity"`
	SkillMatchCount  int     `json:"skill_match_count"`
	HybridScore      float64 `json:"hybrid_score"`
}

// Evaluator scores a batch of postings against a résumé using prompt.
// The result is aligned with postings and always has the same length; failures
// are absorbed into fallback assessments.
type Evaluator interface {
	EvaluateBatch(ctx context.Context, postings []*jobs.Posting, resume *jobs.Resume, prompt *jobs.Prompt, contexts []*SearchContext) []Assessment
}

// Embedder turns texts into embedding vectors, one per input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Fallback returns n fallback assessments.
func Fallback(n int) []Assessment {
	out := make([]Assessment, n)
	for i := range out {
		out[i] = Assessment{Score: FallbackScore, Reason: FallbackReason}
	}
	return out
}
