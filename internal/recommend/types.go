// Package recommend implements the hybrid recommendation pipeline: candidate
// retrieval from vector and graph stores, hybrid re-ranking, final scoring by
// rules or an external evaluator, and rank assignment.
package recommend

import (
	"errors"
	"time"

	"github.com/spigell/job-recommender/internal/jobs"
)

var (
	// ErrResumeNotFound is returned when an explicitly requested résumé does not exist.
	ErrResumeNotFound = errors.New("resume not found")
	// ErrPromptNotFound is returned when an explicitly requested prompt does not exist.
	ErrPromptNotFound = errors.New("prompt not found")
)

// Candidate sources.
const (
	SourceVector = "vector"
	SourceGraph  = "graph"
)

// Scoring paths.
const (
	PathRules     = "rules"
	PathEvaluator = "evaluator"
	PathEmpty     = "empty"
)

// Candidate is a retrieved posting with its retrieval signals. It lives for one pipeline run.
type Candidate struct {
	PostingID        int
	Source           string
	VectorSimilarity float64
	SkillMatchCount  int
	HybridScore      float64
	Posting          *jobs.Posting
}

// Options tune a single recommendation request.
type Options struct {
	// Limit caps the working set and the result; zero means the configured default.
	Limit int `json:"limit,omitempty" validate:"gte=0,lte=1000"`
	// ResumeID selects a résumé explicitly; zero means the user's latest résumé.
	ResumeID int `json:"resume_id,omitempty" validate:"gte=0"`
	// PromptID selects the evaluator prompt; nil means rule-based scoring.
	PromptID *int `json:"prompt_id,omitempty"`
}

// Recommendation is one ranked posting for a user.
type Recommendation struct {
	GenerationID   string    `json:"generation_id"`
	UserID         int       `json:"user_id"`
	PostingID      int       `json:"posting_id"`
	Rank           int       `json:"rank"`
	MatchScore     int       `json:"match_score"`
	MatchReason    string    `json:"match_reason"`
	CompanyName    string    `json:"company_name"`
	Position       string    `json:"position"`
	URL            string    `json:"url"`
	Location       string    `json:"location"`
	EmploymentType string    `json:"employment_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// Step describes the result of executing one pipeline stage.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

// Result is the outcome of one pipeline run.
type Result struct {
	GenerationID    string
	Path            string
	Recommendations []Recommendation
	Steps           []Step
}
