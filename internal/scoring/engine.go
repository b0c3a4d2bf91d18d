// Package scoring implements the deterministic side of recommendation scoring:
// the rule-based match score, the position category heuristic and normalization
// of scores returned by external evaluators.
package scoring

import (
	"fmt"
	"strings"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/skills"
)

const (
	// MaxScore is the upper bound of every match score.
	MaxScore = 100
	// VectorOnlyReason is reported when no rule produced a reason.
	VectorOnlyReason = "matched by vector similarity"
	// CareerAgnosticReason is reported for postings without career bounds.
	CareerAgnosticReason = "career-agnostic"

	reasonSeparator   = " | "
	fullRequiredRatio = 0.7
	partRequiredRatio = 0.4
)

// SkillExtractor finds canonical skill names in free text.
type SkillExtractor interface {
	ExtractSkills(text string) []string
}

// Weights are the maximum points of each rule-based component.
type Weights struct {
	Required  int `mapstructure:"required" validate:"gte=0"`
	Preferred int `mapstructure:"preferred" validate:"gte=0"`
	Career    int `mapstructure:"career" validate:"gte=0"`
	// NearRangeYears is how far outside a career bound still earns half the career points.
	NearRangeYears int `mapstructure:"near-range-years" validate:"gte=0"`
}

// DefaultWeights returns the 50/30/20 split.
func DefaultWeights() Weights {
	return Weights{Required: 50, Preferred: 30, Career: 20, NearRangeYears: 2}
}

// Result is a rule-based match score with its explanation.
type Result struct {
	Score  int
	Reason string
}

// Engine computes rule-based match scores. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	weights   Weights
	extractor SkillExtractor
}

// NewEngine creates an engine. A nil extractor falls back to the built-in skill dictionary.
func NewEngine(weights Weights, extractor SkillExtractor) *Engine {
	if extractor == nil {
		extractor = skills.NewExtractor()
	}
	return &Engine{weights: weights, extractor: extractor}
}

// Score rates how well a candidate with userSkills and careerYears fits the posting.
func (e *Engine) Score(posting *jobs.Posting, userSkills []string, careerYears int) Result {
	if posting == nil {
		return Result{Score: 0, Reason: VectorOnlyReason}
	}

	held := skills.NewSet(userSkills)
	reasons := make([]string, 0, 3)
	total := 0

	points, reason := e.required(posting.RequiredSkills, held)
	total += points
	reasons = appendReason(reasons, reason)

	points, reason = e.preferred(posting.Preferred, held)
	total += points
	reasons = appendReason(reasons, reason)

	points, reason = e.career(posting.CareerMin, posting.CareerMax, careerYears)
	total += points
	reasons = appendReason(reasons, reason)

	if total > MaxScore {
		total = MaxScore
	}
	if total < 0 {
		total = 0
	}

	if len(reasons) == 0 {
		return Result{Score: total, Reason: VectorOnlyReason}
	}
	return Result{Score: total, Reason: strings.Join(reasons, reasonSeparator)}
}

func (e *Engine) required(required []string, held skills.Set) (int, string) {
	required = skills.Dedupe(required)
	if len(required) == 0 {
		return 0, ""
	}

	matched := len(held.Intersect(required))
	ratio := float64(matched) / float64(len(required))
	points := Round(ratio * float64(e.weights.Required))

	switch {
	case ratio >= fullRequiredRatio:
		return points, fmt.Sprintf("required skills %d/%d held", matched, len(required))
	case ratio >= partRequiredRatio:
		return points, fmt.Sprintf("partial required skills (%d)", matched)
	default:
		return points, ""
	}
}

func (e *Engine) preferred(text string, held skills.Set) (int, string) {
	if strings.TrimSpace(text) == "" {
		return 0, ""
	}

	wanted := e.extractor.ExtractSkills(text)
	if len(wanted) == 0 {
		return 0, ""
	}

	matched := held.Intersect(wanted)
	if len(matched) == 0 {
		return 0, ""
	}

	ratio := float64(len(matched)) / float64(len(wanted))
	return Round(ratio * float64(e.weights.Preferred)), "preferred skills: " + strings.Join(matched, ", ")
}

func (e *Engine) career(lower, upper *int, years int) (int, string) {
	full := e.weights.Career
	half := full / 2
	near := e.weights.NearRangeYears

	switch {
	case lower != nil && upper != nil:
		if years >= *lower && years <= *upper {
			return full, fmt.Sprintf("career requirement met (%d years)", years)
		}
		if years >= *lower-near && years <= *upper+near {
			return half, fmt.Sprintf("career near requirement (%d years)", years)
		}
	case lower != nil:
		if years >= *lower {
			return full, fmt.Sprintf("career requirement met (%d years)", years)
		}
		if years >= *lower-near {
			return half, fmt.Sprintf("career near requirement (%d years)", years)
		}
	case upper != nil:
		if years <= *upper {
			return full, fmt.Sprintf("career requirement met (%d years)", years)
		}
		if years <= *upper+near {
			return half, fmt.Sprintf("career near requirement (%d years)", years)
		}
	default:
		return full, CareerAgnosticReason
	}

	return 0, ""
}

func appendReason(reasons []string, reason string) []string {
	if reason == "" {
		return reasons
	}
	return append(reasons, reason)
}
