package recommend

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/job-recommender/internal/scoring"
)

// HybridWeights blend retrieval signals into the hybrid score.
type HybridWeights struct {
	Vector float64 `mapstructure:"vector" validate:"gte=0"`
	Skill  float64 `mapstructure:"skill" validate:"gte=0"`
	// Position* apply when the résumé declares a position.
	PositionTitle  float64 `mapstructure:"position-title" validate:"gte=0"`
	PositionVector float64 `mapstructure:"position-vector" validate:"gte=0"`
	PositionSkill  float64 `mapstructure:"position-skill" validate:"gte=0"`
}

// Config holds retrieval and ranking parameters.
type Config struct {
	PostingCollection   string          `mapstructure:"posting-collection" validate:"required"`
	ResumeCollection    string          `mapstructure:"resume-collection" validate:"required"`
	VectorResults       int             `mapstructure:"vector-results" validate:"gt=0"`
	MinSimilarity       float64         `mapstructure:"min-similarity" validate:"gte=0,lte=1"`
	GraphLimit          int             `mapstructure:"graph-limit" validate:"gte=0"`
	GraphOnlySimilarity float64         `mapstructure:"graph-only-similarity" validate:"gte=0,lte=1"`
	SkillRatioFloor     int             `mapstructure:"skill-ratio-floor" validate:"gt=0"`
	DefaultLimit        int             `mapstructure:"default-limit" validate:"gt=0"`
	Hybrid              HybridWeights   `mapstructure:"hybrid"`
	Scoring             scoring.Weights `mapstructure:"scoring"`
}

// DefaultConfig returns the stock retrieval and weighting parameters.
func DefaultConfig() Config {
	return Config{
		PostingCollection:   "job_postings",
		ResumeCollection:    "resumes",
		VectorResults:       50,
		MinSimilarity:       0.7,
		GraphLimit:          50,
		GraphOnlySimilarity: 0.5,
		SkillRatioFloor:     10,
		DefaultLimit:        100,
		Hybrid: HybridWeights{
			Vector:         0.6,
			Skill:          0.4,
			PositionTitle:  0.5,
			PositionVector: 0.3,
			PositionSkill:  0.2,
		},
		Scoring: scoring.DefaultWeights(),
	}
}

// Validate checks the struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid recommend config: %w", err)
	}
	return nil
}
