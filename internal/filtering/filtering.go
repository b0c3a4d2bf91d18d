// Package filtering provides candidate filters applied between retrieval and
// hybrid ranking.
package filtering

import (
	"github.com/spigell/job-recommender/internal/recommend"
)

// Filter is a named candidate filtering step that can report its status.
type Filter interface {
	recommend.CandidateFilter
	IsEnabled() bool
	Status() Status
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// Enabled returns the enabled filters as pipeline filters.
func Enabled(steps []Filter) []recommend.CandidateFilter {
	out := make([]recommend.CandidateFilter, 0, len(steps))
	for _, step := range steps {
		if step.IsEnabled() {
			out = append(out, step)
		}
	}
	return out
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		statuses = append(statuses, step.Status())
	}
	return statuses
}

// exclude keeps candidates for which drop returns false and returns the ids it removed.
func exclude(candidates []*recommend.Candidate, drop func(*recommend.Candidate) bool) ([]*recommend.Candidate, []int) {
	kept := make([]*recommend.Candidate, 0, len(candidates))
	removed := make([]int, 0)
	for _, c := range candidates {
		if drop(c) {
			removed = append(removed, c.PostingID)
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed
}
