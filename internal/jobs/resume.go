package jobs

import (
	"fmt"
	"strconv"
	"strings"
)

// Resume is the profile extracted from a candidate's résumé.
type Resume struct {
	ID          int      `json:"id" mapstructure:"id"`
	UserID      int      `json:"user_id" mapstructure:"user_id"`
	Skills      []string `json:"skills" mapstructure:"skills"`
	CareerYears int      `json:"career_years" mapstructure:"career_years"`
	// Position is declared or inferred; empty when unknown.
	Position          string `json:"position,omitempty" mapstructure:"position"`
	ExperienceSummary string `json:"experience_summary,omitempty" mapstructure:"experience_summary"`
}

// DocID is the résumé identifier as stored in the vector index.
func (r *Resume) DocID() string {
	return strconv.Itoa(r.ID)
}

// SearchText is the text used for semantic search when no stored embedding exists.
func (r *Resume) SearchText() string {
	if summary := strings.TrimSpace(r.ExperienceSummary); summary != "" {
		return summary
	}
	return fmt.Sprintf("skills: %s", strings.Join(r.Skills, ", "))
}

// Prompt is a named, versioned instruction set for the LLM evaluator.
type Prompt struct {
	ID      int    `json:"id" mapstructure:"id"`
	Name    string `json:"name" mapstructure:"name"`
	Version string `json:"version" mapstructure:"version"`
	Content string `json:"content" mapstructure:"content"`
	Active  bool   `json:"active" mapstructure:"active"`
}

// Label is the human readable prompt identifier used in logs and selection menus.
func (p *Prompt) Label() string {
	if p.Version == "" {
		return fmt.Sprintf("%d %s", p.ID, p.Name)
	}
	return fmt.Sprintf("%d %s (%s)", p.ID, p.Name, p.Version)
}
