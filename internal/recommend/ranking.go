package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/job-recommender/internal/scoring"
	"github.com/spigell/job-recommender/internal/skills"
)

// hybridRank fills skill signals and hybrid scores, sorts descending by hybrid
// score (posting id ascending on ties) and keeps the top limit.
func (s *Service) hybridRank(ctx context.Context, candidates []*Candidate, userSkills []string, position string, limit int) ([]*Candidate, error) {
	held := skills.NewSet(userSkills)
	denominator := float64(max(len(held), s.cfg.SkillRatioFloor))
	position = strings.TrimSpace(position)
	w := s.cfg.Hybrid

	for _, c := range candidates {
		required, err := s.graph.GetRequiredSkills(ctx, c.PostingID)
		if err != nil {
			return nil, fmt.Errorf("get required skills for posting %d: %w", c.PostingID, err)
		}
		c.SkillMatchCount = len(held.Intersect(required))
		ratio := min(float64(c.SkillMatchCount)/denominator, 1.0)

		if position == "" {
			c.HybridScore = w.Vector*c.VectorSimilarity + w.Skill*ratio
			continue
		}

		title := ""
		if c.Posting != nil {
			title = c.Posting.Position
		}
		c.HybridScore = w.PositionTitle*scoring.PositionSimilarity(position, title) +
			w.PositionVector*c.VectorSimilarity +
			w.PositionSkill*ratio
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].HybridScore != candidates[j].HybridScore {
			return candidates[i].HybridScore > candidates[j].HybridScore
		}
		return candidates[i].PostingID < candidates[j].PostingID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

type scored struct {
	candidate *Candidate
	score     int
	reason    string
}

// assemble sorts scored candidates by score descending (posting id ascending on
// ties), truncates to limit and assigns dense ranks starting at 1.
func (s *Service) assemble(items []scored, userID int, generationID string, limit int) []Recommendation {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].candidate.PostingID < items[j].candidate.PostingID
	})
	if len(items) > limit {
		items = items[:limit]
	}

	createdAt := s.now().UTC()
	out := make([]Recommendation, 0, len(items))
	for i, item := range items {
		p := item.candidate.Posting
		out = append(out, Recommendation{
			GenerationID:   generationID,
			UserID:         userID,
			PostingID:      p.ID,
			Rank:           i + 1,
			MatchScore:     scoring.Clamp(item.score),
			MatchReason:    item.reason,
			CompanyName:    p.CompanyName,
			Position:       p.Position,
			URL:            p.URL,
			Location:       p.Location,
			EmploymentType: p.EmploymentType,
			CreatedAt:      createdAt,
		})
	}
	return out
}
