// Package graphstore implements the skill graph port over a posting → skill
// edge table, with an optional Redis cache for required skill lookups.
package graphstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spigell/job-recommender/internal/recommend"
	"github.com/spigell/job-recommender/internal/skills"
)

// querier is satisfied by *pgxpool.Pool.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres answers graph queries from the posting_skills table. skill_key holds
// the normalized skill name.
type Postgres struct {
	db querier
}

var _ recommend.GraphStore = (*Postgres)(nil)

func NewPostgres(db querier) *Postgres {
	return &Postgres{db: db}
}

// GetPostingsBySkills returns postings requiring any of names, most shared skills
// first, posting id ascending on ties. A non-positive limit returns every match.
func (p *Postgres) GetPostingsBySkills(ctx context.Context, names []string, limit int) ([]int, error) {
	keys := keysOf(names)
	if len(keys) == 0 {
		return []int{}, nil
	}

	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := p.db.Query(ctx,
		`SELECT posting_id FROM posting_skills
		 WHERE skill_key = ANY($1)
		 GROUP BY posting_id
		 ORDER BY count(*) DESC, posting_id
		 LIMIT $2`,
		keys, lim,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query postings by skills: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("failed to scan postings by skills: %w", err)
	}
	return ids, nil
}

// GetRequiredSkills returns the posting's skills in name order; empty when the posting has no edges.
func (p *Postgres) GetRequiredSkills(ctx context.Context, postingID int) ([]string, error) {
	rows, err := p.db.Query(ctx,
		`SELECT skill FROM posting_skills WHERE posting_id = $1 ORDER BY skill`,
		postingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query required skills: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan required skills: %w", err)
	}
	return names, nil
}

func keysOf(names []string) []string {
	set := skills.NewSet(names)
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	return keys
}
