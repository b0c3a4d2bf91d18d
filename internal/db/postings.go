package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/recommend"
)

var _ recommend.PostingRepository = (*DB)(nil)

// GetPostings retrieves posting summaries by id. Unknown ids are omitted.
func (db *DB) GetPostings(ctx context.Context, ids []int) (map[int]*jobs.Posting, error) {
	out := make(map[int]*jobs.Posting, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, position, required_skills, preferred, career_min, career_max,
		        company_name, location, url, employment_type
		 FROM job_postings WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}

	postings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*jobs.Posting, error) {
		var p jobs.Posting
		err := row.Scan(&p.ID, &p.Position, &p.RequiredSkills, &p.Preferred, &p.CareerMin, &p.CareerMax,
			&p.CompanyName, &p.Location, &p.URL, &p.EmploymentType)
		return &p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan postings: %w", err)
	}

	for _, p := range postings {
		out[p.ID] = p
	}
	return out, nil
}
