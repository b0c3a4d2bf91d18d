package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/recommend"
)

var _ recommend.ResumeRepository = (*DB)(nil)

const resumeColumns = `id, user_id, skills, career_years, position, experience_summary`

// GetResume retrieves a résumé by id; nil when absent.
func (db *DB) GetResume(ctx context.Context, id int) (*jobs.Resume, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1`,
		id,
	)
	return scanResume(row)
}

// LatestResume retrieves the most recent résumé of a user; nil when the user has none.
func (db *DB) LatestResume(ctx context.Context, userID int) (*jobs.Resume, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY id DESC LIMIT 1`,
		userID,
	)
	return scanResume(row)
}

func scanResume(row pgx.Row) (*jobs.Resume, error) {
	var r jobs.Resume
	err := row.Scan(&r.ID, &r.UserID, &r.Skills, &r.CareerYears, &r.Position, &r.ExperienceSummary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return &r, nil
}
