package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/recommend"
)

var _ recommend.PromptRepository = (*DB)(nil)

// GetPrompt retrieves a prompt by id; nil when absent.
func (db *DB) GetPrompt(ctx context.Context, id int) (*jobs.Prompt, error) {
	var p jobs.Prompt
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, version, content, active FROM recommendation_prompts WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Version, &p.Content, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return &p, nil
}

// ListPrompts returns prompts in id order; activeOnly drops inactive ones.
func (db *DB) ListPrompts(ctx context.Context, activeOnly bool) ([]*jobs.Prompt, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, version, content, active FROM recommendation_prompts
		 WHERE active OR NOT $1
		 ORDER BY id`,
		activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}

	prompts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*jobs.Prompt, error) {
		var p jobs.Prompt
		err := row.Scan(&p.ID, &p.Name, &p.Version, &p.Content, &p.Active)
		return &p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan prompts: %w", err)
	}
	return prompts, nil
}
