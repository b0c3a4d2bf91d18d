package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spigell/job-recommender/internal/recommend"
)

var recommendationColumns = []string{"generation_id", "user_id", "posting_id", "rank", "match_score", "match_reason", "created_at"}

// SaveRecommendations stores one generation of recommendations.
func (db *DB) SaveRecommendations(ctx context.Context, recs []recommend.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}

	rows, err := recommendationRows(recs)
	if err != nil {
		return err
	}

	if _, err := db.pool.CopyFrom(ctx, pgx.Identifier{"recommendations"}, recommendationColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to save recommendations: %w", err)
	}
	return nil
}

func recommendationRows(recs []recommend.Recommendation) ([][]any, error) {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		generationID, err := uuid.Parse(r.GenerationID)
		if err != nil {
			return nil, fmt.Errorf("invalid generation id %q: %w", r.GenerationID, err)
		}
		rows = append(rows, []any{generationID, r.UserID, r.PostingID, r.Rank, r.MatchScore, r.MatchReason, r.CreatedAt})
	}
	return rows, nil
}

// RecentlyRecommended returns the distinct postings shown to a user in their
// last generations runs, in posting id order.
func (db *DB) RecentlyRecommended(ctx context.Context, userID int, generations int) ([]int, error) {
	if generations <= 0 {
		return []int{}, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT posting_id FROM recommendations
		 WHERE user_id = $1 AND generation_id IN (
		     SELECT generation_id FROM recommendations
		     WHERE user_id = $1
		     GROUP BY generation_id
		     ORDER BY max(created_at) DESC
		     LIMIT $2
		 )
		 ORDER BY posting_id`,
		userID, generations,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation history: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("failed to scan recommendation history: %w", err)
	}
	return ids, nil
}
