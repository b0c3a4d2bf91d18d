package db

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-recommender/internal/recommend"
)

func TestRecommendationRows(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	id := uuid.New()

	rows, err := recommendationRows([]recommend.Recommendation{
		{GenerationID: id.String(), UserID: 7, PostingID: 101, Rank: 1, MatchScore: 100, MatchReason: "r", CreatedAt: created},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []any{id, 7, 101, 1, 100, "r", created}, rows[0])
	assert.Len(t, rows[0], len(recommendationColumns))
}

func TestRecommendationRowsRejectsBadGenerationID(t *testing.T) {
	_, err := recommendationRows([]recommend.Recommendation{{GenerationID: "gen-1"}})
	assert.ErrorContains(t, err, "invalid generation id")
}

func TestSchemaCoversAdapterTables(t *testing.T) {
	for _, table := range []string{"job_postings", "resumes", "recommendation_prompts", "recommendations", "embeddings", "posting_skills"} {
		assert.True(t, strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" "), table)
	}
}
