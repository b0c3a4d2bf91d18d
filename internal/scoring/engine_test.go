package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-recommender/internal/jobs"
)

func TestEngineScoreFullMatch(t *testing.T) {
	engine := NewEngine(DefaultWeights(), nil)
	posting := &jobs.Posting{
		ID:             1,
		Position:       "Backend Engineer",
		RequiredSkills: []string{"Python", "Django", "PostgreSQL"},
		Preferred:      "AWS, Docker",
		CareerMin:      jobs.IntPtr(3),
		CareerMax:      jobs.IntPtr(5),
	}

	result := engine.Score(posting, []string{"Python", "Django", "PostgreSQL", "AWS", "Docker"}, 4)

	assert.Equal(t, 100, result.Score)
	assert.Contains(t, result.Reason, "required skills 3/3")
	assert.Contains(t, result.Reason, "career requirement met")
	assert.Contains(t, result.Reason, "preferred skills: AWS, Docker")
}

func TestEngineScoreBarePosting(t *testing.T) {
	engine := NewEngine(DefaultWeights(), nil)

	result := engine.Score(&jobs.Posting{ID: 2}, []string{"Go"}, 7)

	assert.Equal(t, Result{Score: 20, Reason: CareerAgnosticReason}, result)
}

func TestEngineScoreComponents(t *testing.T) {
	engine := NewEngine(DefaultWeights(), nil)

	tests := []struct {
		name       string
		posting    jobs.Posting
		skills     []string
		years      int
		wantScore  int
		wantReason []string
	}{
		{
			name:       "partial required",
			posting:    jobs.Posting{RequiredSkills: []string{"Go", "Redis"}, CareerMin: jobs.IntPtr(10), CareerMax: jobs.IntPtr(12)},
			skills:     []string{"go"},
			years:      1,
			wantScore:  25,
			wantReason: []string{"partial required skills (1)"},
		},
		{
			name:       "low overlap gives points without reason",
			posting:    jobs.Posting{RequiredSkills: []string{"Go", "Redis", "Kafka", "Docker"}, CareerMin: jobs.IntPtr(10)},
			skills:     []string{"Docker"},
			years:      0,
			wantScore:  13,
			wantReason: []string{VectorOnlyReason},
		},
		{
			name:       "near both bounds",
			posting:    jobs.Posting{CareerMin: jobs.IntPtr(3), CareerMax: jobs.IntPtr(5)},
			years:      7,
			wantScore:  10,
			wantReason: []string{"career near requirement (7 years)"},
		},
		{
			name:       "lower bound only",
			posting:    jobs.Posting{CareerMin: jobs.IntPtr(5)},
			years:      3,
			wantScore:  10,
			wantReason: []string{"career near requirement"},
		},
		{
			name:       "upper bound only",
			posting:    jobs.Posting{CareerMax: jobs.IntPtr(2)},
			years:      1,
			wantScore:  20,
			wantReason: []string{"career requirement met (1 years)"},
		},
		{
			name:       "preferred without overlap",
			posting:    jobs.Posting{Preferred: "Kubernetes experience", CareerMax: jobs.IntPtr(1)},
			skills:     []string{"Go"},
			years:      9,
			wantScore:  0,
			wantReason: []string{VectorOnlyReason},
		},
		{
			name:       "half of preferred",
			posting:    jobs.Posting{Preferred: "Kubernetes, Terraform", CareerMin: jobs.IntPtr(1), CareerMax: jobs.IntPtr(2)},
			skills:     []string{"terraform"},
			years:      2,
			wantScore:  35,
			wantReason: []string{"preferred skills: Terraform", "career requirement met"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Score(&tt.posting, tt.skills, tt.years)
			assert.Equal(t, tt.wantScore, result.Score)
			for _, want := range tt.wantReason {
				assert.Contains(t, result.Reason, want)
			}
		})
	}
}

func TestEngineScoreJoinsReasons(t *testing.T) {
	engine := NewEngine(DefaultWeights(), nil)
	posting := &jobs.Posting{RequiredSkills: []string{"Go"}, Preferred: "Docker"}

	result := engine.Score(posting, []string{"Go", "Docker"}, 3)

	require.Equal(t, 100, result.Score)
	assert.Equal(t, []string{"required skills 1/1 held", "preferred skills: Docker", CareerAgnosticReason},
		strings.Split(result.Reason, " | "))
}

func TestEngineScoreClampsHeavyWeights(t *testing.T) {
	engine := NewEngine(Weights{Required: 90, Preferred: 30, Career: 20, NearRangeYears: 2}, nil)

	result := engine.Score(&jobs.Posting{RequiredSkills: []string{"Go"}}, []string{"Go"}, 1)

	assert.Equal(t, MaxScore, result.Score)
}

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
	}{
		{name: "half rounds up", input: 90.5, want: 91},
		{name: "below half", input: 90.49, want: 90},
		{name: "numeric string", input: " 77 ", want: 77},
		{name: "garbage string", input: "abc", want: 0},
		{name: "nan", input: math.NaN(), want: 0},
		{name: "infinity", input: math.Inf(1), want: 0},
		{name: "above range", input: 150, want: 100},
		{name: "huge float", input: 1e20, want: 100},
		{name: "huge numeric string", input: "1e20", want: 100},
		{name: "near max float", input: 1e300, want: 100},
		{name: "just past int64", input: 9.3e18, want: 100},
		{name: "negative", input: -3.2, want: 0},
		{name: "nil", input: nil, want: 0},
		{name: "bool", input: true, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeScore(tt.input))
		})
	}
}
