package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/jobs"
)

type stubResult struct {
	response string
	err      error
}

type stubGenerator struct {
	results     []stubResult
	calls       int
	lastSystem  string
	lastMessage string
	messages    []string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, message string) (string, error) {
	s.calls++
	s.lastSystem = system
	s.lastMessage = message
	s.messages = append(s.messages, message)
	if len(s.results) == 0 {
		return "", errors.New("unexpected call")
	}
	res := s.results[0]
	s.results = s.results[1:]
	return res.response, res.err
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func stubWait(t *testing.T) *[]time.Duration {
	t.Helper()
	original := waitFor
	waits := []time.Duration{}
	waitFor = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	t.Cleanup(func() { waitFor = original })
	return &waits
}

func testPostings(ids ...int) []*jobs.Posting {
	postings := make([]*jobs.Posting, 0, len(ids))
	for _, id := range ids {
		postings = append(postings, &jobs.Posting{ID: id, Position: fmt.Sprintf("Backend %d", id), RequiredSkills: []string{"Go"}})
	}
	return postings
}

var (
	testResume = &jobs.Resume{ID: 1, UserID: 10, Skills: []string{"Go", "Redis"}, CareerYears: 4}
	testPrompt = &jobs.Prompt{ID: 3, Name: "strict", Content: "Be strict about required skills."}
)

func TestEvaluateBatchParsesAssessments(t *testing.T) {
	stub := &stubGenerator{results: []stubResult{{
		response: "```json\n[{\"score\": 90.5, \"reason\": \"strong Go\"}, {\"score\": \"40\", \"reason\": \"junior\"}, {\"score\": 120, \"reason\": \"perfect\"}]\n```",
	}}}
	evaluator := NewEvaluator(stub, zap.NewNop(), 0)
	contexts := []*ai.SearchContext{{VectorSimilarity: 0.91, SkillMatchCount: 2, HybridScore: 0.7}}

	got := evaluator.EvaluateBatch(context.Background(), testPostings(1, 2, 3), testResume, testPrompt, contexts)

	want := []ai.Assessment{{Score: 91, Reason: "strong Go"}, {Score: 40, Reason: "junior"}, {Score: 100, Reason: "perfect"}}
	if len(got) != len(want) {
		t.Fatalf("expected %d assessments, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("assessment %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if stub.lastSystem != testPrompt.Content {
		t.Fatalf("expected prompt content as system instruction, got %q", stub.lastSystem)
	}
	if !strings.Contains(stub.lastMessage, `"vector_similarity": 0.91`) {
		t.Fatalf("expected search context in message: %s", stub.lastMessage)
	}
	if !strings.Contains(stub.lastMessage, "exactly 3 objects") {
		t.Fatalf("expected batch size in message: %s", stub.lastMessage)
	}
}

func TestEvaluateBatchRealignsByPostingID(t *testing.T) {
	stub := &stubGenerator{results: []stubResult{{
		response: `{"assessments": [{"posting_id": 8, "score": 10, "reason": "b"}, {"posting_id": "7", "score": 70, "reason": "a"}]}`,
	}}}
	evaluator := NewEvaluator(stub, zap.NewNop(), 0)

	got := evaluator.EvaluateBatch(context.Background(), testPostings(7, 8), testResume, testPrompt, nil)

	if got[0].Score != 70 || got[1].Score != 10 {
		t.Fatalf("expected assessments aligned by posting id, got %+v", got)
	}
}

func TestEvaluateBatchRetriesRateLimits(t *testing.T) {
	waits := stubWait(t)
	rateLimited := fmt.Errorf("generate: %w", ai.ErrRateLimited)
	stub := &stubGenerator{results: []stubResult{
		{err: rateLimited},
		{err: rateLimited},
		{response: `[{"score": 77, "reason": "ok"}]`},
	}}
	evaluator := NewEvaluator(stub, zap.NewNop(), 0)

	got := evaluator.EvaluateBatch(context.Background(), testPostings(1), testResume, testPrompt, nil)

	if got[0].Score != 77 {
		t.Fatalf("expected score after retries, got %+v", got)
	}
	if stub.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", stub.calls)
	}
	if len(*waits) != 2 || (*waits)[0] != 2*time.Second || (*waits)[1] != 4*time.Second {
		t.Fatalf("unexpected backoff schedule: %v", *waits)
	}
}

func TestEvaluateBatchFallsBackAfterRetriesExhausted(t *testing.T) {
	waits := stubWait(t)
	rateLimited := fmt.Errorf("generate: %w", ai.ErrRateLimited)
	stub := &stubGenerator{results: []stubResult{{err: rateLimited}, {err: rateLimited}, {err: rateLimited}}}
	evaluator := NewEvaluator(stub, zap.NewNop(), 0)

	got := evaluator.EvaluateBatch(context.Background(), testPostings(1, 2, 3), testResume, testPrompt, nil)

	if len(got) != 3 {
		t.Fatalf("expected 3 assessments, got %d", len(got))
	}
	for i, a := range got {
		if a.Score != ai.FallbackScore || a.Reason != ai.FallbackReason {
			t.Fatalf("assessment %d: expected fallback, got %+v", i, a)
		}
	}
	if stub.calls != maxAttempts {
		t.Fatalf("expected %d calls, got %d", maxAttempts, stub.calls)
	}
	if len(*waits) != maxAttempts-1 {
		t.Fatalf("expected %d waits, got %d", maxAttempts-1, len(*waits))
	}
}

func TestEvaluateBatchDoesNotRetryOtherErrors(t *testing.T) {
	cases := []struct {
		name   string
		result stubResult
	}{
		{name: "token limit", result: stubResult{err: ai.ErrTokenLimit}},
		{name: "unknown", result: stubResult{err: errors.New("boom")}},
		{name: "not json", result: stubResult{response: "I think both are great"}},
		{name: "count mismatch", result: stubResult{response: `[{"score": 80, "reason": "only one"}]`}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			waits := stubWait(t)
			stub := &stubGenerator{results: []stubResult{tc.result}}
			evaluator := NewEvaluator(stub, zap.NewNop(), 0)

			got := evaluator.EvaluateBatch(context.Background(), testPostings(1, 2), testResume, testPrompt, nil)

			if len(got) != 2 || got[0].Score != ai.FallbackScore || got[1].Reason != ai.FallbackReason {
				t.Fatalf("expected fallback assessments, got %+v", got)
			}
			if stub.calls != 1 {
				t.Fatalf("expected single call, got %d", stub.calls)
			}
			if len(*waits) != 0 {
				t.Fatalf("expected no waits, got %v", *waits)
			}
		})
	}
}

func TestEvaluateBatchSplitsLargeInputs(t *testing.T) {
	first := make([]string, 0, ai.MaxBatchSize)
	for i := 0; i < ai.MaxBatchSize; i++ {
		first = append(first, `{"score": 60, "reason": "x"}`)
	}
	stub := &stubGenerator{results: []stubResult{
		{response: "[" + strings.Join(first, ",") + "]"},
		{response: `[{"score": 30, "reason": "y"}, {"score": 20, "reason": "z"}]`},
	}}
	evaluator := NewEvaluator(stub, zap.NewNop(), 0)

	ids := make([]int, 0, ai.MaxBatchSize+2)
	for i := 1; i <= ai.MaxBatchSize+2; i++ {
		ids = append(ids, i)
	}

	got := evaluator.EvaluateBatch(context.Background(), testPostings(ids...), testResume, testPrompt, nil)

	if len(got) != ai.MaxBatchSize+2 {
		t.Fatalf("expected %d assessments, got %d", ai.MaxBatchSize+2, len(got))
	}
	if stub.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", stub.calls)
	}
	if got[ai.MaxBatchSize].Score != 30 || got[ai.MaxBatchSize+1].Score != 20 {
		t.Fatalf("unexpected tail assessments: %+v", got[ai.MaxBatchSize:])
	}
}

func TestEvaluateBatchWithoutPromptFallsBack(t *testing.T) {
	stub := &stubGenerator{}
	evaluator := NewEvaluator(stub, zap.NewNop(), 0)

	got := evaluator.EvaluateBatch(context.Background(), testPostings(1), testResume, &jobs.Prompt{ID: 1}, nil)

	if got[0].Score != ai.FallbackScore {
		t.Fatalf("expected fallback, got %+v", got)
	}
	if stub.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", stub.calls)
	}
}

func TestEvaluateBatchEmpty(t *testing.T) {
	evaluator := NewEvaluator(&stubGenerator{}, zap.NewNop(), 0)
	if got := evaluator.EvaluateBatch(context.Background(), nil, testResume, testPrompt, nil); len(got) != 0 {
		t.Fatalf("expected no assessments, got %+v", got)
	}
}

func TestParseAssessmentsRejectsObjectWithoutList(t *testing.T) {
	_, err := parseAssessments(`{"score": 10}`, testPostings(1))
	if !errors.Is(err, ai.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}
