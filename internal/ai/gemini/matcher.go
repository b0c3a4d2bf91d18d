package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/metrics"
	"github.com/spigell/job-recommender/internal/scoring"
	"github.com/spigell/job-recommender/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	maxAttempts         = 3
	backoffStep         = 2 * time.Second
)

var waitFor = utils.WaitFor

// Evaluator scores posting batches with a Gemini generator. Rate limits are
// retried with linear backoff; every other failure yields fallback assessments.
type Evaluator struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Evaluator = (*Evaluator)(nil)

func NewEvaluator(generator contentGenerator, log *zap.Logger, maxLogLength int) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	model := ""
	if generator != nil {
		model = generator.Model()
	}

	return &Evaluator{
		generator: generator,
		logger:    logger.WithCommonFields(log, breakerName, model),
		maxLogLen: maxLogLength,
	}
}

// EvaluateBatch returns one assessment per posting, in posting order. Inputs
// larger than ai.MaxBatchSize are split into several provider calls.
func (e *Evaluator) EvaluateBatch(ctx context.Context, postings []*jobs.Posting, resume *jobs.Resume, prompt *jobs.Prompt, contexts []*ai.SearchContext) []ai.Assessment {
	out := make([]ai.Assessment, 0, len(postings))
	for start := 0; start < len(postings); start += ai.MaxBatchSize {
		end := min(start+ai.MaxBatchSize, len(postings))
		out = append(out, e.evaluateChunk(ctx, postings[start:end], resume, prompt, contextsFor(contexts, start, end))...)
	}
	return out
}

func (e *Evaluator) evaluateChunk(ctx context.Context, postings []*jobs.Posting, resume *jobs.Resume, prompt *jobs.Prompt, contexts []*ai.SearchContext) []ai.Assessment {
	system, message, err := buildPrompt(postings, resume, prompt, contexts)
	if err != nil {
		return e.fallback(postings, err)
	}

	e.logger.Debug("gemini evaluate batch request",
		zap.Int("batch_size", len(postings)),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, e.maxLogLen)),
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var assessments []ai.Assessment
		assessments, err = e.attempt(ctx, system, message, postings)
		metrics.EvaluatorAttemptsTotal.WithLabelValues(ai.Kind(err)).Inc()
		if err == nil {
			return assessments
		}

		if !ai.Retryable(err) || attempt == maxAttempts {
			break
		}

		delay := time.Duration(attempt) * backoffStep
		e.logger.Warn("gemini rate limited; retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if waitErr := waitFor(ctx, delay); waitErr != nil {
			err = fmt.Errorf("wait before retry: %w", waitErr)
			break
		}
	}

	return e.fallback(postings, err)
}

func (e *Evaluator) attempt(ctx context.Context, system, message string, postings []*jobs.Posting) ([]ai.Assessment, error) {
	if e.generator == nil {
		return nil, fmt.Errorf("%w: generator is not configured", ai.ErrUnavailable)
	}

	raw, err := e.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini evaluate batch response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return parseAssessments(raw, postings)
}

func (e *Evaluator) fallback(postings []*jobs.Posting, err error) []ai.Assessment {
	kind := ai.Kind(err)
	e.logger.Warn("gemini evaluation failed; using fallback scores",
		zap.String("kind", kind),
		zap.Int("batch_size", len(postings)),
		zap.Error(err),
	)
	metrics.EvaluatorFallbacksTotal.WithLabelValues(kind).Add(float64(len(postings)))
	return ai.Fallback(len(postings))
}

type resumePayload struct {
	Skills            []string `json:"skills"`
	CareerYears       int      `json:"career_years"`
	Position          string   `json:"position,omitempty"`
	ExperienceSummary string   `json:"experience_summary,omitempty"`
}

type postingPayload struct {
	PostingID      int               `json:"posting_id"`
	Position       string            `json:"position"`
	CompanyName    string            `json:"company_name,omitempty"`
	RequiredSkills []string          `json:"required_skills"`
	Preferred      string            `json:"preferred,omitempty"`
	CareerMin      *int              `json:"career_min,omitempty"`
	CareerMax      *int              `json:"career_max,omitempty"`
	SearchContext  *ai.SearchContext `json:"search_context,omitempty"`
}

func buildPrompt(postings []*jobs.Posting, resume *jobs.Resume, prompt *jobs.Prompt, contexts []*ai.SearchContext) (string, string, error) {
	if resume == nil {
		return "", "", errors.New("resume is required")
	}
	if prompt == nil || strings.TrimSpace(prompt.Content) == "" {
		return "", "", errors.New("prompt content is required")
	}

	resumeJSON, err := json.MarshalIndent(resumePayload{
		Skills:            resume.Skills,
		CareerYears:       resume.CareerYears,
		Position:          resume.Position,
		ExperienceSummary: resume.ExperienceSummary,
	}, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal resume payload: %w", err)
	}

	items := make([]postingPayload, 0, len(postings))
	for i, p := range postings {
		if p == nil {
			return "", "", fmt.Errorf("posting %d is nil", i)
		}
		item := postingPayload{
			PostingID:      p.ID,
			Position:       p.Position,
			CompanyName:    p.CompanyName,
			RequiredSkills: p.RequiredSkills,
			Preferred:      p.Preferred,
			CareerMin:      p.CareerMin,
			CareerMax:      p.CareerMax,
		}
		if i < len(contexts) {
			item.SearchContext = contexts[i]
		}
		items = append(items, item)
	}

	postingsJSON, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal postings payload: %w", err)
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Candidate:\n{{RESUME_JSON}}\n\nPostings ({{COUNT}}):\n{{POSTINGS_JSON}}\n\nJSON Response:"
	}
	message := strings.ReplaceAll(template, "{{RESUME_JSON}}", string(resumeJSON))
	message = strings.ReplaceAll(message, "{{POSTINGS_JSON}}", string(postingsJSON))
	message = strings.ReplaceAll(message, "{{COUNT}}", strconv.Itoa(len(postings)))

	return prompt.Content, message, nil
}

// parseAssessments decodes the provider answer into assessments aligned with postings.
// Items carrying posting ids that cover the batch are realigned by id; otherwise
// order is positional.
func parseAssessments(raw string, postings []*jobs.Posting) ([]ai.Assessment, error) {
	cleaned := extractJSON(raw)

	var items []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		var wrapped map[string]any
		if werr := json.Unmarshal([]byte(cleaned), &wrapped); werr != nil {
			return nil, fmt.Errorf("%w: %w", ai.ErrParse, err)
		}
		items = unwrapItems(wrapped)
		if items == nil {
			return nil, fmt.Errorf("%w: response object has no assessment list", ai.ErrParse)
		}
	}

	if len(items) != len(postings) {
		return nil, fmt.Errorf("%w: expected %d assessments, got %d", ai.ErrParse, len(postings), len(items))
	}

	items = alignByPostingID(items, postings)

	out := make([]ai.Assessment, len(items))
	for i, item := range items {
		out[i] = ai.Assessment{
			Score:  scoring.NormalizeScore(item["score"]),
			Reason: coerceString(item["reason"]),
		}
	}

	return out, nil
}

func unwrapItems(obj map[string]any) []map[string]any {
	for _, key := range []string{"assessments", "results", "items"} {
		list, ok := obj[key].([]any)
		if !ok {
			continue
		}
		items := make([]map[string]any, 0, len(list))
		for _, entry := range list {
			m, ok := entry.(map[string]any)
			if !ok {
				return nil
			}
			items = append(items, m)
		}
		return items
	}
	return nil
}

func alignByPostingID(items []map[string]any, postings []*jobs.Posting) []map[string]any {
	byID := make(map[int]map[string]any, len(items))
	for _, item := range items {
		id, ok := coerceInt(item["posting_id"])
		if !ok {
			return items
		}
		if _, dup := byID[id]; dup {
			return items
		}
		byID[id] = item
	}

	aligned := make([]map[string]any, len(postings))
	for i, p := range postings {
		item, ok := byID[p.ID]
		if !ok {
			return items
		}
		aligned[i] = item
	}
	return aligned
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceInt(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		if val != float64(int(val)) {
			return 0, false
		}
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		return n, err == nil
	default:
		return 0, false
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func contextsFor(contexts []*ai.SearchContext, start, end int) []*ai.SearchContext {
	if start >= len(contexts) {
		return nil
	}
	return contexts[start:min(end, len(contexts))]
}
