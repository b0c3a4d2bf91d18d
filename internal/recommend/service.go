package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/metrics"
	"github.com/spigell/job-recommender/internal/scoring"
	"github.com/spigell/job-recommender/internal/skills"
)

// Deps aggregates the collaborators of the pipeline. Prompts and Evaluator are
// optional; without them every request is scored by rules.
type Deps struct {
	Vectors   VectorStore
	Graph     GraphStore
	Postings  PostingRepository
	Resumes   ResumeRepository
	Prompts   PromptRepository
	Evaluator ai.Evaluator
	Extractor scoring.SkillExtractor
	Filters   []CandidateFilter
	Logger    *zap.Logger
}

// Service runs the recommendation pipeline. It keeps no per-request state and is
// safe for concurrent use when its collaborators are.
type Service struct {
	cfg       Config
	vectors   VectorStore
	graph     GraphStore
	postings  PostingRepository
	resumes   ResumeRepository
	prompts   PromptRepository
	evaluator ai.Evaluator
	filters   []CandidateFilter
	engine    *scoring.Engine
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService validates cfg and the required collaborators.
func NewService(cfg Config, deps Deps) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Vectors == nil:
		return nil, errors.New("vector store is required")
	case deps.Graph == nil:
		return nil, errors.New("graph store is required")
	case deps.Postings == nil:
		return nil, errors.New("posting repository is required")
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		vectors:   deps.Vectors,
		graph:     deps.Graph,
		postings:  deps.Postings,
		resumes:   deps.Resumes,
		prompts:   deps.Prompts,
		evaluator: deps.Evaluator,
		filters:   deps.Filters,
		engine:    scoring.NewEngine(cfg.Scoring, deps.Extractor),
		logger:    log,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// GetRecommendations resolves the user's résumé and runs the pipeline for it.
// A user without any résumé gets an empty list; an explicitly requested résumé
// that does not exist yields ErrResumeNotFound.
func (s *Service) GetRecommendations(ctx context.Context, userID int, opts Options) (*Result, error) {
	if s.resumes == nil {
		return nil, errors.New("resume repository is not configured")
	}

	var (
		resume *jobs.Resume
		err    error
	)
	if opts.ResumeID > 0 {
		resume, err = s.resumes.GetResume(ctx, opts.ResumeID)
		if err != nil {
			return nil, fmt.Errorf("get resume %d: %w", opts.ResumeID, err)
		}
		if resume == nil || resume.UserID != userID {
			return nil, fmt.Errorf("%w: id %d for user %d", ErrResumeNotFound, opts.ResumeID, userID)
		}
	} else {
		resume, err = s.resumes.LatestResume(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get latest resume for user %d: %w", userID, err)
		}
		if resume == nil {
			s.logger.Info("user has no resume; returning empty recommendations", zap.Int(logger.FieldUser, userID))
			metrics.ObservePipeline(PathEmpty, time.Now())
			return &Result{GenerationID: s.newID(), Path: PathEmpty, Recommendations: []Recommendation{}}, nil
		}
	}

	return s.Recommend(ctx, resume, opts)
}

// Recommend runs retrieval, hybrid ranking and final scoring for resume.
func (s *Service) Recommend(ctx context.Context, resume *jobs.Resume, opts Options) (*Result, error) {
	if resume == nil {
		return nil, ErrResumeNotFound
	}

	started := time.Now()
	generationID := s.newID()
	log := logger.WithRequestFields(s.logger, resume.UserID, resume.ID, generationID)

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	userSkills := skills.Dedupe(resume.Skills)
	if len(userSkills) == 0 {
		log.Info("resume has no skills; returning empty recommendations")
		metrics.ObservePipeline(PathEmpty, started)
		return &Result{GenerationID: generationID, Path: PathEmpty, Recommendations: []Recommendation{}}, nil
	}

	prompt, err := s.resolvePrompt(ctx, opts.PromptID)
	if err != nil {
		return nil, err
	}

	result := &Result{GenerationID: generationID, Path: PathRules}
	if prompt != nil && s.evaluator != nil {
		result.Path = PathEvaluator
	} else if prompt != nil {
		log.Warn("prompt requested but no evaluator is configured; scoring by rules",
			zap.Int(logger.FieldPrompt, prompt.ID))
	}

	candidates, err := s.retrieve(ctx, log, resume, userSkills)
	if err != nil {
		return nil, err
	}
	result.Steps = append(result.Steps, Step{Name: "retrieve", Initial: len(candidates), Left: len(candidates)})

	candidates, step, err := s.attachPostings(ctx, log, candidates)
	if err != nil {
		return nil, err
	}
	result.Steps = append(result.Steps, step)

	for _, filter := range s.filters {
		initial := len(candidates)
		candidates, err = filter.Apply(ctx, resume.UserID, candidates)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filter.Name(), err)
		}
		result.Steps = append(result.Steps, Step{Name: filter.Name(), Initial: initial, Dropped: initial - len(candidates), Left: len(candidates)})
	}

	initial := len(candidates)
	candidates, err = s.hybridRank(ctx, candidates, userSkills, resume.Position, limit)
	if err != nil {
		return nil, err
	}
	result.Steps = append(result.Steps, Step{Name: "hybrid_rank", Initial: initial, Dropped: initial - len(candidates), Left: len(candidates)})

	var items []scored
	if result.Path == PathEvaluator {
		items = s.scoreWithEvaluator(ctx, log, candidates, resume, prompt)
	} else {
		items = s.scoreWithRules(candidates, userSkills, resume.CareerYears)
	}

	result.Recommendations = s.assemble(items, resume.UserID, generationID, limit)
	result.Steps = append(result.Steps, Step{Name: "assemble", Initial: len(items), Dropped: len(items) - len(result.Recommendations), Left: len(result.Recommendations)})

	for _, st := range result.Steps {
		log.Debug("pipeline step",
			zap.String("name", st.Name),
			zap.Int("initial", st.Initial),
			zap.Int("dropped", st.Dropped),
			zap.Int("left", st.Left),
		)
	}
	log.Info("recommendations generated",
		zap.String("path", result.Path),
		zap.Int("count", len(result.Recommendations)),
		zap.Duration("elapsed", time.Since(started)),
	)
	metrics.ObservePipeline(result.Path, started)

	return result, nil
}

func (s *Service) resolvePrompt(ctx context.Context, id *int) (*jobs.Prompt, error) {
	if id == nil {
		return nil, nil
	}
	if s.prompts == nil {
		return nil, fmt.Errorf("%w: id %d (no prompt repository)", ErrPromptNotFound, *id)
	}
	prompt, err := s.prompts.GetPrompt(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("get prompt %d: %w", *id, err)
	}
	if prompt == nil {
		return nil, fmt.Errorf("%w: id %d", ErrPromptNotFound, *id)
	}
	return prompt, nil
}

// attachPostings loads posting summaries and drops candidates whose posting is unknown.
func (s *Service) attachPostings(ctx context.Context, log *zap.Logger, candidates []*Candidate) ([]*Candidate, Step, error) {
	step := Step{Name: "postings", Initial: len(candidates)}
	if len(candidates) == 0 {
		return candidates, step, nil
	}

	ids := make([]int, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.PostingID)
	}

	postings, err := s.postings.GetPostings(ctx, ids)
	if err != nil {
		return nil, step, fmt.Errorf("load postings: %w", err)
	}

	kept := candidates[:0]
	missing := make([]int, 0)
	for _, c := range candidates {
		p, ok := postings[c.PostingID]
		if !ok || p == nil {
			missing = append(missing, c.PostingID)
			continue
		}
		c.Posting = p
		kept = append(kept, c)
	}

	if len(missing) > 0 {
		log.Warn("dropping candidates without posting data", zap.Ints("posting_ids", missing))
	}

	step.Dropped = len(missing)
	step.Left = len(kept)
	return kept, step, nil
}

func (s *Service) scoreWithRules(candidates []*Candidate, userSkills []string, careerYears int) []scored {
	items := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		r := s.engine.Score(c.Posting, userSkills, careerYears)
		items = append(items, scored{candidate: c, score: r.Score, reason: r.Reason})
	}
	return items
}

func (s *Service) scoreWithEvaluator(ctx context.Context, log *zap.Logger, candidates []*Candidate, resume *jobs.Resume, prompt *jobs.Prompt) []scored {
	items := make([]scored, 0, len(candidates))
	for start := 0; start < len(candidates); start += ai.MaxBatchSize {
		batch := candidates[start:min(start+ai.MaxBatchSize, len(candidates))]

		postings := make([]*jobs.Posting, 0, len(batch))
		contexts := make([]*ai.SearchContext, 0, len(batch))
		for _, c := range batch {
			postings = append(postings, c.Posting)
			contexts = append(contexts, &ai.SearchContext{
				VectorSimilarity: c.VectorSimilarity,
				SkillMatchCount:  c.SkillMatchCount,
				HybridScore:      c.HybridScore,
			})
		}

		assessments := s.evaluator.EvaluateBatch(ctx, postings, resume, prompt, contexts)
		if len(assessments) != len(batch) {
			log.Warn("evaluator returned misaligned batch; using fallback scores",
				zap.Int("expected", len(batch)),
				zap.Int("got", len(assessments)),
			)
			assessments = ai.Fallback(len(batch))
		}

		for i, c := range batch {
			items = append(items, scored{
				candidate: c,
				score:     scoring.Clamp(assessments[i].Score),
				reason:    assessments[i].Reason,
			})
		}
	}
	return items
}
