// Package worker consumes recommendation jobs from a Redis list and publishes
// their outcomes back to Redis.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/metrics"
	"github.com/spigell/job-recommender/internal/recommend"
	"github.com/spigell/job-recommender/internal/utils"
)

// Job statuses.
const (
	StatusDone    = "done"
	StatusFailed  = "failed"
	StatusInvalid = "invalid"
)

// retryDelay is the pause after a failed queue read.
const retryDelay = time.Second

var waitFor = utils.WaitFor

// Job is one queued recommendation request.
type Job struct {
	ID       string `json:"id" validate:"required"`
	UserID   int    `json:"user_id" validate:"gt=0"`
	ResumeID int    `json:"resume_id,omitempty" validate:"gte=0"`
	Limit    int    `json:"limit,omitempty" validate:"gte=0,lte=1000"`
	PromptID *int   `json:"prompt_id,omitempty" validate:"omitempty,gt=0"`
}

// Outcome is the published result of a job.
type Outcome struct {
	JobID           string                     `json:"job_id"`
	Status          string                     `json:"status"`
	Error           string                     `json:"error,omitempty"`
	GenerationID    string                     `json:"generation_id,omitempty"`
	Path            string                     `json:"path,omitempty"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	FinishedAt      time.Time                  `json:"finished_at"`
}

// Recommender runs the pipeline for a user.
type Recommender interface {
	GetRecommendations(ctx context.Context, userID int, opts recommend.Options) (*recommend.Result, error)
}

// Sink persists generated recommendations.
type Sink interface {
	SaveRecommendations(ctx context.Context, recs []recommend.Recommendation) error
}

// queue is the subset of *redis.Client the worker uses.
type queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Config controls queue names and timeouts.
type Config struct {
	Queue        string        `mapstructure:"queue" validate:"required"`
	ResultPrefix string        `mapstructure:"result-prefix" validate:"required"`
	ResultTTL    time.Duration `mapstructure:"result-ttl" validate:"gte=0"`
	JobTimeout   time.Duration `mapstructure:"job-timeout" validate:"gt=0"`
	PollTimeout  time.Duration `mapstructure:"poll-timeout" validate:"gte=0"`
}

// DefaultConfig returns the stock queue settings.
func DefaultConfig() Config {
	return Config{
		Queue:        "recommender:jobs",
		ResultPrefix: "recommender:result:",
		ResultTTL:    24 * time.Hour,
		JobTimeout:   2 * time.Minute,
		PollTimeout:  5 * time.Second,
	}
}

// Worker processes jobs one at a time.
type Worker struct {
	cfg         Config
	queue       queue
	recommender Recommender
	sink        Sink
	validate    *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// New validates cfg. sink may be nil.
func New(cfg Config, q queue, recommender Recommender, sink Sink, log *zap.Logger) (*Worker, error) {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid worker config: %w", err)
	}
	if q == nil || recommender == nil {
		return nil, errors.New("queue and recommender are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		cfg:         cfg,
		queue:       q,
		recommender: recommender,
		sink:        sink,
		validate:    validate,
		logger:      log,
		now:         time.Now,
	}, nil
}

// Run consumes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started", zap.String("queue", w.cfg.Queue))
	for {
		if ctx.Err() != nil {
			w.logger.Info("worker stopped")
			return nil
		}

		res, err := w.queue.BLPop(ctx, w.cfg.PollTimeout, w.cfg.Queue).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				continue
			}
			w.logger.Warn("reading job queue failed", zap.Error(err))
			_ = waitFor(ctx, retryDelay)
			continue
		case len(res) < 2:
			w.logger.Warn("unexpected queue reply", zap.Strings("reply", res))
			continue
		}

		w.Handle(ctx, res[1])
	}
}

// Handle processes one raw job payload and publishes its outcome.
func (w *Worker) Handle(ctx context.Context, payload string) Outcome {
	outcome := w.process(ctx, payload)
	outcome.FinishedAt = w.now().UTC()
	if outcome.Recommendations == nil {
		outcome.Recommendations = []recommend.Recommendation{}
	}
	metrics.JobsTotal.WithLabelValues(outcome.Status).Inc()

	if outcome.JobID == "" {
		w.logger.Warn("dropping job without id", zap.String("status", outcome.Status), zap.String("error", outcome.Error))
		return outcome
	}

	data, err := json.Marshal(outcome)
	if err == nil {
		err = w.queue.Set(ctx, w.cfg.ResultPrefix+outcome.JobID, data, w.cfg.ResultTTL).Err()
	}
	if err != nil {
		w.logger.Error("publishing job outcome failed", zap.String("job_id", outcome.JobID), zap.Error(err))
	}
	return outcome
}

func (w *Worker) process(ctx context.Context, payload string) Outcome {
	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return Outcome{Status: StatusInvalid, Error: fmt.Sprintf("decode job: %v", err)}
	}
	if err := w.validate.Struct(job); err != nil {
		return Outcome{JobID: job.ID, Status: StatusInvalid, Error: err.Error()}
	}

	log := logger.WithRequestFields(w.logger, job.UserID, job.ResumeID, "").With(zap.String("job_id", job.ID))
	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	result, err := w.recommender.GetRecommendations(jobCtx, job.UserID, recommend.Options{
		Limit:    job.Limit,
		ResumeID: job.ResumeID,
		PromptID: job.PromptID,
	})
	if err != nil {
		log.Warn("job failed", zap.Error(err))
		return Outcome{JobID: job.ID, Status: StatusFailed, Error: err.Error()}
	}

	if w.sink != nil && len(result.Recommendations) > 0 {
		if err := w.sink.SaveRecommendations(jobCtx, result.Recommendations); err != nil {
			log.Warn("saving recommendations failed", zap.Error(err))
			return Outcome{JobID: job.ID, Status: StatusFailed, Error: err.Error(), GenerationID: result.GenerationID}
		}
	}

	log.Info("job done",
		zap.String(logger.FieldGeneration, result.GenerationID),
		zap.String("path", result.Path),
		zap.Int("count", len(result.Recommendations)),
	)
	return Outcome{
		JobID:           job.ID,
		Status:          StatusDone,
		GenerationID:    result.GenerationID,
		Path:            result.Path,
		Recommendations: result.Recommendations,
	}
}
