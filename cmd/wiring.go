package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/ai/gemini"
	"github.com/spigell/job-recommender/internal/db"
	"github.com/spigell/job-recommender/internal/filtering"
	"github.com/spigell/job-recommender/internal/graphstore"
	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/memory"
	"github.com/spigell/job-recommender/internal/recommend"
	"github.com/spigell/job-recommender/internal/secrets"
	"github.com/spigell/job-recommender/internal/skills"
	"github.com/spigell/job-recommender/internal/vectorstore"
)

type promptLister interface {
	ListPrompts(ctx context.Context, activeOnly bool) ([]*jobs.Prompt, error)
}

// environment holds the assembled pipeline and the resources it owns.
type environment struct {
	service *recommend.Service
	prompts promptLister
	// store is nil in fixture mode.
	store   *db.DB
	redis   *redis.Client
	filters []filtering.Filter
	closers []func()
}

func (e *environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// setup builds the pipeline from config. Fixture mode serves everything from a
// JSON corpus; otherwise PostgreSQL backs every port and Redis caches the graph.
func setup(ctx context.Context, cfg *Config, log *zap.Logger, includeSeen bool) (*environment, error) {
	env := &environment{}

	var generator *gemini.Generator
	if cfg.AI != nil && cfg.AI.Enabled {
		var err error
		generator, err = newGenerator(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		env.redis = redis.NewClient(opts)
		env.closers = append(env.closers, func() { _ = env.redis.Close() })
	}

	deps := recommend.Deps{
		Extractor: skills.NewExtractor(),
		Logger:    log,
	}
	if generator != nil {
		deps.Evaluator = gemini.NewEvaluator(generator, log, cfg.AI.Gemini.MaxLogLength)
	}

	var history filtering.History
	if cfg.Fixtures != "" {
		stores, err := loadFixtures(ctx, cfg)
		if err != nil {
			env.Close()
			return nil, err
		}
		log.Info("serving recommendations from fixtures", zap.String("path", cfg.Fixtures))

		deps.Vectors = stores.Vectors
		deps.Graph = stores.Graph
		deps.Postings = stores.Postings
		deps.Resumes = stores.Resumes
		deps.Prompts = stores.Prompts
		env.prompts = stores.Prompts
	} else {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.store = database
		env.closers = append(env.closers, database.Close)

		var embedder ai.Embedder
		if generator != nil {
			embedder = generator.Embedder(cfg.AI.Gemini.Config)
		}

		var graph recommend.GraphStore = graphstore.NewPostgres(database.Pool())
		if cfg.Cache.Enabled && env.redis != nil {
			graph = graphstore.NewCached(graph, env.redis, cfg.Cache.TTL, log)
		}

		deps.Vectors = vectorstore.New(database.Pool(), embedder, log)
		deps.Graph = graph
		deps.Postings = database
		deps.Resumes = database
		deps.Prompts = database
		env.prompts = database
		history = database
	}

	env.filters = []filtering.Filter{
		filtering.NewExcludedCompanies(cfg.Filters.ExcludeCompanies, log),
		filtering.NewExcludeFile(cfg.Filters.ExcludeFile, log),
		filtering.NewRecommendedHistory(history, cfg.Filters.HistoryGenerations, includeSeen, log),
	}
	deps.Filters = filtering.Enabled(env.filters)

	service, err := recommend.NewService(cfg.Recommend, deps)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("create recommendation service: %w", err)
	}
	env.service = service

	return env, nil
}

func loadFixtures(ctx context.Context, cfg *Config) (*memory.Stores, error) {
	corpus, err := memory.LoadCorpus(cfg.Fixtures)
	if err != nil {
		return nil, err
	}
	return corpus.Build(ctx, memory.NewHashEmbedder(0), cfg.Recommend.PostingCollection, cfg.Recommend.ResumeCollection)
}

func newGenerator(ctx context.Context, cfg *Config, log *zap.Logger) (*gemini.Generator, error) {
	provider := cfg.AI.Provider
	if provider == "" {
		provider = "gemini"
	}
	if provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider %q", provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.AI.Gemini.APIKey,
		File:  cfg.AI.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.AI.Gemini.Config, log)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	log.Info("llm evaluator enabled", zap.String("provider", provider), zap.String("model", generator.Model()))

	return generator, nil
}
