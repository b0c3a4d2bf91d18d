package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func readConfig(t *testing.T, doc string) *viper.Viper {
	t.Helper()

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(doc)); err != nil {
		t.Fatalf("reading config: %v", err)
	}
	return v
}

func TestDecodeConfigDefaults(t *testing.T) {
	config, err := decodeConfig(readConfig(t, "fixtures: corpus.json\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Recommend.MinSimilarity != 0.7 {
		t.Fatalf("expected default min similarity 0.7, got %v", config.Recommend.MinSimilarity)
	}
	if config.Worker.Queue != "recommender:jobs" {
		t.Fatalf("expected default queue, got %q", config.Worker.Queue)
	}
	if !config.Cache.Enabled || config.Cache.TTL != 10*time.Minute {
		t.Fatalf("unexpected cache defaults: %+v", config.Cache)
	}
}

func TestDecodeConfigOverrides(t *testing.T) {
	doc := `
database-url: postgres://localhost/jobs
recommend:
  min-similarity: 0.5
  hybrid:
    vector: 0.7
    skill: 0.3
filters:
  exclude-companies: [Acme]
  history-generations: 3
cache:
  ttl: 30s
worker:
  job-timeout: 1m
ai:
  enabled: true
  provider: gemini
  gemini:
    api-key-file: /run/secrets/gemini
    model: gemini-2.5-pro
    breaker-timeout: 2m
`
	config, err := decodeConfig(readConfig(t, doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Recommend.MinSimilarity != 0.5 || config.Recommend.Hybrid.Vector != 0.7 {
		t.Fatalf("recommend overrides not applied: %+v", config.Recommend)
	}
	if config.Recommend.VectorResults != 50 {
		t.Fatalf("expected untouched defaults to survive, got %d vector results", config.Recommend.VectorResults)
	}
	if config.Cache.TTL != 30*time.Second || config.Worker.JobTimeout != time.Minute {
		t.Fatalf("durations not decoded: cache %v, job timeout %v", config.Cache.TTL, config.Worker.JobTimeout)
	}
	if len(config.Filters.ExcludeCompanies) != 1 || config.Filters.HistoryGenerations != 3 {
		t.Fatalf("filters not decoded: %+v", config.Filters)
	}
	if config.AI == nil || config.AI.Gemini == nil {
		t.Fatal("expected ai.gemini to be decoded")
	}
	if config.AI.Gemini.Model != "gemini-2.5-pro" || config.AI.Gemini.BreakerTimeout != 2*time.Minute {
		t.Fatalf("embedded gemini config not decoded: %+v", config.AI.Gemini.Config)
	}
	if config.AI.Gemini.APIKeyFile != "/run/secrets/gemini" {
		t.Fatalf("unexpected api key file %q", config.AI.Gemini.APIKeyFile)
	}
}

func TestDecodeConfigRequiresDataSource(t *testing.T) {
	if _, err := decodeConfig(readConfig(t, "metrics-addr: ':9090'\n")); err == nil {
		t.Fatal("expected an error without database-url or fixtures")
	}
}

func TestDecodeConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"similarity above one": "fixtures: c.json\nrecommend:\n  min-similarity: 1.5\n",
		"unknown provider":     "fixtures: c.json\nai:\n  provider: openai\n",
		"ai without gemini":    "fixtures: c.json\nai:\n  enabled: true\n",
		"negative history":     "fixtures: c.json\nfilters:\n  history-generations: -1\n",
		"empty queue":          "fixtures: c.json\nworker:\n  queue: ''\n",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := decodeConfig(readConfig(t, doc)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDatabaseURLFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/jobs")

	config, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.DatabaseURL != "postgres://env/jobs" {
		t.Fatalf("expected DATABASE_URL to be bound, got %q", config.DatabaseURL)
	}
}
