package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/logger"
	"github.com/spigell/job-recommender/internal/metrics"
)

const (
	defaultModel           = "gemini-2.5-flash"
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = time.Minute
	breakerName            = "gemini"
	jsonMIMEType           = "application/json"
)

// contentModels is the subset of genai.Models used by the adapter.
type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Config holds Gemini provider settings.
type Config struct {
	Model           string        `mapstructure:"model"`
	EmbeddingModel  string        `mapstructure:"embedding-model"`
	Dimensions      int           `mapstructure:"dimensions" validate:"gte=0"`
	Temperature     float32       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxOutputTokens int32         `mapstructure:"max-output-tokens" validate:"gte=0"`
	MaxLogLength    int           `mapstructure:"max-log-length"`
	BreakerFailures uint32        `mapstructure:"breaker-failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker-timeout"`
}

// Generator wraps the Google GenAI client behind a circuit breaker and maps
// provider failures onto the ai error kinds.
type Generator struct {
	models          contentModels
	model           string
	temperature     float32
	maxOutputTokens int32
	breaker         *gobreaker.CircuitBreaker[string]
	logger          *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg, log), nil
}

func newGenerator(models contentModels, cfg Config, log *zap.Logger) *Generator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	g := &Generator{
		models:          models,
		model:           model,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		logger:          logger.WithCommonFields(log, breakerName, model),
	}
	g.breaker = newBreaker(cfg, g.logger)

	return g
}

func newBreaker(cfg Config, log *zap.Logger) *gobreaker.CircuitBreaker[string] {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = defaultBreakerFailures
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = defaultBreakerTimeout
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Token limits and cancellations describe the request, not provider health.
		IsExcluded: func(err error) bool {
			return errors.Is(err, ai.ErrTokenLimit) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("gemini circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

// GenerateContent sends message with the system instruction and returns the textual JSON response.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: jsonMIMEType,
		Temperature:      genai.Ptr(g.temperature),
	}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if g.maxOutputTokens > 0 {
		config.MaxOutputTokens = g.maxOutputTokens
	}

	output, err := g.breaker.Execute(func() (string, error) {
		return g.generate(ctx, message, config)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", ai.ErrUnavailable, err)
		}
		return "", err
	}

	return output, nil
}

func (g *Generator) generate(ctx context.Context, message string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(message), config)
	if err != nil {
		return "", classifyError(err)
	}
	if resp == nil {
		return "", errors.New("gemini api returned nil response")
	}

	var builder strings.Builder
	truncated := false
	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		if candidate.FinishReason == genai.FinishReasonMaxTokens {
			truncated = true
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	if truncated {
		return "", fmt.Errorf("%w: response stopped at max output tokens", ai.ErrTokenLimit)
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// classifyError maps genai API errors onto the ai error kinds.
func classifyError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return fmt.Errorf("generate content: %w", err)
		}
		apiErr = *apiErrPtr
	}

	message := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
		return fmt.Errorf("%w: %w", ai.ErrRateLimited, err)
	case apiErr.Code == http.StatusBadRequest && strings.Contains(message, "token"):
		return fmt.Errorf("%w: %w", ai.ErrTokenLimit, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", ai.ErrUnavailable, err)
	default:
		return fmt.Errorf("generate content: %w", err)
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
