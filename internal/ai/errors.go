package ai

import "errors"

var (
	// ErrRateLimited means the provider throttled the request; it is the only retryable failure.
	ErrRateLimited = errors.New("evaluator rate limited")
	// ErrTokenLimit means the request or response exceeded the model token budget.
	ErrTokenLimit = errors.New("evaluator token limit exceeded")
	// ErrParse means the provider answered with something that is not a valid assessment list.
	ErrParse = errors.New("evaluator response could not be parsed")
	// ErrUnavailable means the provider is unreachable or temporarily disabled.
	ErrUnavailable = errors.New("evaluator unavailable")
)

// Kind classifies err into a short label for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRateLimited):
		return "rate_limit"
	case errors.Is(err, ErrTokenLimit):
		return "token"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// Retryable reports whether a failed evaluator call may be attempted again.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
