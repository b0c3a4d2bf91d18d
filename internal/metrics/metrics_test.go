package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCandidatesSkipsEmpty(t *testing.T) {
	before := testutil.ToFloat64(CandidatesTotal.WithLabelValues("graph"))

	AddCandidates("graph", 0)
	AddCandidates("graph", -1)
	AddCandidates("graph", 3)

	assert.InDelta(t, before+3, testutil.ToFloat64(CandidatesTotal.WithLabelValues("graph")), 1e-9)
}

func TestObservePipeline(t *testing.T) {
	before := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("rules"))

	ObservePipeline("rules", time.Now().Add(-time.Second))

	assert.InDelta(t, before+1, testutil.ToFloat64(RecommendationsTotal.WithLabelValues("rules")), 1e-9)
}

func TestMetricGathering(t *testing.T) {
	EvaluatorAttemptsTotal.WithLabelValues("success").Inc()
	EvaluatorFallbacksTotal.WithLabelValues("rate_limit").Inc()
	CircuitBreakerState.WithLabelValues("gemini").Set(0)
	CircuitBreakerTransitions.WithLabelValues("gemini", "closed", "open").Inc()
	CacheLookupsTotal.WithLabelValues("hit").Inc()
	JobsTotal.WithLabelValues("done").Inc()

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	require.NoError(t, err)
	for _, p := range problems {
		if strings.HasPrefix(p.Metric, "recommender_") {
			t.Errorf("metric lint problem: %s: %s", p.Metric, p.Text)
		}
	}
}
