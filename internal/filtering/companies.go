package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/recommend"
)

type companiesFilter struct {
	companies map[string]struct{}
	names     []string
	logger    *zap.Logger
}

// NewExcludedCompanies creates a filter that removes postings of the given companies.
// Names compare case-insensitively.
func NewExcludedCompanies(names []string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &companiesFilter{companies: make(map[string]struct{}, len(names)), logger: logger}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := f.companies[key]; !ok {
			f.companies[key] = struct{}{}
			f.names = append(f.names, strings.TrimSpace(name))
		}
	}
	return f
}

func (f *companiesFilter) Name() string { return "excluded_companies" }

func (f *companiesFilter) IsEnabled() bool { return len(f.companies) > 0 }

func (f *companiesFilter) Apply(_ context.Context, _ int, candidates []*recommend.Candidate) ([]*recommend.Candidate, error) {
	kept, removed := exclude(candidates, func(c *recommend.Candidate) bool {
		if c.Posting == nil {
			return false
		}
		_, ok := f.companies[strings.ToLower(strings.TrimSpace(c.Posting.CompanyName))]
		return ok
	})

	if len(removed) > 0 {
		f.logger.Info("excluding postings by companies",
			zap.Strings("excluded_companies", f.names),
			zap.Ints("excluded_postings", removed),
			zap.Int("postings_left", len(kept)),
		)
	}
	return kept, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["companies"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Details: details}
}
