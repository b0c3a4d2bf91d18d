package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/recommend"
)

const forceFlagSetMsg = "force flag is set"

// History reports postings already recommended to a user.
type History interface {
	RecentlyRecommended(ctx context.Context, userID int, generations int) ([]int, error)
}

type historyFilter struct {
	history     History
	generations int
	ignore      bool
	logger      *zap.Logger
}

// NewRecommendedHistory creates a filter that removes postings shown to the user
// in their last generations runs. ignore keeps the step in the list but lets
// every candidate through.
func NewRecommendedHistory(history History, generations int, ignore bool, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &historyFilter{history: history, generations: generations, ignore: ignore, logger: logger}
}

func (f *historyFilter) Name() string { return "recommended_history" }

func (f *historyFilter) IsEnabled() bool { return f.history != nil && f.generations > 0 }

func (f *historyFilter) Apply(ctx context.Context, userID int, candidates []*recommend.Candidate) ([]*recommend.Candidate, error) {
	if f.ignore {
		f.logger.Info("ignoring previously recommended postings", zap.String("reason", forceFlagSetMsg))
		return candidates, nil
	}

	seen, err := f.history.RecentlyRecommended(ctx, userID, f.generations)
	if err != nil {
		return nil, fmt.Errorf("get recommendation history: %w", err)
	}

	ids := make(map[int]struct{}, len(seen))
	for _, id := range seen {
		ids[id] = struct{}{}
	}
	kept, removed := exclude(candidates, func(c *recommend.Candidate) bool {
		_, ok := ids[c.PostingID]
		return ok
	})

	if len(removed) > 0 {
		f.logger.Info("excluding postings recommended before",
			zap.Int("user_id", userID),
			zap.Ints("excluded_postings", removed),
			zap.Int("postings_left", len(kept)),
		)
	}
	return kept, nil
}

func (f *historyFilter) Status() Status {
	details := map[string]string{
		"generations":     strconv.Itoa(f.generations),
		"exclude_history": strconv.FormatBool(!f.ignore),
	}
	reason := ""
	if f.ignore {
		reason = "skip requested via flag"
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: reason, Details: details}
}
