package filtering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/recommend"
)

// ExcludedPostings is the exclude file document.
type ExcludedPostings struct {
	Items []ExcludedPosting `json:"items"`
}

// ExcludedPosting is one excluded posting with an optional note.
type ExcludedPosting struct {
	ID     int    `json:"id"`
	Reason string `json:"reason,omitempty"`
}

// IDs returns the excluded posting ids.
func (e *ExcludedPostings) IDs() []int {
	ids := make([]int, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// ReadExcludeFile loads an exclude file. A missing or empty file excludes nothing.
func ReadExcludeFile(path string) (*ExcludedPostings, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ExcludedPostings{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return &ExcludedPostings{}, nil
	}

	var excluded ExcludedPostings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

type excludeFileFilter struct {
	path   string
	logger *zap.Logger
}

// NewExcludeFile creates a filter that removes postings listed in an exclude file.
// The file is read on every run so edits apply without a restart.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &excludeFileFilter{path: strings.TrimSpace(path), logger: logger}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) IsEnabled() bool { return f.path != "" }

func (f *excludeFileFilter) Apply(_ context.Context, _ int, candidates []*recommend.Candidate) ([]*recommend.Candidate, error) {
	excluded, err := ReadExcludeFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("getting excluded postings from file: %w", err)
	}

	ids := make(map[int]struct{}, len(excluded.Items))
	for _, id := range excluded.IDs() {
		ids[id] = struct{}{}
	}
	kept, removed := exclude(candidates, func(c *recommend.Candidate) bool {
		_, ok := ids[c.PostingID]
		return ok
	})

	if len(removed) > 0 {
		f.logger.Info("excluding postings based on exclude file",
			zap.String("path", f.path),
			zap.Ints("excluded_postings", removed),
			zap.Int("postings_left", len(kept)),
		)
	}
	return kept, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Details: details}
}
