package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/recommend"
	"github.com/spigell/job-recommender/internal/skills"
)

// Graph is an in-memory skill graph of posting → required skill edges.
type Graph struct {
	mu    sync.RWMutex
	edges map[int][]string
}

var _ recommend.GraphStore = (*Graph)(nil)

func NewGraph() *Graph {
	return &Graph{edges: make(map[int][]string)}
}

// Link replaces the required skills of a posting.
func (g *Graph) Link(postingID int, required ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[postingID] = skills.Dedupe(required)
}

// GetPostingsBySkills returns postings requiring any of the skills, most shared
// skills first, posting id ascending on ties.
func (g *Graph) GetPostingsBySkills(_ context.Context, names []string, limit int) ([]int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	held := skills.NewSet(names)
	type match struct {
		id     int
		shared int
	}
	matches := make([]match, 0)
	for id, required := range g.edges {
		if n := len(held.Intersect(required)); n > 0 {
			matches = append(matches, match{id: id, shared: n})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].shared != matches[j].shared {
			return matches[i].shared > matches[j].shared
		}
		return matches[i].id < matches[j].id
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	ids := make([]int, len(matches))
	for i, m := range matches {
		ids[i] = m.id
	}
	return ids, nil
}

func (g *Graph) GetRequiredSkills(_ context.Context, postingID int) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string{}, g.edges[postingID]...), nil
}

// Postings serves posting summaries from a jobs.Postings index.
type Postings struct {
	mu    sync.RWMutex
	index *jobs.Postings
}

var _ recommend.PostingRepository = (*Postings)(nil)

func NewPostings(items ...*jobs.Posting) *Postings {
	return &Postings{index: jobs.NewPostings(items...)}
}

func (p *Postings) Add(posting *jobs.Posting) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if posting != nil {
		p.index.Items[posting.ID] = posting
	}
}

func (p *Postings) GetPostings(_ context.Context, ids []int) (map[int]*jobs.Posting, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[int]*jobs.Posting, len(ids))
	for _, id := range ids {
		if posting := p.index.FindByID(id); posting != nil {
			out[id] = posting
		}
	}
	return out, nil
}

// All returns every posting in id order.
func (p *Postings) All() []*jobs.Posting {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*jobs.Posting, 0, p.index.Len())
	for _, id := range p.index.IDs() {
		out = append(out, p.index.FindByID(id))
	}
	return out
}

// Resumes is an in-memory résumé repository.
type Resumes struct {
	mu   sync.RWMutex
	byID map[int]*jobs.Resume
}

var _ recommend.ResumeRepository = (*Resumes)(nil)

func NewResumes(items ...*jobs.Resume) *Resumes {
	r := &Resumes{byID: make(map[int]*jobs.Resume, len(items))}
	for _, item := range items {
		r.Add(item)
	}
	return r
}

func (r *Resumes) Add(resume *jobs.Resume) {
	if resume == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[resume.ID] = resume
}

func (r *Resumes) GetResume(_ context.Context, id int) (*jobs.Resume, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id], nil
}

// LatestResume returns the user's résumé with the highest id.
func (r *Resumes) LatestResume(_ context.Context, userID int) (*jobs.Resume, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *jobs.Resume
	for _, resume := range r.byID {
		if resume.UserID != userID {
			continue
		}
		if latest == nil || resume.ID > latest.ID {
			latest = resume
		}
	}
	return latest, nil
}

// All returns every résumé in id order.
func (r *Resumes) All() []*jobs.Resume {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*jobs.Resume, 0, len(r.byID))
	for _, resume := range r.byID {
		out = append(out, resume)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Prompts is an in-memory prompt repository.
type Prompts struct {
	mu   sync.RWMutex
	byID map[int]*jobs.Prompt
}

var _ recommend.PromptRepository = (*Prompts)(nil)

func NewPrompts(items ...*jobs.Prompt) *Prompts {
	p := &Prompts{byID: make(map[int]*jobs.Prompt, len(items))}
	for _, item := range items {
		if item != nil {
			p.byID[item.ID] = item
		}
	}
	return p
}

func (p *Prompts) GetPrompt(_ context.Context, id int) (*jobs.Prompt, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byID[id], nil
}

// ListPrompts returns prompts in id order; activeOnly drops inactive ones.
func (p *Prompts) ListPrompts(_ context.Context, activeOnly bool) ([]*jobs.Prompt, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*jobs.Prompt, 0, len(p.byID))
	for _, prompt := range p.byID {
		if activeOnly && !prompt.Active {
			continue
		}
		out = append(out, prompt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
