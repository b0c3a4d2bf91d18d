package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/job-recommender/internal/ai"
	"github.com/spigell/job-recommender/internal/jobs"
)

// Corpus is a self-contained data set for running the pipeline without infrastructure.
type Corpus struct {
	Postings []*jobs.Posting `mapstructure:"postings"`
	Resumes  []*jobs.Resume  `mapstructure:"resumes"`
	Prompts  []*jobs.Prompt  `mapstructure:"prompts"`
	// Graph overrides posting → required skill edges; postings missing here link their RequiredSkills.
	Graph map[string][]string `mapstructure:"graph"`
	// EmbedResumes lists résumé ids that get a stored embedding; others use text search.
	EmbedResumes []int `mapstructure:"embed_resumes"`
}

// Stores bundles the in-memory ports built from a corpus.
type Stores struct {
	Vectors  *Vectors
	Graph    *Graph
	Postings *Postings
	Resumes  *Resumes
	Prompts  *Prompts
}

// LoadCorpus reads a JSON corpus. Numbers given as strings and similar loose
// typing are accepted.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %q: %w", path, err)
	}
	return DecodeCorpus(data)
}

// DecodeCorpus decodes a JSON corpus document.
func DecodeCorpus(data []byte) (*Corpus, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	var corpus Corpus
	if err := mapstructure.WeakDecode(raw, &corpus); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return &corpus, nil
}

// Build indexes the corpus into stores. Postings are embedded from their
// descriptive text under postingCollection; selected résumés are embedded under
// resumeCollection.
func (c *Corpus) Build(ctx context.Context, embedder ai.Embedder, postingCollection, resumeCollection string) (*Stores, error) {
	stores := &Stores{
		Vectors:  NewVectors(embedder),
		Graph:    NewGraph(),
		Postings: NewPostings(c.Postings...),
		Resumes:  NewResumes(c.Resumes...),
		Prompts:  NewPrompts(c.Prompts...),
	}

	for _, p := range c.Postings {
		if p == nil {
			continue
		}
		required := p.RequiredSkills
		if edges, ok := c.Graph[p.DocID()]; ok {
			required = edges
		}
		stores.Graph.Link(p.ID, required...)
	}

	if embedder == nil {
		return stores, nil
	}

	postingTexts := make([]string, 0, len(c.Postings))
	postings := make([]*jobs.Posting, 0, len(c.Postings))
	for _, p := range c.Postings {
		if p == nil {
			continue
		}
		postings = append(postings, p)
		postingTexts = append(postingTexts, PostingText(p))
	}
	vectors, err := embedder.Embed(ctx, postingTexts)
	if err != nil {
		return nil, fmt.Errorf("embed postings: %w", err)
	}
	for i, p := range postings {
		stores.Vectors.Upsert(postingCollection, p.DocID(), vectors[i], Metadata{CareerMin: p.CareerMin, CareerMax: p.CareerMax})
	}

	for _, id := range c.EmbedResumes {
		resume, _ := stores.Resumes.GetResume(ctx, id)
		if resume == nil {
			return nil, fmt.Errorf("embed_resumes references unknown resume %d", id)
		}
		vectors, err := embedder.Embed(ctx, []string{resume.SearchText()})
		if err != nil {
			return nil, fmt.Errorf("embed resume %d: %w", id, err)
		}
		stores.Vectors.Upsert(resumeCollection, resume.DocID(), vectors[0], Metadata{})
	}

	return stores, nil
}

// PostingText is the text a posting is embedded from.
func PostingText(p *jobs.Posting) string {
	parts := []string{p.Position, strings.Join(p.RequiredSkills, ", "), p.Preferred}
	return strings.TrimSpace(strings.Join(parts, ". "))
}
