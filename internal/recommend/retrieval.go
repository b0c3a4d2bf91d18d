package recommend

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/jobs"
	"github.com/spigell/job-recommender/internal/metrics"
)

// retrieve unions vector and graph candidates. Vector hits come first in
// similarity order, then graph-only postings in graph order.
func (s *Service) retrieve(ctx context.Context, log *zap.Logger, resume *jobs.Resume, userSkills []string) ([]*Candidate, error) {
	hits, err := s.vectorCandidates(ctx, log, resume)
	if err != nil {
		return nil, err
	}

	candidates := make([]*Candidate, 0, hits.Len())
	byID := make(map[int]*Candidate, hits.Len())
	for i := 0; i < hits.Len(); i++ {
		id, err := strconv.Atoi(hits.IDs[i])
		if err != nil {
			log.Warn("skipping vector hit with non-numeric id", zap.String("doc_id", hits.IDs[i]))
			continue
		}
		if _, dup := byID[id]; dup {
			continue
		}
		c := &Candidate{PostingID: id, Source: SourceVector, VectorSimilarity: Similarity(hits.Distances[i])}
		byID[id] = c
		candidates = append(candidates, c)
	}
	vectorCount := len(candidates)

	graphIDs, err := s.graph.GetPostingsBySkills(ctx, userSkills, s.cfg.GraphLimit)
	if err != nil {
		return nil, fmt.Errorf("query graph store: %w", err)
	}
	metrics.AddCandidates(SourceGraph, len(graphIDs))

	for _, id := range graphIDs {
		if _, ok := byID[id]; ok {
			continue
		}
		c := &Candidate{PostingID: id, Source: SourceGraph, VectorSimilarity: s.cfg.GraphOnlySimilarity}
		byID[id] = c
		candidates = append(candidates, c)
	}

	log.Debug("candidates retrieved",
		zap.Int("vector", vectorCount),
		zap.Int("graph", len(graphIDs)),
		zap.Int("graph_only", len(candidates)-vectorCount),
	)

	return candidates, nil
}

// vectorCandidates queries by stored résumé embedding when one exists, retrying
// without the career filter on an empty result, and by text otherwise.
func (s *Service) vectorCandidates(ctx context.Context, log *zap.Logger, resume *jobs.Resume) (QueryResult, error) {
	embedding, err := s.vectors.GetEmbedding(ctx, s.cfg.ResumeCollection, resume.DocID())
	if err != nil {
		return QueryResult{}, fmt.Errorf("get resume embedding: %w", err)
	}

	if len(embedding) == 0 {
		hits, err := s.vectors.QueryByText(ctx, s.cfg.PostingCollection, resume.SearchText(), s.cfg.VectorResults, s.cfg.MinSimilarity, nil)
		if err != nil {
			return QueryResult{}, fmt.Errorf("query postings by text: %w", err)
		}
		metrics.AddCandidates("text", hits.Len())
		return hits, nil
	}

	filter := &Filter{CareerYears: resume.CareerYears}
	hits, err := s.vectors.QueryByEmbedding(ctx, s.cfg.PostingCollection, embedding, s.cfg.VectorResults, s.cfg.MinSimilarity, filter)
	if err != nil {
		return QueryResult{}, fmt.Errorf("query postings by embedding: %w", err)
	}
	if hits.Len() > 0 {
		metrics.AddCandidates(SourceVector, hits.Len())
		return hits, nil
	}

	log.Info("career filter matched no postings; retrying without filter",
		zap.Int("career_years", resume.CareerYears),
	)
	hits, err = s.vectors.QueryByEmbedding(ctx, s.cfg.PostingCollection, embedding, s.cfg.VectorResults, s.cfg.MinSimilarity, nil)
	if err != nil {
		return QueryResult{}, fmt.Errorf("query postings by embedding without filter: %w", err)
	}
	metrics.AddCandidates("vector_unfiltered", hits.Len())
	return hits, nil
}
