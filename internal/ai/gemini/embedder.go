package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultEmbeddingModel = "text-embedding-004"

// Embedder produces text embeddings through the Gemini embedding endpoint.
type Embedder struct {
	models     contentModels
	model      string
	dimensions int
}

// Embedder returns an embedder sharing the generator's client.
func (g *Generator) Embedder(cfg Config) *Embedder {
	model := strings.TrimSpace(cfg.EmbeddingModel)
	if model == "" {
		model = defaultEmbeddingModel
	}
	return &Embedder{models: g.models, model: model, dimensions: cfg.Dimensions}
}

// Embed returns one vector per input text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e == nil || e.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, errors.New("embedding text must not be empty")
		}
		contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}})
	}

	var config *genai.EmbedContentConfig
	if e.dimensions > 0 {
		config = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(e.dimensions))}
	}

	resp, err := e.models.EmbedContent(ctx, e.model, contents, config)
	if err != nil {
		return nil, classifyError(err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini api returned %d embeddings for %d texts", embeddingCount(resp), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, embedding := range resp.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("gemini api returned empty embedding at %d", i)
		}
		vectors[i] = embedding.Values
	}

	return vectors, nil
}

func embeddingCount(resp *genai.EmbedContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Embeddings)
}
