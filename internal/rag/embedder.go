package rag

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"

	logx "github.com/ragbot-core/server/pkg/logger"
)

// GeminiEmbedder computes text embeddings through the Gemini API. It
// implements the Eino embedding.Embedder interface.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model}
}

func (e *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	o := embedding.GetCommonOptions(&embedding.Options{Model: &e.model}, opts...)

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.Text(t)...)
	}

	resp, err := e.client.Models.EmbedContent(ctx, *o.Model, contents, nil)
	if err != nil {
		logx.Error().Err(err).Str("model", *o.Model).Int("texts", len(texts)).Msg("embedding request failed")
		return nil, fmt.Errorf("embed contents: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: want %d, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("nil embedding at index %d", i)
		}
		vec := make([]float64, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

var _ embedding.Embedder = (*GeminiEmbedder)(nil)
