package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/embedding"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/ragbot-core/server/internal/bot/chain"
	"github.com/ragbot-core/server/internal/bot/prompts"
	logx "github.com/ragbot-core/server/pkg/logger"
)

// Pipeline wires load -> split -> embed -> index -> retrieve -> answer.
// Each invocation builds a fresh index; nothing is cached or shared across
// requests.
type Pipeline struct {
	loader    document.Loader
	splitter  document.Transformer
	embedder  embedding.Embedder
	chatModel einomodel.BaseChatModel
	sourceURL string
	topK      int
}

// NewPipeline assembles the retrieval pipeline from its stages.
func NewPipeline(loader document.Loader, splitter document.Transformer, embedder embedding.Embedder, cm einomodel.BaseChatModel, sourceURL string, topK int) (*Pipeline, error) {
	if loader == nil || splitter == nil || embedder == nil || cm == nil {
		return nil, fmt.Errorf("pipeline stage is nil")
	}
	if sourceURL == "" {
		return nil, fmt.Errorf("source url is empty")
	}
	return &Pipeline{
		loader:    loader,
		splitter:  splitter,
		embedder:  embedder,
		chatModel: cm,
		sourceURL: sourceURL,
		topK:      topK,
	}, nil
}

// BuildIndex loads the source document, chunks it, and indexes the chunk
// embeddings into a fresh store. Any stage failure aborts the build; a
// partial index is never returned.
func (p *Pipeline) BuildIndex(ctx context.Context) (*MemoryVectorStore, error) {
	started := time.Now()

	docs, err := p.loader.Load(ctx, document.Source{URI: p.sourceURL})
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}

	chunks, err := p.splitter.Transform(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("split source: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("source %s produced no chunks", p.sourceURL)
	}

	store := NewMemoryVectorStore(p.embedder, p.topK)
	if _, err := store.Store(ctx, chunks); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}

	logx.Debug().
		Str("source", p.sourceURL).
		Int("chunks", len(chunks)).
		Dur("elapsed", time.Since(started)).
		Msg("retrieval index built")
	return store, nil
}

// Answer builds the index, retrieves the top-k chunks for the question, and
// asks the model through the retrieval QA prompt.
func (p *Pipeline) Answer(ctx context.Context, question string) (string, error) {
	store, err := p.BuildIndex(ctx)
	if err != nil {
		return "", err
	}

	chunks, err := store.Retrieve(ctx, question)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c != nil {
			parts = append(parts, c.Content)
		}
	}

	rendered, err := prompts.RenderRAG(ctx, question, strings.Join(parts, "\n\n"))
	if err != nil {
		return "", err
	}

	out, err := p.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(rendered)})
	if err != nil {
		return "", chain.ClassifyModelErr(err)
	}
	if out == nil {
		return "", fmt.Errorf("model returned nil message")
	}
	return out.Content, nil
}
