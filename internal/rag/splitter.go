package rag

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

// chunkIndexKey records a chunk's ordinal position within its source document.
const chunkIndexKey = "chunk_index"

// OverlapSplitter cuts document content into fixed-size chunks where each
// chunk shares exactly Overlap leading characters with its predecessor's
// tail (the final chunk may be shorter than ChunkSize). Splitting is
// deterministic: the same input and parameters always yield the same chunks.
// It implements the Eino document.Transformer interface.
type OverlapSplitter struct {
	ChunkSize int
	Overlap   int
}

func NewOverlapSplitter(chunkSize, overlap int) (*OverlapSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, chunk size), got %d", overlap)
	}
	return &OverlapSplitter{ChunkSize: chunkSize, Overlap: overlap}, nil
}

func (s *OverlapSplitter) Transform(ctx context.Context, docs []*schema.Document, opts ...document.TransformerOption) ([]*schema.Document, error) {
	var out []*schema.Document
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for i, piece := range s.split(doc.Content) {
			out = append(out, &schema.Document{
				ID:      fmt.Sprintf("%s#%d", doc.ID, i),
				Content: piece,
				MetaData: map[string]any{
					chunkIndexKey: i,
				},
			})
		}
	}
	return out, nil
}

// split slices content into rune-indexed windows advancing by
// ChunkSize-Overlap each step.
func (s *OverlapSplitter) split(content string) []string {
	runes := []rune(content)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	var pieces []string
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return pieces
}

var _ document.Transformer = (*OverlapSplitter)(nil)
