package rag

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// MemoryVectorStore is an ephemeral, process-local similarity index. It
// implements both the Eino indexer.Indexer (Store) and retriever.Retriever
// (Retrieve) interfaces. Ranking is cosine similarity; ties keep the
// original chunk order. It is built per request and not shared, so it needs
// no locking.
type MemoryVectorStore struct {
	embedder embedding.Embedder
	topK     int

	docs    []*schema.Document
	vectors [][]float64
}

func NewMemoryVectorStore(embedder embedding.Embedder, topK int) *MemoryVectorStore {
	if topK <= 0 {
		topK = 4
	}
	return &MemoryVectorStore{embedder: embedder, topK: topK}
}

func (s *MemoryVectorStore) Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		if d == nil {
			return nil, fmt.Errorf("nil document at index %d", i)
		}
		texts[i] = d.Content
	}

	vectors, err := s.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("vector count mismatch: want %d, got %d", len(docs), len(vectors))
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	s.docs = append(s.docs, docs...)
	s.vectors = append(s.vectors, vectors...)
	return ids, nil
}

func (s *MemoryVectorStore) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	o := retriever.GetCommonOptions(&retriever.Options{TopK: &s.topK}, opts...)

	vectors, err := s.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("query embedding count mismatch: got %d", len(vectors))
	}
	qv := vectors[0]

	type scored struct {
		doc   *schema.Document
		score float64
	}
	ranked := make([]scored, len(s.docs))
	for i, d := range s.docs {
		ranked[i] = scored{doc: d, score: cosine(qv, s.vectors[i])}
	}
	// stable sort keeps chunk order on equal scores
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	k := *o.TopK
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]*schema.Document, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, r.doc.WithScore(r.score))
	}
	return out, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var (
	_ indexer.Indexer     = (*MemoryVectorStore)(nil)
	_ retriever.Retriever = (*MemoryVectorStore)(nil)
)
