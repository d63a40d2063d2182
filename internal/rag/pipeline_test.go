package rag

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// uniformEmbedder embeds everything to the same vector, making retrieval
// order fall back to chunk order.
type uniformEmbedder struct{}

func (uniformEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 0}
	}
	return out, nil
}

type captureModel struct {
	prompt string
	err    error
}

func (m *captureModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(input) > 0 {
		m.prompt = input[len(input)-1].Content
	}
	return schema.AssistantMessage("the answer", nil), nil
}

func (m *captureModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func newTestPipeline(t *testing.T, sourceURL string, cm einomodel.BaseChatModel) *Pipeline {
	t.Helper()
	splitter, err := NewOverlapSplitter(40, 8)
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPipeline(NewWebLoader(5*time.Second), splitter, uniformEmbedder{}, cm, sourceURL, 2)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPipeline_AnswerUsesRetrievedContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>The common API requires a signature header on every request.</p></body></html>"))
	}))
	defer srv.Close()

	cm := &captureModel{}
	p := newTestPipeline(t, srv.URL, cm)

	answer, err := p.Answer(context.Background(), "what header is required?")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "the answer" {
		t.Errorf("unexpected answer: %q", answer)
	}
	if !strings.Contains(cm.prompt, "what header is required?") {
		t.Errorf("question missing from prompt: %q", cm.prompt)
	}
	if !strings.Contains(cm.prompt, "signature") {
		t.Errorf("retrieved context missing from prompt: %q", cm.prompt)
	}
}

func TestPipeline_LoadFailureAbortsWithoutModelCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cm := &captureModel{}
	p := newTestPipeline(t, srv.URL, cm)

	if _, err := p.Answer(context.Background(), "anything"); err == nil {
		t.Fatal("expected an error")
	}
	if cm.prompt != "" {
		t.Error("model must not be called when the index build fails")
	}
}

func TestPipeline_ModelErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>some content to index</body></html>"))
	}))
	defer srv.Close()

	cm := &captureModel{err: errors.New("model down")}
	p := newTestPipeline(t, srv.URL, cm)

	if _, err := p.Answer(context.Background(), "q"); err == nil {
		t.Fatal("expected an error")
	}
}
