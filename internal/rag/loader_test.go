package rag

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/document"
	errx "github.com/ragbot-core/server/internal/core/error"
)

func TestWebLoader_ExtractsVisibleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<title>API Guide</title>
			<style>body { color: red }</style>
			<script>console.log("hidden")</script>
		</head><body>
			<h1>Common   API</h1>
			<p>Request headers are required.</p>
		</body></html>`))
	}))
	defer srv.Close()

	loader := NewWebLoader(5 * time.Second)
	docs, err := loader.Load(context.Background(), document.Source{URI: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}

	text := docs[0].Content
	if !strings.Contains(text, "Common API") {
		t.Errorf("heading missing (or whitespace not collapsed): %q", text)
	}
	if !strings.Contains(text, "Request headers are required.") {
		t.Errorf("body text missing: %q", text)
	}
	if strings.Contains(text, "console.log") || strings.Contains(text, "color: red") {
		t.Errorf("script/style content leaked into text: %q", text)
	}
	if docs[0].ID != srv.URL {
		t.Errorf("document id should be the source uri, got %q", docs[0].ID)
	}
}

func TestWebLoader_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	loader := NewWebLoader(5 * time.Second)
	_, err := loader.Load(context.Background(), document.Source{URI: srv.URL})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := errx.StatusOf(err); got != http.StatusBadGateway {
		t.Errorf("expected 502 for upstream 5xx, got %d", got)
	}
}

func TestWebLoader_ClientErrorIsDefinitive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	loader := NewWebLoader(5 * time.Second)
	_, err := loader.Load(context.Background(), document.Source{URI: srv.URL})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := errx.StatusOf(err); got != http.StatusInternalServerError {
		t.Errorf("expected 500 for upstream 4xx, got %d", got)
	}
}
