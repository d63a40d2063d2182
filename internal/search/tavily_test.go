package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	errx "github.com/ragbot-core/server/internal/core/error"
	"github.com/ragbot-core/server/internal/bot/model"
)

func newTestClient(baseURL string) *Client {
	return NewClient(model.SearchConfig{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		MaxResults: 3,
		TimeoutSec: 5,
	})
}

func TestClient_Search(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(searchResponse{Results: []Result{
			{Title: "first", URL: "https://a.example", Content: "alpha", Score: 0.9},
			{Title: "second", URL: "https://b.example", Content: "beta", Score: 0.4},
		}})
	}))
	defer srv.Close()

	results, err := newTestClient(srv.URL).Search(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if got.APIKey != "test-key" || got.Query != "hello" || got.MaxResults != 3 {
		t.Errorf("unexpected request body: %+v", got)
	}
	if len(results) != 2 || results[0].Title != "first" || results[1].Content != "beta" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestClient_SearchStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
	}{
		{"rate limited", http.StatusTooManyRequests, http.StatusBadGateway},
		{"upstream down", http.StatusServiceUnavailable, http.StatusBadGateway},
		{"bad request", http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Search(context.Background(), "q")
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errx.StatusOf(err); got != tc.wantStatus {
				t.Errorf("status = %d, want %d", got, tc.wantStatus)
			}
		})
	}
}

func TestClient_SearchConnectError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).Search(context.Background(), "q")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := errx.StatusOf(err); got != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", got)
	}
}

func TestFormatContext(t *testing.T) {
	out := FormatContext([]Result{
		{Title: "One", URL: "https://one.example", Content: "body one"},
		{Title: "Two", URL: "https://two.example", Content: "body two"},
	})
	for _, want := range []string{"[1] One (https://one.example)", "body one", "[2] Two (https://two.example)", "body two"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if FormatContext(nil) != "" {
		t.Error("empty results should render empty context")
	}
}
