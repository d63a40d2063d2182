package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ragbot-core/server/internal/bot/model"
	errx "github.com/ragbot-core/server/internal/core/error"
	logx "github.com/ragbot-core/server/pkg/logger"
)

// Result is one web search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Client calls the Tavily search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxResults int
}

func NewClient(cfg model.SearchConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: cfg.MaxResults,
	}
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search runs one query and returns the hits in relevance order.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(searchRequest{
		APIKey:     c.apiKey,
		Query:      query,
		MaxResults: c.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logx.Error().Err(err).Str("query", query).Msg("search request failed")
		return nil, errx.UpstreamUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("search: status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, errx.UpstreamUnavailable(err)
		}
		return nil, errx.Upstream(err)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errx.Upstream(fmt.Errorf("decode search response: %w", err))
	}

	logx.Debug().Str("query", query).Int("results", len(decoded.Results)).Msg("search completed")
	return decoded.Results, nil
}

// FormatContext renders the hits into a text block suitable for prompt
// context injection.
func FormatContext(results []Result) string {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%d] %s (%s)\n%s\n", i+1, r.Title, r.URL, r.Content)
	}
	return sb.String()
}
