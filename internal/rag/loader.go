package rag

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/net/html"

	errx "github.com/ragbot-core/server/internal/core/error"
	logx "github.com/ragbot-core/server/pkg/logger"
)

// WebLoader fetches one web page and reduces it to plain text. It implements
// the Eino document.Loader interface so the pipeline can swap in other
// loaders later.
type WebLoader struct {
	client *http.Client
}

func NewWebLoader(timeout time.Duration) *WebLoader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebLoader{client: &http.Client{Timeout: timeout}}
}

func (l *WebLoader) Load(ctx context.Context, src document.Source, opts ...document.LoaderOption) ([]*schema.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URI, nil)
	if err != nil {
		return nil, fmt.Errorf("build document request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		logx.Error().Err(err).Str("uri", src.URI).Msg("failed to fetch source document")
		return nil, errx.UpstreamUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("fetch %s: status %d", src.URI, resp.StatusCode)
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, errx.UpstreamUnavailable(err)
		}
		return nil, errx.Upstream(err)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, errx.Upstream(fmt.Errorf("parse %s: %w", src.URI, err))
	}

	text := extractText(root)
	if text == "" {
		return nil, errx.Upstream(fmt.Errorf("no text content at %s", src.URI))
	}

	logx.Debug().Str("uri", src.URI).Int("chars", len(text)).Msg("loaded source document")
	return []*schema.Document{{ID: src.URI, Content: text}}, nil
}

// extractText walks the DOM collecting visible text, skipping script and
// style subtrees, with runs of whitespace collapsed to single spaces.
func extractText(root *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(strings.Fields(sb.String()), " ")
}

var _ document.Loader = (*WebLoader)(nil)
