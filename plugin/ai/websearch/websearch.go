// Package websearch provides the external web-search capability used by the
// research executor: a search endpoint client plus a concurrent page fetcher
// that converts HTML to markdown.
package websearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Arvoid00/seamless-ai/plugin/ai/gateway"
)

const (
	defaultTimeout   = 20 * time.Second
	maxPageBytes     = 1 << 20 // 1 MiB per page
	maxFetchParallel = 4
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Page is a fetched document converted to markdown.
type Page struct {
	URL      string
	Markdown string
}

// Client calls the web-search endpoint and fetches result pages.
type Client struct {
	httpClient *http.Client
	gateway    *gateway.Gateway
	baseURL    string
	apiKey     string
}

// NewClient creates a search client. The gateway applies the shared retry
// policy to every outbound request.
func NewClient(baseURL, apiKey string, gw *gateway.Gateway) *Client {
	if gw == nil {
		gw = gateway.New()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		gateway:    gw,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// searchResponse mirrors the endpoint's JSON shape.
type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search runs one query and returns up to limit hits.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if c.apiKey == "" {
		return nil, errors.New("search API key is not configured")
	}
	if limit <= 0 {
		limit = 5
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid search base URL")
	}
	q := endpoint.Query()
	q.Set("q", query)
	q.Set("num", strconv.Itoa(limit))
	q.Set("api_key", c.apiKey)
	endpoint.RawQuery = q.Encode()

	body, err := gateway.Do(ctx, c.gateway, func(ctx context.Context) ([]byte, error) {
		return c.getLimited(ctx, endpoint.String())
	})
	if err != nil {
		return nil, errors.Wrap(err, "search request failed")
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode search response")
	}

	results := make([]Result, 0, limit)
	for _, r := range resp.Results {
		results = append(results, Result{Title: r.Title, URL: r.Link, Snippet: r.Snippet})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// FetchPages retrieves the given URLs concurrently and converts each page to
// markdown. Pages that fail to fetch are skipped rather than failing the
// whole batch; order follows the input URLs.
func (c *Client) FetchPages(ctx context.Context, urls []string) ([]Page, error) {
	pages := make([]*Page, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFetchParallel)
	for i, pageURL := range urls {
		g.Go(func() error {
			body, err := gateway.Do(ctx, c.gateway, func(ctx context.Context) ([]byte, error) {
				return c.getLimited(ctx, pageURL)
			})
			if err != nil {
				return nil // skip unreachable pages
			}
			markdown, err := htmltomarkdown.ConvertString(string(body))
			if err != nil {
				return nil
			}
			pages[i] = &Page{URL: pageURL, Markdown: markdown}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fetched := make([]Page, 0, len(urls))
	for _, p := range pages {
		if p != nil {
			fetched = append(fetched, *p)
		}
	}
	return fetched, nil
}

// getLimited performs one GET and reads at most maxPageBytes of the body.
// Non-2xx statuses surface as StatusError so the gateway can classify them.
func (c *Client) getLimited(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &gateway.StatusError{Code: resp.StatusCode, Message: resp.Status}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}
