package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/enrichment"
	"github.com/shacharon/grubroute/internal/retry"
	"github.com/shacharon/grubroute/types"
)

// GoogleCSEClient implements enrichment.SearchProvider over Google
// Programmable Search. Used as the fallback engine when Brave is not
// configured (spec.md §4.8).
type GoogleCSEClient struct {
	cfg     GoogleCSEConfig
	http    *http.Client
	retryer retry.Retryer
	logger  *zap.Logger
}

// NewGoogleCSEClient builds a GoogleCSEClient.
func NewGoogleCSEClient(cfg GoogleCSEConfig, logger *zap.Logger) *GoogleCSEClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGoogleCSEConfig().Timeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGoogleCSEConfig().BaseURL
	}
	return &GoogleCSEClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		retryer: retry.NewRetryer(retry.WebSearchPolicy(), logger),
		logger:  logger.With(zap.String("component", "google_cse_client")),
	}
}

func (c *GoogleCSEClient) Name() string { return "google_cse" }

type googleCSEResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"items"`
}

// Search issues one Google CSE query. limit is clamped to 10, the API's
// per-request maximum.
func (c *GoogleCSEClient) Search(ctx context.Context, query string, limit int) ([]enrichment.SearchResult, error) {
	if limit > 10 {
		limit = 10
	}
	q := url.Values{}
	q.Set("key", c.cfg.APIKey)
	q.Set("cx", c.cfg.SearchEngineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(limit))
	fullURL := c.cfg.BaseURL + "?" + q.Encode()

	var out []enrichment.SearchResult
	err := c.retryer.Do(ctx, func() error {
		results, statusErr := c.fetch(ctx, fullURL)
		if statusErr != nil {
			return statusErr
		}
		out = results
		return nil
	})
	return out, err
}

func (c *GoogleCSEClient) fetch(ctx context.Context, fullURL string) ([]enrichment.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "build google cse request").WithCause(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.NewError(types.ErrUpstreamTimeout, "google cse timed out").WithCause(err).WithRetryable(true)
		}
		return nil, retry.WrapRetryable(types.NewError(types.ErrUpstreamError, "google cse request failed").WithCause(err))
	}
	defer resp.Body.Close()

	if retry.IsStatusRetryable(resp.StatusCode) {
		code := types.ErrUpstreamError
		if resp.StatusCode == http.StatusTooManyRequests {
			code = types.ErrUpstreamQuota
		}
		return nil, retry.WrapRetryable(types.NewError(code, "google cse provider error").WithHTTPStatus(resp.StatusCode).WithRetryable(true))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewError(types.ErrUpstreamError, "google cse provider error").WithHTTPStatus(resp.StatusCode)
	}

	var gr googleCSEResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "decode google cse response").WithCause(err)
	}

	out := make([]enrichment.SearchResult, 0, len(gr.Items))
	for _, item := range gr.Items {
		out = append(out, enrichment.SearchResult{Title: item.Title, Snippet: item.Snippet, URL: item.Link})
	}
	return out, nil
}
