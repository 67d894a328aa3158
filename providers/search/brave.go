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

// BraveClient implements enrichment.SearchProvider over the Brave Search
// web API.
type BraveClient struct {
	cfg     BraveConfig
	http    *http.Client
	retryer retry.Retryer
	logger  *zap.Logger
}

// NewBraveClient builds a BraveClient. Timeout defaults when unset.
func NewBraveClient(cfg BraveConfig, logger *zap.Logger) *BraveClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBraveConfig().Timeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBraveConfig().BaseURL
	}
	return &BraveClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		retryer: retry.NewRetryer(retry.WebSearchPolicy(), logger),
		logger:  logger.With(zap.String("component", "brave_search_client")),
	}
}

func (c *BraveClient) Name() string { return "brave" }

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}

// Search issues one Brave web search, bounded by the caller's ctx.
func (c *BraveClient) Search(ctx context.Context, query string, limit int) ([]enrichment.SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(limit))
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

func (c *BraveClient) fetch(ctx context.Context, fullURL string) ([]enrichment.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "build brave search request").WithCause(err)
	}
	req.Header.Set("X-Subscription-Token", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.NewError(types.ErrUpstreamTimeout, "brave search timed out").WithCause(err).WithRetryable(true)
		}
		return nil, retry.WrapRetryable(types.NewError(types.ErrUpstreamError, "brave search failed").WithCause(err))
	}
	defer resp.Body.Close()

	if retry.IsStatusRetryable(resp.StatusCode) {
		code := types.ErrUpstreamError
		if resp.StatusCode == http.StatusTooManyRequests {
			code = types.ErrUpstreamQuota
		}
		return nil, retry.WrapRetryable(types.NewError(code, "brave search provider error").WithHTTPStatus(resp.StatusCode).WithRetryable(true))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewError(types.ErrUpstreamError, "brave search provider error").WithHTTPStatus(resp.StatusCode)
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "decode brave search response").WithCause(err)
	}

	out := make([]enrichment.SearchResult, 0, len(br.Web.Results))
	for _, r := range br.Web.Results {
		out = append(out, enrichment.SearchResult{Title: r.Title, Snippet: r.Description, URL: r.URL})
	}
	return out, nil
}
