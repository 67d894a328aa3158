// Package places wraps the outbound places-search provider named in
// spec.md §6: three call shapes — textSearch, nearbySearch, landmarkPlan —
// sharing one HTTP client, retry policy, and cache namespace.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/internal/cache"
	"github.com/shacharon/grubroute/internal/retry"
	"github.com/shacharon/grubroute/providers"
	"github.com/shacharon/grubroute/types"
)

// Client is the places-provider HTTP client.
type Client struct {
	cfg     providers.PlacesConfig
	http    *http.Client
	cache   *cache.Manager
	retryer retry.Retryer
	logger  *zap.Logger
}

// New builds a places Client. cacheManager may be nil, in which case
// every call bypasses the cache.
func New(cfg providers.PlacesConfig, cacheManager *cache.Manager, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = providers.DefaultPlacesConfig().Timeout
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cacheManager,
		retryer: retry.NewRetryer(retry.PlacesPolicy(), logger),
		logger:  logger.With(zap.String("component", "places_client")),
	}
}

// TextSearchParams is the input to TextSearch.
type TextSearchParams struct {
	Query    string
	Bias     *types.LatLng
	Language types.Language
	Region   string
	Radius   int
}

// NearbySearchParams is the input to NearbySearch.
type NearbySearchParams struct {
	Center   types.LatLng
	Radius   int
	Keyword  string
	Language types.Language
	Region   string
}

// LandmarkPlanParams is the input to LandmarkPlan: resolve a named place
// (a landmark, not a city) and search around it.
type LandmarkPlanParams struct {
	GeocodeQuery string
	Radius       int
	Keyword      string
	Language     types.Language
	Region       string
}

// rawPlace is the subset of the provider's JSON place object this client
// consumes.
type rawPlace struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
	OpeningHours     *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"opening_hours"`
	Types []string `json:"types"`
}

type searchResponse struct {
	Status       string     `json:"status"`
	Results      []rawPlace `json:"results"`
	ErrorMessage string     `json:"error_message"`
}

// TextSearch runs a free-text search, optionally biased toward a point.
func (c *Client) TextSearch(ctx context.Context, p TextSearchParams) ([]types.RestaurantResult, error) {
	radius := p.Radius
	if radius <= 0 {
		radius = 5000
	}
	lat, lng := 0.0, 0.0
	if p.Bias != nil {
		lat, lng = p.Bias.Lat, p.Bias.Lng
	}

	key := cache.PlacesKey(p.Query, lat, lng, radius, string(p.Language), false)
	if results, ok := c.fromCache(ctx, key); ok {
		return results, nil
	}

	q := url.Values{}
	q.Set("query", p.Query)
	if p.Bias != nil {
		q.Set("location", fmt.Sprintf("%.6f,%.6f", p.Bias.Lat, p.Bias.Lng))
		q.Set("radius", strconv.Itoa(radius))
	}
	if p.Language != "" {
		q.Set("language", string(p.Language))
	}
	if p.Region != "" {
		q.Set("region", strings.ToLower(p.Region))
	}

	results, err := c.do(ctx, "/textsearch/json", q)
	if err != nil {
		return nil, err
	}

	c.toCache(ctx, key, results)
	return results, nil
}

// NearbySearch runs a radius search around a fixed point.
func (c *Client) NearbySearch(ctx context.Context, p NearbySearchParams) ([]types.RestaurantResult, error) {
	radius := p.Radius
	if radius <= 0 {
		radius = 1500
	}

	key := cache.PlacesKey(p.Keyword, p.Center.Lat, p.Center.Lng, radius, string(p.Language), false)
	if results, ok := c.fromCache(ctx, key); ok {
		return results, nil
	}

	q := url.Values{}
	q.Set("location", fmt.Sprintf("%.6f,%.6f", p.Center.Lat, p.Center.Lng))
	q.Set("radius", strconv.Itoa(radius))
	q.Set("type", "restaurant")
	if p.Keyword != "" {
		q.Set("keyword", p.Keyword)
	}
	if p.Language != "" {
		q.Set("language", string(p.Language))
	}
	if p.Region != "" {
		q.Set("region", strings.ToLower(p.Region))
	}

	results, err := c.do(ctx, "/nearbysearch/json", q)
	if err != nil {
		return nil, err
	}

	c.toCache(ctx, key, results)
	return results, nil
}

// LandmarkPlan resolves a named landmark and searches around it. Callers
// geocode GeocodeQuery themselves (via the geocode provider) and are
// expected to have already turned it into a center; this method exists
// as a distinct call shape so the route plan's three kinds stay
// 1:1 with the three outbound operations named in spec.md §6, with the
// landmark's resolved center passed through Keyword/Radius semantics
// identical to NearbySearch.
func (c *Client) LandmarkPlan(ctx context.Context, center types.LatLng, p LandmarkPlanParams) ([]types.RestaurantResult, error) {
	return c.NearbySearch(ctx, NearbySearchParams{
		Center:   center,
		Radius:   p.Radius,
		Keyword:  p.Keyword,
		Language: p.Language,
		Region:   p.Region,
	})
}

func (c *Client) do(ctx context.Context, path string, q url.Values) ([]types.RestaurantResult, error) {
	q.Set("key", c.cfg.APIKey)
	fullURL := c.cfg.BaseURL + path + "?" + q.Encode()

	var results []types.RestaurantResult
	err := c.retryer.Do(ctx, func() error {
		r, statusErr := c.fetch(ctx, fullURL)
		if statusErr != nil {
			return statusErr
		}
		results = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]types.RestaurantResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "build places request").WithCause(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.NewError(types.ErrUpstreamTimeout, "places request timed out").WithCause(err).WithRetryable(true)
		}
		return nil, retry.WrapRetryable(types.NewError(types.ErrUpstreamError, "places request failed").WithCause(err))
	}
	defer resp.Body.Close()

	if retry.IsStatusRetryable(resp.StatusCode) {
		code := types.ErrUpstreamError
		if resp.StatusCode == http.StatusTooManyRequests {
			code = types.ErrUpstreamQuota
		}
		return nil, retry.WrapRetryable(types.NewError(code, "places provider error").WithHTTPStatus(resp.StatusCode).WithRetryable(true))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewError(types.ErrUpstreamError, "places provider error").WithHTTPStatus(resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "decode places response").WithCause(err)
	}
	if sr.Status != "OK" && sr.Status != "ZERO_RESULTS" {
		return nil, types.NewError(types.ErrUpstreamError, "places provider status: "+sr.Status)
	}

	out := make([]types.RestaurantResult, 0, len(sr.Results))
	for _, rp := range sr.Results {
		out = append(out, convert(rp))
	}
	return out, nil
}

func convert(rp rawPlace) types.RestaurantResult {
	openNow := "UNKNOWN"
	if rp.OpeningHours != nil && rp.OpeningHours.OpenNow != nil {
		if *rp.OpeningHours.OpenNow {
			openNow = "true"
		} else {
			openNow = "false"
		}
	}
	return types.RestaurantResult{
		PlaceID: rp.PlaceID,
		Source:  "google_places",
		Name:    rp.Name,
		Address: rp.FormattedAddress,
		Location: types.LatLng{
			Lat: rp.Geometry.Location.Lat,
			Lng: rp.Geometry.Location.Lng,
		},
		Rating:        rp.Rating,
		ReviewsCount:  rp.UserRatingsTotal,
		PriceLevel:    rp.PriceLevel,
		OpenNow:       openNow,
		Tags:          rp.Types,
		GoogleMapsURL: "https://www.google.com/maps/place/?q=place_id:" + rp.PlaceID,
	}
}

func (c *Client) fromCache(ctx context.Context, key string) ([]types.RestaurantResult, bool) {
	if c.cache == nil {
		return nil, false
	}
	entry, err := cache.GetEntry[[]types.RestaurantResult](ctx, c.cache, key)
	if err != nil {
		return nil, false
	}
	return entry.Value, true
}

func (c *Client) toCache(ctx context.Context, key string, results []types.RestaurantResult) {
	if c.cache == nil {
		return
	}
	status := cache.StatusFound
	if len(results) == 0 {
		status = cache.StatusNotFound
	}
	if err := cache.PutEntry(ctx, c.cache, key, results, status, cache.TTLPlacesStatic, cache.TTLPlacesLive); err != nil {
		c.logger.Warn("places cache write failed", zap.String("key", key), zap.Error(err))
	}
}
