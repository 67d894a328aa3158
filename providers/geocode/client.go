// Package geocode wraps the outbound geocoding provider used to resolve
// cityText/landmarkText into a coordinate for the city filter (spec.md
// §4.1 step 10) and for reverse-geocoding a device location into a
// region code (spec.md §4.1 step 6).
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/internal/cache"
	"github.com/shacharon/grubroute/internal/retry"
	"github.com/shacharon/grubroute/providers"
	"github.com/shacharon/grubroute/types"
)

// Client is the geocoding-provider HTTP client.
type Client struct {
	cfg     providers.GeocodeConfig
	http    *http.Client
	cache   *cache.Manager
	retryer retry.Retryer
	logger  *zap.Logger
}

// New builds a geocode Client. cacheManager may be nil, in which case
// every call bypasses the cache.
func New(cfg providers.GeocodeConfig, cacheManager *cache.Manager, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = providers.DefaultGeocodeConfig().Timeout
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cacheManager,
		retryer: retry.NewRetryer(retry.GeocodingPolicy(), logger),
		logger:  logger.With(zap.String("component", "geocode_client")),
	}
}

// Result is a resolved geocode: a center point and the region the
// provider associates with it.
type Result struct {
	Location   types.LatLng
	RegionCode string
	Formatted  string
}

type geoResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		AddressComponents []struct {
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// Forward resolves a free-text query (city name or landmark) to a
// coordinate, honoring cancellation and the geo: cache namespace.
func (c *Client) Forward(ctx context.Context, query string, language types.Language) (Result, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	key := cache.GeoKey(normalized)

	if c.cache != nil {
		if entry, err := cache.GetEntry[Result](ctx, c.cache, key); err == nil {
			if entry.Status == cache.StatusNotFound {
				return Result{}, types.NewError(types.ErrGeocodingFailed, "geocoding: no match (cached)")
			}
			return entry.Value, nil
		}
	}

	q := url.Values{}
	q.Set("address", query)
	q.Set("key", c.cfg.APIKey)
	if language != "" {
		q.Set("language", string(language))
	}
	fullURL := c.cfg.BaseURL + "/json?" + q.Encode()

	var result Result
	var notFound bool
	err := c.retryer.Do(ctx, func() error {
		r, nf, fetchErr := c.fetch(ctx, fullURL)
		if fetchErr != nil {
			return fetchErr
		}
		result, notFound = r, nf
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	status := cache.StatusFound
	if notFound {
		status = cache.StatusNotFound
	}
	if c.cache != nil {
		if putErr := cache.PutEntry(ctx, c.cache, key, result, status, cache.TTLGeocoding, cache.TTLGeocoding); putErr != nil {
			c.logger.Warn("geocode cache write failed", zap.String("key", key), zap.Error(putErr))
		}
	}

	if notFound {
		return Result{}, types.NewError(types.ErrGeocodingFailed, "geocoding: no match")
	}
	return result, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) (Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return Result{}, false, types.NewError(types.ErrInternalError, "build geocode request").WithCause(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, false, types.NewError(types.ErrUpstreamTimeout, "geocode request timed out").WithCause(err).WithRetryable(true)
		}
		return Result{}, false, retry.WrapRetryable(types.NewError(types.ErrGeocodingFailed, "geocode request failed").WithCause(err))
	}
	defer resp.Body.Close()

	if retry.IsStatusRetryable(resp.StatusCode) {
		return Result{}, false, retry.WrapRetryable(types.NewError(types.ErrGeocodingFailed, "geocode provider error").WithHTTPStatus(resp.StatusCode).WithRetryable(true))
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, false, types.NewError(types.ErrGeocodingFailed, "geocode provider error").WithHTTPStatus(resp.StatusCode)
	}

	var gr geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Result{}, false, types.NewError(types.ErrGeocodingFailed, "decode geocode response").WithCause(err)
	}

	if gr.Status == "ZERO_RESULTS" {
		return Result{}, true, nil
	}
	if gr.Status != "OK" || len(gr.Results) == 0 {
		return Result{}, false, types.NewError(types.ErrGeocodingFailed, fmt.Sprintf("geocode provider status: %s", gr.Status))
	}

	top := gr.Results[0]
	region := ""
	for _, ac := range top.AddressComponents {
		for _, t := range ac.Types {
			if t == "country" {
				region = ac.ShortName
			}
		}
	}

	return Result{
		Location: types.LatLng{
			Lat: top.Geometry.Location.Lat,
			Lng: top.Geometry.Location.Lng,
		},
		RegionCode: region,
		Formatted:  top.FormattedAddress,
	}, false, nil
}

// Reverse resolves a coordinate to a region code, used to fall back
// device location into `regionCode` (spec.md §4.1 step 6).
func (c *Client) Reverse(ctx context.Context, point types.LatLng) (string, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%.6f,%.6f", point.Lat, point.Lng))
	q.Set("key", c.cfg.APIKey)
	fullURL := c.cfg.BaseURL + "/json?" + q.Encode()

	var region string
	err := c.retryer.Do(ctx, func() error {
		result, notFound, fetchErr := c.fetch(ctx, fullURL)
		if fetchErr != nil {
			return fetchErr
		}
		if notFound {
			return types.NewError(types.ErrGeocodingFailed, "reverse-geocode: no match")
		}
		region = result.RegionCode
		return nil
	})
	if err != nil {
		return "", err
	}
	return region, nil
}
