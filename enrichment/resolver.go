package enrichment

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/shacharon/grubroute/types"
)

// searchResultLimit bounds how many results each search attempt
// considers (spec.md §4.8: "take up to 10 results").
const searchResultLimit = 10

// SearchResult is one hit from a SearchProvider, in rank order.
type SearchResult struct {
	Title   string
	Snippet string
	URL     string
}

// SearchProvider is the web-search abstraction the resolver drives. A
// constructor wires in whichever engine is configured (Brave preferred
// over Google CSE). With neither available the resolver has no engine
// and Resolve returns ErrNoSearchProvider without searching.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Name() string
}

// candidate is one search result that passed host/path validation.
type candidate struct {
	Title   string
	Snippet string
	URL     string
	Rank    int
	hasCity bool
}

// Resolver implements the 3-layer progressive-relaxation strategy:
// for each policy (strict, moderate, relaxed, minimal), issue one
// site:-scoped search and keep only results that pass the provider's
// host/path allowlist. The first policy to yield any validated
// candidate wins; Resolver never falls back to a generic search URL.
type Resolver struct {
	search     SearchProvider
	skipStrict bool
}

// qualityEngines are the search providers worth spending the strict and
// moderate policies on. Any other engine jumps straight to the relaxed
// policy; with no provider at all Resolve runs no search and returns
// ErrNoSearchProvider.
var qualityEngines = map[string]bool{"brave": true, "google_cse": true}

// NewResolver builds a Resolver over the given search engine. When search
// is nil, or names an engine outside qualityEngines, the strict and
// moderate policies are skipped.
func NewResolver(search SearchProvider) *Resolver {
	skipStrict := search == nil || !qualityEngines[search.Name()]
	return &Resolver{search: search, skipStrict: skipStrict}
}

// ErrNoSearchProvider means the resolver was built without a working
// search engine (spec.md §4.9 safety net: "worker cannot be initialized").
var ErrNoSearchProvider = fmt.Errorf("enrichment: no search provider configured")

// Resolve runs the progressive-relaxation strategy for one place and
// returns the validated candidates from the first policy that produced
// any, best rank first.
func (r *Resolver) Resolve(ctx context.Context, provider types.DeliveryProvider, name, city string) ([]candidate, error) {
	if r.search == nil {
		return nil, ErrNoSearchProvider
	}
	a, ok := allowlistFor(provider)
	if !ok {
		return nil, fmt.Errorf("enrichment: unknown provider %q", provider)
	}

	queries := buildQueries(a.PrimaryHost, name, city)
	if r.skipStrict {
		queries = skipStrictPolicies(queries, city)
	}

	for _, q := range queries {
		results, err := r.search.Search(ctx, q, searchResultLimit)
		if err != nil {
			return nil, err
		}

		validated := validate(results, a, city)
		if len(validated) > 0 {
			if provider == types.ProviderWolt {
				preferCitySlug(validated)
			}
			return validated, nil
		}
	}

	return nil, nil
}

// buildQueries returns the ordered site:-scoped query list per
// spec.md §4.8's policy table, skipping the city-qualified policies
// when city is empty.
func buildQueries(host, name, city string) []string {
	site := "site:" + host
	if city == "" {
		return []string{
			fmt.Sprintf(`%s "%s"`, site, name),
			fmt.Sprintf(`%s %s`, site, name),
		}
	}
	return []string{
		fmt.Sprintf(`%s "%s" "%s"`, site, name, city),
		fmt.Sprintf(`%s "%s" %s`, site, name, city),
		fmt.Sprintf(`%s "%s"`, site, name),
		fmt.Sprintf(`%s %s`, site, name),
	}
}

// skipStrictPolicies drops the strict and moderate entries, leaving only
// relaxed and minimal. buildQueries already omits them when city is
// empty, so this only has an effect on the 4-entry city-qualified list.
func skipStrictPolicies(queries []string, city string) []string {
	if city == "" || len(queries) <= 2 {
		return queries
	}
	return queries[len(queries)-2:]
}

func validate(results []SearchResult, a allowlist, city string) []candidate {
	slug := citySlug(city)
	var out []candidate
	for i, res := range results {
		u, err := url.Parse(res.URL)
		if err != nil || u.Host == "" {
			continue
		}
		if !hostAllowed(u.Host, a) || !pathAllowed(u.Path, a) {
			continue
		}
		out = append(out, candidate{
			Title:   res.Title,
			Snippet: res.Snippet,
			URL:     res.URL,
			Rank:    i,
			hasCity: slug != "" && strings.Contains(strings.ToLower(u.Path), slug),
		})
	}
	return out
}

// preferCitySlug stable-sorts city-slug matches ahead of non-matches,
// preserving relative rank order within each group (spec.md §4.8: Wolt
// "additionally prefers results with a city slug segment").
func preferCitySlug(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].hasCity && !candidates[j].hasCity
	})
}

func citySlug(city string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(city)), " ", "-")
}
