package enrichment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shacharon/grubroute/types"
)

// fakeSearch returns a scripted sequence of results, one slice per call,
// so tests can exercise the progressive-relaxation policy order.
type fakeSearch struct {
	calls   []string
	results [][]SearchResult
	errs    []error
	n       int
}

func (f *fakeSearch) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	f.calls = append(f.calls, query)
	idx := f.n
	f.n++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx < len(f.results) {
		return f.results[idx], nil
	}
	return nil, nil
}

func (f *fakeSearch) Name() string { return "brave" }

func TestResolve_StrictPolicyWinsOnFirstAttempt(t *testing.T) {
	fs := &fakeSearch{results: [][]SearchResult{
		{{Title: "Tony Pizza", Snippet: "delivery", URL: "https://wolt.com/en/isr/tel-aviv/restaurant/tony-pizza"}},
	}}
	r := NewResolver(fs)

	candidates, err := r.Resolve(context.Background(), types.ProviderWolt, "Tony Pizza", "Tel Aviv")

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Len(t, fs.calls, 1, "should stop after the first policy that yields a validated candidate")
}

func TestResolve_FallsThroughPoliciesUntilValidated(t *testing.T) {
	fs := &fakeSearch{results: [][]SearchResult{
		{{Title: "irrelevant", Snippet: "", URL: "https://example.com/no-match"}},
		{{Title: "irrelevant", Snippet: "", URL: "https://example.com/no-match"}},
		{{Title: "Tony Pizza", Snippet: "", URL: "https://wolt.com/en/isr/tel-aviv/restaurant/tony-pizza"}},
	}}
	r := NewResolver(fs)

	candidates, err := r.Resolve(context.Background(), types.ProviderWolt, "Tony Pizza", "Tel Aviv")

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Len(t, fs.calls, 3)
}

func TestResolve_NoCandidatesAcrossAllPoliciesReturnsEmpty(t *testing.T) {
	fs := &fakeSearch{results: [][]SearchResult{
		{{Title: "x", URL: "https://notwolt.com/restaurant/x"}},
		{{Title: "x", URL: "https://notwolt.com/restaurant/x"}},
		{{Title: "x", URL: "https://notwolt.com/restaurant/x"}},
		{{Title: "x", URL: "https://notwolt.com/restaurant/x"}},
	}}
	r := NewResolver(fs)

	candidates, err := r.Resolve(context.Background(), types.ProviderWolt, "Tony Pizza", "Tel Aviv")

	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestResolve_SkipsCityQualifiedPoliciesWhenCityEmpty(t *testing.T) {
	fs := &fakeSearch{results: [][]SearchResult{
		{{Title: "Tony Pizza", URL: "https://wolt.com/en/isr/tel-aviv/restaurant/tony-pizza"}},
	}}
	r := NewResolver(fs)

	_, err := r.Resolve(context.Background(), types.ProviderWolt, "Tony Pizza", "")

	require.NoError(t, err)
	require.Len(t, fs.calls, 1)
	assert.Equal(t, `site:wolt.com "Tony Pizza"`, fs.calls[0])
}

func TestResolve_PropagatesSearchError(t *testing.T) {
	fs := &fakeSearch{errs: []error{assert.AnError}}
	r := NewResolver(fs)

	_, err := r.Resolve(context.Background(), types.ProviderWolt, "Tony Pizza", "Tel Aviv")

	assert.Error(t, err)
}

func TestResolve_NoSearchProviderConfigured(t *testing.T) {
	r := NewResolver(nil)

	_, err := r.Resolve(context.Background(), types.ProviderWolt, "Tony Pizza", "Tel Aviv")

	assert.ErrorIs(t, err, ErrNoSearchProvider)
}

func TestResolve_UnknownProvider(t *testing.T) {
	fs := &fakeSearch{}
	r := NewResolver(fs)

	_, err := r.Resolve(context.Background(), types.DeliveryProvider("unknown"), "Tony Pizza", "Tel Aviv")

	assert.Error(t, err)
}

func TestResolve_WoltPrefersCitySlugAmongValidatedResults(t *testing.T) {
	fs := &fakeSearch{results: [][]SearchResult{
		{
			{Title: "Tony Pizza no city", URL: "https://wolt.com/en/isr/restaurant/tony-pizza"},
			{Title: "Tony Pizza Tel Aviv", URL: "https://wolt.com/en/isr/tel-aviv/restaurant/tony-pizza-ta"},
		},
	}}
	r := NewResolver(fs)

	candidates, err := r.Resolve(context.Background(), types.ProviderWolt, "Tony Pizza", "Tel Aviv")

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.True(t, candidates[0].hasCity, "city-slug match should be sorted first")
}

func TestBuildQueries_OrderMatchesPolicyTable(t *testing.T) {
	qs := buildQueries("wolt.com", "Tony Pizza", "Tel Aviv")
	require.Len(t, qs, 4)
	assert.Equal(t, `site:wolt.com "Tony Pizza" "Tel Aviv"`, qs[0])
	assert.Equal(t, `site:wolt.com "Tony Pizza" Tel Aviv`, qs[1])
	assert.Equal(t, `site:wolt.com "Tony Pizza"`, qs[2])
	assert.Equal(t, `site:wolt.com Tony Pizza`, qs[3])
}

func TestBuildQueries_NoCityYieldsTwoPolicies(t *testing.T) {
	qs := buildQueries("wolt.com", "Tony Pizza", "")
	assert.Len(t, qs, 2)
}

// lowQualitySearch names itself outside qualityEngines so Resolve should
// skip the strict/moderate policies entirely.
type lowQualitySearch struct{ *fakeSearch }

func (l *lowQualitySearch) Name() string { return "unknown_engine" }

func TestResolve_NonQualityEngineSkipsStrictPolicies(t *testing.T) {
	fs := &lowQualitySearch{fakeSearch: &fakeSearch{results: [][]SearchResult{
		{{Title: "Tony Pizza", URL: "https://wolt.com/en/isr/tel-aviv/restaurant/tony-pizza"}},
	}}}
	r := NewResolver(fs)

	_, err := r.Resolve(context.Background(), types.ProviderWolt, "Tony Pizza", "Tel Aviv")

	require.NoError(t, err)
	require.Len(t, fs.calls, 1)
	assert.Equal(t, `site:wolt.com "Tony Pizza"`, fs.calls[0], "should start at the relaxed policy, skipping strict/moderate")
}

func TestResolve_NilSearchProviderReturnsError(t *testing.T) {
	r := NewResolver(nil)
	assert.True(t, r.skipStrict)

	_, err := r.Resolve(context.Background(), types.ProviderWolt, "Tony Pizza", "Tel Aviv")
	assert.ErrorIs(t, err, ErrNoSearchProvider)
}
