package route

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shacharon/grubroute/modelclient"
	"github.com/shacharon/grubroute/types"
)

func newTestServer(t *testing.T, respond func(w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPlan_BuildsTextSearchPlan(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter) {
		out, _ := json.Marshal(map[string]any{
			"kind":         "textsearch",
			"textQuery":    "pizza tel aviv",
			"bias":         map[string]any{"lat": 32.08, "lng": 34.78},
			"center":       nil,
			"radiusMeters": 0,
			"keyword":      "",
			"geocodeQuery": "",
			"cityText":     "",
		})
		env, _ := json.Marshal(map[string]json.RawMessage{"output": out})
		w.Write(env)
	})

	client := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"}, zap.NewNop())
	c := New(client, zap.NewNop())

	plan, err := c.Plan(t.Context(), "pizza", types.IntentResult{Route: types.RouteTextSearch}, types.FinalSharedFilters{RegionCode: "IL", ProviderLanguage: types.LangEnglish})
	require.NoError(t, err)
	assert.Equal(t, types.CallTextSearch, plan.Kind)
	assert.Equal(t, "pizza tel aviv", plan.TextQuery)
	require.NotNil(t, plan.Bias)
	assert.InDelta(t, 32.08, plan.Bias.Lat, 0.001)
	assert.Equal(t, types.LangEnglish, plan.Language)
	assert.Equal(t, "IL", plan.Region)
}

func TestPlan_BuildsNearbyPlanWithCenter(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter) {
		out, _ := json.Marshal(map[string]any{
			"kind":         "nearby",
			"textQuery":    "",
			"bias":         nil,
			"center":       map[string]any{"lat": 32.08, "lng": 34.78},
			"radiusMeters": 1500,
			"keyword":      "sushi",
			"geocodeQuery": "",
			"cityText":     "",
		})
		env, _ := json.Marshal(map[string]json.RawMessage{"output": out})
		w.Write(env)
	})

	client := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"}, zap.NewNop())
	c := New(client, zap.NewNop())

	plan, err := c.Plan(t.Context(), "sushi nearby", types.IntentResult{Route: types.RouteNearby}, types.FinalSharedFilters{})
	require.NoError(t, err)
	assert.Equal(t, types.CallNearby, plan.Kind)
	require.NotNil(t, plan.Center)
	assert.Equal(t, 1500, plan.RadiusMeters)
	assert.Equal(t, "sushi", plan.Keyword)
}

func TestPlan_PropagatesUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"}, zap.NewNop())
	c := New(client, zap.NewNop())

	_, err := c.Plan(t.Context(), "anything", types.IntentResult{}, types.FinalSharedFilters{})
	require.Error(t, err)
}
