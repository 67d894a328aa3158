package gate

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

func TestClassify_ContinueOnValidResponse(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter) {
		out, _ := json.Marshal(map[string]any{
			"foodSignal": "YES",
			"route":      "CONTINUE",
			"confidence": 0.9,
			"reason":     "mentions pizza",
		})
		env, _ := json.Marshal(map[string]json.RawMessage{"output": out})
		w.Write(env)
	})

	client := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"}, zap.NewNop())
	c := New(client, zap.NewNop())

	result := c.Classify(t.Context(), "pizza near me", types.LangEnglish)
	assert.Equal(t, types.GateContinue, result.Route)
	assert.Equal(t, types.FoodYes, result.FoodSignal)
	assert.InDelta(t, 0.9, result.Confidence, 0.001)
}

func TestClassify_FallsBackToContinueOnUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := modelclient.New(modelclient.Config{BaseURL: srv.URL, Model: "test"}, zap.NewNop())
	c := New(client, zap.NewNop())

	result := c.Classify(t.Context(), "anything", types.LangEnglish)
	assert.Equal(t, types.GateContinue, result.Route)
	assert.Equal(t, types.FoodMaybe, result.FoodSignal)
	require.Equal(t, "gate_fallback", result.Reason)
}
