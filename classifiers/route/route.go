// Package route implements the route-LLM stage: given the intent result
// and the resolved shared filters, emit the provider-call plan the
// normalizer and places client will execute (spec.md §4.3). Route runs
// concurrently with classifiers/postfilter under one errgroup in the
// orchestrator.
package route

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/modelclient"
	"github.com/shacharon/grubroute/modelclient/schema"
	"github.com/shacharon/grubroute/types"
)

type latLngOutput struct {
	Lat float64 `json:"lat" jsonschema:"required"`
	Lng float64 `json:"lng" jsonschema:"required"`
}

type output struct {
	Kind         string        `json:"kind" jsonschema:"required,enum=textsearch,nearby,landmark"`
	TextQuery    string        `json:"textQuery"`
	Bias         *latLngOutput `json:"bias"`
	Center       *latLngOutput `json:"center"`
	RadiusMeters int           `json:"radiusMeters"`
	Keyword      string        `json:"keyword"`
	GeocodeQuery string        `json:"geocodeQuery"`
	CityText     string        `json:"cityText"`
}

var outputSchema = mustSchema()

func mustSchema() *schema.JSONSchema {
	s, err := schema.NewGenerator().GenerateFromValue(output{})
	if err != nil {
		panic("route: building schema: " + err.Error())
	}
	return s.WithDescription("route-LLM provider call plan")
}

const systemPrompt = `You are the route stage of a restaurant-search assistant.
Choose exactly one call shape: textsearch (free-text query, optional bias
point), nearby (a center point and radius with an optional keyword), or
landmark (a geocodeQuery string to resolve before a nearby search). Fill
only the fields relevant to the chosen kind; leave the rest at their zero
value. Respond only with the requested JSON.`

// Classifier runs the route stage.
type Classifier struct {
	client *modelclient.Client
	logger *zap.Logger
}

// New builds a route Classifier.
func New(client *modelclient.Client, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{client: client, logger: logger.With(zap.String("component", "route_classifier"))}
}

// Plan runs the route stage against the intent result and resolved
// shared filters, producing the ProviderCallPlan the orchestrator will
// normalize and dispatch.
func (c *Classifier) Plan(ctx context.Context, query string, intent types.IntentResult, filters types.FinalSharedFilters) (types.ProviderCallPlan, error) {
	userPrompt := fmt.Sprintf(
		"Query: %s\nIntentRoute: %s\nCityText: %s\nLandmarkText: %s\nRadiusHint: %d\nRegion: %s\nLanguage: %s",
		query, intent.Route, intent.CityText, intent.LandmarkText, intent.RadiusMeters, filters.RegionCode, filters.ProviderLanguage,
	)

	raw, _, err := c.client.Generate(ctx, systemPrompt, userPrompt, outputSchema)
	if err != nil {
		return types.ProviderCallPlan{}, err
	}

	var out output
	if err := json.Unmarshal(raw, &out); err != nil {
		return types.ProviderCallPlan{}, &modelclient.Failure{Kind: modelclient.FailureParseError, Message: "route output decode", Cause: err}
	}

	plan := types.ProviderCallPlan{
		Kind:         types.ProviderCallKind(out.Kind),
		TextQuery:    out.TextQuery,
		RadiusMeters: out.RadiusMeters,
		Keyword:      out.Keyword,
		GeocodeQuery: out.GeocodeQuery,
		CityText:     out.CityText,
		Language:     filters.ProviderLanguage,
		Region:       filters.RegionCode,
	}
	if out.Bias != nil {
		plan.Bias = &types.LatLng{Lat: out.Bias.Lat, Lng: out.Bias.Lng}
	}
	if out.Center != nil {
		plan.Center = &types.LatLng{Lat: out.Center.Lat, Lng: out.Center.Lng}
	}

	return plan, nil
}
