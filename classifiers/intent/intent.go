// Package intent implements the intent classifier: given a query and the
// gate's pinned language, extract the route shape, hybrid entity flags,
// and any clarification the model itself deems necessary (spec.md §4.2).
// Results are memoized in the shared cache by (normalized query,
// language) with a 10-minute TTL.
package intent

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/internal/cache"
	"github.com/shacharon/grubroute/modelclient"
	"github.com/shacharon/grubroute/modelclient/schema"
	"github.com/shacharon/grubroute/types"
)

type clarifyOutput struct {
	Reason   string   `json:"reason"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
}

type hybridOutput struct {
	DistanceIntent   bool   `json:"distanceIntent" jsonschema:"required"`
	OpenNowRequested bool   `json:"openNowRequested" jsonschema:"required"`
	PriceIntent      string `json:"priceIntent" jsonschema:"required,enum=any,cheap,mid,expensive"`
	QualityIntent    bool   `json:"qualityIntent" jsonschema:"required"`
	Occasion         string `json:"occasion"`
	CuisineKey       string `json:"cuisineKey"`
}

type output struct {
	Route              string         `json:"route" jsonschema:"required,enum=TEXTSEARCH,NEARBY,LANDMARK"`
	Confidence         float64        `json:"confidence" jsonschema:"required,minimum=0,maximum=1"`
	Reason             string         `json:"reason" jsonschema:"required"`
	Language           string         `json:"language" jsonschema:"required"`
	LanguageConfidence float64        `json:"languageConfidence" jsonschema:"required,minimum=0,maximum=1"`
	RegionCandidate    string         `json:"regionCandidate"`
	RegionConfidence   float64        `json:"regionConfidence" jsonschema:"required,minimum=0,maximum=1"`
	RegionReason       string         `json:"regionReason"`
	CityText           string         `json:"cityText"`
	LandmarkText       string         `json:"landmarkText"`
	RadiusMeters       int            `json:"radiusMeters"`
	CanonicalCategory  string         `json:"canonicalCategory" jsonschema:"required"`
	Hybrid             hybridOutput   `json:"hybrid" jsonschema:"required"`
	Clarify            *clarifyOutput `json:"clarify"`
}

var outputSchema = mustSchema()

func mustSchema() *schema.JSONSchema {
	s, err := schema.NewGenerator().GenerateFromValue(output{})
	if err != nil {
		panic("intent: building schema: " + err.Error())
	}
	return s.WithDescription("intent classifier decision")
}

const systemPrompt = `You are the intent stage of a restaurant-search assistant.
Extract the provider-call shape (TEXTSEARCH, NEARBY, or LANDMARK), a canonical
cuisine/category string, and the hybrid entity flags. Every field is required;
use empty string/zero value when not applicable. Respond only with the
requested JSON.`

// deterministicFallback maps raw query tokens to a canonical category when
// the model's own canonical confidence is too low (spec.md §4.1 step 4).
var deterministicFallback = map[string]string{
	"meat": "meat restaurant", "בשר": "meat restaurant", "мясо": "meat restaurant",
	"dairy": "dairy restaurant", "חלבי": "dairy restaurant",
	"hummus": "hummus", "חומוס": "hummus",
	"vegetarian": "vegetarian", "צמחוני": "vegetarian", "вегетарианский": "vegetarian",
}

const lowConfidenceThreshold = 0.7

// Classifier runs the intent stage.
type Classifier struct {
	client *modelclient.Client
	cache  *cache.Manager
	logger *zap.Logger
}

// New builds an intent Classifier. cacheManager may be nil to disable
// memoization.
func New(client *modelclient.Client, cacheManager *cache.Manager, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{client: client, cache: cacheManager, logger: logger.With(zap.String("component", "intent_classifier"))}
}

// Classify runs the intent stage, honoring the cache and applying the
// deterministic canonical-category fallback.
func (c *Classifier) Classify(ctx context.Context, query string, language types.Language) (types.IntentResult, error) {
	key := cache.IntentKey(strings.ToLower(strings.TrimSpace(query)), string(language), "")

	if c.cache != nil {
		if entry, err := cache.GetEntry[types.IntentResult](ctx, c.cache, key); err == nil && entry.Status == cache.StatusFound {
			return entry.Value, nil
		}
	}

	userPrompt := "Language: " + string(language) + "\nQuery: " + query

	raw, _, err := c.client.Generate(ctx, systemPrompt, userPrompt, outputSchema)
	if err != nil {
		return types.IntentResult{}, err
	}

	var out output
	if err := json.Unmarshal(raw, &out); err != nil {
		return types.IntentResult{}, &modelclient.Failure{Kind: modelclient.FailureParseError, Message: "intent output decode", Cause: err}
	}

	canonical := applyDeterministicFallback(out.CanonicalCategory, out.Confidence, query)

	result := types.IntentResult{
		Route:              types.IntentRoute(out.Route),
		Confidence:         out.Confidence,
		Reason:             out.Reason,
		Language:           types.Language(out.Language),
		LanguageConfidence: out.LanguageConfidence,
		RegionCandidate:    out.RegionCandidate,
		RegionConfidence:   out.RegionConfidence,
		RegionReason:       out.RegionReason,
		CityText:           out.CityText,
		LandmarkText:       out.LandmarkText,
		RadiusMeters:       out.RadiusMeters,
		Hybrid: types.HybridFlags{
			DistanceIntent:   out.Hybrid.DistanceIntent,
			OpenNowRequested: out.Hybrid.OpenNowRequested,
			PriceIntent:      types.PriceIntent(out.Hybrid.PriceIntent),
			QualityIntent:    out.Hybrid.QualityIntent,
			Occasion:         out.Hybrid.Occasion,
			CuisineKey:       canonical,
		},
	}
	if out.Clarify != nil {
		result.Clarify = &types.ClarifyInfo{Reason: out.Clarify.Reason, Question: out.Clarify.Question, Choices: out.Clarify.Choices}
	}

	if c.cache != nil {
		if putErr := cache.PutEntry(ctx, c.cache, key, result, cache.StatusFound, cache.TTLIntent, cache.TTLIntent); putErr != nil {
			c.logger.Warn("intent cache write failed", zap.String("key", key), zap.Error(putErr))
		}
	}

	return result, nil
}

func applyDeterministicFallback(canonical string, confidence float64, query string) string {
	if canonical != "" && confidence >= lowConfidenceThreshold {
		return canonical
	}
	lower := strings.ToLower(query)
	for token, mapped := range deterministicFallback {
		if strings.Contains(lower, token) {
			return mapped
		}
	}
	return canonical
}
