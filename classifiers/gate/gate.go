// Package gate implements the smallest classifier in the pipeline: judge
// whether a query is food-related and decide whether the orchestrator
// should continue, stop, or ask a clarifying question (spec.md §4.2).
// Gate is the only stage allowed to fall back to a lenient default
// (CONTINUE) on failure, since refusing a plausibly-valid query outright
// is worse than letting a later stage filter it.
package gate

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/modelclient"
	"github.com/shacharon/grubroute/modelclient/schema"
	"github.com/shacharon/grubroute/types"
)

type output struct {
	FoodSignal string  `json:"foodSignal" jsonschema:"required,enum=YES,NO,MAYBE"`
	Route      string  `json:"route" jsonschema:"required,enum=CONTINUE,STOP,ASK_CLARIFY"`
	Confidence float64 `json:"confidence" jsonschema:"required,minimum=0,maximum=1"`
	Reason     string  `json:"reason" jsonschema:"required"`
}

var outputSchema = mustSchema()

func mustSchema() *schema.JSONSchema {
	s, err := schema.NewGenerator().GenerateFromValue(output{})
	if err != nil {
		panic("gate: building schema: " + err.Error())
	}
	return s.WithDescription("gate classifier decision")
}

const systemPrompt = `You are the gate stage of a restaurant-search assistant.
Decide if the user's message is about finding a place to eat. Respond only
with the requested JSON. Use STOP for clearly unrelated requests, ASK_CLARIFY
for ambiguous ones, CONTINUE otherwise.`

// Classifier runs the gate stage against a modelclient.
type Classifier struct {
	client *modelclient.Client
	logger *zap.Logger
}

// New builds a gate Classifier.
func New(client *modelclient.Client, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{client: client, logger: logger.With(zap.String("component", "gate_classifier"))}
}

// Classify runs the gate stage. On any modelclient failure it applies
// the documented lenient fallback: CONTINUE with FoodSignal=MAYBE,
// confidence 0, logged as a failure rather than propagated.
func (c *Classifier) Classify(ctx context.Context, query string, language types.Language) types.GateResult {
	userPrompt := "Language hint: " + string(language) + "\nQuery: " + query

	raw, meta, err := c.client.Generate(ctx, systemPrompt, userPrompt, outputSchema)
	if err != nil {
		c.logger.Warn("gate classifier failed, falling back to CONTINUE",
			zap.Error(err), zap.String("promptHash", meta.PromptHash))
		return types.GateResult{
			FoodSignal: types.FoodMaybe,
			Language:   language,
			Route:      types.GateContinue,
			Confidence: 0,
			Reason:     "gate_fallback",
		}
	}

	var out output
	if jsonErr := json.Unmarshal(raw, &out); jsonErr != nil {
		c.logger.Warn("gate classifier returned unparsable output, falling back to CONTINUE", zap.Error(jsonErr))
		return types.GateResult{
			FoodSignal: types.FoodMaybe,
			Language:   language,
			Route:      types.GateContinue,
			Confidence: 0,
			Reason:     "gate_fallback",
		}
	}

	return types.GateResult{
		FoodSignal: types.FoodSignal(out.FoodSignal),
		Language:   language,
		Route:      types.GateRoute(out.Route),
		Confidence: out.Confidence,
		Reason:     out.Reason,
	}
}
