package orchestrator

import (
	"strings"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/types"
)

// minQueryTokens is the floor below which a query needs an explicit
// anchor to proceed (spec.md §4.1 step 5, third guard).
const minQueryTokens = 2

// clarify builds an Assist{type: clarify} response.
func clarify(reason, message string, blocksSearch bool) types.Assist {
	return types.Assist{Type: types.AssistClarify, Reason: reason, Message: message, BlocksSearch: blocksSearch}
}

// clarifyWithQuestion builds a clarify Assist carrying a question and
// optional choices, used when the intent stage itself requested one.
func clarifyWithQuestion(info *types.ClarifyInfo) types.Assist {
	return types.Assist{
		Type:         types.AssistClarify,
		Reason:       info.Reason,
		Question:     info.Question,
		Choices:      info.Choices,
		BlocksSearch: true,
	}
}

// recoverAssist builds an Assist{type: recover} response.
func recoverAssist(reason, message string) types.Assist {
	return types.Assist{Type: types.AssistRecover, Reason: reason, Message: message}
}

// earlyGuards runs the three ordered guards from spec.md §4.1 step 5.
// Returns a non-nil Assist the moment one guard fires; nil means the
// request may proceed.
func earlyGuards(req types.SearchRequest, intent types.IntentResult, logger *zap.Logger) *types.Assist {
	if intent.Route == types.RouteNearby && req.UserLocation == nil {
		a := clarify("ASK_LOCATION", "Where should I search near?", true)
		return &a
	}

	if intent.Route == types.RouteTextSearch {
		hasAnchor := req.UserLocation != nil || intent.CityText != ""
		logger.Info("textsearch_anchor_eval",
			zap.Bool("allowed", hasAnchor),
			zap.Bool("hasUserLocation", req.UserLocation != nil),
			zap.Bool("hasCityText", intent.CityText != ""),
		)
		if !hasAnchor {
			a := clarify("NO_ANCHOR", "Which city or area should I search?", true)
			return &a
		}
	}

	hasAnchor := req.UserLocation != nil || intent.CityText != "" || intent.LandmarkText != ""
	if !hasAnchor && tokenCount(req.Query) < minQueryTokens {
		a := clarify("QUERY_TOO_SHORT", "Could you say a bit more about what you're looking for?", true)
		return &a
	}

	return nil
}

func tokenCount(query string) int {
	return len(strings.Fields(query))
}

// lateGuard is the post-check after the route-LLM stage: a TEXTSEARCH
// plan with neither cityText nor bias must not reach the provider call
// (spec.md §4.1 step 7).
func lateGuard(plan types.ProviderCallPlan) *types.Assist {
	if plan.Kind == types.CallTextSearch && plan.CityText == "" && plan.Bias == nil {
		a := clarify("NO_ANCHOR", "Which city or area should I search?", true)
		return &a
	}
	return nil
}
