package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/internal/region"
	"github.com/shacharon/grubroute/providers/geocode"
	"github.com/shacharon/grubroute/types"
)

var lockableLanguages = map[types.Language]bool{
	types.LangHebrew: true, types.LangEnglish: true, types.LangRussian: true,
	types.LangArabic: true, types.LangFrench: true, types.LangSpanish: true,
}

var landmarkTextNearbyRoutes = map[types.IntentRoute]bool{
	types.RouteLandmark: true, types.RouteTextSearch: true, types.RouteNearby: true,
}

const defaultRegionCode = "IL"

// resolveSharedFilters performs the shared-filters tightening in
// spec.md §4.1 step 6: language and region are each locked by intent
// when confident, else fall through a fixed source chain, with every
// field's provenance recorded for meta.languageSource/meta.regionSource.
func resolveSharedFilters(
	ctx context.Context,
	req types.SearchRequest,
	gate types.GateResult,
	intent types.IntentResult,
	geoClient *geocode.Client,
	logger *zap.Logger,
) (types.Language, types.FilterSource, string, types.FilterSource) {
	language, languageSource := resolveLanguage(gate, intent)
	regionCode, regionSource := resolveRegion(ctx, req, intent, geoClient, logger)
	return language, languageSource, regionCode, regionSource
}

func resolveLanguage(gate types.GateResult, intent types.IntentResult) (types.Language, types.FilterSource) {
	if lockableLanguages[intent.Language] {
		return intent.Language, types.SourceIntent
	}
	if lockableLanguages[gate.Language] {
		return gate.Language, types.SourceBaseLLM
	}
	return types.LangEnglish, types.SourceDefault
}

func resolveRegion(
	ctx context.Context,
	req types.SearchRequest,
	intent types.IntentResult,
	geoClient *geocode.Client,
	logger *zap.Logger,
) (string, types.FilterSource) {
	if code, ok := region.Sanitize(intent.RegionCandidate); ok && landmarkTextNearbyRoutes[intent.Route] {
		return code, types.SourceIntent
	}

	if req.UserLocation != nil && geoClient != nil {
		code, err := geoClient.Reverse(ctx, *req.UserLocation)
		if err == nil {
			if sanitized, ok := region.Sanitize(code); ok {
				return sanitized, types.SourceReverseGeocode
			}
		} else {
			logger.Debug("reverse_geocode_region_failed", zap.Error(err))
		}
	}

	if code, ok := region.Sanitize(req.UserRegionCode); ok {
		return code, types.SourceDevice
	}

	return defaultRegionCode, types.SourceDefault
}

// uiLanguageFor derives the UI-facing language flag: Hebrew when the
// resolved provider language is Hebrew, English otherwise (spec.md
// §4.1 step 6).
func uiLanguageFor(providerLanguage types.Language) types.Language {
	if providerLanguage == types.LangHebrew {
		return types.LangHebrew
	}
	return types.LangEnglish
}
