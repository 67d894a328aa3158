// Package orchestrator sequences the gate/intent/route/post-constraints
// stages, calls the places provider, ranks and paginates the result
// pool, and fires deep-link enrichment — the single entry point named in
// spec.md §4.1. Every sub-call is bound to the orchestrator's own
// deadline and cancellation token.
package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shacharon/grubroute/classifiers/gate"
	"github.com/shacharon/grubroute/classifiers/intent"
	"github.com/shacharon/grubroute/classifiers/postfilter"
	"github.com/shacharon/grubroute/classifiers/route"
	"github.com/shacharon/grubroute/config"
	"github.com/shacharon/grubroute/enrichment"
	"github.com/shacharon/grubroute/internal/langdetect"
	"github.com/shacharon/grubroute/normalizer"
	"github.com/shacharon/grubroute/providers/geocode"
	"github.com/shacharon/grubroute/providers/places"
	"github.com/shacharon/grubroute/ranker"
	"github.com/shacharon/grubroute/types"
)

// EventPublisher delivers the orchestrator's own session events (an
// initial status, then the final result batch) to whatever transport
// owns (channel, requestId) subscribers or backlogs — kept as a small
// interface so this package never imports session (spec.md §4.1 step
// 14).
type EventPublisher interface {
	PublishStatus(requestID string, stage string)
	PublishResults(requestID string, results []types.RestaurantResult)
}

type noopPublisher struct{}

func (noopPublisher) PublishStatus(string, string)                 {}
func (noopPublisher) PublishResults(string, []types.RestaurantResult) {}

// Orchestrator wires every stage dependency and runs the staged
// algorithm per request.
type Orchestrator struct {
	gate       *gate.Classifier
	intent     *intent.Classifier
	route      *route.Classifier
	places     *places.Client
	geocode    *geocode.Client
	enrichment *enrichment.Service
	publisher  EventPublisher
	stages     config.StageTimeouts
	logger     *zap.Logger
}

// New builds an Orchestrator. publisher may be nil, in which case
// session events are silently dropped (useful in tests; cmd/grubroled
// passes the session hub).
func New(
	gateClassifier *gate.Classifier,
	intentClassifier *intent.Classifier,
	routeClassifier *route.Classifier,
	placesClient *places.Client,
	geocodeClient *geocode.Client,
	enrichmentService *enrichment.Service,
	publisher EventPublisher,
	stages config.StageTimeouts,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Orchestrator{
		gate:       gateClassifier,
		intent:     intentClassifier,
		route:      routeClassifier,
		places:     placesClient,
		geocode:    geocodeClient,
		enrichment: enrichmentService,
		publisher:  publisher,
		stages:     stages,
		logger:     logger.With(zap.String("component", "orchestrator")),
	}
}

// Run executes the full staged algorithm for a single request (spec.md
// §4.1). It never returns a Go error to the caller — every internal
// fault is mapped to a failure reason and surfaced through Response.Meta
// or Response.Assist instead.
func (o *Orchestrator) Run(ctx context.Context, req types.SearchRequest) Response {
	start := time.Now()
	var timings Timings

	total := o.stages.Total
	if total <= 0 {
		total = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, total)
	defer cancel()

	if ctx.Err() != nil {
		return o.timeoutResponse(start, timings)
	}

	// Step 1: majority-script language detection; overrides later hints
	// for language-of-prompt selection only.
	detected := langdetect.Detect(req.Query)
	language := toDomainLanguage(detected)

	// Step 2: region sanitization happens inline inside resolveSharedFilters.

	// Step 3: gate stage.
	gateStart := time.Now()
	gateCtx, gateCancel := withStageTimeout(ctx, o.stages.Gate)
	gateResult := o.gate.Classify(gateCtx, req.Query, language)
	gateCancel()
	timings.GateMs = time.Since(gateStart).Milliseconds()

	if gateResult.Route == types.GateStop {
		return o.clarifyResponse(start, timings, clarify("GATE_STOP", "I can only help with restaurant search.", true))
	}
	if gateResult.Route == types.GateAskClarify {
		return o.clarifyResponse(start, timings, clarify("GATE_CLARIFY", gateResult.Reason, true))
	}

	// Step 4: intent stage, pinned to the gate's language.
	intentStart := time.Now()
	intentCtx, intentCancel := withStageTimeout(ctx, o.stages.Intent)
	intentResult, err := o.intent.Classify(intentCtx, req.Query, gateResult.Language)
	intentCancel()
	timings.IntentMs = time.Since(intentStart).Milliseconds()
	if err != nil {
		return o.recoverResponse(start, timings, classifyStageFailure(err), 0)
	}
	if intentResult.Clarify != nil {
		return o.clarifyResponse(start, timings, clarifyWithQuestion(intentResult.Clarify))
	}

	// Step 5: early guards.
	if assist := earlyGuards(req, intentResult, o.logger); assist != nil {
		return o.clarifyResponse(start, timings, *assist)
	}

	// Step 6: shared-filters tightening.
	providerLanguage, languageSource, regionCode, regionSource := resolveSharedFilters(ctx, req, gateResult, intentResult, o.geocode, o.logger)
	filters := types.FinalSharedFilters{
		UILanguage:       uiLanguageFor(providerLanguage),
		ProviderLanguage: providerLanguage,
		RegionCode:       regionCode,
		LanguageSource:   languageSource,
		RegionSource:     regionSource,
		Disclaimers:      types.Disclaimers{Hours: true, Dietary: true},
	}

	// Steps 7 & 11 run concurrently: route-LLM and post-constraints
	// depend on disjoint inputs (the former on intent+filters, the
	// latter only on hybrid flags and region), so nothing here blocks
	// on provider data that does not exist yet.
	var plan types.ProviderCallPlan
	var postConstraints types.PostConstraints
	group, groupCtx := errgroup.WithContext(ctx)
	routeStart := time.Now()
	group.Go(func() error {
		routeCtx, routeCancel := withStageTimeout(groupCtx, o.stages.RouteLLM)
		defer routeCancel()
		p, planErr := o.route.Plan(routeCtx, req.Query, intentResult, filters)
		plan = p
		return planErr
	})
	group.Go(func() error {
		postCtx, postCancel := withStageTimeout(groupCtx, o.stages.PostConstraints)
		defer postCancel()
		_ = postCtx
		postConstraints = postfilter.Apply(intentResult.Hybrid, filters.RegionCode, "", time.Now().UTC())
		return nil
	})
	planErr := group.Wait()
	timings.RouteLLMMs = time.Since(routeStart).Milliseconds()
	timings.PostFilterMs = timings.RouteLLMMs
	if planErr != nil {
		return o.recoverResponse(start, timings, classifyStageFailure(planErr), intentResult.Confidence)
	}

	filters.OpenState = postConstraints.OpenState
	filters.OpenAt = postConstraints.OpenAt
	filters.OpenBetween = postConstraints.OpenBetween
	filters.PriceIntent = intentResult.Hybrid.PriceIntent
	filters.PriceLevels = postConstraints.PriceLevelRange

	// Late guard: a TEXTSEARCH plan with neither cityText nor bias must
	// not reach the provider call.
	if assist := lateGuard(plan); assist != nil {
		return o.clarifyResponse(start, timings, *assist)
	}

	// Step 8: normalize canonical category to provider query.
	providerQuery := normalizer.Normalize(intentResult.Hybrid.CuisineKey, o.logger)

	// Step 9: call the places provider.
	providerStart := time.Now()
	providerCtx, providerCancel := withStageTimeout(ctx, o.stages.Provider)
	results, provErr := o.callProvider(providerCtx, plan, providerQuery, filters)
	providerCancel()
	timings.ProviderMs = time.Since(providerStart).Milliseconds()
	if provErr != nil {
		return o.recoverResponse(start, timings, classifyStageFailure(provErr), intentResult.Confidence)
	}

	// Step 10: city filter.
	geocodeFailed := false
	cityText := plan.CityText
	if cityText == "" {
		cityText = intentResult.CityText
	}
	if cityText != "" {
		geoCtx, geoCancel := withStageTimeout(ctx, o.stages.Geocoding)
		geoResult, geoErr := o.geocode.Forward(geoCtx, cityText, providerLanguage)
		geoCancel()
		if geoErr != nil {
			geocodeFailed = true
			o.logger.Warn("city_geocode_failed", zap.String("cityText", cityText), zap.Error(geoErr))
		} else {
			results = filterByCity(results, geoResult.Location, false)
		}
	}

	// Step 12: rank.
	profile := ranker.SelectProfile(req.UserLocation != nil, intentResult.Hybrid)
	rankStart := time.Now()
	candidates := make([]ranker.Candidate, len(results))
	for i, r := range results {
		candidates[i] = ranker.Candidate{Result: r}
	}
	scored := ranker.Rank(candidates, profile)
	ranked := make([]types.RestaurantResult, len(scored))
	for i, s := range scored {
		ranked[i] = s.Result
	}
	timings.RankMs = time.Since(rankStart).Milliseconds()

	// Step 13: attach provider slots and fire async enrichment.
	requestID := req.RequestID
	if o.enrichment != nil {
		for i := range ranked {
			o.enrichment.Attach(ctx, requestID, cityText, &ranked[i])
		}
	}

	visible, pagination := paginate(ranked)

	// Step 14: publish incremental session events.
	o.publisher.PublishStatus(requestID, "ranking_complete")
	o.publisher.PublishResults(requestID, visible)

	timings.TotalMs = time.Since(start).Milliseconds()

	failureReason := detectFailure(failureInputs{
		geocodeFailed:    geocodeFailed,
		resultCount:      len(visible),
		intentConfidence: intentResult.Confidence,
		requiresLiveData: intentResult.Hybrid.OpenNowRequested,
		top3OpenUnknown:  top3OpenUnknown(visible),
	})

	assist := types.Assist{Type: types.AssistNormal}
	if failureReason.IsCritical() {
		assist = recoverAssist(string(failureReason), "I couldn't find results just now, please try again.")
	}

	return Response{
		Results: visible,
		Assist:  assist,
		Meta: Meta{
			Source:          "live",
			PipelineVersion: pipelineVersion,
			FailureReason:   failureReason,
			Timings:         timings,
			Pagination:      pagination,
			RegionSource:    regionSource,
			LanguageSource:  languageSource,
		},
	}
}

// callProvider dispatches to the places call shape the route plan
// selected.
func (o *Orchestrator) callProvider(ctx context.Context, plan types.ProviderCallPlan, providerQuery string, filters types.FinalSharedFilters) ([]types.RestaurantResult, error) {
	switch plan.Kind {
	case types.CallTextSearch:
		query := plan.TextQuery
		if query == "" {
			query = providerQuery
		}
		return o.places.TextSearch(ctx, places.TextSearchParams{
			Query:    query,
			Bias:     plan.Bias,
			Language: filters.ProviderLanguage,
			Region:   filters.RegionCode,
		})
	case types.CallNearby:
		center := types.LatLng{}
		if plan.Center != nil {
			center = *plan.Center
		}
		return o.places.NearbySearch(ctx, places.NearbySearchParams{
			Center:   center,
			Radius:   plan.RadiusMeters,
			Keyword:  providerQuery,
			Language: filters.ProviderLanguage,
			Region:   filters.RegionCode,
		})
	case types.CallLandmark:
		geoResult, err := o.geocode.Forward(ctx, plan.GeocodeQuery, filters.ProviderLanguage)
		if err != nil {
			return nil, err
		}
		return o.places.LandmarkPlan(ctx, geoResult.Location, places.LandmarkPlanParams{
			GeocodeQuery: plan.GeocodeQuery,
			Radius:       plan.RadiusMeters,
			Keyword:      providerQuery,
			Language:     filters.ProviderLanguage,
			Region:       filters.RegionCode,
		})
	default:
		return nil, types.NewError(types.ErrInternalError, "unknown provider call kind: "+string(plan.Kind))
	}
}

func (o *Orchestrator) timeoutResponse(start time.Time, timings Timings) Response {
	timings.TotalMs = time.Since(start).Milliseconds()
	return Response{
		Assist: recoverAssist("TIMEOUT", "That took too long, please try again."),
		Meta: Meta{
			PipelineVersion: pipelineVersion,
			FailureReason:   types.FailureTimeout,
			Timings:         timings,
		},
	}
}

func (o *Orchestrator) clarifyResponse(start time.Time, timings Timings, assist types.Assist) Response {
	timings.TotalMs = time.Since(start).Milliseconds()
	return Response{
		Assist: assist,
		Meta: Meta{
			PipelineVersion: pipelineVersion,
			FailureReason:   types.FailureNone,
			Timings:         timings,
		},
	}
}

func (o *Orchestrator) recoverResponse(start time.Time, timings Timings, reason stageError, intentConfidence float64) Response {
	timings.TotalMs = time.Since(start).Milliseconds()
	failureReason := detectFailure(failureInputs{explicit: reason, intentConfidence: intentConfidence})
	return Response{
		Assist: recoverAssist(string(failureReason), "I couldn't complete that search, please try again."),
		Meta: Meta{
			PipelineVersion: pipelineVersion,
			FailureReason:   failureReason,
			Timings:         timings,
		},
	}
}

// classifyStageFailure maps a classifier/provider error into the
// explicit-error tier of the failure detector's precedence table.
func classifyStageFailure(err error) stageError {
	switch types.GetErrorCode(err) {
	case types.ErrClassifierTimeout, types.ErrUpstreamTimeout, types.ErrTimeout:
		return errTimeout
	case types.ErrClassifierQuota, types.ErrUpstreamQuota:
		return errQuotaExceeded
	case types.ErrGeocodingFailed:
		return errGeocodingFailed
	default:
		return errProviderFailure
	}
}

func withStageTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func toDomainLanguage(l langdetect.Language) types.Language {
	switch l {
	case langdetect.Hebrew:
		return types.LangHebrew
	case langdetect.English:
		return types.LangEnglish
	case langdetect.Russian:
		return types.LangRussian
	case langdetect.Arabic:
		return types.LangArabic
	default:
		return types.LangUnknown
	}
}
