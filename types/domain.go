package types

import "time"

// Language is one of the six query languages the pipeline understands,
// or "unknown" when the majority-script heuristic cannot decide.
type Language string

const (
	LangHebrew    Language = "he"
	LangEnglish   Language = "en"
	LangRussian   Language = "ru"
	LangArabic    Language = "ar"
	LangFrench    Language = "fr"
	LangSpanish   Language = "es"
	LangUnknown   Language = "unknown"
)

// GateRoute is the gate's CONTINUE/STOP/ASK_CLARIFY decision.
type GateRoute string

const (
	GateContinue     GateRoute = "CONTINUE"
	GateStop         GateRoute = "STOP"
	GateAskClarify   GateRoute = "ASK_CLARIFY"
)

// FoodSignal is the gate's judgement on whether the query is food-related.
type FoodSignal string

const (
	FoodYes   FoodSignal = "YES"
	FoodNo    FoodSignal = "NO"
	FoodMaybe FoodSignal = "MAYBE"
)

// IntentRoute is the provider-call shape the intent stage selected.
type IntentRoute string

const (
	RouteTextSearch IntentRoute = "TEXTSEARCH"
	RouteNearby     IntentRoute = "NEARBY"
	RouteLandmark   IntentRoute = "LANDMARK"
)

// PriceIntent is a coarse price preference extracted from the query.
type PriceIntent string

const (
	PriceAny      PriceIntent = "any"
	PriceCheap    PriceIntent = "cheap"
	PriceMid      PriceIntent = "mid"
	PriceExpensive PriceIntent = "expensive"
)

// OpenState is the deterministic open/closed constraint extracted by the
// post-constraints stage.
type OpenState string

const (
	OpenStateNone        OpenState = ""
	OpenStateOpenNow     OpenState = "OPEN_NOW"
	OpenStateClosedNow   OpenState = "CLOSED_NOW"
	OpenStateOpenAt      OpenState = "OPEN_AT"
	OpenStateOpenBetween OpenState = "OPEN_BETWEEN"
)

// AssistType tags the kind of non-result response the orchestrator may
// return instead of (or alongside, for "normal") a candidate list.
type AssistType string

const (
	AssistNormal  AssistType = "normal"
	AssistClarify AssistType = "clarify"
	AssistRecover AssistType = "recover"
)

// FailureReason is the deterministic classification computed at response
// assembly time (spec §4.10). NONE means no failure occurred.
type FailureReason string

const (
	FailureNone               FailureReason = "NONE"
	FailureNoResults          FailureReason = "NO_RESULTS"
	FailureLowConfidence      FailureReason = "LOW_CONFIDENCE"
	FailureGeocodingFailed    FailureReason = "GEOCODING_FAILED"
	FailureProviderError      FailureReason = "PROVIDER_ERROR"
	FailureTimeout            FailureReason = "TIMEOUT"
	FailureQuotaExceeded      FailureReason = "QUOTA_EXCEEDED"
	FailureLiveDataUnavailable FailureReason = "LIVE_DATA_UNAVAILABLE"
	FailureWeakMatches        FailureReason = "WEAK_MATCHES"
)

// IsCritical reports whether this failure reason drives assist=recover
// per the precedence table in spec §4.10.
func (f FailureReason) IsCritical() bool {
	switch f {
	case FailureNoResults, FailureProviderError, FailureTimeout, FailureQuotaExceeded:
		return true
	default:
		return false
	}
}

// ProviderEnrichmentStatus is the lifecycle of a single deep-link slot.
type ProviderEnrichmentStatus string

const (
	ProviderPending  ProviderEnrichmentStatus = "PENDING"
	ProviderFound    ProviderEnrichmentStatus = "FOUND"
	ProviderNotFound ProviderEnrichmentStatus = "NOT_FOUND"
)

// DeliveryProvider is one of the three fixed third-party delivery
// providers the enrichment subsystem resolves deep-links for.
type DeliveryProvider string

const (
	ProviderWolt     DeliveryProvider = "wolt"
	ProviderTenBis   DeliveryProvider = "tenbis"
	ProviderMishloha DeliveryProvider = "mishloha"
)

// AllDeliveryProviders is the fixed, spec-documented provider list.
// Adding a provider requires a new host/path allowlist and scorer entry
// (spec §9 open question) — unspecified beyond these three.
var AllDeliveryProviders = []DeliveryProvider{ProviderWolt, ProviderTenBis, ProviderMishloha}

// LatLng is a device or place coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SearchRequest is the immutable input to the orchestrator.
type SearchRequest struct {
	Query          string   `json:"query"`
	SessionID      string   `json:"sessionId"`
	RequestID      string   `json:"requestId,omitempty"`
	UserLocation   *LatLng  `json:"userLocation,omitempty"`
	UserRegionCode string   `json:"userRegionCode,omitempty"`
}

// GateResult is the output of the gate classifier.
type GateResult struct {
	FoodSignal FoodSignal `json:"foodSignal"`
	Language   Language   `json:"language"`
	Route      GateRoute  `json:"route"`
	Confidence float64    `json:"confidence"`
	Reason     string     `json:"reason"`
}

// HybridFlags is the language-agnostic entity/intent bundle the intent
// stage extracts alongside the route.
type HybridFlags struct {
	DistanceIntent    bool        `json:"distanceIntent"`
	OpenNowRequested  bool        `json:"openNowRequested"`
	PriceIntent       PriceIntent `json:"priceIntent"`
	QualityIntent     bool        `json:"qualityIntent"`
	Occasion          string      `json:"occasion,omitempty"`
	CuisineKey        string      `json:"cuisineKey,omitempty"`
}

// ClarifyInfo is attached to an IntentResult when the intent stage itself
// determines clarification is needed (distinct from the orchestrator's
// own guards, which also produce Assist values).
type ClarifyInfo struct {
	Reason   string   `json:"reason"`
	Question string   `json:"question"`
	Choices  []string `json:"choices,omitempty"`
}

// IntentResult is the output of the intent classifier.
type IntentResult struct {
	Route             IntentRoute  `json:"route"`
	Confidence        float64      `json:"confidence"`
	Reason            string       `json:"reason"`
	Language          Language     `json:"language"`
	LanguageConfidence float64     `json:"languageConfidence"`
	RegionCandidate   string       `json:"regionCandidate,omitempty"`
	RegionConfidence  float64      `json:"regionConfidence"`
	RegionReason      string       `json:"regionReason,omitempty"`
	RegionCode        string       `json:"regionCode,omitempty"`
	CityText          string       `json:"cityText,omitempty"`
	LandmarkText      string       `json:"landmarkText,omitempty"`
	RadiusMeters      int          `json:"radiusMeters,omitempty"`
	Hybrid            HybridFlags  `json:"hybrid"`
	Clarify           *ClarifyInfo `json:"clarify,omitempty"`
}

// Valid enforces the invariant that route=LANDMARK carries a landmarkText.
func (r IntentResult) Valid() bool {
	if r.Route == RouteLandmark && r.LandmarkText == "" {
		return false
	}
	return true
}

// OpenAtSpec is the target day/time for OPEN_AT constraints.
type OpenAtSpec struct {
	Day     string `json:"day,omitempty"`
	TimeHHmm string `json:"timeHHmm,omitempty"`
}

// OpenBetweenSpec is the target day/window for OPEN_BETWEEN constraints.
type OpenBetweenSpec struct {
	Day      string `json:"day,omitempty"`
	StartHHmm string `json:"startHHmm,omitempty"`
	EndHHmm   string `json:"endHHmm,omitempty"`
}

// PriceLevelRange bounds the 1-4 Google-style price level.
type PriceLevelRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Requirements are accessibility/parking flags that only affect ranking
// when explicitly requested.
type Requirements struct {
	Accessible bool `json:"accessible"`
	Parking    bool `json:"parking"`
}

// PostConstraints is the output of the post-constraints stage. Sub-objects
// that do not apply are nil and omitted from JSON.
type PostConstraints struct {
	OpenState       OpenState        `json:"openState"`
	OpenAt          *OpenAtSpec      `json:"openAt,omitempty"`
	OpenBetween     *OpenBetweenSpec `json:"openBetween,omitempty"`
	PriceLevel      *int             `json:"priceLevel,omitempty"`
	PriceLevelRange *PriceLevelRange `json:"priceLevelRange,omitempty"`
	IsKosher        *bool            `json:"isKosher,omitempty"`
	IsGlutenFree    *bool            `json:"isGlutenFree,omitempty"`
	Requirements    Requirements     `json:"requirements"`
}

// FilterSource records where a FinalSharedFilters field's value came from,
// for the meta.regionSource / meta.languageSource response fields.
type FilterSource string

const (
	SourceIntent  FilterSource = "intent"
	SourceBaseLLM FilterSource = "base_llm"
	SourceDevice  FilterSource = "device"
	SourceDefault FilterSource = "default"
	SourceReverseGeocode FilterSource = "reverse_geocode"
)

// Disclaimers are UI-facing flags the orchestrator sets to remind the
// caller that hours/dietary information may be stale or approximate.
type Disclaimers struct {
	Hours   bool `json:"hours"`
	Dietary bool `json:"dietary"`
}

// FinalSharedFilters is the deterministically resolved filter set that
// flows into the route plan, the provider query, and the response meta.
type FinalSharedFilters struct {
	UILanguage      Language     `json:"uiLanguage"`
	ProviderLanguage Language    `json:"providerLanguage"`
	RegionCode      string       `json:"regionCode"`
	OpenState       OpenState    `json:"openState"`
	OpenAt          *OpenAtSpec  `json:"openAt,omitempty"`
	OpenBetween     *OpenBetweenSpec `json:"openBetween,omitempty"`
	PriceIntent     PriceIntent  `json:"priceIntent,omitempty"`
	PriceLevels     *PriceLevelRange `json:"priceLevels,omitempty"`
	Disclaimers     Disclaimers  `json:"disclaimers"`

	LanguageSource FilterSource `json:"languageSource"`
	RegionSource   FilterSource `json:"regionSource"`
}

// ProviderCallKind tags the ProviderCallPlan union.
type ProviderCallKind string

const (
	CallTextSearch ProviderCallKind = "textsearch"
	CallNearby     ProviderCallKind = "nearby"
	CallLandmark   ProviderCallKind = "landmark"
)

// ProviderCallPlan is the tagged union the route-LLM stage emits. Kind
// selects which fields apply: TextQuery/Bias for textsearch,
// Center/RadiusMeters/Keyword for nearby, GeocodeQuery/RadiusMeters for
// landmark.
type ProviderCallPlan struct {
	Kind ProviderCallKind `json:"kind"`

	TextQuery string `json:"textQuery,omitempty"`
	Bias      *LatLng `json:"bias,omitempty"`

	Center       *LatLng `json:"center,omitempty"`
	RadiusMeters int     `json:"radiusMeters,omitempty"`
	Keyword      string  `json:"keyword,omitempty"`

	GeocodeQuery string `json:"geocodeQuery,omitempty"`

	CityText string   `json:"cityText,omitempty"`
	Language Language `json:"language"`
	Region   string   `json:"region"`
}

// ProviderSlot is one delivery provider's deep-link enrichment state on a
// RestaurantResult.
type ProviderSlot struct {
	Status    ProviderEnrichmentStatus `json:"status"`
	URL       *string                  `json:"url"`
	UpdatedAt *time.Time               `json:"updatedAt,omitempty"`
}

// RestaurantResult is a single ranked candidate returned to the caller.
type RestaurantResult struct {
	PlaceID      string   `json:"placeId"`
	Source       string   `json:"source"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Location     LatLng   `json:"location"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewsCount *int     `json:"reviewsCount,omitempty"`
	PriceLevel   *int     `json:"priceLevel,omitempty"`
	OpenNow      string   `json:"openNow"` // "true" | "false" | "UNKNOWN"
	Tags         []string `json:"tags,omitempty"`
	GoogleMapsURL string  `json:"googleMapsUrl"`
	CuisineScore *float64 `json:"cuisineScore,omitempty"`
	CityMatch    *bool    `json:"cityMatch,omitempty"`
	DistanceKm   *float64 `json:"distanceKm,omitempty"`

	Providers map[DeliveryProvider]ProviderSlot `json:"providers,omitempty"`
}

// Assist carries a non-candidate response: a clarification question or a
// recovery message. An orchestrator result whose Assist.Type is clarify
// or recover carries no candidate results.
type Assist struct {
	Type        AssistType `json:"type"`
	Reason      string     `json:"reason,omitempty"`
	Message     string     `json:"message,omitempty"`
	Question    string     `json:"question,omitempty"`
	Choices     []string   `json:"choices,omitempty"`
	BlocksSearch bool      `json:"blocksSearch,omitempty"`
}

// SubscriptionChannel is the event topic a session subscriber attaches to.
type SubscriptionChannel string

const (
	ChannelSearch    SubscriptionChannel = "search"
	ChannelAssistant SubscriptionChannel = "assistant"
)

// SubscriptionKey identifies a subscription independent of session
// identity. A prior design included sessionId in this key; it was removed
// to prevent cross-request bleed on connection reuse (spec §9).
type SubscriptionKey struct {
	Channel   SubscriptionChannel `json:"channel"`
	RequestID string              `json:"requestId"`
}

// OwnerRecord is stored alongside a job at creation time and used to
// authorize subsequent subscriptions.
type OwnerRecord struct {
	OwnerUserID    string `json:"ownerUserId,omitempty"`
	OwnerSessionID string `json:"ownerSessionId,omitempty"`
}
