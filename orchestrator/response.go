package orchestrator

import "github.com/shacharon/grubroute/types"

// pipelineVersion is bumped whenever the staged algorithm's observable
// behavior changes in a way a client might care about.
const pipelineVersion = "1.0.0"

// initialVisible and pageIncrement are the default/step sizes named in
// spec.md §4.4 and §6.
const (
	initialVisible = 10
	pageIncrement  = 5
	maxVisible     = 20
)

// Timings is meta.timingsMs: per-stage wall-clock duration in
// milliseconds, plus the request total.
type Timings struct {
	GateMs       int64 `json:"gate"`
	IntentMs     int64 `json:"intent"`
	RouteLLMMs   int64 `json:"routeLlm"`
	ProviderMs   int64 `json:"provider"`
	PostFilterMs int64 `json:"postFilter"`
	RankMs       int64 `json:"rank"`
	TotalMs      int64 `json:"total"`
}

// Pagination is meta.pagination: how much of the ranked pool was
// fetched versus exposed to the caller in this response.
type Pagination struct {
	FetchedCount   int `json:"fetchedCount"`
	ReturnedCount  int `json:"returnedCount"`
	AvailableCount int `json:"availableCount"`
	NextIncrement  int `json:"nextIncrement"`
	MaxVisible     int `json:"maxVisible"`
}

// Meta is the response envelope's diagnostic half: the pipeline run's
// provenance, timings, and pagination window.
type Meta struct {
	Source         string              `json:"source"`
	PipelineVersion string             `json:"pipelineVersion"`
	FailureReason  types.FailureReason `json:"failureReason"`
	Timings        Timings             `json:"timingsMs"`
	Pagination     Pagination          `json:"pagination"`
	RegionSource   types.FilterSource  `json:"regionSource"`
	LanguageSource types.FilterSource  `json:"languageSource"`
}

// Response is the orchestrator's full output: a ranked, paginated slice
// of candidates, the non-result Assist channel, and diagnostic Meta.
type Response struct {
	Results []types.RestaurantResult `json:"results"`
	Assist  types.Assist             `json:"assist"`
	Meta    Meta                     `json:"meta"`
}

// paginate trims a ranked pool down to the initial visible window and
// reports how much more is available behind nextIncrement.
func paginate(ranked []types.RestaurantResult) ([]types.RestaurantResult, Pagination) {
	fetched := len(ranked)
	returned := fetched
	if returned > initialVisible {
		returned = initialVisible
	}
	return ranked[:returned], Pagination{
		FetchedCount:   fetched,
		ReturnedCount:  returned,
		AvailableCount: fetched,
		NextIncrement:  pageIncrement,
		MaxVisible:     maxVisible,
	}
}
