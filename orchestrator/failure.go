package orchestrator

import "github.com/shacharon/grubroute/types"

// stageError tags which internal fault occurred, letting detectFailure
// apply the precedence table in spec.md §4.10 without re-deriving it
// from raw error values.
type stageError string

const (
	errNone            stageError = ""
	errTimeout         stageError = "TIMEOUT"
	errQuotaExceeded   stageError = "QUOTA_EXCEEDED"
	errProviderFailure stageError = "PROVIDER_ERROR"
	errGeocodingFailed stageError = "GEOCODING_FAILED"
)

// failureInputs carries everything detectFailure needs to apply the
// precedence table deterministically.
type failureInputs struct {
	explicit          stageError
	geocodeFailed     bool
	resultCount       int
	intentConfidence  float64
	requiresLiveData  bool
	top3OpenUnknown   bool
}

// detectFailure applies the precedence order from spec.md §4.10:
// explicit error, then geocoding, then no-results, then low-confidence,
// then live-data-unavailable, then weak-matches, else none.
func detectFailure(in failureInputs) types.FailureReason {
	switch in.explicit {
	case errTimeout:
		return types.FailureTimeout
	case errQuotaExceeded:
		return types.FailureQuotaExceeded
	case errGeocodingFailed:
		return types.FailureGeocodingFailed
	case errProviderFailure:
		return types.FailureProviderError
	}

	if in.geocodeFailed {
		return types.FailureGeocodingFailed
	}

	if in.resultCount == 0 {
		return types.FailureNoResults
	}

	if in.intentConfidence < 0.5 {
		return types.FailureLowConfidence
	}

	if in.requiresLiveData && in.top3OpenUnknown {
		return types.FailureLiveDataUnavailable
	}

	if in.resultCount < 3 && in.intentConfidence < 0.7 {
		return types.FailureWeakMatches
	}

	return types.FailureNone
}

// top3OpenUnknown reports whether every one of the first up-to-3 ranked
// results has an unresolved open/closed status.
func top3OpenUnknown(results []types.RestaurantResult) bool {
	n := len(results)
	if n > 3 {
		n = 3
	}
	if n == 0 {
		return false
	}
	for i := 0; i < n; i++ {
		if results[i].OpenNow != "UNKNOWN" {
			return false
		}
	}
	return true
}
