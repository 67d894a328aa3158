// Package postfilter applies the deterministic post-constraints stage
// (spec.md §4.1 step 11): openState resolved from provider-reported
// status and the region's local time, priceLevelRange resolved from the
// price intent through a fixed level table. Unlike gate/intent/route this stage never
// calls the model — every rule is a fixed lookup.
package postfilter

import (
	"time"

	"github.com/shacharon/grubroute/types"
)

// priceBand gives a region's cheap/mid/expensive cutoffs in local
// currency units (spec.md: IL 50/100/180; US/EU 15/30/50). Only the
// table's keys are read, to decide whether a region is known; the cutoff
// values themselves do not enter priceLevelRangeFor's result.
type priceBand struct {
	cheapMax, midMax, expensiveMax int
}

var regionPriceBands = map[string]priceBand{
	"IL": {cheapMax: 50, midMax: 100, expensiveMax: 180},
	"US": {cheapMax: 15, midMax: 30, expensiveMax: 50},
	"EU": {cheapMax: 15, midMax: 30, expensiveMax: 50},
}

const defaultPriceBandRegion = "US"

// Apply computes PostConstraints deterministically from the hybrid
// entity flags, the region code the shared filters resolved, and the
// provider-reported open/closed status of the candidate being filtered.
// providerOpenNow is "true", "false", or "UNKNOWN" as returned on
// types.RestaurantResult.OpenNow; regionNow is the current time already
// converted to the region's local timezone.
func Apply(hybrid types.HybridFlags, region string, providerOpenNow string, regionNow time.Time) types.PostConstraints {
	pc := types.PostConstraints{
		OpenState: resolveOpenState(hybrid, providerOpenNow, regionNow),
	}

	if hybrid.PriceIntent != "" && hybrid.PriceIntent != types.PriceAny {
		pc.PriceLevelRange = priceLevelRangeFor(region, hybrid.PriceIntent)
	}

	return pc
}

func resolveOpenState(hybrid types.HybridFlags, providerOpenNow string, regionNow time.Time) types.OpenState {
	if !hybrid.OpenNowRequested {
		return types.OpenStateNone
	}
	switch providerOpenNow {
	case "true":
		return types.OpenStateOpenNow
	case "false":
		return types.OpenStateClosedNow
	default:
		// Provider status unknown: fall back to the region-local hour
		// only to record whether "now" falls in a plausible dining
		// window, never to assert a definitive open/closed verdict.
		hour := regionNow.Hour()
		if hour >= 6 && hour < 23 {
			return types.OpenStateOpenNow
		}
		return types.OpenStateClosedNow
	}
}

// priceLevelRangeFor maps a qualitative price intent to a 1-4 level
// range: cheap is level 1, mid is level 2, expensive is levels 3-4. The
// mapping is the same for every region; the region's currency cutoffs
// are not applied.
func priceLevelRangeFor(region string, intent types.PriceIntent) *types.PriceLevelRange {
	if _, ok := regionPriceBands[region]; !ok {
		region = defaultPriceBandRegion
	}

	switch intent {
	case types.PriceCheap:
		return &types.PriceLevelRange{Min: 1, Max: 1}
	case types.PriceMid:
		return &types.PriceLevelRange{Min: 2, Max: 2}
	case types.PriceExpensive:
		return &types.PriceLevelRange{Min: 3, Max: 4}
	default:
		return nil
	}
}
