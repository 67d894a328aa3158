package orchestrator

import (
	"sort"

	"github.com/shacharon/grubroute/ranker"
	"github.com/shacharon/grubroute/types"
)

const (
	cityNearRadiusKm    = 10.0
	citySuburbRadiusKm  = 20.0
	minCityResults      = 5
)

// filterByCity applies the Haversine city filter from spec.md §4.1 step
// 10: results within cityNearRadiusKm are kept outright, results within
// citySuburbRadiusKm are kept as "nearby suburbs" unless strict, and
// anything farther is dropped. When fewer than minCityResults survive,
// the closest dropped candidates are promoted back in as a fallback
// unless strict mode is requested.
func filterByCity(results []types.RestaurantResult, centroid types.LatLng, strict bool) []types.RestaurantResult {
	type scored struct {
		result     types.RestaurantResult
		distanceKm float64
	}

	all := make([]scored, len(results))
	for i, r := range results {
		all[i] = scored{result: r, distanceKm: ranker.Haversine(centroid, r.Location)}
	}

	var kept, dropped []scored
	for _, s := range all {
		d := s.distanceKm
		switch {
		case d <= cityNearRadiusKm:
			kept = append(kept, s)
		case d <= citySuburbRadiusKm && !strict:
			kept = append(kept, s)
		default:
			dropped = append(dropped, s)
		}
	}

	if len(kept) < minCityResults && !strict {
		sort.Slice(dropped, func(i, j int) bool { return dropped[i].distanceKm < dropped[j].distanceKm })
		need := minCityResults - len(kept)
		for i := 0; i < need && i < len(dropped); i++ {
			kept = append(kept, dropped[i])
		}
	}

	out := make([]types.RestaurantResult, len(kept))
	for i, s := range kept {
		dist := s.distanceKm
		match := s.distanceKm <= cityNearRadiusKm
		out[i] = s.result
		out[i].DistanceKm = &dist
		out[i].CityMatch = &match
	}
	return out
}
