// Package ranker scores and orders the candidate pool returned by the
// places provider (spec.md §4.4).
package ranker

import (
	"math"
	"sort"

	"github.com/shacharon/grubroute/types"
)

// Profile is one of the five fixed ranking profiles.
type Profile string

const (
	ProfileDistanceHeavy  Profile = "DISTANCE_HEAVY"
	ProfileBalanced       Profile = "BALANCED"
	ProfileCuisineFocused Profile = "CUISINE_FOCUSED"
	ProfileQualityFocused Profile = "QUALITY_FOCUSED"
	ProfileNoLocation     Profile = "NO_LOCATION"
)

// Weights is a feature-weight table; entries must sum to 1.0.
type Weights struct {
	Rating       float64
	Reviews      float64
	Distance     float64
	Open         float64
	CuisineMatch float64
}

var profileWeights = map[Profile]Weights{
	ProfileDistanceHeavy:  {Rating: 0.15, Reviews: 0.10, Distance: 0.50, Open: 0.15, CuisineMatch: 0.10},
	ProfileBalanced:       {Rating: 0.25, Reviews: 0.15, Distance: 0.30, Open: 0.15, CuisineMatch: 0.15},
	ProfileCuisineFocused: {Rating: 0.20, Reviews: 0.10, Distance: 0.20, Open: 0.10, CuisineMatch: 0.40},
	ProfileQualityFocused: {Rating: 0.40, Reviews: 0.25, Distance: 0.15, Open: 0.10, CuisineMatch: 0.10},
	ProfileNoLocation:     {Rating: 0.40, Reviews: 0.25, Distance: 0.00, Open: 0.15, CuisineMatch: 0.20},
}

// SelectProfile applies the selection rule from spec.md §4.4.
func SelectProfile(hasUserLocation bool, hybrid types.HybridFlags) Profile {
	if !hasUserLocation {
		return ProfileNoLocation
	}
	if hybrid.DistanceIntent {
		return ProfileDistanceHeavy
	}
	if hybrid.QualityIntent {
		return ProfileQualityFocused
	}
	if hybrid.CuisineKey != "" {
		return ProfileCuisineFocused
	}
	return ProfileBalanced
}

// Candidate is one pool entry plus the fields the ranker needs beyond
// RestaurantResult's own.
type Candidate struct {
	Result       types.RestaurantResult
	CuisineScore *float64 // overrides Result.CuisineScore when set
}

// Scored is a ranked candidate with its computed features attached for
// observability/debugging.
type Scored struct {
	Result types.RestaurantResult
	Score  float64
}

// Rank scores and sorts candidates under the given profile. distanceKm
// is nil when userLocation is unknown, in which case the distance
// feature contributes 0 regardless of weight.
func Rank(candidates []Candidate, profile Profile) []Scored {
	weights := profileWeights[profile]
	scored := make([]Scored, 0, len(candidates))

	for _, c := range candidates {
		r := c.Result
		rating := normalizeRating(r.Rating)
		reviews := normalizeReviews(r.ReviewsCount)
		distance := normalizeDistance(r.DistanceKm)
		open := normalizeOpen(r.OpenNow)
		cuisine := normalizeCuisine(c.CuisineScore, r.CuisineScore)

		score := weights.Rating*rating +
			weights.Reviews*reviews +
			weights.Distance*distance +
			weights.Open*open +
			weights.CuisineMatch*cuisine

		r.CuisineScore = &cuisine
		scored = append(scored, Scored{Result: r, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		ri, rj := scored[i].Result, scored[j].Result
		ci, cj := 0, 0
		if ri.ReviewsCount != nil {
			ci = *ri.ReviewsCount
		}
		if rj.ReviewsCount != nil {
			cj = *rj.ReviewsCount
		}
		if ci != cj {
			return ci > cj
		}
		return ri.PlaceID < rj.PlaceID
	})

	return scored
}

func normalizeRating(r *float64) float64 {
	if r == nil {
		return 0
	}
	return clamp01(*r / 5.0)
}

func normalizeReviews(n *int) float64 {
	if n == nil || *n <= 0 {
		return 0
	}
	return clamp01(math.Log10(float64(*n)+1) / 5.0)
}

func normalizeDistance(km *float64) float64 {
	if km == nil {
		return 0
	}
	return clamp01(1.0 / (1.0 + *km))
}

func normalizeOpen(openNow string) float64 {
	switch openNow {
	case "true":
		return 1
	case "false":
		return 0
	default:
		return 0.5
	}
}

func normalizeCuisine(override, existing *float64) float64 {
	if override != nil {
		return clamp01(*override)
	}
	if existing != nil {
		return clamp01(*existing)
	}
	return 0.5
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Haversine returns the great-circle distance between two points in km.
func Haversine(a, b types.LatLng) float64 {
	const earthRadiusKm = 6371.0
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}
