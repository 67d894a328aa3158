package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shacharon/grubroute/types"
)

func f(v float64) *float64 { return &v }
func n(v int) *int         { return &v }

func TestSelectProfile(t *testing.T) {
	assert.Equal(t, ProfileNoLocation, SelectProfile(false, types.HybridFlags{}))
	assert.Equal(t, ProfileDistanceHeavy, SelectProfile(true, types.HybridFlags{DistanceIntent: true}))
	assert.Equal(t, ProfileQualityFocused, SelectProfile(true, types.HybridFlags{QualityIntent: true}))
	assert.Equal(t, ProfileCuisineFocused, SelectProfile(true, types.HybridFlags{CuisineKey: "italian"}))
	assert.Equal(t, ProfileBalanced, SelectProfile(true, types.HybridFlags{}))
}

func TestProfileWeightsSumToOne(t *testing.T) {
	for profile, w := range profileWeights {
		total := w.Rating + w.Reviews + w.Distance + w.Open + w.CuisineMatch
		assert.InDelta(t, 1.0, total, 0.0001, "profile %s weights must sum to 1.0", profile)
	}
}

func TestRank_OrdersByScoreDescending(t *testing.T) {
	candidates := []Candidate{
		{Result: types.RestaurantResult{PlaceID: "low", Rating: f(2), ReviewsCount: n(5), OpenNow: "false"}},
		{Result: types.RestaurantResult{PlaceID: "high", Rating: f(5), ReviewsCount: n(500), OpenNow: "true"}},
	}

	scored := Rank(candidates, ProfileBalanced)
	assert.Equal(t, "high", scored[0].Result.PlaceID)
	assert.Equal(t, "low", scored[1].Result.PlaceID)
}

func TestRank_TieBreakByReviewsThenPlaceID(t *testing.T) {
	candidates := []Candidate{
		{Result: types.RestaurantResult{PlaceID: "zzz", Rating: f(4), ReviewsCount: n(10)}},
		{Result: types.RestaurantResult{PlaceID: "aaa", Rating: f(4), ReviewsCount: n(10)}},
	}

	scored := Rank(candidates, ProfileBalanced)
	assert.Equal(t, "aaa", scored[0].Result.PlaceID)
	assert.Equal(t, "zzz", scored[1].Result.PlaceID)
}

func TestRank_FeaturesAreClampedToUnitRange(t *testing.T) {
	assert.Equal(t, 1.0, normalizeRating(f(10)))
	assert.Equal(t, 0.0, normalizeRating(nil))
	assert.Equal(t, 0.5, normalizeOpen("unknown"))
	assert.Equal(t, 1.0, normalizeOpen("true"))
	assert.Equal(t, 0.0, normalizeOpen("false"))
	assert.Equal(t, 0.0, normalizeDistance(nil))
}

func TestHaversine_ZeroForSamePoint(t *testing.T) {
	p := types.LatLng{Lat: 32.0853, Lng: 34.7818}
	assert.InDelta(t, 0.0, Haversine(p, p), 0.0001)
}

func TestHaversine_KnownDistance(t *testing.T) {
	telAviv := types.LatLng{Lat: 32.0853, Lng: 34.7818}
	jerusalem := types.LatLng{Lat: 31.7683, Lng: 35.2137}
	km := Haversine(telAviv, jerusalem)
	assert.InDelta(t, 54, km, 5)
}
