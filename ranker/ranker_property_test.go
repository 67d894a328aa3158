package ranker

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/shacharon/grubroute/types"
)

// TestProperty_WeightsSumToOne holds across every profile, not just the
// fixed table entries already covered in ranker_test.go: any profile
// SelectProfile can return must come back with weights summing to 1.0.
func TestProperty_WeightsSumToOne(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	profiles := []Profile{ProfileDistanceHeavy, ProfileBalanced, ProfileCuisineFocused, ProfileQualityFocused, ProfileNoLocation}

	properties.Property("every profile's weights sum to 1.0", prop.ForAll(
		func(idx int) bool {
			w := profileWeights[profiles[idx%len(profiles)]]
			total := w.Rating + w.Reviews + w.Distance + w.Open + w.CuisineMatch
			return total > 0.9999 && total < 1.0001
		},
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// TestProperty_ScoreStaysInUnitRange holds for arbitrary rating/review/
// distance/cuisine inputs, including out-of-range ratings and negative
// distances a provider response could plausibly send. Inputs are drawn
// as integers and scaled, since every feature normalizer clamps to
// [0,1] regardless of how far out of range the raw value is.
func TestProperty_ScoreStaysInUnitRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	profiles := []Profile{ProfileDistanceHeavy, ProfileBalanced, ProfileCuisineFocused, ProfileQualityFocused, ProfileNoLocation}
	openStates := []string{"true", "false", "unknown"}

	properties.Property("Rank's score is always within [0,1]", prop.ForAll(
		func(profileIdx, ratingTenths, reviews, distanceTenths, cuisineHundredths, openIdx int) bool {
			profile := profiles[profileIdx%len(profiles)]
			rating := float64(ratingTenths) / 10.0
			distance := float64(distanceTenths) / 10.0
			cuisine := float64(cuisineHundredths) / 100.0

			candidates := []Candidate{{
				Result: types.RestaurantResult{
					PlaceID:      "p1",
					Rating:       &rating,
					ReviewsCount: &reviews,
					DistanceKm:   &distance,
					OpenNow:      openStates[openIdx%len(openStates)],
				},
				CuisineScore: &cuisine,
			}}

			scored := Rank(candidates, profile)
			s := scored[0].Score
			return s >= -0.0001 && s <= 1.0001
		},
		gen.IntRange(0, 1000),
		gen.IntRange(-100, 100),
		gen.IntRange(-5, 10000),
		gen.IntRange(-500, 500),
		gen.IntRange(-200, 200),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
