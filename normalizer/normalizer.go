// Package normalizer maps a classifier's canonical cuisine/category
// string into the free-text query the places provider actually prefers,
// and recovers from non-Latin canonical values a classifier occasionally
// emits (spec.md §4.3).
package normalizer

import (
	"go.uber.org/zap"
)

// canonicalToProvider maps a canonical category to the provider-preferred
// search term. Entries absent here pass through unchanged when Latin-only.
var canonicalToProvider = map[string]string{
	"meat restaurant":  "steakhouse",
	"meat":             "steakhouse",
	"dairy restaurant": "dairy restaurant",
	"hummus":           "hummus restaurant",
	"vegetarian":       "vegetarian restaurant",
	"vegan":            "vegan restaurant",
	"pizza":            "pizza restaurant",
	"burger":           "burger restaurant",
	"seafood":          "seafood restaurant",
	"italian":          "italian restaurant",
	"asian":            "asian restaurant",
	"chinese":          "chinese restaurant",
	"cafe":             "cafe",
	"bakery":           "bakery",
	"bar":              "bar",
}

// nonLatinToCanonical recovers a canonical term from a non-Latin token
// the classifier sometimes returns verbatim instead of translating.
var nonLatinToCanonical = map[string]string{
	// Hebrew
	"בשרי":    "meat restaurant",
	"בשר":     "meat restaurant",
	"חלבי":    "dairy restaurant",
	"חומוס":   "hummus",
	"צמחוני":  "vegetarian",
	"טבעוני":  "vegan",
	"סושי":    "sushi",
	"פיצה":    "pizza",
	"המבורגר": "burger",
	"דגים":    "seafood",
	"איטלקי":  "italian",
	// Russian
	"мясной":      "meat restaurant",
	"вегетарианский": "vegetarian",
	"суши":        "sushi",
	"пицца":       "pizza",
}

// Normalize converts a canonical category into the provider-preferred
// query string. It is idempotent and never returns a non-Latin string
// (spec.md §8 testable property).
func Normalize(canonical string, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}
	return normalize(canonical, logger, true)
}

func normalize(canonical string, logger *zap.Logger, allowRecover bool) string {
	if canonical == "" {
		return "restaurant"
	}

	if mapped, ok := canonicalToProvider[canonical]; ok {
		return mapped
	}

	if isLatinOnly(canonical) {
		return canonical
	}

	if !allowRecover {
		logger.Warn("normalizer_recovery_failed", zap.String("canonical", canonical))
		return "restaurant"
	}

	recovered, ok := nonLatinToCanonical[canonical]
	if !ok {
		logger.Warn("normalizer_recovery_failed", zap.String("canonical", canonical))
		return "restaurant"
	}

	logger.Info("normalizer_recovery", zap.String("matchType", "exact"), zap.String("from", canonical), zap.String("to", recovered))
	return normalize(recovered, logger, false)
}

func isLatinOnly(s string) bool {
	for _, r := range s {
		if r == ' ' || (r >= '0' && r <= '9') || r == '-' || r == '\'' {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		return false
	}
	return true
}
