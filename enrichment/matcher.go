package enrichment

import (
	"regexp"
	"strings"
)

// matchThreshold is the minimum score for a candidate to count as FOUND
// (spec.md §4.9 worker step 3).
const matchThreshold = 50

var (
	possessivePattern  = regexp.MustCompile(`['’]s\b`)
	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	commonSuffixes     = []string{"restaurant", "bar", "cafe", "grill", "bbq"}
)

// normalizeName lower-cases, strips punctuation, and removes common
// business-name suffixes so "Tony's Pizza Bar!" and "tony pizza" match.
func normalizeName(name string) string {
	n := strings.ToLower(name)
	n = possessivePattern.ReplaceAllString(n, "")
	n = punctuationPattern.ReplaceAllString(n, "")
	n = strings.Join(strings.Fields(n), " ")
	for _, suffix := range commonSuffixes {
		n = strings.TrimSpace(strings.TrimSuffix(n, " "+suffix))
	}
	return n
}

// score applies the spec's fixed point scheme: +50 if the title
// contains the normalized name, +20 if the snippet does, +30 if either
// contains the normalized city.
func score(c candidate, normalizedName, normalizedCity string) int {
	title := strings.ToLower(c.Title)
	snippet := strings.ToLower(c.Snippet)

	total := 0
	if normalizedName != "" && strings.Contains(title, normalizedName) {
		total += 50
	}
	if normalizedName != "" && strings.Contains(snippet, normalizedName) {
		total += 20
	}
	if normalizedCity != "" && (strings.Contains(title, normalizedCity) || strings.Contains(snippet, normalizedCity)) {
		total += 30
	}
	return total
}

// pickBest scores every candidate and returns the highest scorer, tie-
// broken by earliest rank. found is false when the winner's score falls
// below matchThreshold.
func pickBest(candidates []candidate, name, city string) (candidate, bool) {
	if len(candidates) == 0 {
		return candidate{}, false
	}

	normalizedName := normalizeName(name)
	normalizedCity := normalizeName(city)

	bestIdx := 0
	bestScore := score(candidates[0], normalizedName, normalizedCity)
	for i := 1; i < len(candidates); i++ {
		s := score(candidates[i], normalizedName, normalizedCity)
		if s > bestScore {
			bestScore = s
			bestIdx = i
		}
	}

	return candidates[bestIdx], bestScore >= matchThreshold
}
