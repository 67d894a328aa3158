// Package region sanitizes ISO-3166-1 alpha-2 region codes. Region is a
// language/market hint only — it must never be treated as a location
// anchor (spec.md §9 "Region vs location").
package region

import "regexp"

var alpha2 = regexp.MustCompile(`^[A-Z]{2}$`)

// Sanitize returns code unchanged if it matches ^[A-Z]{2}$, else "" and
// false. Orchestrator callers drop the field entirely on a false result
// rather than attempting to coerce it (spec.md §4.1 step 2).
func Sanitize(code string) (string, bool) {
	if alpha2.MatchString(code) {
		return code, true
	}
	return "", false
}

// Valid reports whether code is a well-formed alpha-2 region code.
func Valid(code string) bool {
	return alpha2.MatchString(code)
}
