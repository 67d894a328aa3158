// Package langdetect implements the majority-script language heuristic
// used to pin a query's language before any classifier runs (spec.md
// §4.1 step 1). No library in the example corpus performs script-
// histogram detection, so this is a small self-contained algorithm over
// Unicode code-point ranges rather than an adaptation of a pack file.
package langdetect

import "strings"

// Language mirrors types.Language without importing it, so this package
// stays a leaf with zero internal dependencies.
type Language string

const (
	Hebrew  Language = "he"
	English Language = "en"
	Russian Language = "ru"
	Arabic  Language = "ar"
	Unknown Language = "unknown"
)

// scriptShareThreshold is the minimum share of classified code points a
// script must hold to win (spec.md §4.1: "share ≥ 60%").
const scriptShareThreshold = 0.6

// Detect applies the majority-script heuristic: lower-case the query,
// count code points per script among {Hebrew, Cyrillic, Arabic, Latin},
// and pick the script whose share of all *classified* code points is at
// least 60%. Ties are broken by declaration order he > ru > ar > en.
// Returns Unknown when no script reaches the threshold.
func Detect(query string) Language {
	lower := strings.ToLower(query)

	var hebrew, cyrillic, arabic, latin int
	for _, r := range lower {
		switch {
		case isHebrew(r):
			hebrew++
		case isCyrillic(r):
			cyrillic++
		case isArabic(r):
			arabic++
		case isLatin(r):
			latin++
		}
	}

	total := hebrew + cyrillic + arabic + latin
	if total == 0 {
		return Unknown
	}

	type candidate struct {
		lang  Language
		count int
	}
	// Declaration order he > ru > ar > en breaks ties among scripts with
	// an equal share at or above threshold.
	candidates := []candidate{
		{Hebrew, hebrew},
		{Russian, cyrillic},
		{Arabic, arabic},
		{English, latin},
	}

	for _, c := range candidates {
		if float64(c.count)/float64(total) >= scriptShareThreshold {
			return c.lang
		}
	}
	return Unknown
}

func isHebrew(r rune) bool {
	return r >= 0x0590 && r <= 0x05FF
}

func isArabic(r rune) bool {
	return r >= 0x0600 && r <= 0x06FF
}

func isCyrillic(r rune) bool {
	return r >= 0x0400 && r <= 0x04FF
}

func isLatin(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 0x00C0 && r <= 0x024F)
}
