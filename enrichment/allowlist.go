// Package enrichment resolves a verified deep-link per delivery provider
// for each ranked result: cache-first lookup, per-key dedup lock,
// bounded per-provider FIFO queue, progressive-relaxation web search,
// host/path validation, and patch publication (spec.md §4.7-4.9).
package enrichment

import (
	"strings"

	"github.com/shacharon/grubroute/types"
)

// allowlist is one provider's "verified deep-link" definition: the
// primary host (used as the site: operator root and exact/wildcard-
// suffix match target) and the required path segment a candidate URL
// must contain.
type allowlist struct {
	PrimaryHost string
	Hosts       []string // exact or "*.suffix" wildcard
	PathSegment string
}

var providerAllowlists = map[types.DeliveryProvider]allowlist{
	types.ProviderWolt: {
		PrimaryHost: "wolt.com",
		Hosts:       []string{"wolt.com", "*.wolt.com"},
		PathSegment: "/restaurant/",
	},
	types.ProviderTenBis: {
		PrimaryHost: "10bis.co.il",
		Hosts:       []string{"10bis.co.il", "*.10bis.co.il"},
		PathSegment: "/next/",
	},
	types.ProviderMishloha: {
		PrimaryHost: "mishloha.co.il",
		Hosts:       []string{"mishloha.co.il", "*.mishloha.co.il"},
		PathSegment: "/now/r/",
	},
}

func allowlistFor(provider types.DeliveryProvider) (allowlist, bool) {
	a, ok := providerAllowlists[provider]
	return a, ok
}

// hostAllowed reports whether host matches one of the allowlist's exact
// or wildcard-suffix entries.
func hostAllowed(host string, a allowlist) bool {
	host = strings.ToLower(host)
	for _, pattern := range a.Hosts {
		if strings.HasPrefix(pattern, "*.") {
			suffix := pattern[1:] // keep the leading dot
			if strings.HasSuffix(host, suffix) || host == pattern[2:] {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}

// pathAllowed reports whether path contains the provider's required
// segment.
func pathAllowed(path string, a allowlist) bool {
	return strings.Contains(path, a.PathSegment)
}
