// Package search wraps the web-search engines the enrichment resolver
// drives: Brave Search (preferred) and Google Custom Search (fallback).
// Neither is required — a Resolver built with no SearchProvider runs no
// search and returns ErrNoSearchProvider, so its jobs end NOT_FOUND.
package search

import "time"

// BraveConfig configures the Brave Search API client.
type BraveConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// GoogleCSEConfig configures the Google Programmable Search client.
type GoogleCSEConfig struct {
	APIKey         string
	SearchEngineID string
	BaseURL        string
	Timeout        time.Duration
}

// DefaultBraveConfig returns the Brave client's defaults.
func DefaultBraveConfig() BraveConfig {
	return BraveConfig{BaseURL: "https://api.search.brave.com/res/v1/web/search", Timeout: 5 * time.Second}
}

// DefaultGoogleCSEConfig returns the Google CSE client's defaults.
func DefaultGoogleCSEConfig() GoogleCSEConfig {
	return GoogleCSEConfig{BaseURL: "https://www.googleapis.com/customsearch/v1", Timeout: 5 * time.Second}
}
