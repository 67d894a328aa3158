package search

import (
	"go.uber.org/zap"

	"github.com/shacharon/grubroute/enrichment"
)

// Select builds the preferred SearchProvider from whichever engine has
// credentials configured: Brave first, Google CSE as fallback, nil if
// neither — with a nil provider the resolver runs no search and returns
// enrichment.ErrNoSearchProvider.
func Select(brave BraveConfig, google GoogleCSEConfig, logger *zap.Logger) enrichment.SearchProvider {
	if brave.APIKey != "" {
		return NewBraveClient(brave, logger)
	}
	if google.APIKey != "" && google.SearchEngineID != "" {
		return NewGoogleCSEClient(google, logger)
	}
	return nil
}
