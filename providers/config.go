package providers

import "time"

// PlacesConfig configures the outbound places-search HTTP client.
type PlacesConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// GeocodeConfig configures the outbound geocoding HTTP client.
type GeocodeConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultPlacesConfig returns the places client defaults from the
// Environment Contract (spec.md §6): 5s per-call timeout.
func DefaultPlacesConfig() PlacesConfig {
	return PlacesConfig{
		BaseURL: "https://maps.googleapis.com/maps/api/place",
		Timeout: 5 * time.Second,
	}
}

// DefaultGeocodeConfig returns the geocoding client defaults: 3s per-call
// timeout.
func DefaultGeocodeConfig() GeocodeConfig {
	return GeocodeConfig{
		BaseURL: "https://maps.googleapis.com/maps/api/geocode",
		Timeout: 3 * time.Second,
	}
}
