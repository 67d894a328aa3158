package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSelect_PrefersBraveWhenBothConfigured(t *testing.T) {
	p := Select(BraveConfig{APIKey: "brave-key"}, GoogleCSEConfig{APIKey: "g-key", SearchEngineID: "cx"}, zap.NewNop())
	assert.Equal(t, "brave", p.Name())
}

func TestSelect_FallsBackToGoogleCSEWhenNoBrave(t *testing.T) {
	p := Select(BraveConfig{}, GoogleCSEConfig{APIKey: "g-key", SearchEngineID: "cx"}, zap.NewNop())
	assert.Equal(t, "google_cse", p.Name())
}

func TestSelect_NilWhenNeitherConfigured(t *testing.T) {
	p := Select(BraveConfig{}, GoogleCSEConfig{}, zap.NewNop())
	assert.Nil(t, p)
}

func TestSelect_GoogleCSERequiresBothKeyAndEngineID(t *testing.T) {
	p := Select(BraveConfig{}, GoogleCSEConfig{APIKey: "g-key"}, zap.NewNop())
	assert.Nil(t, p)
}
