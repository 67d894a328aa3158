package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNormalize_EmptyFallsBackToRestaurant(t *testing.T) {
	assert.Equal(t, "restaurant", Normalize("", zap.NewNop()))
}

func TestNormalize_ExactMatch(t *testing.T) {
	assert.Equal(t, "steakhouse", Normalize("meat restaurant", zap.NewNop()))
}

func TestNormalize_LatinPassthrough(t *testing.T) {
	assert.Equal(t, "ramen", Normalize("ramen", zap.NewNop()))
}

func TestNormalize_NonLatinRecovers(t *testing.T) {
	assert.Equal(t, "sushi", Normalize("סושי", zap.NewNop()))
}

func TestNormalize_NonLatinRecoveryFailsFallsBackToRestaurant(t *testing.T) {
	assert.Equal(t, "restaurant", Normalize("未知食品", zap.NewNop()))
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, canonical := range []string{"", "meat restaurant", "ramen", "סושי", "未知食品"} {
		once := Normalize(canonical, zap.NewNop())
		twice := Normalize(once, zap.NewNop())
		assert.Equal(t, once, twice, "normalize(normalize(%q)) should equal normalize(%q)", canonical, canonical)
	}
}

func TestNormalize_NeverReturnsNonLatin(t *testing.T) {
	for _, canonical := range []string{"סושי", "未知食品", "мясной"} {
		assert.True(t, isLatinOnly(Normalize(canonical, zap.NewNop())))
	}
}
