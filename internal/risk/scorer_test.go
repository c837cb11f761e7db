package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockScorer_DeterministicWithFixedSeed(t *testing.T) {
	ctx := context.Background()

	first := NewMockScorer(42)
	second := NewMockScorer(42)

	for i := 0; i < 10; i++ {
		a, err := first.Score(ctx, "any")
		require.NoError(t, err)
		b, err := second.Score(ctx, "any")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestMockScorer_FactorsMatchLevel(t *testing.T) {
	scorer := NewMockScorer(1)
	ctx := context.Background()

	seen := make(map[Level]bool)
	for i := 0; i < 50; i++ {
		assessment, err := scorer.Score(ctx, "any")
		require.NoError(t, err)
		seen[assessment.Level] = true
		assert.Equal(t, FactorsFor(assessment.Level), assessment.Factors)
	}

	// 50 draws hit every level with overwhelming probability.
	assert.Len(t, seen, 3)
}

func TestFactorsFor(t *testing.T) {
	assert.Len(t, FactorsFor(LevelHigh), 3)
	assert.Len(t, FactorsFor(LevelMedium), 2)
	assert.Equal(t, []string{"No significant issues detected"}, FactorsFor(LevelLow))
	assert.Empty(t, FactorsFor(Level("Unknown")))
}

func TestFactorsFor_ReturnsCopy(t *testing.T) {
	factors := FactorsFor(LevelLow)
	factors[0] = "mutated"

	assert.Equal(t, []string{"No significant issues detected"}, FactorsFor(LevelLow))
}
