package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomIsReproducibleFromSeed(t *testing.T) {
	a, b := NewRandom(42), NewRandom(42)
	for range 100 {
		assert.Equal(t, a.Uniform(-3, 7), b.Uniform(-3, 7))
		assert.Equal(t, a.UniformInt(0, 9), b.UniformInt(0, 9))
	}
	assert.Equal(t, int64(42), a.Seed())
}

func TestUniformBounds(t *testing.T) {
	r := NewRandom(1)
	for range 1000 {
		v := r.Uniform(2, 5)
		assert.GreaterOrEqual(t, v, 2.0)
		assert.Less(t, v, 5.0)

		n := r.UniformInt(3, 8)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 8)

		// Reversed bounds are swapped
		m := r.UniformInt(8, 3)
		assert.GreaterOrEqual(t, m, 3)
		assert.LessOrEqual(t, m, 8)
	}
}

func TestChoiceCoversAllValues(t *testing.T) {
	r := NewRandom(7)
	seen := map[string]bool{}
	for range 200 {
		seen[Choice(r, []string{"a", "b", "c"})] = true
	}
	assert.Len(t, seen, 3)
}

func TestColoredNoiseState(t *testing.T) {
	r := NewRandom(3)

	// alpha 1 keeps the previous state, which starts at zero
	assert.Zero(t, r.ColoredNoise("k", 10, 1))

	v := r.ColoredNoise("gust", 2, 0.5)
	assert.NotZero(t, v)
	// Each key keeps its own state
	assert.Equal(t, v, r.ColoredNoise("gust", 2, 1))
	assert.Zero(t, r.ColoredNoise("other", 2, 1))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(0.5, 1, 2))
	assert.Equal(t, 2.0, Clamp(3, 1, 2))
	assert.Equal(t, 1.5, Clamp(1.5, 1, 2))
}
