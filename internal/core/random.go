package core

import (
	"math/rand"
	"time"
)

// Random is the single source of randomness for a generation session.
// It is not safe for concurrent use; the generation loop is sequential.
type Random struct {
	rng  *rand.Rand
	seed int64

	// State for colored/correlated noise
	coloredNoiseState map[string]float64
}

// NewRandom creates a random source from an explicit seed
func NewRandom(seed int64) *Random {
	return &Random{
		rng:               rand.New(rand.NewSource(seed)),
		seed:              seed,
		coloredNoiseState: make(map[string]float64),
	}
}

// NewRandomFromClock creates a random source seeded from the wall clock.
// The chosen seed is available through Seed so a run can be reproduced.
func NewRandomFromClock() *Random {
	return NewRandom(time.Now().UnixNano())
}

// Seed returns the seed this source was created with
func (r *Random) Seed() int64 {
	return r.seed
}

// Uniform returns a uniform random value in [min, max)
func (r *Random) Uniform(min, max float64) float64 {
	return min + r.rng.Float64()*(max-min)
}

// UniformInt returns a uniform random integer in [min, max]
func (r *Random) UniformInt(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + r.rng.Intn(max-min+1)
}

// Choice returns a uniformly selected element of choices.
// Panics on an empty slice, like rand.Intn.
func Choice[T any](r *Random, choices []T) T {
	return choices[r.rng.Intn(len(choices))]
}

// ColoredNoise generates noise with temporal correlation (smooth transitions)
// alpha: smoothing factor (0 = pure white noise, 1 = constant value)
func (r *Random) ColoredNoise(key string, scale, alpha float64) float64 {
	prevState := r.coloredNoiseState[key]

	whiteNoise := r.rng.NormFloat64() * scale

	// Apply exponential smoothing
	newState := alpha*prevState + (1-alpha)*whiteNoise
	r.coloredNoiseState[key] = newState

	return newState
}

// Clamp ensures a value is within bounds
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
