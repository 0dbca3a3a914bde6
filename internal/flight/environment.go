package flight

import (
	"math"

	"github.com/sebastiankruger/trajectory-dataset/internal/core"
)

const (
	gravity          = 9.80665 // m/s^2
	seaLevelDensity  = 1.225   // kg/m^3
	densityScaleH    = 8500.0  // m
	windReferenceAlt = 10.0    // m above ground
	windShearExp     = 1.0 / 7.0
	windCeiling      = 10000.0 // m above ground, profile is constant above
)

// Environment describes the launch site. The weather of each launch day is
// derived from Seed and the day offset, so a configuration always flies in
// the same wind.
type Environment struct {
	Elevation  float64 // m above sea level
	RailLength float64 // m
	Seed       int64
}

// DefaultEnvironment returns the reference launch site
func DefaultEnvironment() Environment {
	return Environment{
		Elevation:  409,
		RailLength: 5.2,
		Seed:       20240611,
	}
}

// Density returns air density at altitude above sea level
func Density(altitude float64) float64 {
	return seaLevelDensity * math.Exp(-altitude/densityScaleH)
}

// WindField is the wind of one launch day: a reference speed and direction
// at 10 m, a power-law shear profile, veer with height and colored gusts.
type WindField struct {
	ReferenceSpeed float64 // m/s
	Direction      float64 // radians, direction the wind blows towards, from north clockwise
	VeerPerKm      float64 // radians per km of height

	gusts *core.Random
}

// WindForDay builds the wind field of a launch day
func (e Environment) WindForDay(delay int) *WindField {
	rng := core.NewRandom(e.Seed + int64(delay)*7919)
	return &WindField{
		ReferenceSpeed: rng.Uniform(0.5, 8),
		Direction:      rng.Uniform(0, 2*math.Pi),
		VeerPerKm:      rng.Uniform(-0.3, 0.3),
		gusts:          rng,
	}
}

// Mean returns the steady wind components (east, north) at height h above ground
func (w *WindField) Mean(h float64) (float64, float64) {
	h = core.Clamp(h, 0, windCeiling)
	speed := w.ReferenceSpeed * math.Pow(math.Max(h, 1)/windReferenceAlt, windShearExp)
	dir := w.Direction + w.VeerPerKm*h/1000
	return speed * math.Sin(dir), speed * math.Cos(dir)
}

// Sample returns the wind at height h including a gust component.
// Gust state advances on every call.
func (w *WindField) Sample(h float64) (float64, float64) {
	x, y := w.Mean(h)
	scale := 0.1 * w.ReferenceSpeed
	return x + w.gusts.ColoredNoise("x", scale, 0.9), y + w.gusts.ColoredNoise("y", scale, 0.9)
}
