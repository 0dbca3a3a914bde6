package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastiankruger/trajectory-dataset/internal/config"
	"github.com/sebastiankruger/trajectory-dataset/internal/core"
	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

func within(t *testing.T, name string, v float64, r config.Range) {
	t.Helper()
	assert.GreaterOrEqual(t, v, r.Min, name)
	assert.LessOrEqual(t, v, r.Max, name)
}

func TestSampleRespectsRanges(t *testing.T) {
	space := config.DefaultSamplingSpace()
	s := New(space, core.NewRandom(7))

	for i := 0; i < 500; i++ {
		c := s.Sample()

		within(t, "radius", c.Radius, space.Radius)
		within(t, "rocket_length", c.RocketLength, space.RocketLength)
		within(t, "cone_length", c.ConeLength, space.ConeLength)
		within(t, "mass", c.Mass, space.Mass)
		within(t, "span", c.Span, space.Span)
		within(t, "heading", c.Heading, space.Heading)
		within(t, "ramp_inclination", c.RampInclination, space.RampInclination)
		within(t, "drag_coeff", c.DragCoeff, space.DragCoeff)

		// Center of mass depends on the sampled body length
		assert.GreaterOrEqual(t, c.CenterOfMass, space.CenterOfMassMin)
		assert.LessOrEqual(t, c.CenterOfMass, c.RocketLength*space.CenterOfMassMaxFraction)

		// Tip chord depends on the sampled root chord
		assert.GreaterOrEqual(t, c.TipChord, 0.0)
		assert.LessOrEqual(t, c.TipChord, c.RootChord*space.TipChordMaxFraction)

		// Inertia depends on the sampled mass
		assert.Equal(t, c.Inertia.I11, c.Inertia.I22)
		assert.GreaterOrEqual(t, c.Inertia.I11, c.Mass*space.InertiaTransversePerMass.Min)
		assert.LessOrEqual(t, c.Inertia.I33, c.Mass*space.InertiaRollPerMass.Max)

		assert.GreaterOrEqual(t, c.NumberOfFins, space.NumberOfFins.Min)
		assert.LessOrEqual(t, c.NumberOfFins, space.NumberOfFins.Max)
		assert.GreaterOrEqual(t, c.Delay, space.Delay.Min)
		assert.LessOrEqual(t, c.Delay, space.Delay.Max)

		assert.True(t, space.Vocabulary.Contains(rocket.ColMotorName, c.MotorName))
		assert.True(t, space.Vocabulary.Contains(rocket.ColFinCategory, c.FinCategory))
		assert.True(t, space.Vocabulary.Contains(rocket.ColTrigger, c.Trigger))
	}
}

func TestSampleIsReproducibleFromSeed(t *testing.T) {
	space := config.DefaultSamplingSpace()
	a := New(space, core.NewRandom(99))
	b := New(space, core.NewRandom(99))

	for i := 0; i < 20; i++ {
		require.Equal(t, a.Sample(), b.Sample())
	}
}

func TestSampleCoversCategories(t *testing.T) {
	space := config.DefaultSamplingSpace()
	s := New(space, core.NewRandom(1))

	seen := make(map[string]bool)
	for i := 0; i < 300; i++ {
		seen[s.Sample().MotorName] = true
	}
	for _, motor := range space.Vocabulary.Motors {
		assert.True(t, seen[motor], "motor %s never sampled", motor)
	}
}
