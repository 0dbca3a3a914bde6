// Package sampler draws random rocket configurations from a sampling space.
package sampler

import (
	"github.com/sebastiankruger/trajectory-dataset/internal/config"
	"github.com/sebastiankruger/trajectory-dataset/internal/core"
	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

// Sampler draws configurations. Its only side effect is consuming randomness.
type Sampler struct {
	space config.SamplingSpace
	rng   *core.Random
}

// New creates a sampler over space using rng as its random source
func New(space config.SamplingSpace, rng *core.Random) *Sampler {
	return &Sampler{
		space: space,
		rng:   rng,
	}
}

// Space returns the sampling space
func (s *Sampler) Space() config.SamplingSpace {
	return s.space
}

// Sample draws one configuration.
// Dependent fields are drawn after the field they depend on: center of mass
// after body length, inertia after mass, tip chord after root chord.
func (s *Sampler) Sample() rocket.Configuration {
	sp := s.space
	var c rocket.Configuration

	// Body
	c.Radius = s.uniform(sp.Radius)
	c.RocketLength = s.uniform(sp.RocketLength)
	c.ConeLength = s.uniform(sp.ConeLength)

	// Mass and inertia
	c.Mass = s.uniform(sp.Mass)
	c.CenterOfMass = s.rng.Uniform(sp.CenterOfMassMin, c.RocketLength*sp.CenterOfMassMaxFraction)
	transverse := s.rng.Uniform(c.Mass*sp.InertiaTransversePerMass.Min, c.Mass*sp.InertiaTransversePerMass.Max)
	roll := s.rng.Uniform(c.Mass*sp.InertiaRollPerMass.Min, c.Mass*sp.InertiaRollPerMass.Max)
	c.Inertia = rocket.Inertia{I11: transverse, I22: transverse, I33: roll}

	// Fins
	c.NumberOfFins = s.rng.UniformInt(sp.NumberOfFins.Min, sp.NumberOfFins.Max)
	c.RootChord = s.uniform(sp.RootChord)
	c.TipChord = s.rng.Uniform(0, c.RootChord*sp.TipChordMaxFraction)
	c.Span = s.uniform(sp.Span)
	c.FinsPosition = s.uniform(sp.FinsPosition)
	c.FinCant = s.uniform(sp.FinCant)

	// Flight
	c.Delay = s.rng.UniformInt(sp.Delay.Min, sp.Delay.Max)
	c.Heading = s.uniform(sp.Heading)
	c.RampInclination = s.uniform(sp.RampInclination)

	// Recovery
	c.DragCoeff = s.uniform(sp.DragCoeff)

	// Categorical
	c.MotorName = core.Choice(s.rng, sp.Vocabulary.Motors)
	c.FinCategory = core.Choice(s.rng, sp.Vocabulary.Fins)
	c.Trigger = core.Choice(s.rng, sp.Vocabulary.Triggers)

	return c
}

func (s *Sampler) uniform(r config.Range) float64 {
	return s.rng.Uniform(r.Min, r.Max)
}
