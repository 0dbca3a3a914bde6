package flight

import (
	"fmt"
	"math"
	"sort"
)

// Motor describes a solid motor. Positions are measured from the nozzle,
// which sits at the tail of the rocket.
type Motor struct {
	Name          string
	DryMass       float64 // kg
	BurnTime      float64 // s
	TotalImpulse  float64 // N*s
	NozzleRadius  float64 // m
	ThroatRadius  float64 // m
	GrainNumber   int
	GrainDensity  float64 // kg/m^3
	GrainOuter    float64 // outer radius, m
	GrainInner    float64 // initial inner radius, m
	GrainHeight   float64 // m
	GrainSpacing  float64 // m
	DryCoM        float64 // center of dry mass, m
	GrainsCoM     float64 // center of mass of the grains, m
	rampFraction  float64
	averageThrust float64
}

// Catalog lists the motors the engine can fly, keyed by name
var Catalog = map[string]Motor{
	"Pro54-5G Barasinga": newMotor(Motor{
		Name:         "Pro54-5G Barasinga",
		DryMass:      0.65,
		BurnTime:     3.59,
		TotalImpulse: 2060,
		NozzleRadius: 37.4 / 2 / 1000,
		ThroatRadius: 31.8 / 2 / 1000,
		GrainNumber:  5,
		GrainDensity: 1815,
		GrainOuter:   22.5 / 1000,
		GrainInner:   15.0 / 1000,
		GrainHeight:  80.0 / 1000,
		GrainSpacing: 5.0 / 1000,
		DryCoM:       0.248,
		GrainsCoM:    0.241,
	}),
	"Pro75-3G": newMotor(Motor{
		Name:         "Pro75-3G",
		DryMass:      1.638,
		BurnTime:     4.68,
		TotalImpulse: 3300,
		NozzleRadius: 47.62 / 2 / 1000,
		ThroatRadius: 79.32 / 2 / 1000,
		GrainNumber:  3,
		GrainDensity: 1815,
		GrainOuter:   10.0 / 1000,
		GrainInner:   5.0 / 1000,
		GrainHeight:  30.0 / 1000,
		GrainSpacing: 2.0 / 1000,
		DryCoM:       0.243,
		GrainsCoM:    0.243,
	}),
	"Pro24-6G": newMotor(Motor{
		Name:         "Pro24-6G",
		DryMass:      0.0843,
		BurnTime:     1.01,
		TotalImpulse: 143,
		NozzleRadius: 23.8 / 2 / 1000,
		ThroatRadius: 35.4 / 2 / 1000,
		GrainNumber:  6,
		GrainDensity: 1815,
		GrainOuter:   22.5 / 1000,
		GrainInner:   15.0 / 1000,
		GrainHeight:  80.0 / 1000,
		GrainSpacing: 5.0 / 1000,
		DryCoM:       0.114,
		GrainsCoM:    0.114,
	}),
	"Pro75M1670": newMotor(Motor{
		Name:         "Pro75M1670",
		DryMass:      1.815,
		BurnTime:     3.9,
		TotalImpulse: 6026,
		NozzleRadius: 33.0 / 1000,
		ThroatRadius: 11.0 / 1000,
		GrainNumber:  5,
		GrainDensity: 1815,
		GrainOuter:   33.0 / 1000,
		GrainInner:   15.0 / 1000,
		GrainHeight:  120.0 / 1000,
		GrainSpacing: 5.0 / 1000,
		DryCoM:       0.317,
		GrainsCoM:    0.397,
	}),
}

func newMotor(m Motor) Motor {
	m.rampFraction = 0.05
	m.averageThrust = m.TotalImpulse / m.BurnTime
	return m
}

// LookupMotor returns the catalog entry for name
func LookupMotor(name string) (Motor, error) {
	m, ok := Catalog[name]
	if !ok {
		return Motor{}, fmt.Errorf("%w: %q", ErrUnknownMotor, name)
	}
	return m, nil
}

// MotorNames returns the catalog names in sorted order
func MotorNames() []string {
	names := make([]string, 0, len(Catalog))
	for name := range Catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PropellantMass returns the initial grain mass
func (m Motor) PropellantMass() float64 {
	annulus := math.Pi * (m.GrainOuter*m.GrainOuter - m.GrainInner*m.GrainInner)
	return float64(m.GrainNumber) * m.GrainDensity * annulus * m.GrainHeight
}

// AverageThrust returns total impulse divided by burn time
func (m Motor) AverageThrust() float64 {
	return m.averageThrust
}

// Thrust returns the thrust at time t using a trapezoidal curve with the
// catalog's total impulse: linear ramps at ignition and burnout around a plateau.
func (m Motor) Thrust(t float64) float64 {
	if t < 0 || t >= m.BurnTime {
		return 0
	}
	ramp := m.BurnTime * m.rampFraction
	peak := m.averageThrust / (1 - m.rampFraction)

	switch {
	case t < ramp:
		return peak * t / ramp
	case t > m.BurnTime-ramp:
		return peak * (m.BurnTime - t) / ramp
	default:
		return peak
	}
}

// PropellantRemaining returns the grain mass left at time t,
// assuming mass flow proportional to the thrust curve.
func (m Motor) PropellantRemaining(t float64) float64 {
	total := m.PropellantMass()
	if t <= 0 {
		return total
	}
	if t >= m.BurnTime {
		return 0
	}
	return total * (1 - m.impulseUntil(t)/m.TotalImpulse)
}

// impulseUntil integrates the trapezoidal thrust curve from ignition to t
func (m Motor) impulseUntil(t float64) float64 {
	ramp := m.BurnTime * m.rampFraction
	peak := m.averageThrust / (1 - m.rampFraction)

	if t <= ramp {
		return 0.5 * peak * t * t / ramp
	}
	impulse := 0.5 * peak * ramp
	plateauEnd := m.BurnTime - ramp
	if t <= plateauEnd {
		return impulse + peak*(t-ramp)
	}
	impulse += peak * (plateauEnd - ramp)
	remaining := m.BurnTime - t
	return impulse + 0.5*peak*ramp - 0.5*peak*remaining*remaining/ramp
}
