// Package flight is a three degree of freedom rocket flight engine: a
// Barrowman static-margin estimate plus a point-mass trajectory integrated
// from rail departure to ground impact.
package flight

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

const (
	bodyDragPowerOn  = 0.45
	bodyDragPowerOff = 0.5
)

// Options tune the integrator
type Options struct {
	Step           float64 // integration step, s
	SampleInterval float64 // spacing of recorded samples, s
	MaxDuration    float64 // flight time cap, s
}

// DefaultOptions returns the integrator settings used for dataset generation
func DefaultOptions() Options {
	return Options{
		Step:           0.01,
		SampleInterval: 0.1,
		MaxDuration:    900,
	}
}

// Flight is the outcome of one simulated launch
type Flight struct {
	StaticMargin float64 // calibers at burnout
	BurnoutTime  float64
	Apogee       float64 // m above sea level
	DeployTime   float64 // 0 when the parachute never deployed
	Trajectory   []artifact.TrajectorySample
	Wind         []artifact.WindSample
}

// Engine flies configurations in a fixed environment
type Engine struct {
	env  Environment
	opts Options
}

// NewEngine creates an engine
func NewEngine(env Environment, opts Options) *Engine {
	return &Engine{
		env:  env,
		opts: opts,
	}
}

type vec3 struct{ x, y, z float64 }

func (a vec3) add(b vec3) vec3 { return vec3{a.x + b.x, a.y + b.y, a.z + b.z} }

func (a vec3) sub(b vec3) vec3 { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }

func (a vec3) scale(k float64) vec3 { return vec3{a.x * k, a.y * k, a.z * k} }

func (a vec3) dot(b vec3) float64 { return a.x*b.x + a.y*b.y + a.z*b.z }

func (a vec3) norm() float64 { return math.Sqrt(a.dot(a)) }

func (a vec3) finite() bool { return isFinite(a.x) && isFinite(a.y) && isFinite(a.z) }

// axpy returns b + k*a
func axpy(k float64, a, b vec3) vec3 { return b.add(a.scale(k)) }

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// state is position relative to the pad (z = height above ground) and velocity
type state struct {
	pos vec3
	vel vec3
}

// phase captures the discrete flight events that change the force model
type phase struct {
	onRail   bool
	deployed bool
	wind     vec3
}

// Fly simulates a configuration. The static margin is computed before the
// trajectory so infeasible geometry fails fast.
func (e *Engine) Fly(c rocket.Configuration) (*Flight, error) {
	motor, err := LookupMotor(c.MotorName)
	if err != nil {
		return nil, err
	}
	margin, err := StaticMargin(c, motor)
	if err != nil {
		return nil, err
	}
	deployAltitude, err := parseTrigger(c.Trigger)
	if err != nil {
		return nil, err
	}

	incl := c.RampInclination * math.Pi / 180
	heading := c.Heading * math.Pi / 180
	rail := vec3{
		x: math.Cos(incl) * math.Sin(heading),
		y: math.Cos(incl) * math.Cos(heading),
		z: math.Sin(incl),
	}

	// Average thrust must beat the weight component along the rail
	liftoffMass := c.Mass + motor.DryMass + motor.PropellantMass()
	if motor.AverageThrust() <= liftoffMass*gravity*rail.z {
		return nil, fmt.Errorf("%w: %.0f N against %.0f N", ErrNoLiftoff, motor.AverageThrust(), liftoffMass*gravity*rail.z)
	}

	area := math.Pi * c.Radius * c.Radius
	wind := e.env.WindForDay(c.Delay)

	accel := func(t float64, s state, ph phase) vec3 {
		mass := c.Mass + motor.DryMass + motor.PropellantRemaining(t)
		altitude := e.env.Elevation + s.pos.z
		rho := Density(altitude)

		airspeed := s.vel.sub(ph.wind)
		speed := airspeed.norm()

		force := vec3{z: -mass * gravity}

		// Thrust follows the rail, then the relative wind
		dir := rail
		if !ph.onRail && speed > 1 {
			dir = airspeed.scale(1 / speed)
		}
		force = axpy(motor.Thrust(t), dir, force)

		cd := bodyDragPowerOff
		if t < motor.BurnTime {
			cd = bodyDragPowerOn
		}
		dragArea := cd * area
		if ph.deployed {
			dragArea += c.DragCoeff
		}
		force = axpy(-0.5*rho*speed*dragArea, airspeed, force)

		a := force.scale(1 / mass)
		if ph.onRail {
			// Constrained to the rail and unable to slide back down
			along := math.Max(a.dot(rail), 0)
			a = rail.scale(along)
		}
		return a
	}

	step := e.opts.Step
	f := &Flight{
		StaticMargin: margin,
		BurnoutTime:  motor.BurnTime,
	}

	var (
		s       state
		t       float64
		ph      = phase{onRail: true}
		nextOut float64
		apogee  = e.env.Elevation
		prev    state
		leftPad bool
	)

	record := func(t float64, s state, w vec3) {
		f.Trajectory = append(f.Trajectory, artifact.TrajectorySample{
			Time: t, X: s.pos.x, Y: s.pos.y, Z: e.env.Elevation + s.pos.z,
		})
		f.Wind = append(f.Wind, artifact.WindSample{
			Time: t, Z: e.env.Elevation + s.pos.z, VelocityX: w.x, VelocityY: w.y,
		})
	}

	for t <= e.opts.MaxDuration {
		wx, wy := wind.Sample(s.pos.z)
		ph.wind = vec3{wx, wy, 0}

		if t >= nextOut-1e-9 {
			record(t, s, ph.wind)
			nextOut += e.opts.SampleInterval
		}

		prev = s
		s = rk4(accel, t, s, ph, step)
		t += step

		if !s.pos.finite() || !s.vel.finite() {
			return nil, fmt.Errorf("%w at t=%.2f s", ErrDiverged, t)
		}

		if ph.onRail {
			if s.pos.norm() >= e.env.RailLength {
				ph.onRail = false
			} else if t >= motor.BurnTime {
				return nil, fmt.Errorf("%w: still on the rail at burnout", ErrNoLiftoff)
			}
		}

		altitude := e.env.Elevation + s.pos.z
		if altitude > apogee {
			apogee = altitude
		}
		// Impact detection is armed only once off the rail and above the pad
		if !ph.onRail && s.pos.z > 0 {
			leftPad = true
		}

		if !ph.deployed && leftPad && t > motor.BurnTime && s.vel.z <= 0 {
			if deployAltitude == nil || s.pos.z <= *deployAltitude {
				ph.deployed = true
				f.DeployTime = t
			}
		}

		// Ground impact: interpolate the last sample onto the ground plane
		if leftPad && s.pos.z <= 0 {
			frac := 1.0
			if prev.pos.z > s.pos.z {
				frac = prev.pos.z / (prev.pos.z - s.pos.z)
			}
			impact := state{
				pos: axpy(frac, s.pos.sub(prev.pos), prev.pos),
				vel: axpy(frac, s.vel.sub(prev.vel), prev.vel),
			}
			impact.pos.z = 0
			record(t-step+frac*step, impact, ph.wind)
			break
		}
	}

	f.Apogee = apogee
	return f, nil
}

func rk4(accel func(float64, state, phase) vec3, t float64, s state, ph phase, h float64) state {
	deriv := func(t float64, s state) state {
		return state{pos: s.vel, vel: accel(t, s, ph)}
	}
	advance := func(s state, d state, k float64) state {
		return state{pos: axpy(k, d.pos, s.pos), vel: axpy(k, d.vel, s.vel)}
	}

	k1 := deriv(t, s)
	k2 := deriv(t+h/2, advance(s, k1, h/2))
	k3 := deriv(t+h/2, advance(s, k2, h/2))
	k4 := deriv(t+h, advance(s, k3, h))

	return state{
		pos: s.pos.add(k1.pos.add(k2.pos.scale(2)).add(k3.pos.scale(2)).add(k4.pos).scale(h / 6)),
		vel: s.vel.add(k1.vel.add(k2.vel.scale(2)).add(k3.vel.scale(2)).add(k4.vel).scale(h / 6)),
	}
}

// parseTrigger returns nil for apogee deployment, or the deployment height
// above ground for a numeric trigger.
func parseTrigger(trigger string) (*float64, error) {
	if trigger == rocket.TriggerApogee {
		return nil, nil
	}
	h, err := strconv.ParseFloat(trigger, 64)
	if err != nil || h < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTrigger, trigger)
	}
	return &h, nil
}

// CheckVocabulary fails on categorical values the engine cannot fly, so a
// sampling space is rejected before any attempt is spent on it.
func CheckVocabulary(v rocket.Vocabulary) error {
	for _, name := range v.Motors {
		if _, ok := Catalog[name]; !ok {
			return fmt.Errorf("%w: %q (available: %s)", ErrUnknownMotor, name, strings.Join(MotorNames(), ", "))
		}
	}
	for _, fin := range v.Fins {
		if fin != rocket.FinTrapezoidal && fin != rocket.FinElliptical {
			return fmt.Errorf("%w: %q", ErrUnknownFin, fin)
		}
	}
	for _, trigger := range v.Triggers {
		if _, err := parseTrigger(trigger); err != nil {
			return err
		}
	}
	return nil
}
