// Package simulation is the boundary between the generation loop and the
// flight engine: it turns a configuration into a stability margin plus the
// trajectory and wind series, and persists those series.
package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/flight"
	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

// DefaultStabilityThreshold is the static margin, in calibers, a configuration
// must exceed to be accepted
const DefaultStabilityThreshold = 1.0

// Kind classifies simulation failures
type Kind string

const (
	KindInfeasible Kind = "infeasible" // geometry or inputs the engine cannot fly
	KindEngine     Kind = "engine"     // the flight itself failed
	KindExport     Kind = "export"
)

// Error is a typed failure of one simulation attempt
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("simulation %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the outcome of a successful simulation
type Result struct {
	Margin     float64
	Apogee     float64
	Trajectory []artifact.TrajectorySample
	Wind       []artifact.WindSample
}

// InitialWind returns the wind components at the first sample, or zeros
// when the result carries no wind series
func (r *Result) InitialWind() (float64, float64) {
	if len(r.Wind) == 0 {
		return 0, 0
	}
	return r.Wind[0].VelocityX, r.Wind[0].VelocityY
}

// Adapter drives a simulation engine. Implementations need not be safe for
// concurrent use.
type Adapter interface {
	Simulate(ctx context.Context, c rocket.Configuration) (*Result, error)
	// Export writes the series of r to the given (absolute) paths
	Export(r *Result, paths artifact.Paths) error
}

// Gate decides acceptance from the stability margin
type Gate struct {
	Threshold float64
}

// NewGate creates a gate with the given threshold
func NewGate(threshold float64) Gate {
	return Gate{Threshold: threshold}
}

// Accept reports whether margin strictly exceeds the threshold
func (g Gate) Accept(margin float64) bool {
	return margin > g.Threshold
}

// EngineAdapter runs configurations through the built-in flight engine
type EngineAdapter struct {
	engine *flight.Engine
}

// NewEngineAdapter creates an adapter over engine
func NewEngineAdapter(engine *flight.Engine) *EngineAdapter {
	return &EngineAdapter{engine: engine}
}

// Simulate flies c and returns its margin and series
func (a *EngineAdapter) Simulate(ctx context.Context, c rocket.Configuration) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := a.engine.Fly(c)
	if err != nil {
		return nil, &Error{Kind: classify(err), Err: err}
	}

	return &Result{
		Margin:     f.StaticMargin,
		Apogee:     f.Apogee,
		Trajectory: f.Trajectory,
		Wind:       f.Wind,
	}, nil
}

// Export writes the trajectory and wind files
func (a *EngineAdapter) Export(r *Result, paths artifact.Paths) error {
	if err := artifact.WriteTrajectory(paths.Trajectory, r.Trajectory); err != nil {
		return &Error{Kind: KindExport, Err: err}
	}
	if err := artifact.WriteWind(paths.Wind, r.Wind); err != nil {
		return &Error{Kind: KindExport, Err: err}
	}
	return nil
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, flight.ErrDegenerateGeometry),
		errors.Is(err, flight.ErrUnknownMotor),
		errors.Is(err, flight.ErrUnknownFin),
		errors.Is(err, flight.ErrInvalidTrigger):
		return KindInfeasible
	default:
		return KindEngine
	}
}
