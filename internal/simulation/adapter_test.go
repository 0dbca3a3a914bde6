package simulation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/flight"
	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

func TestGateAcceptsOnlyAboveThreshold(t *testing.T) {
	gate := NewGate(DefaultStabilityThreshold)

	tests := []struct {
		margin float64
		want   bool
	}{
		{0.5, false},
		{1.0, false},
		{1.5, true},
		{-3, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gate.Accept(tt.margin), "margin %.2f", tt.margin)
	}
}

func testRocket() rocket.Configuration {
	return rocket.Configuration{
		Delay:           1,
		Heading:         120,
		RampInclination: 84,
		MotorName:       "Pro54-5G Barasinga",
		Radius:          0.07,
		Mass:            12,
		Inertia:         rocket.Inertia{I11: 9, I22: 9, I33: 0.03},
		CenterOfMass:    1.4,
		ConeLength:      0.3,
		RocketLength:    2.2,
		FinCategory:     rocket.FinTrapezoidal,
		NumberOfFins:    4,
		RootChord:       0.4,
		TipChord:        0.2,
		Span:            0.2,
		FinsPosition:    0,
		DragCoeff:       1.2,
		Trigger:         rocket.TriggerApogee,
	}
}

func newAdapter() *EngineAdapter {
	return NewEngineAdapter(flight.NewEngine(flight.DefaultEnvironment(), flight.DefaultOptions()))
}

func TestEngineAdapterSimulateAndExport(t *testing.T) {
	adapter := newAdapter()

	res, err := adapter.Simulate(context.Background(), testRocket())
	require.NoError(t, err)
	assert.True(t, NewGate(DefaultStabilityThreshold).Accept(res.Margin))
	require.NotEmpty(t, res.Trajectory)

	wx, wy := res.InitialWind()
	assert.Equal(t, res.Wind[0].VelocityX, wx)
	assert.Equal(t, res.Wind[0].VelocityY, wy)

	dir := t.TempDir()
	paths := artifact.Paths{
		Trajectory: filepath.Join(dir, "t.csv"),
		Wind:       filepath.Join(dir, "w.csv"),
	}
	require.NoError(t, adapter.Export(res, paths))

	traj, err := artifact.ReadTrajectory(paths.Trajectory)
	require.NoError(t, err)
	assert.Len(t, traj, len(res.Trajectory))
}

func TestEngineAdapterTypedFailures(t *testing.T) {
	adapter := newAdapter()

	c := testRocket()
	c.Radius = 0
	_, err := adapter.Simulate(context.Background(), c)

	var simErr *Error
	require.True(t, errors.As(err, &simErr))
	assert.Equal(t, KindInfeasible, simErr.Kind)
	assert.ErrorIs(t, err, flight.ErrDegenerateGeometry)

	c = testRocket()
	c.MotorName = "Pro24-6G"
	c.Mass = 100
	_, err = adapter.Simulate(context.Background(), c)
	require.True(t, errors.As(err, &simErr))
	assert.Equal(t, KindEngine, simErr.Kind)
}

func TestEngineAdapterExportFailure(t *testing.T) {
	adapter := newAdapter()
	res := &Result{Trajectory: []artifact.TrajectorySample{{Time: 0}}}

	missing := filepath.Join(t.TempDir(), "absent", "t.csv")
	err := adapter.Export(res, artifact.Paths{Trajectory: missing, Wind: missing})

	var simErr *Error
	require.True(t, errors.As(err, &simErr))
	assert.Equal(t, KindExport, simErr.Kind)
}

func TestEngineAdapterHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAdapter().Simulate(ctx, testRocket())
	assert.ErrorIs(t, err, context.Canceled)
}
