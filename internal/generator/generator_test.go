package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/config"
	"github.com/sebastiankruger/trajectory-dataset/internal/core"
	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
	"github.com/sebastiankruger/trajectory-dataset/internal/sampler"
	"github.com/sebastiankruger/trajectory-dataset/internal/simulation"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

// stubAdapter returns scripted outcomes per simulate call. A nil outcome
// panics, to exercise recovery.
type stubAdapter struct {
	outcomes    func(call int) *outcome
	exportFails func(call int) bool

	simulateCalls int
	exportCalls   int
}

type outcome struct {
	margin float64
	err    error
}

func (s *stubAdapter) Simulate(_ context.Context, _ rocket.Configuration) (*simulation.Result, error) {
	s.simulateCalls++
	o := s.outcomes(s.simulateCalls)
	if o == nil {
		panic("engine exploded")
	}
	if o.err != nil {
		return nil, o.err
	}
	return &simulation.Result{
		Margin: o.margin,
		Trajectory: []artifact.TrajectorySample{
			{Time: 0, Z: 409},
			{Time: 0.1, X: 0.1, Y: 0.2, Z: 411},
		},
		Wind: []artifact.WindSample{
			{Time: 0, Z: 409, VelocityX: 2.5, VelocityY: -1},
			{Time: 0.1, Z: 411, VelocityX: 2.6, VelocityY: -1.1},
		},
	}, nil
}

func (s *stubAdapter) Export(r *simulation.Result, paths artifact.Paths) error {
	s.exportCalls++
	if err := artifact.WriteTrajectory(paths.Trajectory, r.Trajectory); err != nil {
		return err
	}
	if s.exportFails != nil && s.exportFails(s.exportCalls) {
		return errors.New("disk full")
	}
	return artifact.WriteWind(paths.Wind, r.Wind)
}

func always(margin float64) func(int) *outcome {
	return func(int) *outcome { return &outcome{margin: margin} }
}

func script(outcomes ...*outcome) func(int) *outcome {
	return func(call int) *outcome {
		if call > len(outcomes) {
			return &outcome{margin: 2}
		}
		return outcomes[call-1]
	}
}

func newTestGenerator(t *testing.T, adapter simulation.Adapter, seed int64) (*Generator, artifact.Layout) {
	t.Helper()
	layout := artifact.NewLayout(t.TempDir())
	session := NewSession(core.NewRandom(seed))
	smp := sampler.New(config.DefaultSamplingSpace(), session.Random)
	return New(session, smp, adapter, layout, simulation.NewGate(simulation.DefaultStabilityThreshold)), layout
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestGenerateAlwaysStable(t *testing.T) {
	adapter := &stubAdapter{outcomes: always(1.5)}
	g, layout := newTestGenerator(t, adapter, 1)

	table, summary, err := g.Generate(context.Background(), 3, 0)
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	assert.Equal(t, 3, summary.Attempts)
	assert.Equal(t, 3, summary.Successes)
	assert.Zero(t, summary.Failures)

	for i, e := range table.Entries {
		assert.Equal(t, rocket.FormatID(i), e.ID)
		assert.Equal(t, layout.PathsFor(e.ID), e.Paths)
		assert.Equal(t, 2.5, e.InitWindX)
		assert.Equal(t, -1.0, e.InitWindY)
	}

	assert.Equal(t, 3, countFiles(t, filepath.Join(layout.Root, artifact.TrajectoryDir)))
	assert.Equal(t, 3, countFiles(t, filepath.Join(layout.Root, artifact.WindDir)))

	loaded, err := artifact.ReadMaster(layout.MasterPath())
	require.NoError(t, err)
	if diff := cmp.Diff(table.Entries, loaded.Entries); diff != "" {
		t.Errorf("master table mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateAlwaysUnstableHitsAttemptCap(t *testing.T) {
	adapter := &stubAdapter{outcomes: always(0.5)}
	g, layout := newTestGenerator(t, adapter, 2)

	table, summary, err := g.Generate(context.Background(), 3, 25)
	require.ErrorIs(t, err, ErrAttemptLimit)

	require.NotNil(t, table)
	assert.Zero(t, table.Len())
	assert.Equal(t, 25, summary.Attempts)
	assert.Equal(t, 25, summary.Failures)
	assert.Zero(t, adapter.exportCalls)
	assert.Zero(t, countFiles(t, filepath.Join(layout.Root, artifact.TrajectoryDir)))

	// The master table is still written, with no rows
	loaded, err := artifact.ReadMaster(layout.MasterPath())
	require.NoError(t, err)
	assert.Zero(t, loaded.Len())
}

func TestGenerateCountsErrorsPanicsAndRejections(t *testing.T) {
	adapter := &stubAdapter{outcomes: script(
		&outcome{margin: 0.5},
		&outcome{margin: 1.0},
		&outcome{margin: 1.5},
		&outcome{err: &simulation.Error{Kind: simulation.KindInfeasible, Err: errors.New("fins overlap")}},
		nil,
		&outcome{margin: 3},
	)}
	g, _ := newTestGenerator(t, adapter, 3)

	table, summary, err := g.Generate(context.Background(), 2, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 6, summary.Attempts)
	assert.Equal(t, 4, summary.Failures)

	m := summary.Metrics
	assert.Equal(t, 2, m.Failures[ReasonUnstable])
	assert.Equal(t, 2, m.Failures[ReasonSimulation])
	assert.Equal(t, 2, m.Accepted.Count)
	assert.Equal(t, 1.5, m.Accepted.Min)
	assert.Equal(t, 3.0, m.Accepted.Max)
	assert.InDelta(t, 2.25, m.Accepted.Mean(), 1e-12)
	assert.Equal(t, 0.5, m.Rejected.Min)
	assert.Equal(t, 1.0, m.Rejected.Max)
	assert.InDelta(t, 100.0/3, m.AcceptanceRate, 1e-9)
}

func TestGenerateExportFailureKeepsIDsContiguous(t *testing.T) {
	adapter := &stubAdapter{
		outcomes:    always(2),
		exportFails: func(call int) bool { return call == 1 },
	}
	g, layout := newTestGenerator(t, adapter, 4)

	table, summary, err := g.Generate(context.Background(), 2, 0)
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, "rocket_0000", table.Entries[0].ID)
	assert.Equal(t, "rocket_0001", table.Entries[1].ID)
	assert.Equal(t, 3, summary.Attempts)
	assert.Equal(t, 1, summary.Metrics.Failures[ReasonExport])

	// The partial pair of the failed export was removed
	assert.Equal(t, 2, countFiles(t, filepath.Join(layout.Root, artifact.TrajectoryDir)))
	assert.Equal(t, 2, countFiles(t, filepath.Join(layout.Root, artifact.WindDir)))
}

func TestGenerateRepeatedExportFailureIsFatal(t *testing.T) {
	adapter := &stubAdapter{
		outcomes:    always(2),
		exportFails: func(int) bool { return true },
	}
	g, layout := newTestGenerator(t, adapter, 5)

	_, summary, err := g.Generate(context.Background(), 2, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAttemptLimit)
	assert.Equal(t, DefaultMaxExportFailures, summary.Attempts)

	_, statErr := os.Stat(layout.MasterPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateCancelledWritesNoMasterTable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	adapter := &stubAdapter{outcomes: func(call int) *outcome {
		if call == 2 {
			cancel()
		}
		return &outcome{margin: 2}
	}}
	g, layout := newTestGenerator(t, adapter, 6)

	table, _, err := g.Generate(ctx, 5, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, table)

	_, statErr := os.Stat(layout.MasterPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateInterruptedAttemptIsNotCounted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	adapter := &stubAdapter{outcomes: func(call int) *outcome {
		switch call {
		case 1:
			return &outcome{margin: 0.5}
		case 2:
			return &outcome{margin: 2}
		default:
			cancel()
			return &outcome{err: context.Canceled}
		}
	}}
	g, _ := newTestGenerator(t, adapter, 7)

	_, summary, err := g.Generate(ctx, 5, 0)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 2, summary.Attempts)
	assert.Equal(t, 1, summary.Successes)
	failures := 0
	for _, n := range summary.Metrics.Failures {
		failures += n
	}
	assert.Equal(t, summary.Failures, failures)
	assert.Equal(t, 1, summary.Metrics.Failures[ReasonUnstable])
}

func TestGenerateIsReproducibleFromSeed(t *testing.T) {
	run := func() []artifact.Entry {
		g, _ := newTestGenerator(t, &stubAdapter{outcomes: always(2)}, 42)
		table, _, err := g.Generate(context.Background(), 4, 0)
		require.NoError(t, err)
		return table.Entries
	}

	first, second := run(), run()
	configs := func(entries []artifact.Entry) []rocket.Configuration {
		out := make([]rocket.Configuration, len(entries))
		for i, e := range entries {
			out[i] = e.Config
		}
		return out
	}
	if diff := cmp.Diff(configs(first), configs(second)); diff != "" {
		t.Errorf("same seed produced different configurations (-first +second):\n%s", diff)
	}
}

func TestSessionIdentifiers(t *testing.T) {
	a := NewSession(core.NewRandom(1))
	b := NewSession(core.NewRandom(1))
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, int64(1), a.Random.Seed())
}
