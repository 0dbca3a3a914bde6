package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

func testEntry(n int) Entry {
	id := rocket.FormatID(n)
	return Entry{
		ID: id,
		Config: rocket.Configuration{
			Delay:           n,
			Heading:         10 * float64(n),
			RampInclination: 85,
			MotorName:       "Pro54-5G Barasinga",
			Radius:          0.07,
			Mass:            12,
			Inertia:         rocket.Inertia{I11: 9, I22: 9, I33: 0.03},
			CenterOfMass:    1.1,
			ConeLength:      0.3,
			RocketLength:    2.2,
			FinCategory:     rocket.FinElliptical,
			NumberOfFins:    4,
			RootChord:       0.4,
			TipChord:        0.1,
			Span:            0.2,
			FinsPosition:    0.05,
			FinCant:         0.2,
			DragCoeff:       1.2,
			Trigger:         rocket.TriggerApogee,
		},
		InitWindX: 1.5,
		InitWindY: -0.25,
		Paths:     NewLayout("").PathsFor(id),
	}
}

func TestLayoutPaths(t *testing.T) {
	layout := NewLayout("/data")
	p := layout.PathsFor("rocket_0007")
	assert.Equal(t, filepath.Join("trajectories", "rocket_0007_trajectory.csv"), p.Trajectory)
	assert.Equal(t, filepath.Join("wind", "rocket_0007_wind.csv"), p.Wind)
	assert.Equal(t, filepath.Join("/data", p.Trajectory), layout.Abs(p.Trajectory))
	assert.Equal(t, "/abs/file.csv", layout.Abs("/abs/file.csv"))
}

func TestTrajectoryFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traj.csv")
	samples := []TrajectorySample{
		{Time: 0, X: 0, Y: 0, Z: 409},
		{Time: 0.1, X: 0.01, Y: -0.02, Z: 410.5},
		{Time: 0.2, X: 0.05, Y: -0.08, Z: 414.25},
	}
	require.NoError(t, WriteTrajectory(path, samples))

	loaded, err := ReadTrajectory(path)
	require.NoError(t, err)
	assert.Equal(t, samples, loaded)

	// No temp files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadTrajectoryAcceptsLabelledHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traj.csv")
	content := "# Time (s), X (m), Y (m), Z (m)\n0,1,2,3\n0.5,1.5,2.5,3.5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := ReadTrajectory(path)
	require.NoError(t, err)
	assert.Equal(t, []TrajectorySample{{0, 1, 2, 3}, {0.5, 1.5, 2.5, 3.5}}, loaded)
}

func TestReadTrajectoryCorrupt(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.csv")
	_, err := ReadTrajectory(missing)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("time,x,y,z\n0,1,oops,3\n"), 0o644))
	_, err = ReadTrajectory(bad)
	assert.Error(t, err)

	noColumn := filepath.Join(dir, "nocol.csv")
	require.NoError(t, os.WriteFile(noColumn, []byte("time,x,y\n0,1,2\n"), 0o644))
	_, err = ReadTrajectory(noColumn)
	assert.ErrorContains(t, err, `missing column "z"`)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ReadTrajectory(empty)
	assert.Error(t, err)
}

func TestWindFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wind.csv")
	samples := []WindSample{{Time: 0, Z: 409, VelocityX: 2, VelocityY: -1}, {Time: 1, Z: 500, VelocityX: 2.5, VelocityY: -1.2}}
	require.NoError(t, WriteWind(path, samples))

	loaded, err := ReadWind(path)
	require.NoError(t, err)
	assert.Equal(t, samples, loaded)
}

func TestMasterTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), MasterFileName)
	table := &MasterTable{}
	for i := 0; i < 3; i++ {
		table.Append(testEntry(i))
	}
	require.NoError(t, WriteMaster(path, table))

	loaded, err := ReadMaster(path)
	require.NoError(t, err)
	require.Equal(t, 3, loaded.Len())
	assert.Equal(t, table.Entries, loaded.Entries)
}

func TestMasterHeaderOrder(t *testing.T) {
	header := MasterHeader()
	assert.Equal(t, rocket.ColDelay, header[0])
	assert.Equal(t, []string{ColRocketID, ColInitWindX, ColInitWindY, ColTrajectoryFile, ColWindFile}, header[len(header)-5:])
}

func TestReadMasterRejectsMissingIndexColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), MasterFileName)
	require.NoError(t, os.WriteFile(path, []byte("delay,heading\n1,2\n"), 0o644))

	_, err := ReadMaster(path)
	assert.ErrorContains(t, err, "rocket_id")
}

func TestLayoutRemoveIgnoresMissing(t *testing.T) {
	layout := NewLayout(t.TempDir())
	require.NoError(t, layout.Prepare())

	p := layout.PathsFor("rocket_0000")
	require.NoError(t, WriteTrajectory(layout.Abs(p.Trajectory), []TrajectorySample{{Time: 0}}))
	require.NoError(t, layout.Remove(p))

	_, err := os.Stat(layout.Abs(p.Trajectory))
	assert.True(t, os.IsNotExist(err))
}
