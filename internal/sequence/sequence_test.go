package sequence

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastiankruger/trajectory-dataset/internal/dataset"
	"github.com/sebastiankruger/trajectory-dataset/internal/features"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

func tables(t *testing.T, x, y []float64, segments dataset.Segments) (*features.FeatureTable, *features.TargetTable) {
	t.Helper()
	ft, err := dataset.NewTable(&dataset.Column{Name: "f", Type: dataset.Float64, F64: x})
	require.NoError(t, err)
	ft.Segments = segments
	tt, err := dataset.NewTable(&dataset.Column{Name: "x", Type: dataset.Float64, F64: y})
	require.NoError(t, err)
	tt.Segments = segments
	return &features.FeatureTable{Table: ft}, &features.TargetTable{Table: tt}
}

func oneSegment(n int) dataset.Segments {
	return dataset.Segments{{SimulationID: 0, Start: 0, Len: n}}
}

func TestSplitIsChronological(t *testing.T) {
	train, err := Split(10, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 8, train)

	train, err = Split(7, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 5, train)

	train, err = Split(5, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, train)

	_, err = Split(5, 1)
	assert.Error(t, err)
}

func TestFiveRowsWindowThree(t *testing.T) {
	feats, targets := tables(t, []float64{0, 1, 2, 3, 4}, []float64{10, 20, 30, 40, 50}, oneSegment(5))

	ds, err := MakeWindows(feats, targets, Options{WindowSize: 3, TestFraction: 0})
	require.NoError(t, err)

	require.Equal(t, 2, ds.Train.Count)
	assert.Zero(t, ds.Test.Count)
	assert.Len(t, ds.Train.X, 2*3*1)
	assert.Len(t, ds.Train.Y, 2)

	scale := func(v float64, s *Scaler) float32 { return float32((v - s.Mean[0]) / s.Scale[0]) }
	for k := 0; k < 2; k++ {
		input := ds.Train.Input(k)
		for r := 0; r < 3; r++ {
			assert.Equal(t, scale(float64(k+r), ds.FeatureScaler), input[r][0])
		}
		assert.Equal(t, scale(float64(10*(k+4)), ds.TargetScaler), ds.Train.Target(k)[0])
	}

	assert.InDelta(t, 40, ds.TargetScaler.Inverse([]float64{float64(ds.Train.Target(0)[0])})[0], 1e-4)
}

func TestScalerFitOnTrainOnly(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	y := []float64{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}
	feats, targets := tables(t, x, y, oneSegment(10))
	a, err := MakeWindows(feats, targets, Options{WindowSize: 2, TestFraction: 0.2})
	require.NoError(t, err)

	mutatedX := append([]float64(nil), x...)
	mutatedY := append([]float64(nil), y...)
	mutatedX[8], mutatedX[9] = 1e6, -1e6
	mutatedY[9] = 42
	feats, targets = tables(t, mutatedX, mutatedY, oneSegment(10))
	b, err := MakeWindows(feats, targets, Options{WindowSize: 2, TestFraction: 0.2})
	require.NoError(t, err)

	assert.Equal(t, a.FeatureScaler, b.FeatureScaler)
	assert.Equal(t, a.TargetScaler, b.TargetScaler)

	mean, std := 4.5, math.Sqrt(5.25)
	assert.InDelta(t, mean, a.FeatureScaler.Mean[0], 1e-12)
	assert.InDelta(t, std, a.FeatureScaler.Scale[0], 1e-12)
	assert.Equal(t, 8, a.TrainRows)
	assert.Equal(t, 2, a.TestRows)
}

func TestConstantColumnScale(t *testing.T) {
	s, err := FitScaler([][]float64{{3, 3, 3}}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, s.Mean)
	assert.Equal(t, []float64{1}, s.Scale)

	_, err = FitScaler([][]float64{{1}}, 0)
	assert.Error(t, err)
}

func TestStraddlingWindows(t *testing.T) {
	segs := dataset.Segments{{SimulationID: 0, Start: 0, Len: 3}, {SimulationID: 1, Start: 3, Len: 3}}
	x := []float64{0, 1, 3, 10, 12, 15}

	feats, targets := tables(t, x, x, segs)
	whole, err := MakeWindows(feats, targets, Options{WindowSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, whole.Train.Count)
	assert.Equal(t, 2, whole.Train.Straddling)

	perSim, err := MakeWindows(feats, targets, Options{WindowSize: 2, PerSimulation: true})
	require.NoError(t, err)
	assert.Equal(t, 2, perSim.Train.Count)
	assert.Zero(t, perSim.Train.Straddling)

	// The second per-simulation window starts at the second block
	assert.Equal(t, whole.Train.Input(3), perSim.Train.Input(1))
}

func TestPartitionsWindowIndependently(t *testing.T) {
	n := 20
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	feats, targets := tables(t, x, x, oneSegment(n))

	ds, err := MakeWindows(feats, targets, Options{WindowSize: 3, TestFraction: 0.25})
	require.NoError(t, err)
	assert.Equal(t, 15, ds.TrainRows)
	assert.Equal(t, 12, ds.Train.Count)
	assert.Equal(t, 2, ds.Test.Count)

	// First test window starts at the first test row
	first := ds.FeatureScaler.Inverse([]float64{float64(ds.Test.Input(0)[0][0])})
	assert.InDelta(t, 15, first[0], 1e-4)
}

func TestMakeWindowsRejectsBadInput(t *testing.T) {
	feats, targets := tables(t, []float64{1, 2, 3}, []float64{1, 2, 3}, oneSegment(3))

	_, err := MakeWindows(feats, targets, Options{WindowSize: 0})
	assert.Error(t, err)

	feats.Segments = oneSegment(2)
	_, err = MakeWindows(feats, targets, Options{WindowSize: 1})
	assert.ErrorContains(t, err, "segmentation")
}

func TestWriteDataset(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	feats, targets := tables(t, x, x, oneSegment(10))
	ds, err := MakeWindows(feats, targets, Options{WindowSize: 3, TestFraction: 0.2})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "prepared")
	require.NoError(t, ds.Write(dir))

	m, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, m.WindowSize)
	assert.Equal(t, []string{"f"}, m.Features)
	assert.Equal(t, []string{"x"}, m.Targets)
	assert.Equal(t, ds.Train.Count, m.Train.Windows)
	assert.Equal(t, ds.FeatureScaler, m.FeatureScaler)

	trainX, err := ReadFloat32s(filepath.Join(dir, m.Train.XFile))
	require.NoError(t, err)
	assert.Equal(t, ds.Train.X, trainX)

	testY, err := ReadFloat32s(filepath.Join(dir, m.Test.YFile))
	require.NoError(t, err)
	assert.Len(t, testY, ds.Test.Count)
}
