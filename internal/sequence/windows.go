// Package sequence scales the feature and target tables, splits them
// chronologically and slices each partition into fixed-length windows.
package sequence

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/trajectory-dataset/internal/dataset"
	"github.com/sebastiankruger/trajectory-dataset/internal/features"
)

// Options control windowing
type Options struct {
	WindowSize   int
	TestFraction float64
	// PerSimulation restricts windows to a single simulation. When false the
	// partition is windowed as one sequence and windows may straddle two
	// simulations; those are counted and reported.
	PerSimulation bool
}

// DefaultOptions mirrors the reference training setup
func DefaultOptions() Options {
	return Options{
		WindowSize:   30,
		TestFraction: 0.2,
	}
}

// Windows are the windowed arrays of one partition, row-major float32:
// X has Count*WindowSize*Features values, Y has Count*Targets.
type Windows struct {
	Count      int
	WindowSize int
	Features   int
	Targets    int
	Straddling int

	X []float32
	Y []float32
}

// Input returns window k as WindowSize rows of Features values
func (w *Windows) Input(k int) [][]float32 {
	rows := make([][]float32, w.WindowSize)
	base := k * w.WindowSize * w.Features
	for r := range rows {
		start := base + r*w.Features
		rows[r] = w.X[start : start+w.Features]
	}
	return rows
}

// Target returns the target row of window k
func (w *Windows) Target(k int) []float32 {
	return w.Y[k*w.Targets : (k+1)*w.Targets]
}

// Dataset is the output of the sequencer
type Dataset struct {
	FeatureNames  []string
	TargetNames   []string
	Options       Options
	TrainRows     int
	TestRows      int
	FeatureScaler *Scaler
	TargetScaler  *Scaler
	Train         *Windows
	Test          *Windows
}

// Split returns the number of training rows for n rows: the last
// ceil(testFraction*n) rows form the test partition.
func Split(n int, testFraction float64) (int, error) {
	if testFraction < 0 || testFraction >= 1 {
		return 0, fmt.Errorf("test fraction %.3f outside [0, 1)", testFraction)
	}
	test := int(math.Ceil(testFraction * float64(n)))
	return n - test, nil
}

// MakeWindows fits scalers on the training partition, scales both
// partitions with them and windows each partition independently.
func MakeWindows(feats *features.FeatureTable, targets *features.TargetTable, opts Options) (*Dataset, error) {
	n := feats.Len()
	if targets.Len() != n {
		return nil, fmt.Errorf("features have %d rows, targets %d", n, targets.Len())
	}
	if opts.WindowSize < 1 {
		return nil, fmt.Errorf("invalid window size %d", opts.WindowSize)
	}
	if err := feats.Segments.Validate(n); err != nil {
		return nil, fmt.Errorf("invalid segmentation: %w", err)
	}

	train, err := Split(n, opts.TestFraction)
	if err != nil {
		return nil, err
	}
	if train < 1 {
		return nil, fmt.Errorf("no training rows out of %d", n)
	}

	x, err := numericColumns(feats.Table)
	if err != nil {
		return nil, err
	}
	y, err := numericColumns(targets.Table)
	if err != nil {
		return nil, err
	}

	xScaler, err := FitScaler(x, train)
	if err != nil {
		return nil, fmt.Errorf("failed to fit feature scaler: %w", err)
	}
	yScaler, err := FitScaler(y, train)
	if err != nil {
		return nil, fmt.Errorf("failed to fit target scaler: %w", err)
	}
	xs := xScaler.Transform(x)
	ys := yScaler.Transform(y)

	ds := &Dataset{
		FeatureNames:  feats.Names(),
		TargetNames:   targets.Names(),
		Options:       opts,
		TrainRows:     train,
		TestRows:      n - train,
		FeatureScaler: xScaler,
		TargetScaler:  yScaler,
	}
	ds.Train = window(xs, ys, 0, train, feats.Segments.Slice(0, train), opts)
	ds.Test = window(xs, ys, train, n, feats.Segments.Slice(train, n), opts)

	if straddling := ds.Train.Straddling + ds.Test.Straddling; straddling > 0 {
		log.Warn().
			Int("windows", straddling).
			Msg("Windows span two simulations; enable per-simulation windowing to exclude them")
	}
	log.Info().
		Int("train_rows", ds.TrainRows).
		Int("test_rows", ds.TestRows).
		Int("train_windows", ds.Train.Count).
		Int("test_windows", ds.Test.Count).
		Int("window", opts.WindowSize).
		Bool("per_simulation", opts.PerSimulation).
		Msg("Built windows")

	return ds, nil
}

func numericColumns(t *dataset.Table) ([][]float64, error) {
	out := make([][]float64, len(t.Columns))
	for i, c := range t.Columns {
		if !c.Type.Numeric() {
			return nil, fmt.Errorf("column %q is not numeric", c.Name)
		}
		out[i] = c.Floats()
	}
	return out, nil
}

// window slices rows [from, to) of the scaled columns. segments are relative
// to from. A window starting at i covers rows [i, i+size) and targets row i+size.
func window(x, y [][]float64, from, to int, segments dataset.Segments, opts Options) *Windows {
	size := opts.WindowSize
	w := &Windows{
		WindowSize: size,
		Features:   len(x),
		Targets:    len(y),
	}

	// Segment index per partition row
	owner := make([]int, to-from)
	for k, seg := range segments {
		for r := seg.Start; r < seg.End(); r++ {
			owner[r] = k
		}
	}

	emit := func(i int) {
		for r := i; r < i+size; r++ {
			for _, col := range x {
				w.X = append(w.X, float32(col[from+r]))
			}
		}
		for _, col := range y {
			w.Y = append(w.Y, float32(col[from+i+size]))
		}
		w.Count++
	}

	if opts.PerSimulation {
		for _, seg := range segments {
			for i := seg.Start; i < seg.End()-size; i++ {
				emit(i)
			}
		}
		return w
	}

	for i := 0; i < to-from-size; i++ {
		if owner[i] != owner[i+size] {
			w.Straddling++
		}
		emit(i)
	}
	return w
}
