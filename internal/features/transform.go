// Package features turns the assembled table into model inputs and targets:
// identifier columns are dropped, categoricals one-hot encoded against a
// fixed vocabulary, and velocity/acceleration derived per simulation block.
package features

import (
	"fmt"
	"math"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/dataset"
	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

// OptimizedFileName is the file the feature table is written to
const OptimizedFileName = "dataset_tensorflow_optimized.csv"

// Derived kinematic columns, in feature order
var (
	VelocityColumns     = []string{"vx", "vy", "vz"}
	AccelerationColumns = []string{"ax", "ay", "az"}
)

// TargetColumns are the position components predicted by the model
var TargetColumns = []string{dataset.ColX, dataset.ColY, dataset.ColZ}

// ExcludedColumns never become features
var ExcludedColumns = []string{artifact.ColRocketID, dataset.ColSimulationID, rocket.ColDelay}

// Options control the transform
type Options struct {
	Vocabulary rocket.Vocabulary
	Downcast   bool
}

// DefaultOptions encodes against the default vocabulary and downcasts
func DefaultOptions() Options {
	return Options{
		Vocabulary: rocket.DefaultVocabulary(),
		Downcast:   true,
	}
}

// FeatureTable holds model inputs; its segments match the assembled table
type FeatureTable struct {
	*dataset.Table
}

// TargetTable holds the position targets row-aligned with the features
type TargetTable struct {
	*dataset.Table
}

// Transform splits an assembled table into features and targets
func Transform(t *dataset.Table, opts Options) (*FeatureTable, *TargetTable, error) {
	if err := t.Segments.Validate(t.Len()); err != nil {
		return nil, nil, fmt.Errorf("invalid segmentation: %w", err)
	}

	targets, positions, err := extractTargets(t)
	if err != nil {
		return nil, nil, err
	}

	excluded := make(map[string]bool)
	for _, names := range [][]string{ExcludedColumns, TargetColumns} {
		for _, name := range names {
			excluded[name] = true
		}
	}

	features := &dataset.Table{}
	var categorical []*dataset.Column
	for _, c := range t.Columns {
		if excluded[c.Name] {
			continue
		}
		if c.Type == dataset.String {
			categorical = append(categorical, c)
			continue
		}
		if err := features.AddColumn(copyColumn(c)); err != nil {
			return nil, nil, err
		}
	}

	for _, c := range Kinematics(positions, t.Segments) {
		if err := features.AddColumn(c); err != nil {
			return nil, nil, err
		}
	}

	indicators, err := OneHot(categorical, opts.Vocabulary)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range indicators {
		if err := features.AddColumn(c); err != nil {
			return nil, nil, err
		}
	}
	features.Segments = t.Segments

	if opts.Downcast {
		before, after := Downcast(features)
		log.Info().
			Str("before", humanize.IBytes(before)).
			Str("after", humanize.IBytes(after)).
			Msg("Downcast feature table")
	}

	log.Info().
		Int("rows", features.Len()).
		Int("features", len(features.Columns)).
		Int("segments", len(features.Segments)).
		Msg("Transformed features")

	return &FeatureTable{features}, &TargetTable{targets}, nil
}

func extractTargets(t *dataset.Table) (*dataset.Table, [][]float64, error) {
	targets := &dataset.Table{Segments: t.Segments}
	positions := make([][]float64, len(TargetColumns))
	for i, name := range TargetColumns {
		c, ok := t.Column(name)
		if !ok {
			return nil, nil, fmt.Errorf("assembled table is missing target column %q", name)
		}
		if !c.Type.Numeric() {
			return nil, nil, fmt.Errorf("target column %q is not numeric", name)
		}
		if err := targets.AddColumn(copyColumn(c)); err != nil {
			return nil, nil, err
		}
		positions[i] = c.Floats()
	}
	return targets, positions, nil
}

func copyColumn(c *dataset.Column) *dataset.Column {
	out := &dataset.Column{Name: c.Name, Type: c.Type}
	switch c.Type {
	case dataset.Float64:
		out.F64 = append([]float64(nil), c.F64...)
	case dataset.Float32:
		out.F32 = append([]float32(nil), c.F32...)
	case dataset.Int64:
		out.I64 = append([]int64(nil), c.I64...)
	case dataset.Int32:
		out.I32 = append([]int32(nil), c.I32...)
	default:
		out.Str = append([]string(nil), c.Str...)
	}
	return out
}

// Kinematics derives velocity and acceleration columns from the position
// axes. Both are backward differences between consecutive rows and are 0 on
// the first row of every segment, so no difference crosses a simulation.
func Kinematics(positions [][]float64, segments dataset.Segments) []*dataset.Column {
	velocities := make([]*dataset.Column, len(positions))
	accelerations := make([]*dataset.Column, len(positions))
	for axis, pos := range positions {
		v := backwardDiff(pos, segments)
		velocities[axis] = &dataset.Column{Name: VelocityColumns[axis], Type: dataset.Float64, F64: v}
		accelerations[axis] = &dataset.Column{Name: AccelerationColumns[axis], Type: dataset.Float64, F64: backwardDiff(v, segments)}
	}
	return append(velocities, accelerations...)
}

func backwardDiff(values []float64, segments dataset.Segments) []float64 {
	out := make([]float64, len(values))
	for _, seg := range segments {
		for i := seg.Start + 1; i < seg.End(); i++ {
			out[i] = values[i] - values[i-1]
		}
	}
	return out
}

// OneHot expands categorical columns into 0/1 indicator columns named
// <column>_<value>, one per declared vocabulary value in declared order.
// The schema depends only on the vocabulary, never on the observed values.
func OneHot(columns []*dataset.Column, vocab rocket.Vocabulary) ([]*dataset.Column, error) {
	byName := make(map[string]*dataset.Column, len(columns))
	for _, c := range columns {
		if _, ok := vocab.Values(c.Name); !ok {
			return nil, fmt.Errorf("no vocabulary declared for categorical column %q", c.Name)
		}
		byName[c.Name] = c
	}

	var out []*dataset.Column
	for _, name := range vocab.Categorical() {
		c, ok := byName[name]
		if !ok {
			continue
		}
		values, _ := vocab.Values(name)
		indicators := make([]*dataset.Column, len(values))
		for i, v := range values {
			indicators[i] = &dataset.Column{
				Name: name + "_" + v,
				Type: dataset.Int64,
				I64:  make([]int64, len(c.Str)),
			}
		}

		unknown := 0
		for row, v := range c.Str {
			if !vocab.Contains(name, v) {
				unknown++
				continue
			}
			indicators[slices.Index(values, v)].I64[row] = 1
		}
		if unknown > 0 {
			log.Warn().Str("column", name).Int("rows", unknown).Msg("Values outside the declared vocabulary encode as all zeros")
		}
		out = append(out, indicators...)
	}
	return out, nil
}

// Downcast narrows float64 columns to float32 when every value survives the
// conversion unchanged, and int64 columns to int32 when every value fits.
// It returns the estimated size before and after.
func Downcast(t *dataset.Table) (before, after uint64) {
	before = t.SizeBytes()
	for _, c := range t.Columns {
		switch c.Type {
		case dataset.Float64:
			if !fitsFloat32(c.F64) {
				continue
			}
			c.F32 = make([]float32, len(c.F64))
			for i, v := range c.F64 {
				c.F32[i] = float32(v)
			}
			c.F64 = nil
			c.Type = dataset.Float32
		case dataset.Int64:
			if !fitsInt32(c.I64) {
				continue
			}
			c.I32 = make([]int32, len(c.I64))
			for i, v := range c.I64 {
				c.I32[i] = int32(v)
			}
			c.I64 = nil
			c.Type = dataset.Int32
		}
	}
	return before, t.SizeBytes()
}

func fitsFloat32(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if float64(float32(v)) != v {
			return false
		}
	}
	return true
}

func fitsInt32(values []int64) bool {
	for _, v := range values {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return false
		}
	}
	return true
}
