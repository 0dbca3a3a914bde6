package sequence

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes columns to zero mean and unit variance using the
// population standard deviation. Constant columns get a scale of 1.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-column statistics over the first rows of each column
func FitScaler(columns [][]float64, rows int) (*Scaler, error) {
	if rows < 1 {
		return nil, fmt.Errorf("cannot fit a scaler on %d rows", rows)
	}
	s := &Scaler{
		Mean:  make([]float64, len(columns)),
		Scale: make([]float64, len(columns)),
	}
	for i, col := range columns {
		if len(col) < rows {
			return nil, fmt.Errorf("column %d has %d rows, need %d", i, len(col), rows)
		}
		mean, std := stat.PopMeanStdDev(col[:rows], nil)
		if std == 0 {
			std = 1
		}
		s.Mean[i] = mean
		s.Scale[i] = std
	}
	return s, nil
}

// Transform returns scaled copies of the columns
func (s *Scaler) Transform(columns [][]float64) [][]float64 {
	out := make([][]float64, len(columns))
	for i, col := range columns {
		scaled := make([]float64, len(col))
		for j, v := range col {
			scaled[j] = (v - s.Mean[i]) / s.Scale[i]
		}
		out[i] = scaled
	}
	return out
}

// Inverse maps one scaled row back to original units
func (s *Scaler) Inverse(row []float64) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = v*s.Scale[i] + s.Mean[i]
	}
	return out
}
