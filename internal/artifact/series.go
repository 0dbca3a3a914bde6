package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TrajectorySample is one time-indexed position. x/y are east/north of the
// pad and z is altitude above sea level, all in meters.
type TrajectorySample struct {
	Time float64 `json:"time"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

// WindSample is the wind experienced at a trajectory sample
type WindSample struct {
	Time      float64 `json:"time"`
	Z         float64 `json:"z"`
	VelocityX float64 `json:"wind_velocity_x"`
	VelocityY float64 `json:"wind_velocity_y"`
}

// Column names of the series files
var (
	TrajectoryHeader = []string{"time", "x", "y", "z"}
	WindHeader       = []string{"time", "z", "wind_velocity_x", "wind_velocity_y"}
)

// WriteTrajectory writes samples to path atomically
func WriteTrajectory(path string, samples []TrajectorySample) error {
	rows := make([][]float64, len(samples))
	for i, s := range samples {
		rows[i] = []float64{s.Time, s.X, s.Y, s.Z}
	}
	return writeSeries(path, TrajectoryHeader, rows)
}

// ReadTrajectory reads a trajectory file, preserving its row order
func ReadTrajectory(path string) ([]TrajectorySample, error) {
	rows, err := readSeries(path, TrajectoryHeader)
	if err != nil {
		return nil, err
	}
	samples := make([]TrajectorySample, len(rows))
	for i, r := range rows {
		samples[i] = TrajectorySample{Time: r[0], X: r[1], Y: r[2], Z: r[3]}
	}
	return samples, nil
}

// WriteWind writes wind samples to path atomically
func WriteWind(path string, samples []WindSample) error {
	rows := make([][]float64, len(samples))
	for i, s := range samples {
		rows[i] = []float64{s.Time, s.Z, s.VelocityX, s.VelocityY}
	}
	return writeSeries(path, WindHeader, rows)
}

// ReadWind reads a wind file, preserving its row order
func ReadWind(path string) ([]WindSample, error) {
	rows, err := readSeries(path, WindHeader)
	if err != nil {
		return nil, err
	}
	samples := make([]WindSample, len(rows))
	for i, r := range rows {
		samples[i] = WindSample{Time: r[0], Z: r[1], VelocityX: r[2], VelocityY: r[3]}
	}
	return samples, nil
}

func writeSeries(path string, header []string, rows [][]float64) error {
	return writeAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", path, err)
		}
		record := make([]string, len(header))
		for _, row := range rows {
			for i, v := range row {
				record[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
		}
		w.Flush()
		return w.Error()
	})
}

// readSeries reads a numeric CSV and returns its columns reordered to want.
// Headers are matched after normalization, so exports labelled like
// "# Time (s)" or "X (m)" are accepted.
func readSeries(path string, want []string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[NormalizeHeader(h)] = i
	}
	cols := make([]int, len(want))
	for i, name := range want {
		col, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, name)
		}
		cols[i] = col
	}

	var rows [][]float64
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read %s line %d: %w", path, line, err)
		}
		if blankRecord(record) {
			continue
		}
		row := make([]float64, len(cols))
		for i, col := range cols {
			if col >= len(record) {
				return nil, fmt.Errorf("%s line %d: missing value for %s", path, line, want[i])
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %s: %w", path, line, want[i], err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// NormalizeHeader lowercases a column label and strips comment markers and units
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "#")
	if i := strings.Index(h, "("); i >= 0 {
		h = h[:i]
	}
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
