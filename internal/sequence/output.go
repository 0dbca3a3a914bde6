package sequence

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Output file names
const (
	ManifestFileName = "windows.json"
	TrainXFileName   = "train_x.f32"
	TrainYFileName   = "train_y.f32"
	TestXFileName    = "test_x.f32"
	TestYFileName    = "test_y.f32"
)

// PartitionInfo describes one partition's arrays
type PartitionInfo struct {
	Rows       int    `json:"rows"`
	Windows    int    `json:"windows"`
	Straddling int    `json:"straddling_windows"`
	XFile      string `json:"x_file"`
	YFile      string `json:"y_file"`
}

// Manifest describes the binary arrays so a consumer can bind them. Arrays are
// little-endian float32, X shaped [windows, window_size, features] and Y
// shaped [windows, targets].
type Manifest struct {
	WindowSize    int           `json:"window_size"`
	TestFraction  float64       `json:"test_fraction"`
	PerSimulation bool          `json:"per_simulation"`
	Features      []string      `json:"features"`
	Targets       []string      `json:"targets"`
	FeatureScaler *Scaler       `json:"feature_scaler"`
	TargetScaler  *Scaler       `json:"target_scaler"`
	Train         PartitionInfo `json:"train"`
	Test          PartitionInfo `json:"test"`
}

// Manifest returns the manifest of the dataset
func (d *Dataset) Manifest() Manifest {
	return Manifest{
		WindowSize:    d.Options.WindowSize,
		TestFraction:  d.Options.TestFraction,
		PerSimulation: d.Options.PerSimulation,
		Features:      d.FeatureNames,
		Targets:       d.TargetNames,
		FeatureScaler: d.FeatureScaler,
		TargetScaler:  d.TargetScaler,
		Train: PartitionInfo{
			Rows:       d.TrainRows,
			Windows:    d.Train.Count,
			Straddling: d.Train.Straddling,
			XFile:      TrainXFileName,
			YFile:      TrainYFileName,
		},
		Test: PartitionInfo{
			Rows:       d.TestRows,
			Windows:    d.Test.Count,
			Straddling: d.Test.Straddling,
			XFile:      TestXFileName,
			YFile:      TestYFileName,
		},
	}
}

// Write stores the arrays and manifest in dir
func (d *Dataset) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	arrays := []struct {
		name   string
		values []float32
	}{
		{TrainXFileName, d.Train.X},
		{TrainYFileName, d.Train.Y},
		{TestXFileName, d.Test.X},
		{TestYFileName, d.Test.Y},
	}
	for _, a := range arrays {
		if err := writeFloat32s(filepath.Join(dir, a.name), a.values); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(d.Manifest(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func writeFloat32s(path string, values []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, values); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadManifest loads a manifest written by Write
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// ReadFloat32s loads a little-endian float32 array
func ReadFloat32s(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%s: size %d is not a multiple of 4", path, len(data))
	}
	values := make([]float32, len(data)/4)
	if len(values) == 0 {
		return values, nil
	}
	if _, err := binary.Decode(data, binary.LittleEndian, values); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return values, nil
}
