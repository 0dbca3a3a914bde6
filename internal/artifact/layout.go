// Package artifact reads and writes the on-disk dataset: one trajectory and
// one wind file per accepted configuration, plus the master table indexing them.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Directory and file names of the artifact store
const (
	TrajectoryDir  = "trajectories"
	WindDir        = "wind"
	MasterFileName = "master_rocket_inputs.csv"
)

// Paths locates the artifact pair of one configuration, relative to the layout root
type Paths struct {
	Trajectory string
	Wind       string
}

// Layout maps configuration identifiers to deterministic file locations
type Layout struct {
	Root string
}

// NewLayout creates a layout rooted at dir
func NewLayout(dir string) Layout {
	return Layout{Root: dir}
}

// Prepare creates the output directories. Failing here is a setup error.
func (l Layout) Prepare() error {
	for _, dir := range []string{l.Root, filepath.Join(l.Root, TrajectoryDir), filepath.Join(l.Root, WindDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return nil
}

// PathsFor returns the relative artifact paths of a configuration identifier
func (l Layout) PathsFor(id string) Paths {
	return Paths{
		Trajectory: filepath.Join(TrajectoryDir, id+"_trajectory.csv"),
		Wind:       filepath.Join(WindDir, id+"_wind.csv"),
	}
}

// Abs resolves a path stored in the master table against the layout root
func (l Layout) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(l.Root, rel)
}

// Resolve returns p with both paths resolved against the layout root
func (l Layout) Resolve(p Paths) Paths {
	return Paths{
		Trajectory: l.Abs(p.Trajectory),
		Wind:       l.Abs(p.Wind),
	}
}

// MasterPath returns the master table location
func (l Layout) MasterPath() string {
	return filepath.Join(l.Root, MasterFileName)
}

// Remove deletes both files of an artifact pair, ignoring files that do not exist
func (l Layout) Remove(p Paths) error {
	for _, rel := range []string{p.Trajectory, p.Wind} {
		if err := os.Remove(l.Abs(rel)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// writeAtomic writes through a temporary file in the target directory and
// renames it into place, so readers never observe a partial file.
func writeAtomic(path string, write func(f *os.File) error) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
