package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

// Assembled table columns that do not come from the master table
const (
	ColTime         = "time"
	ColX            = "x"
	ColY            = "y"
	ColZ            = "z"
	ColSimulationID = "simulation_id"
)

// AssembledFileName is the file the assembled table is written to
const AssembledFileName = "dataset_tensorflow.csv"

// DefaultWorkers bounds concurrent trajectory reads
const DefaultWorkers = 4

// ColumnSpec names a column and its storage type
type ColumnSpec struct {
	Name string
	Type Type
}

// Schema returns the assembled table columns in order: the trajectory
// sample, the broadcast static fields, then simulation_id.
func Schema() []ColumnSpec {
	specs := []ColumnSpec{
		{ColTime, Float64},
		{ColX, Float64},
		{ColY, Float64},
		{ColZ, Float64},
	}
	for _, f := range artifact.StaticFields() {
		specs = append(specs, ColumnSpec{Name: f.Name, Type: typeOf(f.Kind)})
	}
	return append(specs, ColumnSpec{ColSimulationID, Int64})
}

func typeOf(k rocket.Kind) Type {
	switch k {
	case rocket.KindInt:
		return Int64
	case rocket.KindCategorical:
		return String
	default:
		return Float64
	}
}

// Assembler joins the master table with the trajectory files it references
type Assembler struct {
	layout  artifact.Layout
	workers int
}

// NewAssembler creates an assembler resolving artifact paths against layout
func NewAssembler(layout artifact.Layout, workers int) *Assembler {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Assembler{
		layout:  layout,
		workers: workers,
	}
}

// Assemble loads every trajectory of the master table and broadcasts the
// configuration's static fields onto its rows. simulation_id is the
// configuration's row index in the master table. Missing or unreadable
// trajectories are logged and skipped. Block order follows the master table
// and rows keep their file order within a block.
func (a *Assembler) Assemble(ctx context.Context, master *artifact.MasterTable) (*Table, error) {
	n := master.Len()
	trajectories := make([][]artifact.TrajectorySample, n)
	loadErrs := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, e := range master.Entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trajectories[i], loadErrs[i] = artifact.ReadTrajectory(a.layout.Abs(e.Paths.Trajectory))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assembly interrupted: %w", err)
	}

	total := 0
	for i := range trajectories {
		total += len(trajectories[i])
	}

	specs := Schema()
	columns := make([]*Column, len(specs))
	for i, s := range specs {
		columns[i] = NewColumn(s.Name, s.Type, total)
	}
	ts, x, y, z := columns[0], columns[1], columns[2], columns[3]
	static := columns[4 : len(columns)-1]
	simID := columns[len(columns)-1]

	var segments Segments
	rows := 0
	skipped := 0
	for i, e := range master.Entries {
		if err := loadErrs[i]; err != nil {
			log.Warn().Err(err).Str("rocket_id", e.ID).Str("file", e.Paths.Trajectory).Msg("Skipping configuration, trajectory not loadable")
			skipped++
			continue
		}
		traj := trajectories[i]
		if len(traj) == 0 {
			log.Warn().Str("rocket_id", e.ID).Msg("Skipping configuration, trajectory is empty")
			skipped++
			continue
		}

		for _, s := range traj {
			ts.F64 = append(ts.F64, s.Time)
			x.F64 = append(x.F64, s.X)
			y.F64 = append(y.F64, s.Y)
			z.F64 = append(z.F64, s.Z)
			simID.I64 = append(simID.I64, int64(i))
		}
		for j, cell := range e.StaticCells() {
			broadcast(static[j], cell, len(traj))
		}

		segments = append(segments, Segment{SimulationID: i, Start: rows, Len: len(traj)})
		rows += len(traj)
	}

	table, err := NewTable(columns...)
	if err != nil {
		return nil, err
	}
	table.Segments = segments

	log.Info().
		Int("configurations", n).
		Int("assembled", len(segments)).
		Int("skipped", skipped).
		Int("rows", table.Len()).
		Msg("Assembled trajectory table")

	return table, nil
}

func broadcast(c *Column, cell rocket.Cell, n int) {
	for k := 0; k < n; k++ {
		switch c.Type {
		case Int64:
			c.I64 = append(c.I64, int64(cell.Num))
		case String:
			c.Str = append(c.Str, cell.Str)
		default:
			c.F64 = append(c.F64, cell.Num)
		}
	}
}

// ReadAssembled loads a table written by WriteCSV. Known columns take their
// schema type, other columns are read as float64. Segments are rebuilt from
// runs of equal simulation_id, and a simulation split across runs is an error.
func ReadAssembled(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open assembled table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read assembled header: %w", err)
	}

	known := make(map[string]Type)
	for _, s := range Schema() {
		known[s.Name] = s.Type
	}
	columns := make([]*Column, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		typ, ok := known[name]
		if !ok {
			typ = Float64
		}
		columns[i] = NewColumn(name, typ, 0)
	}

	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		for i, c := range columns {
			if err := appendParsed(c, strings.TrimSpace(record[i])); err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", row, c.Name, err)
			}
		}
	}

	table, err := NewTable(columns...)
	if err != nil {
		return nil, err
	}

	simID, ok := table.Column(ColSimulationID)
	if !ok {
		return nil, fmt.Errorf("assembled table is missing column %q", ColSimulationID)
	}
	if table.Segments, err = segmentsFromIDs(simID); err != nil {
		return nil, err
	}
	return table, nil
}

func appendParsed(c *Column, s string) error {
	switch c.Type {
	case String:
		c.Str = append(c.Str, s)
	case Int64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		c.I64 = append(c.I64, v)
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		c.F64 = append(c.F64, v)
	}
	return nil
}

// segmentsFromIDs rebuilds the simulation blocks of a table. Each simulation
// must occupy one contiguous block of rows.
func segmentsFromIDs(c *Column) (Segments, error) {
	var segments Segments
	seen := make(map[int]bool)
	for i := 0; i < c.Len(); i++ {
		id := int(c.Float(i))
		if len(segments) > 0 && segments[len(segments)-1].SimulationID == id {
			segments[len(segments)-1].Len++
			continue
		}
		if seen[id] {
			return nil, fmt.Errorf("simulation %d resumes at row %d after another simulation", id, i+1)
		}
		seen[id] = true
		segments = append(segments, Segment{SimulationID: id, Start: i, Len: 1})
	}
	return segments, nil
}
