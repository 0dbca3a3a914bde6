package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

// Master table columns that follow the configuration fields
const (
	ColRocketID       = "rocket_id"
	ColInitWindX      = "init_wind_x"
	ColInitWindY      = "init_wind_y"
	ColTrajectoryFile = "trajectory_file"
	ColWindFile       = "wind_file"
)

// Entry is one accepted configuration in the master table
type Entry struct {
	ID        string
	Config    rocket.Configuration
	InitWindX float64
	InitWindY float64
	Paths     Paths
}

// MasterTable lists accepted configurations in acceptance order
type MasterTable struct {
	Entries []Entry
}

// Len returns the number of accepted configurations
func (m *MasterTable) Len() int {
	return len(m.Entries)
}

// Append adds an entry at the end of the table
func (m *MasterTable) Append(e Entry) {
	m.Entries = append(m.Entries, e)
}

// StaticFields lists the per-configuration columns broadcast onto trajectory
// rows: every master column except the artifact paths.
func StaticFields() []rocket.Field {
	fields := make([]rocket.Field, 0, len(rocket.Fields)+3)
	fields = append(fields, rocket.Fields...)
	fields = append(fields,
		rocket.Field{Name: ColRocketID, Kind: rocket.KindCategorical},
		rocket.Field{Name: ColInitWindX, Kind: rocket.KindFloat},
		rocket.Field{Name: ColInitWindY, Kind: rocket.KindFloat},
	)
	return fields
}

// StaticCells returns the entry's values aligned with StaticFields
func (e Entry) StaticCells() []rocket.Cell {
	cells := e.Config.Cells()
	return append(cells,
		rocket.Cell{Str: e.ID},
		rocket.Cell{Num: e.InitWindX},
		rocket.Cell{Num: e.InitWindY},
	)
}

// MasterHeader returns the master table column names in file order
func MasterHeader() []string {
	fields := StaticFields()
	header := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		header = append(header, f.Name)
	}
	return append(header, ColTrajectoryFile, ColWindFile)
}

// WriteMaster persists the master table atomically, one row per entry in order
func WriteMaster(path string, table *MasterTable) error {
	return writeAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(MasterHeader()); err != nil {
			return fmt.Errorf("failed to write master header: %w", err)
		}
		for _, e := range table.Entries {
			record := append(e.Config.Record(),
				e.ID,
				rocket.FormatCell(rocket.KindFloat, rocket.Cell{Num: e.InitWindX}),
				rocket.FormatCell(rocket.KindFloat, rocket.Cell{Num: e.InitWindY}),
				e.Paths.Trajectory,
				e.Paths.Wind,
			)
			if err := w.Write(record); err != nil {
				return fmt.Errorf("failed to write master row %s: %w", e.ID, err)
			}
		}
		w.Flush()
		return w.Error()
	})
}

// ReadMaster loads a master table. Rows that cannot be parsed fail the read,
// since the table is the sole index of the dataset.
func ReadMaster(path string) (*MasterTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open master table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &MasterTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read master header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{ColRocketID, ColTrajectoryFile} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("master table is missing column %q", required)
		}
	}

	table := &MasterTable{}
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("failed to read master row %d: %w", row, err)
		}

		cfg, err := rocket.ParseRecord(index, record)
		if err != nil {
			return nil, fmt.Errorf("master row %d: %w", row, err)
		}
		e := Entry{
			ID:     record[index[ColRocketID]],
			Config: cfg,
			Paths:  Paths{Trajectory: record[index[ColTrajectoryFile]]},
		}
		if i, ok := index[ColWindFile]; ok {
			e.Paths.Wind = record[i]
		}
		if e.InitWindX, err = optionalFloat(index, record, ColInitWindX); err != nil {
			return nil, fmt.Errorf("master row %d: %w", row, err)
		}
		if e.InitWindY, err = optionalFloat(index, record, ColInitWindY); err != nil {
			return nil, fmt.Errorf("master row %d: %w", row, err)
		}
		table.Append(e)
	}
	return table, nil
}

func optionalFloat(index map[string]int, record []string, name string) (float64, error) {
	i, ok := index[name]
	if !ok || strings.TrimSpace(record[i]) == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return v, nil
}
