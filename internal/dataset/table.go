// Package dataset holds the assembled trajectory table: every trajectory
// sample joined with the static fields of its configuration.
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
)

// Type is the storage type of a column
type Type int

const (
	Float64 Type = iota
	Float32
	Int64
	Int32
	String
)

func (t Type) String() string {
	switch t {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	case Int32:
		return "int32"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Numeric reports whether the type holds numbers
func (t Type) Numeric() bool {
	return t != String
}

// Column is a named, typed column. Exactly one backing slice is in use,
// selected by Type.
type Column struct {
	Name string
	Type Type

	F64 []float64
	F32 []float32
	I64 []int64
	I32 []int32
	Str []string
}

// NewColumn creates an empty column with room for n rows
func NewColumn(name string, typ Type, n int) *Column {
	c := &Column{Name: name, Type: typ}
	switch typ {
	case Float64:
		c.F64 = make([]float64, 0, n)
	case Float32:
		c.F32 = make([]float32, 0, n)
	case Int64:
		c.I64 = make([]int64, 0, n)
	case Int32:
		c.I32 = make([]int32, 0, n)
	case String:
		c.Str = make([]string, 0, n)
	}
	return c
}

// Len returns the number of rows
func (c *Column) Len() int {
	switch c.Type {
	case Float64:
		return len(c.F64)
	case Float32:
		return len(c.F32)
	case Int64:
		return len(c.I64)
	case Int32:
		return len(c.I32)
	default:
		return len(c.Str)
	}
}

// Float returns row i as float64; string columns yield NaN
func (c *Column) Float(i int) float64 {
	switch c.Type {
	case Float64:
		return c.F64[i]
	case Float32:
		return float64(c.F32[i])
	case Int64:
		return float64(c.I64[i])
	case Int32:
		return float64(c.I32[i])
	default:
		return math.NaN()
	}
}

// Floats returns a float64 copy of a numeric column
func (c *Column) Floats() []float64 {
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = c.Float(i)
	}
	return out
}

// Format renders row i for CSV output
func (c *Column) Format(i int) string {
	switch c.Type {
	case Float64:
		return strconv.FormatFloat(c.F64[i], 'g', -1, 64)
	case Float32:
		return strconv.FormatFloat(float64(c.F32[i]), 'g', -1, 32)
	case Int64:
		return strconv.FormatInt(c.I64[i], 10)
	case Int32:
		return strconv.FormatInt(int64(c.I32[i]), 10)
	default:
		return c.Str[i]
	}
}

// SizeBytes estimates the memory held by the column's values
func (c *Column) SizeBytes() uint64 {
	switch c.Type {
	case Float64, Int64:
		return uint64(c.Len()) * 8
	case Float32, Int32:
		return uint64(c.Len()) * 4
	default:
		var n uint64
		for _, s := range c.Str {
			n += uint64(len(s)) + 16
		}
		return n
	}
}

// Segment is the contiguous block of rows belonging to one simulation
type Segment struct {
	SimulationID int `json:"simulation_id"`
	Start        int `json:"start"`
	Len          int `json:"len"`
}

// End returns the index one past the last row of the segment
func (s Segment) End() int {
	return s.Start + s.Len
}

// Segments lists the blocks of a table in row order
type Segments []Segment

// Starts marks the first row of every segment in a table of n rows
func (s Segments) Starts(n int) []bool {
	starts := make([]bool, n)
	for _, seg := range s {
		if seg.Len > 0 && seg.Start < n {
			starts[seg.Start] = true
		}
	}
	return starts
}

// Validate checks that the segments tile [0, n) in order
func (s Segments) Validate(n int) error {
	next := 0
	for i, seg := range s {
		if seg.Start != next || seg.Len < 0 {
			return fmt.Errorf("segment %d (simulation %d) starts at %d, expected %d", i, seg.SimulationID, seg.Start, next)
		}
		next = seg.End()
	}
	if next != n {
		return fmt.Errorf("segments cover %d rows, table has %d", next, n)
	}
	return nil
}

// Slice returns the segments clipped to rows [from, to), rebased to start at 0
func (s Segments) Slice(from, to int) Segments {
	var out Segments
	for _, seg := range s {
		start := max(seg.Start, from)
		end := min(seg.End(), to)
		if end <= start {
			continue
		}
		out = append(out, Segment{SimulationID: seg.SimulationID, Start: start - from, Len: end - start})
	}
	return out
}

// Table is a column-oriented table with its segmentation
type Table struct {
	Columns  []*Column
	Segments Segments

	index map[string]int
}

// NewTable creates a table from columns of equal length
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn appends a column
func (t *Table) AddColumn(c *Column) error {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, ok := t.index[c.Name]; ok {
		return fmt.Errorf("duplicate column %q", c.Name)
	}
	if len(t.Columns) > 0 && c.Len() != t.Len() {
		return fmt.Errorf("column %q has %d rows, table has %d", c.Name, c.Len(), t.Len())
	}
	t.index[c.Name] = len(t.Columns)
	t.Columns = append(t.Columns, c)
	return nil
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.Columns[i], true
}

// Len returns the number of rows
func (t *Table) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Names returns the column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// SizeBytes estimates the memory held by all column values
func (t *Table) SizeBytes() uint64 {
	var n uint64
	for _, c := range t.Columns {
		n += c.SizeBytes()
	}
	return n
}

// WriteCSV writes the table with a header row
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Names()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for i := 0; i < t.Len(); i++ {
		for j, c := range t.Columns {
			record[j] = c.Format(i)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}
