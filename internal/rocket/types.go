package rocket

import (
	"fmt"
	"strconv"
	"strings"
)

// Configuration is one sampled parameter set for a simulated vehicle.
// Lengths are in meters, angles in degrees, masses in kg.
// Positions along the body are measured from the tail towards the nose.
type Configuration struct {
	// Flight parameters
	Delay           int     `json:"delay"`            // Launch day offset in days
	Heading         float64 `json:"heading"`          // Rail heading, degrees clockwise from north
	RampInclination float64 `json:"ramp_inclinaison"` // Rail inclination, degrees from horizontal

	// Motor
	MotorName string `json:"motor_name"`

	// Body
	Radius       float64 `json:"radius"`
	Mass         float64 `json:"mass"`                         // Without motor
	Inertia      Inertia `json:"inertia"`                      // Without motor, kg*m^2
	CenterOfMass float64 `json:"center_of_mass_without_motor"` // Without motor
	ConeLength   float64 `json:"cone_length"`
	RocketLength float64 `json:"rocket_length"`

	// Fins
	FinCategory  string  `json:"fin_cat"`
	NumberOfFins int     `json:"number_of_ailerons"`
	RootChord    float64 `json:"root_chord"`
	TipChord     float64 `json:"tip_chord"`
	Span         float64 `json:"span"`
	FinsPosition float64 `json:"fins_pos"`
	FinCant      float64 `json:"fin_inclinaison"`

	// Recovery
	DragCoeff float64 `json:"drag_coeff"`
	Trigger   string  `json:"trigger"`
}

// Inertia is the (I11, I22, I33) principal inertia triplet
type Inertia struct {
	I11 float64 `json:"i11"`
	I22 float64 `json:"i22"`
	I33 float64 `json:"i33"`
}

// Kind describes how a static field is stored in tables
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindCategorical
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Field names a static configuration column
type Field struct {
	Name string
	Kind Kind
}

// Column names shared with downstream consumers. The order of Fields is the
// order of static columns in every table this module writes.
const (
	ColDelay           = "delay"
	ColHeading         = "heading"
	ColRampInclination = "ramp_inclinaison"
	ColMotorName       = "motor_name"
	ColRadius          = "radius"
	ColMass            = "mass"
	ColInertiaI11      = "inertia_i11"
	ColInertiaI22      = "inertia_i22"
	ColInertiaI33      = "inertia_i33"
	ColCenterOfMass    = "center_of_mass_without_motor"
	ColConeLength      = "cone_length"
	ColRocketLength    = "rocket_length"
	ColFinCategory     = "fin_cat"
	ColNumberOfFins    = "number_of_ailerons"
	ColRootChord       = "root_chord"
	ColTipChord        = "tip_chord"
	ColSpan            = "span"
	ColFinsPosition    = "fins_pos"
	ColFinCant         = "fin_inclinaison"
	ColDragCoeff       = "drag_coeff"
	ColTrigger         = "trigger"
)

// Fields lists the static configuration columns in table order
var Fields = []Field{
	{ColDelay, KindInt},
	{ColHeading, KindFloat},
	{ColRampInclination, KindFloat},
	{ColMotorName, KindCategorical},
	{ColRadius, KindFloat},
	{ColMass, KindFloat},
	{ColInertiaI11, KindFloat},
	{ColInertiaI22, KindFloat},
	{ColInertiaI33, KindFloat},
	{ColCenterOfMass, KindFloat},
	{ColConeLength, KindFloat},
	{ColRocketLength, KindFloat},
	{ColFinCategory, KindCategorical},
	{ColNumberOfFins, KindInt},
	{ColRootChord, KindFloat},
	{ColTipChord, KindFloat},
	{ColSpan, KindFloat},
	{ColFinsPosition, KindFloat},
	{ColFinCant, KindFloat},
	{ColDragCoeff, KindFloat},
	{ColTrigger, KindCategorical},
}

// Cell holds one static value; Num is used for numeric kinds, Str for categoricals
type Cell struct {
	Num float64
	Str string
}

// Cells returns the configuration's values aligned with Fields
func (c Configuration) Cells() []Cell {
	return []Cell{
		{Num: float64(c.Delay)},
		{Num: c.Heading},
		{Num: c.RampInclination},
		{Str: c.MotorName},
		{Num: c.Radius},
		{Num: c.Mass},
		{Num: c.Inertia.I11},
		{Num: c.Inertia.I22},
		{Num: c.Inertia.I33},
		{Num: c.CenterOfMass},
		{Num: c.ConeLength},
		{Num: c.RocketLength},
		{Str: c.FinCategory},
		{Num: float64(c.NumberOfFins)},
		{Num: c.RootChord},
		{Num: c.TipChord},
		{Num: c.Span},
		{Num: c.FinsPosition},
		{Num: c.FinCant},
		{Num: c.DragCoeff},
		{Str: c.Trigger},
	}
}

// Record encodes the configuration as CSV fields aligned with Fields
func (c Configuration) Record() []string {
	cells := c.Cells()
	record := make([]string, len(cells))
	for i, f := range Fields {
		record[i] = FormatCell(f.Kind, cells[i])
	}
	return record
}

// FormatCell renders a cell for CSV output
func FormatCell(kind Kind, cell Cell) string {
	switch kind {
	case KindInt:
		return strconv.FormatInt(int64(cell.Num), 10)
	case KindCategorical:
		return cell.Str
	default:
		return strconv.FormatFloat(cell.Num, 'g', -1, 64)
	}
}

// ParseRecord decodes a configuration from CSV fields keyed by header name
func ParseRecord(index map[string]int, record []string) (Configuration, error) {
	get := func(name string) (string, error) {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return "", fmt.Errorf("missing column %q", name)
		}
		return strings.TrimSpace(record[i]), nil
	}
	num := func(name string) (float64, error) {
		raw, err := get(name)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		return v, nil
	}

	var c Configuration
	var err error
	var v float64

	floats := []struct {
		name string
		dst  *float64
	}{
		{ColHeading, &c.Heading},
		{ColRampInclination, &c.RampInclination},
		{ColRadius, &c.Radius},
		{ColMass, &c.Mass},
		{ColInertiaI11, &c.Inertia.I11},
		{ColInertiaI22, &c.Inertia.I22},
		{ColInertiaI33, &c.Inertia.I33},
		{ColCenterOfMass, &c.CenterOfMass},
		{ColConeLength, &c.ConeLength},
		{ColRocketLength, &c.RocketLength},
		{ColRootChord, &c.RootChord},
		{ColTipChord, &c.TipChord},
		{ColSpan, &c.Span},
		{ColFinsPosition, &c.FinsPosition},
		{ColFinCant, &c.FinCant},
		{ColDragCoeff, &c.DragCoeff},
	}
	for _, f := range floats {
		if *f.dst, err = num(f.name); err != nil {
			return Configuration{}, err
		}
	}

	if v, err = num(ColDelay); err != nil {
		return Configuration{}, err
	}
	c.Delay = int(v)
	if v, err = num(ColNumberOfFins); err != nil {
		return Configuration{}, err
	}
	c.NumberOfFins = int(v)

	if c.MotorName, err = get(ColMotorName); err != nil {
		return Configuration{}, err
	}
	if c.FinCategory, err = get(ColFinCategory); err != nil {
		return Configuration{}, err
	}
	if c.Trigger, err = get(ColTrigger); err != nil {
		return Configuration{}, err
	}

	return c, nil
}

// FormatID renders the zero-padded identifier of the n-th accepted configuration
func FormatID(n int) string {
	return fmt.Sprintf("rocket_%04d", n)
}

// ParseID extracts the sequence number from an identifier produced by FormatID
func ParseID(id string) (int, error) {
	raw, ok := strings.CutPrefix(id, "rocket_")
	if !ok {
		return 0, fmt.Errorf("invalid rocket id %q", id)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid rocket id %q: %w", id, err)
	}
	return n, nil
}
