package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

// Range is a closed interval for uniformly sampled float parameters
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// IntRange is a closed interval for uniformly sampled integer parameters
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// SamplingSpace declares the range of every sampled configuration field and
// the categorical vocabulary. Dependent fields are expressed relative to the
// field they depend on.
type SamplingSpace struct {
	// Body
	Radius       Range `yaml:"radius"`
	RocketLength Range `yaml:"rocket_length"`
	ConeLength   Range `yaml:"cone_length"`

	// Mass and inertia
	Mass Range `yaml:"mass"`
	// Center of mass is drawn from [CenterOfMassMin, rocket_length*CenterOfMassMaxFraction]
	CenterOfMassMin         float64 `yaml:"center_of_mass_min"`
	CenterOfMassMaxFraction float64 `yaml:"center_of_mass_max_fraction"`
	// Inertia ranges are multiples of the sampled mass
	InertiaTransversePerMass Range `yaml:"inertia_transverse_per_mass"`
	InertiaRollPerMass       Range `yaml:"inertia_roll_per_mass"`

	// Fins
	NumberOfFins IntRange `yaml:"number_of_fins"`
	RootChord    Range    `yaml:"root_chord"`
	// Tip chord is drawn from [0, root_chord*TipChordMaxFraction]
	TipChordMaxFraction float64 `yaml:"tip_chord_max_fraction"`
	Span                Range   `yaml:"span"`
	FinsPosition        Range   `yaml:"fins_position"`
	FinCant             Range   `yaml:"fin_cant"`

	// Flight
	Delay           IntRange `yaml:"delay"`
	Heading         Range    `yaml:"heading"`
	RampInclination Range    `yaml:"ramp_inclination"`

	// Recovery
	DragCoeff Range `yaml:"drag_coeff"`

	Vocabulary rocket.Vocabulary `yaml:"vocabulary"`
}

// DefaultSamplingSpace returns the ranges of the reference dataset generator
func DefaultSamplingSpace() SamplingSpace {
	return SamplingSpace{
		Radius:       Range{0.04, 0.30},
		RocketLength: Range{1.5, 3.0},
		ConeLength:   Range{0.1, 0.5},

		Mass:                     Range{5, 30},
		CenterOfMassMin:          0.8,
		CenterOfMassMaxFraction:  0.7,
		InertiaTransversePerMass: Range{0.5, 1.5},
		InertiaRollPerMass:       Range{0.001, 0.005},

		NumberOfFins:        IntRange{3, 8},
		RootChord:           Range{0.30, 0.70},
		TipChordMaxFraction: 0.8,
		Span:                Range{0.15, 0.5},
		FinsPosition:        Range{0.0, 0.2},
		FinCant:             Range{0.0, 1.0},

		Delay:           IntRange{0, 10},
		Heading:         Range{0, 360},
		RampInclination: Range{80, 89},

		DragCoeff: Range{0.8, 1.5},

		Vocabulary: rocket.DefaultVocabulary(),
	}
}

// LoadSamplingSpace reads a YAML sampling file on top of the defaults.
// Fields absent from the file keep their default value.
// An empty path returns the defaults.
func LoadSamplingSpace(path string) (SamplingSpace, error) {
	space := DefaultSamplingSpace()
	if path == "" {
		return space, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return SamplingSpace{}, fmt.Errorf("failed to read sampling file: %w", err)
	}
	if err := yaml.Unmarshal(data, &space); err != nil {
		return SamplingSpace{}, fmt.Errorf("failed to parse sampling file %s: %w", path, err)
	}
	if err := space.Validate(); err != nil {
		return SamplingSpace{}, fmt.Errorf("invalid sampling file %s: %w", path, err)
	}
	return space, nil
}

// Validate checks every range is well-formed
func (s SamplingSpace) Validate() error {
	ranges := []struct {
		name string
		r    Range
	}{
		{"radius", s.Radius},
		{"rocket_length", s.RocketLength},
		{"cone_length", s.ConeLength},
		{"mass", s.Mass},
		{"inertia_transverse_per_mass", s.InertiaTransversePerMass},
		{"inertia_roll_per_mass", s.InertiaRollPerMass},
		{"root_chord", s.RootChord},
		{"span", s.Span},
		{"fins_position", s.FinsPosition},
		{"fin_cant", s.FinCant},
		{"heading", s.Heading},
		{"ramp_inclination", s.RampInclination},
		{"drag_coeff", s.DragCoeff},
	}
	for _, r := range ranges {
		if r.r.Min > r.r.Max {
			return fmt.Errorf("%s min must not exceed max, got [%f, %f]", r.name, r.r.Min, r.r.Max)
		}
	}

	ints := []struct {
		name string
		r    IntRange
	}{
		{"number_of_fins", s.NumberOfFins},
		{"delay", s.Delay},
	}
	for _, r := range ints {
		if r.r.Min > r.r.Max {
			return fmt.Errorf("%s min must not exceed max, got [%d, %d]", r.name, r.r.Min, r.r.Max)
		}
	}

	if s.CenterOfMassMaxFraction <= 0 || s.CenterOfMassMaxFraction > 1 {
		return fmt.Errorf("center_of_mass_max_fraction must be between 0 and 1, got %f", s.CenterOfMassMaxFraction)
	}
	if s.TipChordMaxFraction < 0 || s.TipChordMaxFraction > 1 {
		return fmt.Errorf("tip_chord_max_fraction must be between 0 and 1, got %f", s.TipChordMaxFraction)
	}

	return s.Vocabulary.Validate()
}
