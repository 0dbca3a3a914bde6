package rocket

import (
	"fmt"
	"slices"
)

// Fin categories understood by the flight engine
const (
	FinTrapezoidal = "trapezoidal"
	FinElliptical  = "elyptique"
)

// TriggerApogee deploys the parachute at apogee. Any other trigger value
// is read as a deployment altitude in meters above ground on descent.
const TriggerApogee = "apogee"

// Vocabulary is the fixed, declared set of values per categorical field.
// The declared order is the encoding order of indicator columns.
type Vocabulary struct {
	Motors   []string `yaml:"motors"`
	Fins     []string `yaml:"fins"`
	Triggers []string `yaml:"triggers"`
}

// DefaultVocabulary returns the categorical choices of the reference generator
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Motors:   []string{"Pro75M1670", "Pro75-3G", "Pro54-5G Barasinga"},
		Fins:     []string{FinTrapezoidal, FinElliptical},
		Triggers: []string{TriggerApogee},
	}
}

// Values returns the declared values of a categorical column
func (v Vocabulary) Values(column string) ([]string, bool) {
	switch column {
	case ColMotorName:
		return v.Motors, true
	case ColFinCategory:
		return v.Fins, true
	case ColTrigger:
		return v.Triggers, true
	default:
		return nil, false
	}
}

// Categorical returns the categorical column names in Fields order
func (v Vocabulary) Categorical() []string {
	var names []string
	for _, f := range Fields {
		if f.Kind == KindCategorical {
			names = append(names, f.Name)
		}
	}
	return names
}

// Validate checks that each field declares at least one value and no duplicates
func (v Vocabulary) Validate() error {
	for _, name := range v.Categorical() {
		values, _ := v.Values(name)
		if len(values) == 0 {
			return fmt.Errorf("vocabulary for %s is empty", name)
		}
		seen := make(map[string]bool, len(values))
		for _, value := range values {
			if value == "" {
				return fmt.Errorf("vocabulary for %s contains an empty value", name)
			}
			if seen[value] {
				return fmt.Errorf("vocabulary for %s contains %q twice", name, value)
			}
			seen[value] = true
		}
	}
	return nil
}

// Contains reports whether value is declared for column
func (v Vocabulary) Contains(column, value string) bool {
	values, ok := v.Values(column)
	return ok && slices.Contains(values, value)
}
