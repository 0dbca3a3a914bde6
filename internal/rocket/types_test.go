package rocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfiguration() Configuration {
	return Configuration{
		Delay:           3,
		Heading:         220,
		RampInclination: 85,
		MotorName:       "Pro75M1670",
		Radius:          0.0635,
		Mass:            14.426,
		Inertia:         Inertia{I11: 6.321, I22: 6.321, I33: 0.034},
		CenterOfMass:    1,
		ConeLength:      0.55829,
		RocketLength:    2.533,
		FinCategory:     FinTrapezoidal,
		NumberOfFins:    4,
		RootChord:       0.12,
		TipChord:        0.06,
		Span:            0.11,
		FinsPosition:    0,
		FinCant:         0.5,
		DragCoeff:       1,
		Trigger:         TriggerApogee,
	}
}

func TestRecordParsesBack(t *testing.T) {
	cfg := sampleConfiguration()

	index := make(map[string]int, len(Fields))
	for i, f := range Fields {
		index[f.Name] = i
	}

	parsed, err := ParseRecord(index, cfg.Record())
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}

func TestParseRecordMissingColumn(t *testing.T) {
	_, err := ParseRecord(map[string]int{ColHeading: 0}, []string{"1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestCellsAlignWithFields(t *testing.T) {
	cells := sampleConfiguration().Cells()
	require.Len(t, cells, len(Fields))

	for i, f := range Fields {
		if f.Kind == KindCategorical {
			assert.NotEmpty(t, cells[i].Str, f.Name)
		}
	}
}

func TestIDFormat(t *testing.T) {
	assert.Equal(t, "rocket_0000", FormatID(0))
	assert.Equal(t, "rocket_0042", FormatID(42))

	n, err := ParseID("rocket_0042")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = ParseID("sim_1")
	assert.Error(t, err)
}

func TestVocabularyValidate(t *testing.T) {
	require.NoError(t, DefaultVocabulary().Validate())

	v := DefaultVocabulary()
	v.Fins = append(v.Fins, FinTrapezoidal)
	assert.Error(t, v.Validate())

	v = DefaultVocabulary()
	v.Triggers = nil
	assert.Error(t, v.Validate())

	assert.True(t, DefaultVocabulary().Contains(ColMotorName, "Pro75-3G"))
	assert.False(t, DefaultVocabulary().Contains(ColMotorName, "Pro24-6G"))
}
