package embedded

import (
	"testing"

	"github.com/felixgeelhaar/stepcheck/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	cat, err := LoadCatalog()

	require.NoError(t, err)
	assert.Equal(t, 4, cat.Len())
	assert.Equal(t, 15, cat.FieldCount())
	assert.Equal(t, []string{
		"Sample Preparation",
		"Buffer Addition",
		"Digestion",
		"Drying and Weighing",
	}, cat.Titles())
}

func TestLoadCatalog_FirstStepFields(t *testing.T) {
	t.Parallel()

	step, ok := MustLoadCatalog().Step(0)

	require.True(t, ok)
	assert.Equal(t, []catalog.FieldName{
		"Sample weight",
		"Solvent volume",
		"Reflux temperature",
		"Reflux time",
	}, step.Fields)
}

func TestLoadCatalog_RepeatedFieldNamesAcrossSteps(t *testing.T) {
	t.Parallel()

	cat := MustLoadCatalog()
	first, _ := cat.Step(0)
	third, _ := cat.Step(2)

	assert.True(t, first.HasField("Reflux temperature"))
	assert.True(t, third.HasField("Reflux temperature"))
}

func TestLoadCatalog_Shared(t *testing.T) {
	t.Parallel()

	a, err := LoadCatalog()
	require.NoError(t, err)
	b, err := LoadCatalog()
	require.NoError(t, err)

	assert.Same(t, a, b)
}
