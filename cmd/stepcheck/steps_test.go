package main

import (
	"encoding/json"
	"testing"

	"github.com/felixgeelhaar/stepcheck/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepsCmd_Text(t *testing.T) {
	out, _, err := executeCommand(t, "steps")

	require.NoError(t, err)
	assert.Contains(t, out, "1. Sample Preparation")
	assert.Contains(t, out, "   - Reflux temperature")
	assert.Contains(t, out, "4 steps, 15 fields")
}

func TestStepsCmd_JSON(t *testing.T) {
	out, _, err := executeCommand(t, "steps", "--format", "json")
	require.NoError(t, err)

	var steps []catalog.Step
	require.NoError(t, json.Unmarshal([]byte(out), &steps))
	require.Len(t, steps, 4)
	assert.Equal(t, "Drying and Weighing", steps[3].Title)
	assert.Len(t, steps[3].Fields, 3)
}

func TestStepsCmd_YAMLRoundTrip(t *testing.T) {
	out, _, err := executeCommand(t, "steps", "-f", "yaml")
	require.NoError(t, err)

	cat, err := catalog.Parse([]byte(out), catalog.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 15, cat.FieldCount())
}

func TestStepsCmd_TOMLRoundTrip(t *testing.T) {
	out, _, err := executeCommand(t, "steps", "--format", "toml")
	require.NoError(t, err)

	cat, err := catalog.Parse([]byte(out), catalog.FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, 4, cat.Len())
}

func TestStepsCmd_UnknownFormat(t *testing.T) {
	_, _, err := executeCommand(t, "steps", "--format", "xml")

	require.Error(t, err)
	assert.Contains(t, formatError(err), "unknown output format (at xml)")
}

func TestStepsCmd_MissingCatalog(t *testing.T) {
	_, _, err := executeCommand(t, "--catalog", "/nonexistent/steps.yaml", "steps")

	require.Error(t, err)
}
