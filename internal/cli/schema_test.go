package cli

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCommand(t *testing.T) {
	resetFlags(t)

	output, err := executeCommand(rootCmd, "schema")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &got))

	for _, key := range []string{"contract", "validation_result", "validation_summary", "lint_summary", "batch_request", "batch_response", "error_response"} {
		assert.Contains(t, got, key)
	}

	contract, ok := got["contract"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://schemas.lacquer.ai/contracts/v1/document.json", contract["$id"])
}

func TestNewReflector(t *testing.T) {
	s := newReflector().Reflect(&ValidationSummary{})
	require.NotNil(t, s.Properties)

	for _, key := range []string{"schema", "total", "valid", "invalid", "duration", "results"} {
		_, ok := s.Properties.Get(key)
		assert.True(t, ok, "missing property %s", key)
	}
}
