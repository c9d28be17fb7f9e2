package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint_ValidDocuments(t *testing.T) {
	docs := []string{
		`{"required": ["name"], "properties": {"name": {"type": "string"}, "age": {"type": "number", "enum": [18, 21]}}}`,
		`{}`,
		"required: [q]\nproperties:\n  q:\n    type: string\n  tags:\n    type: array\n    items:\n      type: string\nexamples:\n  - q: hello\n",
	}

	for _, doc := range docs {
		issues, err := Lint([]byte(doc))
		require.NoError(t, err)
		assert.Empty(t, issues, doc)
	}
}

func TestLint_MetaSchemaViolations(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		path string
	}{
		{name: "type list", doc: `{"properties": {"a": {"type": ["string", "null"]}}}`, path: "/properties/a/type"},
		{name: "numeric required", doc: `{"required": [1]}`, path: "/required/0"},
		{name: "properties not object", doc: `{"properties": 3}`, path: "/properties"},
		{name: "examples not array", doc: `{"examples": "x"}`, path: "/examples"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			issues, err := Lint([]byte(tc.doc))
			require.NoError(t, err)
			require.NotEmpty(t, issues)

			var paths []string
			for _, issue := range issues {
				paths = append(paths, issue.Path)
			}
			assert.Contains(t, paths, tc.path)
		})
	}
}

func TestLint_ParserOnlyRules(t *testing.T) {
	issues, err := Lint([]byte(`{"required": ["a"], "required": ["b"]}`))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "/required", issues[0].Path)
	assert.Contains(t, issues[0].String(), "duplicate key")
}

func TestLint_UndecodableDocument(t *testing.T) {
	issues, err := Lint([]byte(`{"properties": `))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "/", issues[0].Path)
}

func TestMetaSchema(t *testing.T) {
	assert.Contains(t, string(MetaSchema()), metaSchemaURL)
}
