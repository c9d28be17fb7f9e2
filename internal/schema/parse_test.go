package schema

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func propertyNames(props []Property) []string {
	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.Name)
	}
	return names
}

func TestParseDocument_PreservesPropertyOrder(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{
			name: "JSON",
			doc:  `{"properties": {"zeta": {"type": "string"}, "alpha": {"type": "number"}, "mid": {}}}`,
		},
		{
			name: "YAML",
			doc: `
properties:
  zeta:
    type: string
  alpha:
    type: number
  mid: {}
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tc.doc))
			require.NoError(t, err)
			assert.Equal(t, []string{"zeta", "alpha", "mid"}, propertyNames(doc.Properties))
		})
	}
}

func TestParseDocument_TaggedVariants(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"required": ["name", "tags"],
		"properties": {
			"name": {"type": "string", "items": {"type": "number"}, "properties": {"x": {}}},
			"tags": {"type": "array", "items": {"type": "string", "enum": ["a", "b"]}},
			"meta": {"type": "object", "properties": {"level": {"type": "number"}}},
			"loose": {},
			"odd": {"type": "integer"},
			"flag": {"type": "boolean"}
		},
		"examples": [{"name": "n"}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "tags"}, doc.Required)
	require.Len(t, doc.Examples, 1)
	assert.Equal(t, map[string]any{"name": "n"}, doc.Examples[0].Value)

	name, ok := doc.Property("name")
	require.True(t, ok)
	assert.Equal(t, &Scalar{Type: TypeString, TypeName: "string"}, name)

	tags, ok := doc.Property("tags")
	require.True(t, ok)
	arr, ok := tags.(*Array)
	require.True(t, ok)
	assert.Equal(t, &Scalar{Type: TypeString, Enum: []any{"a", "b"}, TypeName: "string"}, arr.Items)

	meta, ok := doc.Property("meta")
	require.True(t, ok)
	obj, ok := meta.(*Object)
	require.True(t, ok)
	level, ok := obj.Property("level")
	require.True(t, ok)
	assert.Equal(t, TypeNumber, level.Kind())

	loose, _ := doc.Property("loose")
	assert.Equal(t, TypeString, loose.Kind())

	odd, _ := doc.Property("odd")
	assert.Equal(t, TypeString, odd.Kind())

	flag, _ := doc.Property("flag")
	assert.Equal(t, TypeBoolean, flag.Kind())

	_, ok = doc.Property("missing")
	assert.False(t, ok)
}

func TestParseDocument_EnumValues(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"properties": {"age": {"type": "number", "enum": [18, 21.5, "x", true, null]}}}`))
	require.NoError(t, err)

	age, _ := doc.Property("age")
	assert.Equal(t, []any{18, 21.5, "x", true, nil}, age.EnumValues())
}

func TestParseDocument_AbsentAttributesDefault(t *testing.T) {
	doc, err := ParseDocument([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, doc.Required)
	assert.Nil(t, doc.Properties)
	assert.Nil(t, doc.Examples)

	doc, err = ParseDocument([]byte("properties:\n  list:\n    type: array\n  obj:\n    type: object\n    properties: null\n"))
	require.NoError(t, err)

	list, _ := doc.Property("list")
	assert.Nil(t, list.(*Array).Items)
	assert.Nil(t, list.EnumValues())

	obj, _ := doc.Property("obj")
	assert.Empty(t, obj.(*Object).Properties)
}

func TestParseDocument_Malformed(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		path string
	}{
		{name: "empty", doc: "   ", path: "/"},
		{name: "not a mapping", doc: `[1, 2]`, path: "/"},
		{name: "scalar document", doc: `just text`, path: "/"},
		{name: "invalid JSON", doc: `{"properties": `, path: "/"},
		{name: "trailing data", doc: `{} {}`, path: "/"},
		{name: "properties not a mapping", doc: `{"properties": 5}`, path: "/properties"},
		{name: "required not a sequence", doc: `{"required": "name"}`, path: "/required"},
		{name: "required member not a scalar", doc: `{"required": [["a"]]}`, path: "/required/0"},
		{name: "examples not a sequence", doc: `{"examples": {"a": 1}}`, path: "/examples"},
		{name: "definition not a mapping", doc: `{"properties": {"a": "string"}}`, path: "/properties/a"},
		{name: "type not a scalar", doc: `{"properties": {"a": {"type": ["string", "null"]}}}`, path: "/properties/a/type"},
		{name: "enum not a sequence", doc: `{"properties": {"a": {"enum": "x"}}}`, path: "/properties/a/enum"},
		{name: "nested properties not a mapping", doc: `{"properties": {"a": {"type": "object", "properties": [1]}}}`, path: "/properties/a/properties"},
		{name: "items not a mapping", doc: `{"properties": {"a": {"type": "array", "items": "number"}}}`, path: "/properties/a/items"},
		{name: "escaped pointer", doc: `{"properties": {"a/b": {"type": "array", "items": 1}}}`, path: "/properties/a~1b/items"},
		{name: "duplicate key", doc: `{"required": [], "required": ["a"]}`, path: "/required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tc.doc))
			require.Error(t, err)

			var me *MalformedError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tc.path, me.Path)
			assert.Contains(t, err.Error(), "malformed schema at "+tc.path)
		})
	}
}

func TestDocument_MarshalJSON(t *testing.T) {
	src := `{"required":["name"],"properties":{"name":{"type":"string"},"age":{"type":"number","enum":[18,21]},"tags":{"type":"array","items":{"type":"string"}},"meta":{"type":"object","properties":{"z":{"type":"boolean"},"a":{"type":"string"}}}},"examples":[{"name":"Ada"}]}`

	doc, err := ParseDocument([]byte(src))
	require.NoError(t, err)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))

	again, err := ParseDocument(out)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestMarshalDefinition(t *testing.T) {
	out, err := MarshalDefinition(&Array{Items: &Scalar{Type: TypeNumber, Enum: []any{1, 2}}})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"array","items":{"type":"number","enum":[1,2]}}`, string(out))
}

func TestMarshalDefinition_CyclicDefinition(t *testing.T) {
	obj := &Object{}
	obj.Properties = []Property{{Name: "self", Schema: obj}}

	_, err := MarshalDefinition(obj)
	assert.Error(t, err)
}

func TestDocumentFromValue(t *testing.T) {
	doc, err := DocumentFromValue(map[string]any{
		"required": []any{"b"},
		"properties": map[string]any{
			"b": map[string]any{"type": "number"},
			"a": map[string]any{"type": "string", "enum": []any{"x", "y"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, doc.Required)
	assert.Equal(t, []string{"a", "b"}, propertyNames(doc.Properties))

	same, err := DocumentFromValue(doc)
	require.NoError(t, err)
	assert.Same(t, doc, same)

	fromString, err := DocumentFromValue(`{"required": ["b"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, fromString.Required)

	_, err = DocumentFromValue(42)
	assert.Error(t, err)
}

func TestDocument_UnmarshalEmbedded(t *testing.T) {
	var cfg struct {
		Input Document `yaml:"input"`
	}
	err := yaml.Unmarshal([]byte("input:\n  required: [q]\n  properties:\n    q:\n      type: string\n"), &cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"q"}, cfg.Input.Required)

	var wrapped struct {
		Output *Document `json:"output"`
	}
	err = json.Unmarshal([]byte(`{"output": {"properties": {"ok": {"type": "boolean"}}}}`), &wrapped)
	require.NoError(t, err)
	require.NotNil(t, wrapped.Output)
	assert.Equal(t, []string{"ok"}, propertyNames(wrapped.Output.Properties))
}

func TestParseDocument_ExamplesVerbatim(t *testing.T) {
	src := `{"examples": [{"zeta": 1.0, "alpha": 2, "mid": "x"}, [1e3, -0.50, null], "plain"]}`

	doc, err := ParseDocument([]byte(src))
	require.NoError(t, err)
	require.Len(t, doc.Examples, 3)

	assert.Equal(t, map[string]any{"zeta": 1.0, "alpha": 2, "mid": "x"}, doc.Examples[0].Value)
	assert.Equal(t, []any{1000.0, -0.5, nil}, doc.Examples[1].Value)
	assert.Equal(t, "plain", doc.Examples[2].Value)

	out, err := json.Marshal(doc.Examples)
	require.NoError(t, err)
	assert.Equal(t, `[{"zeta":1.0,"alpha":2,"mid":"x"},[1e3,-0.50,null],"plain"]`, string(out))

	out, err = json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"examples":[{"zeta":1.0,"alpha":2,"mid":"x"},[1e3,-0.50,null],"plain"]}`, string(out))
}

func TestParseDocument_YAMLExamples(t *testing.T) {
	doc, err := ParseDocument([]byte("examples:\n  - zeta: 1.0\n    alpha: 0x10\n    tags: [a, b]\n"))
	require.NoError(t, err)
	require.Len(t, doc.Examples, 1)

	assert.Equal(t, map[string]any{"zeta": 1.0, "alpha": 16, "tags": []any{"a", "b"}}, doc.Examples[0].Value)

	out, err := json.Marshal(doc.Examples[0])
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1.0,"alpha":16,"tags":["a","b"]}`, string(out))

	encoded, err := yaml.Marshal(doc.Examples[0])
	require.NoError(t, err)
	assert.Equal(t, "zeta: 1.0\nalpha: 0x10\ntags: [a, b]\n", string(encoded))
}

func TestExample_Unmarshal(t *testing.T) {
	var examples []Example
	require.NoError(t, json.Unmarshal([]byte(`[{"b": 2.50, "a": 1}]`), &examples))
	require.Len(t, examples, 1)
	assert.Equal(t, map[string]any{"b": 2.5, "a": 1}, examples[0].Value)

	out, err := json.Marshal(examples)
	require.NoError(t, err)
	assert.Equal(t, `[{"b":2.50,"a":1}]`, string(out))

	out, err = json.Marshal(NewExample(map[string]any{"b": 1, "a": 2}))
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(out))
}

func TestParseDocument_LargeIntegers(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"properties": {"id": {"type": "number", "enum": [18446744073709551615, 123456789012345678901234567890, -9223372036854775808]}},
		"examples": [{"id": 12345678901234567890}]
	}`))
	require.NoError(t, err)

	id, _ := doc.Property("id")
	assert.Equal(t, []any{
		uint64(18446744073709551615),
		json.Number("123456789012345678901234567890"),
		-9223372036854775808,
	}, id.EnumValues())

	require.Len(t, doc.Examples, 1)
	assert.Equal(t, map[string]any{"id": uint64(12345678901234567890)}, doc.Examples[0].Value)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"properties":{"id":{"type":"number","enum":[18446744073709551615,123456789012345678901234567890,-9223372036854775808]}},"examples":[{"id":12345678901234567890}]}`, string(out))
}

func TestParseDocument_RoundTripKeepsDeclarations(t *testing.T) {
	src := `{"type":"object","required":["profile"],"properties":{"profile":{"type":"object","required":["email"],"properties":{"email":{"type":"string"}}},"n":{"type":"integer"},"loose":{},"list":{"type":"array","items":{"enum":["a"]}}}}`

	doc, err := ParseDocument([]byte(src))
	require.NoError(t, err)

	profile, _ := doc.Property("profile")
	assert.Equal(t, []string{"email"}, profile.(*Object).Required)

	n, _ := doc.Property("n")
	assert.Equal(t, TypeString, n.Kind())
	assert.Equal(t, "integer", n.(*Scalar).TypeName)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeNumber, ParseType("number"))
	assert.Equal(t, TypeObject, ParseType("object"))
	assert.Equal(t, TypeString, ParseType(""))
	assert.Equal(t, TypeString, ParseType("integer"))
	assert.Equal(t, TypeString, ParseType("Number"))
}
