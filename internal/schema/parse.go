package schema

import (
	"bytes"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxDocumentDepth bounds how deeply definitions may nest inside a document.
const maxDocumentDepth = 256

// ParseDocument parses a JSON or YAML schema document. Property declaration
// order is preserved for both formats.
func ParseDocument(data []byte) (*Document, error) {
	node, err := decodeNode(data)
	if err != nil {
		return nil, err
	}
	return documentFromNode(node)
}

// DocumentFromValue builds a document from an already decoded value such as
// a map[string]any. Go maps carry no declaration order, so their keys are
// visited in sorted order.
func DocumentFromValue(v any) (*Document, error) {
	switch d := v.(type) {
	case *Document:
		return d, nil
	case Document:
		return &d, nil
	case []byte:
		return ParseDocument(d)
	case string:
		return ParseDocument([]byte(d))
	}

	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, malformed("/", "encoding document: %v", err)
	}
	return documentFromNode(&n)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := documentFromNode(node)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

func decodeNode(data []byte) (*yaml.Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, malformed("/", "empty document")
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		return jsonNode(trimmed)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, malformed("/", "decoding document: %v", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, malformed("/", "empty document")
	}
	return doc.Content[0], nil
}

func documentFromNode(n *yaml.Node) (*Document, error) {
	n = resolveAlias(n)
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = resolveAlias(n.Content[0])
	}
	if n.Kind != yaml.MappingNode {
		return nil, malformed("/", "schema document must be a mapping, got %s", kindName(n))
	}

	fields, err := mappingFields(n, "")
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	for _, f := range fields {
		switch f.key {
		case "type":
			doc.TypeName, err = parseTypeName(f.value, "/type")
		case "required":
			doc.Required, err = parseRequired(f.value, "/required")
		case "properties":
			doc.Properties, err = parseProperties(f.value, "/properties", 1)
		case "examples":
			doc.Examples, err = parseExamples(f.value, "/examples")
		}
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func parseDefinition(n *yaml.Node, path string, depth int) (Definition, error) {
	if depth > maxDocumentDepth {
		return nil, malformed(path, "definitions nested deeper than %d levels", maxDocumentDepth)
	}

	n = resolveAlias(n)
	if n.Kind != yaml.MappingNode {
		return nil, malformed(path, "definition must be a mapping, got %s", kindName(n))
	}

	fields, err := mappingFields(n, path)
	if err != nil {
		return nil, err
	}

	var (
		typeName  string
		enum      []any
		required  []string
		propsNode *yaml.Node
		itemsNode *yaml.Node
	)
	for _, f := range fields {
		switch f.key {
		case "type":
			typeName, err = parseTypeName(f.value, path+"/type")
		case "enum":
			enum, err = parseValues(f.value, path+"/enum")
		case "required":
			required, err = parseRequired(f.value, path+"/required")
		case "properties":
			propsNode = resolveAlias(f.value)
			if !isNull(propsNode) && propsNode.Kind != yaml.MappingNode {
				err = malformed(path+"/properties", "properties must be a mapping, got %s", kindName(propsNode))
			}
		case "items":
			itemsNode = resolveAlias(f.value)
			if !isNull(itemsNode) && itemsNode.Kind != yaml.MappingNode {
				err = malformed(path+"/items", "items must be a mapping, got %s", kindName(itemsNode))
			}
		}
		if err != nil {
			return nil, err
		}
	}

	switch t := ParseType(typeName); t {
	case TypeObject:
		props, err := parseProperties(propsNode, path+"/properties", depth+1)
		if err != nil {
			return nil, err
		}
		return &Object{Enum: enum, Properties: props, Required: required, TypeName: typeName}, nil
	case TypeArray:
		arr := &Array{Enum: enum, TypeName: typeName}
		if itemsNode != nil && !isNull(itemsNode) {
			arr.Items, err = parseDefinition(itemsNode, path+"/items", depth+1)
			if err != nil {
				return nil, err
			}
		}
		return arr, nil
	default:
		return &Scalar{Type: t, Enum: enum, TypeName: typeName}, nil
	}
}

func parseProperties(n *yaml.Node, path string, depth int) ([]Property, error) {
	if n == nil {
		return nil, nil
	}
	n = resolveAlias(n)
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, malformed(path, "properties must be a mapping, got %s", kindName(n))
	}

	fields, err := mappingFields(n, path)
	if err != nil {
		return nil, err
	}

	props := make([]Property, 0, len(fields))
	for _, f := range fields {
		def, err := parseDefinition(f.value, path+"/"+escapePointer(f.key), depth)
		if err != nil {
			return nil, err
		}
		props = append(props, Property{Name: f.key, Schema: def})
	}
	return props, nil
}

func parseTypeName(n *yaml.Node, path string) (string, error) {
	n = resolveAlias(n)
	if isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", malformed(path, "type must be a scalar, got %s", kindName(n))
	}
	return n.Value, nil
}

func parseRequired(n *yaml.Node, path string) ([]string, error) {
	n = resolveAlias(n)
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, malformed(path, "required must be a sequence, got %s", kindName(n))
	}

	names := make([]string, 0, len(n.Content))
	for i, item := range n.Content {
		item = resolveAlias(item)
		if item.Kind != yaml.ScalarNode {
			return nil, malformed(path+"/"+strconv.Itoa(i), "required field names must be scalars, got %s", kindName(item))
		}
		names = append(names, item.Value)
	}
	return names, nil
}

// parseValues decodes a sequence of literal enum values. A null or absent
// node yields nil.
func parseValues(n *yaml.Node, path string) ([]any, error) {
	n = resolveAlias(n)
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, malformed(path, "expected a sequence, got %s", kindName(n))
	}

	values := make([]any, 0, len(n.Content))
	for i, item := range n.Content {
		v, err := nodeValue(item, path+"/"+strconv.Itoa(i), 0)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

type field struct {
	key   string
	value *yaml.Node
}

func mappingFields(n *yaml.Node, path string) ([]field, error) {
	fields := make([]field, 0, len(n.Content)/2)
	seen := make(map[string]struct{}, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := resolveAlias(n.Content[i])
		if k.Kind != yaml.ScalarNode {
			return nil, malformed(path, "mapping keys must be scalars, got %s", kindName(k))
		}
		if _, dup := seen[k.Value]; dup {
			return nil, malformed(path+"/"+escapePointer(k.Value), "duplicate key %q", k.Value)
		}
		seen[k.Value] = struct{}{}
		fields = append(fields, field{key: k.Value, value: n.Content[i+1]})
	}
	return fields, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func kindName(n *yaml.Node) string {
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return "null"
		}
		return "scalar"
	case yaml.DocumentNode:
		return "document"
	default:
		return "alias"
	}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(s string) string {
	return pointerEscaper.Replace(s)
}
