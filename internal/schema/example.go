package schema

import (
	"bytes"
	"regexp"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Example is one documentation example attached to a document.
//
// Value is the decoded form that validators consume. The JSON and YAML
// encodings reproduce the example as it was written: mapping keys keep their
// source order and numbers keep their spelling, so 1.0 stays 1.0.
type Example struct {
	Value any

	node *yaml.Node
	raw  []byte
}

// NewExample wraps an already decoded value. Its encodings are the value's
// ordinary encodings.
func NewExample(v any) Example {
	return Example{Value: v}
}

// MarshalJSON implements json.Marshaler.
func (e Example) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	return json.Marshal(e.Value)
}

// MarshalYAML implements yaml.Marshaler.
func (e Example) MarshalYAML() (any, error) {
	if e.node != nil {
		return e.node, nil
	}
	return e.Value, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Example) UnmarshalJSON(data []byte) error {
	n, err := jsonNode(bytes.TrimSpace(data))
	if err != nil {
		return err
	}
	parsed, err := exampleFromNode(n, "/")
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Example) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := exampleFromNode(node, "/")
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func exampleFromNode(n *yaml.Node, path string) (Example, error) {
	n = resolveAlias(n)

	value, err := nodeValue(n, path, 0)
	if err != nil {
		return Example{}, err
	}

	var buf bytes.Buffer
	if err := writeNodeJSON(&buf, n, path, 0); err != nil {
		return Example{}, err
	}
	return Example{Value: value, node: n, raw: buf.Bytes()}, nil
}

func parseExamples(n *yaml.Node, path string) ([]Example, error) {
	n = resolveAlias(n)
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, malformed(path, "expected a sequence, got %s", kindName(n))
	}

	examples := make([]Example, 0, len(n.Content))
	for i, item := range n.Content {
		example, err := exampleFromNode(item, path+"/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		examples = append(examples, example)
	}
	return examples, nil
}

var jsonNumberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// nodeValue decodes a literal node into plain Go values: map[string]any,
// []any, string, bool, nil and numbers. Integers become int when they fit,
// then uint64, then json.Number, so no integer literal is rejected for its
// size.
func nodeValue(n *yaml.Node, path string, depth int) (any, error) {
	if depth > maxDocumentDepth {
		return nil, malformed(path, "value nested deeper than %d levels", maxDocumentDepth)
	}

	n = resolveAlias(n)
	switch n.Kind {
	case yaml.MappingNode:
		fields, err := valueFields(n, path)
		if err != nil {
			return nil, err
		}
		m := make(map[string]any, len(fields))
		for _, f := range fields {
			v, err := nodeValue(f.value, path+"/"+escapePointer(f.key), depth+1)
			if err != nil {
				return nil, err
			}
			m[f.key] = v
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for i, item := range n.Content {
			v, err := nodeValue(item, path+"/"+strconv.Itoa(i), depth+1)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	case yaml.ScalarNode:
		return scalarValue(n, path)
	}
	return nil, malformed(path, "unexpected %s", kindName(n))
}

// valueFields lists the entries of a literal mapping. Keys may be any
// scalar and are used by their text.
func valueFields(n *yaml.Node, path string) ([]field, error) {
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

func scalarValue(n *yaml.Node, path string) (any, error) {
	switch n.ShortTag() {
	case "!!str":
		return n.Value, nil
	case "!!null":
		return nil, nil
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			if i == int64(int(i)) {
				return int(i), nil
			}
			return i, nil
		}
		if u, err := strconv.ParseUint(n.Value, 0, 64); err == nil {
			return u, nil
		}
		if jsonNumberPattern.MatchString(n.Value) {
			return json.Number(n.Value), nil
		}
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f, nil
		}
		if jsonNumberPattern.MatchString(n.Value) {
			return json.Number(n.Value), nil
		}
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, malformed(path, "decoding value: %v", err)
	}
	return v, nil
}

// writeNodeJSON writes a literal node as compact JSON in source order.
// Numbers already spelled as JSON numbers are copied unchanged.
func writeNodeJSON(buf *bytes.Buffer, n *yaml.Node, path string, depth int) error {
	if depth > maxDocumentDepth {
		return malformed(path, "value nested deeper than %d levels", maxDocumentDepth)
	}

	n = resolveAlias(n)
	switch n.Kind {
	case yaml.MappingNode:
		fields, err := valueFields(n, path)
		if err != nil {
			return err
		}
		obj := jsonObject{buf: buf}
		buf.WriteByte('{')
		for _, f := range fields {
			if err := obj.key(f.key); err != nil {
				return err
			}
			if err := writeNodeJSON(buf, f.value, path+"/"+escapePointer(f.key), depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNodeJSON(buf, item, path+"/"+strconv.Itoa(i), depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.ScalarNode:
		switch tag := n.ShortTag(); {
		case tag == "!!null":
			buf.WriteString("null")
			return nil
		case (tag == "!!int" || tag == "!!float") && jsonNumberPattern.MatchString(n.Value):
			buf.WriteString(n.Value)
			return nil
		}

		v, err := scalarValue(n, path)
		if err != nil {
			return err
		}
		out, err := json.MarshalNoEscape(v)
		if err != nil {
			return malformed(path, "encoding value: %v", err)
		}
		buf.Write(out)
		return nil
	}
	return malformed(path, "unexpected %s", kindName(n))
}
