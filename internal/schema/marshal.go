package schema

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// MarshalJSON implements json.Marshaler. Properties are written in
// declaration order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	obj := jsonObject{buf: &buf}

	buf.WriteByte('{')
	if d.TypeName != "" {
		if err := obj.field("type", d.TypeName); err != nil {
			return nil, err
		}
	}
	if d.Required != nil {
		if err := obj.field("required", d.Required); err != nil {
			return nil, err
		}
	}
	if len(d.Properties) > 0 {
		if err := obj.key("properties"); err != nil {
			return nil, err
		}
		if err := writeProperties(&buf, d.Properties, 1); err != nil {
			return nil, err
		}
	}
	if d.Examples != nil {
		if err := obj.field("examples", d.Examples); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MarshalDefinition renders a single definition as JSON.
func MarshalDefinition(def Definition) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDefinition(&buf, def, 1); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeProperties(buf *bytes.Buffer, props []Property, depth int) error {
	obj := jsonObject{buf: buf}
	buf.WriteByte('{')
	for _, p := range props {
		if err := obj.key(p.Name); err != nil {
			return err
		}
		if err := writeDefinition(buf, p.Schema, depth); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeDefinition(buf *bytes.Buffer, def Definition, depth int) error {
	if depth > maxDocumentDepth {
		return fmt.Errorf("definitions nested deeper than %d levels", maxDocumentDepth)
	}
	if def == nil {
		buf.WriteString("{}")
		return nil
	}

	obj := jsonObject{buf: buf}
	buf.WriteByte('{')
	if name := declaredType(def); name != "" {
		if err := obj.field("type", name); err != nil {
			return err
		}
	}
	if enum := def.EnumValues(); enum != nil {
		if err := obj.field("enum", enum); err != nil {
			return err
		}
	}

	switch d := def.(type) {
	case *Object:
		if d.Required != nil {
			if err := obj.field("required", d.Required); err != nil {
				return err
			}
		}
		if len(d.Properties) > 0 {
			if err := obj.key("properties"); err != nil {
				return err
			}
			if err := writeProperties(buf, d.Properties, depth+1); err != nil {
				return err
			}
		}
	case *Array:
		if d.Items != nil {
			if err := obj.key("items"); err != nil {
				return err
			}
			if err := writeDefinition(buf, d.Items, depth+1); err != nil {
				return err
			}
		}
	}
	buf.WriteByte('}')
	return nil
}

// jsonObject writes the members of a JSON object one at a time, inserting
// separators between them.
type jsonObject struct {
	buf *bytes.Buffer
	n   int
}

func (o *jsonObject) key(name string) error {
	k, err := json.Marshal(name)
	if err != nil {
		return err
	}
	if o.n > 0 {
		o.buf.WriteByte(',')
	}
	o.n++
	o.buf.Write(k)
	o.buf.WriteByte(':')
	return nil
}

func (o *jsonObject) field(name string, value any) error {
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := o.key(name); err != nil {
		return err
	}
	o.buf.Write(v)
	return nil
}
