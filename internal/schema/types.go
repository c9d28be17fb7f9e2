// Package schema holds the payload contract model an agent declares for its
// input and output data: a small, fixed subset of JSON Schema made of
// type, properties, items, enum, required and examples.
//
// A document is parsed once into a tree of immutable definitions. Each
// definition is a tagged variant carrying only the attributes that make
// sense for its type, so an items schema can never hang off a string.
package schema

// Type is the declared type of a value at one nesting level.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// ParseType maps a declared type name onto a Type. Absent and unknown names
// fall back to TypeString.
func ParseType(name string) Type {
	switch t := Type(name); t {
	case TypeString, TypeNumber, TypeBoolean, TypeArray, TypeObject:
		return t
	default:
		return TypeString
	}
}

// Definition describes the expected shape of a value at one nesting level.
// The concrete type is one of *Scalar, *Object or *Array.
type Definition interface {
	// Kind reports the declared type.
	Kind() Type
	// EnumValues returns the permitted literal values, or nil when the
	// definition carries no enum.
	EnumValues() []any
}

// Scalar is a string, number or boolean definition.
type Scalar struct {
	Type Type
	Enum []any
	// TypeName is the type as written in the document, empty when the
	// document declares none. Unknown names such as "integer" are kept here
	// while Type falls back to TypeString.
	TypeName string
}

func (s *Scalar) Kind() Type        { return s.Type }
func (s *Scalar) EnumValues() []any { return s.Enum }

// Object is a keyed mapping definition. Properties keep their declaration
// order.
//
// Required is kept so the document reads back as written. Validation never
// consults it below the top level.
type Object struct {
	Enum       []any
	Properties []Property
	Required   []string
	TypeName   string
}

func (o *Object) Kind() Type        { return TypeObject }
func (o *Object) EnumValues() []any { return o.Enum }

// Property looks up a declared property by name.
func (o *Object) Property(name string) (Definition, bool) {
	return lookupProperty(o.Properties, name)
}

// Array is an ordered sequence definition. Items is nil when the document
// declares no element schema.
type Array struct {
	Enum     []any
	Items    Definition
	TypeName string
}

func (a *Array) Kind() Type        { return TypeArray }
func (a *Array) EnumValues() []any { return a.Enum }

// Property is a named entry of a properties mapping.
type Property struct {
	Name   string
	Schema Definition
}

// Document is a complete payload contract: the definition consulted at the
// top level of a payload together with its documentation examples.
//
// Required is only ever enforced at this level. Nested objects declaring their
// own required list are accepted by the parser but never consulted.
type Document struct {
	TypeName   string
	Required   []string
	Properties []Property
	Examples   []Example
}

// Property looks up a top-level property by name.
func (d *Document) Property(name string) (Definition, bool) {
	return lookupProperty(d.Properties, name)
}

// declaredType returns the type name a definition is written with. An
// undeclared string type is written as nothing at all.
func declaredType(def Definition) string {
	var name string
	switch d := def.(type) {
	case *Scalar:
		name = d.TypeName
	case *Object:
		name = d.TypeName
	case *Array:
		name = d.TypeName
	}
	if name == "" && def.Kind() != TypeString {
		name = string(def.Kind())
	}
	return name
}

func lookupProperty(props []Property, name string) (Definition, bool) {
	for _, p := range props {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}
