// Package validation checks decoded payload data against an agent's payload
// contract. Validation is a pure function of its inputs: it never mutates
// the data or the schema, performs no I/O and keeps no state between calls,
// so any number of validations may run concurrently.
//
// Data violations never surface as Go errors. Every mismatch becomes one
// human-readable, path-qualified entry in the returned Result; only a
// malformed schema document fails the call as a whole.
package validation

import (
	"fmt"

	"github.com/lacquerai/contracts/internal/schema"
)

// DefaultMaxDepth is the deepest nesting level the engine descends to before
// it records a depth violation instead of recursing further.
const DefaultMaxDepth = 64

// Options tunes a validation run.
type Options struct {
	// MaxDepth bounds recursion into nested objects and arrays. Values below
	// one select DefaultMaxDepth.
	MaxDepth int
}

// DefaultOptions returns the options used by Validate.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth}
}

func (o Options) maxDepth() int {
	if o.MaxDepth < 1 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

var defaultDefinition schema.Definition = &schema.Scalar{Type: schema.TypeString}

// Validate checks data against the top level of a contract document.
//
// The required list is enforced here only: missing names are reported first,
// in declaration order, followed by the violations found in each declared
// property present in data. Keys in data that the document does not declare
// are ignored. Data that is not a keyed mapping is treated as having no keys.
func Validate(data any, doc *schema.Document) *Result {
	return ValidateWithOptions(data, doc, DefaultOptions())
}

// ValidateWithOptions is Validate with explicit options.
func ValidateWithOptions(data any, doc *schema.Document, opts Options) *Result {
	if doc == nil {
		doc = &schema.Document{}
	}

	v := validator{maxDepth: opts.maxDepth()}
	fields, _ := asMap(data)

	var errs []string
	for _, name := range doc.Required {
		if _, ok := fields[name]; !ok {
			errs = append(errs, fmt.Sprintf("Missing required field: %s", name))
		}
	}

	for _, prop := range doc.Properties {
		value, ok := fields[prop.Name]
		if !ok {
			continue
		}
		errs = v.field(errs, value, prop.Schema, prop.Name, 1)
	}

	return newResult(errs)
}

// ValidatePayload parses a raw JSON or YAML contract document and validates
// data against it. A malformed document is returned as a
// *schema.MalformedError and no result is produced.
func ValidatePayload(data any, rawSchema []byte) (*Result, error) {
	doc, err := schema.ParseDocument(rawSchema)
	if err != nil {
		return nil, err
	}
	return Validate(data, doc), nil
}

// ValidateField checks a single value against a definition and returns the
// violations found under path. Required lists are never consulted below the
// top level of a document.
func ValidateField(value any, def schema.Definition, path string) []string {
	v := validator{maxDepth: DefaultMaxDepth}
	return v.field(nil, value, def, path, 1)
}

func article(t schema.Type) string {
	switch t {
	case schema.TypeArray, schema.TypeObject:
		return "an"
	}
	return "a"
}

type validator struct {
	maxDepth int
}

func (v validator) field(errs []string, value any, def schema.Definition, path string, depth int) []string {
	if depth > v.maxDepth {
		return append(errs, fmt.Sprintf("Field '%s' exceeds maximum depth of %d", path, v.maxDepth))
	}
	if def == nil {
		def = defaultDefinition
	}

	kind := schema.ParseType(string(def.Kind()))
	if shapeOf(value) != shapeFor(kind) {
		errs = append(errs, fmt.Sprintf("Field '%s' must be %s %s", path, article(kind), kind))
	}

	// The enum check runs whether or not the type check passed.
	if enum := def.EnumValues(); len(enum) > 0 && !containsValue(enum, value) {
		errs = append(errs, fmt.Sprintf("Field '%s' must be one of: %s", path, formatEnum(enum)))
	}

	switch d := def.(type) {
	case *schema.Object:
		fields, ok := asMap(value)
		if !ok {
			break
		}
		for _, prop := range d.Properties {
			nested, present := fields[prop.Name]
			if !present {
				continue
			}
			errs = v.field(errs, nested, prop.Schema, path+"."+prop.Name, depth+1)
		}
	case *schema.Array:
		if d.Items == nil {
			break
		}
		items, ok := asSlice(value)
		if !ok {
			break
		}
		for i, item := range items {
			errs = v.field(errs, item, d.Items, fmt.Sprintf("%s[%d]", path, i), depth+1)
		}
	}

	return errs
}
