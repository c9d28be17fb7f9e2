package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed metaschema.json
var metaSchemaJSON []byte

const metaSchemaURL = "https://schemas.lacquer.ai/contracts/v1/document.json"

var (
	compiledMeta *jsonschema.Schema
	compileOnce  sync.Once
	compileErr   error
)

func metaSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(metaSchemaURL, bytes.NewReader(metaSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("failed to add meta-schema resource: %w", err)
			return
		}
		compiledMeta, compileErr = compiler.Compile(metaSchemaURL)
	})
	return compiledMeta, compileErr
}

// MetaSchema returns the raw JSON Schema that describes a contract document.
func MetaSchema() []byte {
	return metaSchemaJSON
}

// Issue is a single problem found while linting a schema document.
type Issue struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Lint checks a raw JSON or YAML document against the contract meta-schema,
// then runs the document parser for the rules the meta-schema cannot express
// (duplicate keys, nesting depth). It returns an error only when the
// meta-schema itself cannot be compiled.
func Lint(data []byte) ([]Issue, error) {
	meta, err := metaSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling meta-schema: %w", err)
	}

	value, err := decodeLintValue(data)
	if err != nil {
		return []Issue{{Path: "/", Message: err.Error()}}, nil
	}

	var issues []Issue
	if err := meta.Validate(value); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			issues = appendLeafIssues(issues, ve)
		} else {
			issues = append(issues, Issue{Path: "/", Message: err.Error()})
		}
	}

	if len(issues) == 0 {
		if _, err := ParseDocument(data); err != nil {
			var me *MalformedError
			if errors.As(err, &me) {
				issues = append(issues, Issue{Path: me.Path, Message: me.Reason})
			} else {
				issues = append(issues, Issue{Path: "/", Message: err.Error()})
			}
		}
	}

	return issues, nil
}

// appendLeafIssues flattens a validation error tree, keeping only the causes
// that carry no further causes.
func appendLeafIssues(issues []Issue, ve *jsonschema.ValidationError) []Issue {
	if len(ve.Causes) == 0 {
		path := ve.InstanceLocation
		if path == "" {
			path = "/"
		}
		return append(issues, Issue{Path: path, Message: ve.Message})
	}
	for _, cause := range ve.Causes {
		issues = appendLeafIssues(issues, cause)
	}
	return issues
}

func decodeLintValue(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}

	var value any
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
		return value, nil
	}

	var raw any
	if err := yaml.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	// Round-trip through JSON so the meta-schema sees JSON-native values.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if err := json.Unmarshal(encoded, &value); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return value, nil
}
