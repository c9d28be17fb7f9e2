package validation

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// Result is the verdict of one validation call.
type Result struct {
	// Valid is true iff Errors is empty.
	Valid bool `json:"valid" yaml:"valid"`
	// Errors lists every violation in traversal order: required fields
	// first, then declared properties in declaration order, array elements
	// in index order.
	Errors []string `json:"errors" yaml:"errors"`
}

func newResult(errs []string) *Result {
	if errs == nil {
		errs = []string{}
	}
	return &Result{Valid: len(errs) == 0, Errors: errs}
}

// DecodePayload decodes a JSON payload into plain Go values: maps, slices,
// strings, float64 numbers, booleans and nil.
func DecodePayload(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return v, nil
}

// ReadPayload reads and decodes one JSON payload from r. An empty body is
// rejected.
func ReadPayload(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("decoding payload: empty body")
	}
	return DecodePayload(data)
}
