package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lacquerai/contracts/internal/validation"
)

// stdinArg reads a payload from standard input.
const stdinArg = "-"

// readFile reads a named file, or stdin for "-".
func readFile(path string, stdin io.Reader) ([]byte, error) {
	if path == stdinArg {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 - paths come from the command line
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// checkStdinUse rejects command lines that name stdin more than once.
func checkStdinUse(paths []string) error {
	n := 0
	for _, p := range paths {
		if p == stdinArg {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("standard input can only be read once, but %q was given %d times", stdinArg, n)
	}
	return nil
}

func isYAMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// decodePayloadFile decodes a data file by extension: YAML for .yaml/.yml,
// JSON otherwise.
func decodePayloadFile(path string, data []byte) (any, error) {
	if !isYAMLFile(path) {
		return validation.DecodePayload(data)
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return v, nil
}
