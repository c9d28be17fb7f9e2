package schema

import "fmt"

// MalformedError reports a schema document that does not have the shape of
// a payload contract. Path is a JSON pointer to the offending node.
type MalformedError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed schema at %s: %s", e.Path, e.Reason)
}

func malformed(path, format string, args ...any) *MalformedError {
	if path == "" {
		path = "/"
	}
	return &MalformedError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
