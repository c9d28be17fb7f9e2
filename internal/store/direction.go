package store

import (
	"errors"
	"fmt"
	"strings"
)

// Direction says whether a schema governs data flowing into an agent or out
// of it.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// ErrInvalidDirection is returned for anything other than input or output.
var ErrInvalidDirection = errors.New("invalid payload direction")

// Directions lists both payload directions in a stable order.
func Directions() []Direction {
	return []Direction{Input, Output}
}

// ParseDirection accepts "input" or "output", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return d, nil
}

// Validate returns ErrInvalidDirection for unknown directions.
func (d Direction) Validate() error {
	switch d {
	case Input, Output:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidDirection, string(d))
}

func (d Direction) String() string {
	return string(d)
}
