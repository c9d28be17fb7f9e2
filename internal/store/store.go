// Package store holds the per-agent payload contracts. Every agent owns two
// independent schema documents, one for each payload direction.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/lacquerai/contracts/internal/schema"
)

var (
	// ErrSchemaNotFound is returned when no schema is registered for an
	// agent and direction.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrInvalidAgentID is returned for agent identifiers outside
	// [A-Za-z0-9._-] or made only of dots.
	ErrInvalidAgentID = errors.New("invalid agent id")
)

var agentIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// Store reads and writes schema documents keyed by agent identifier and
// payload direction. Implementations must be safe for concurrent use.
type Store interface {
	GetSchema(ctx context.Context, agentID string, dir Direction) (*schema.Document, error)
	SetSchema(ctx context.Context, agentID string, dir Direction, doc *schema.Document) error
	DeleteSchema(ctx context.Context, agentID string, dir Direction) error
	// ListAgents returns the sorted ids of agents with at least one schema.
	ListAgents(ctx context.Context) ([]string, error)
}

// ValidateAgentID reports whether id can be used as a store key.
func ValidateAgentID(id string) error {
	if !agentIDPattern.MatchString(id) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidAgentID, id)
	}
	return nil
}

func checkKey(agentID string, dir Direction) error {
	if err := ValidateAgentID(agentID); err != nil {
		return err
	}
	return dir.Validate()
}
