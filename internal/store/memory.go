package store

import (
	"context"
	"sort"
	"sync"

	"github.com/lacquerai/contracts/internal/schema"
)

type key struct {
	agentID string
	dir     Direction
}

// MemoryStore keeps schema documents in process memory.
type MemoryStore struct {
	schemas map[key]*schema.Document
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		schemas: make(map[key]*schema.Document),
	}
}

// GetSchema retrieves the schema registered for an agent and direction
func (s *MemoryStore) GetSchema(_ context.Context, agentID string, dir Direction) (*schema.Document, error) {
	if err := checkKey(agentID, dir); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, exists := s.schemas[key{agentID, dir}]
	if !exists {
		return nil, ErrSchemaNotFound
	}
	return doc, nil
}

// SetSchema registers doc, replacing any previous schema. Documents are
// treated as immutable once stored.
func (s *MemoryStore) SetSchema(_ context.Context, agentID string, dir Direction, doc *schema.Document) error {
	if err := checkKey(agentID, dir); err != nil {
		return err
	}
	if doc == nil {
		doc = &schema.Document{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[key{agentID, dir}] = doc
	return nil
}

// DeleteSchema removes a schema. Deleting a missing schema returns
// ErrSchemaNotFound.
func (s *MemoryStore) DeleteSchema(_ context.Context, agentID string, dir Direction) error {
	if err := checkKey(agentID, dir); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{agentID, dir}
	if _, exists := s.schemas[k]; !exists {
		return ErrSchemaNotFound
	}
	delete(s.schemas, k)
	return nil
}

// ListAgents returns all agent ids with a registered schema
func (s *MemoryStore) ListAgents(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.schemas))
	ids := make([]string, 0, len(s.schemas))
	for k := range s.schemas {
		if _, ok := seen[k.agentID]; ok {
			continue
		}
		seen[k.agentID] = struct{}{}
		ids = append(ids, k.agentID)
	}
	sort.Strings(ids)
	return ids, nil
}

// Count returns the number of stored schema documents
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.schemas)
}
