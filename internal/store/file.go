package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/lacquerai/contracts/internal/schema"
)

// FileStore keeps one JSON document per agent and direction under a base
// directory: <baseDir>/<agentID>/<direction>.json.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore creates a file-backed store. An empty baseDir selects
// ~/.laqc/schemas.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".laqc", "schemas")
	}

	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	return &FileStore{
		baseDir: baseDir,
	}, nil
}

// Path returns the file holding the schema for an agent and direction
func (s *FileStore) Path(agentID string, dir Direction) string {
	return filepath.Join(s.baseDir, agentID, string(dir)+".json")
}

// GetSchema reads and parses the stored document
func (s *FileStore) GetSchema(ctx context.Context, agentID string, dir Direction) (*schema.Document, error) {
	if err := checkKey(agentID, dir); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(agentID, dir)) // #nosec G304 - path is built from validated keys
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSchemaNotFound
		}
		return nil, fmt.Errorf("reading schema: %w", err)
	}

	doc, err := schema.ParseDocument(data)
	if err != nil {
		log.Error().Err(err).Str("agent_id", agentID).Str("direction", dir.String()).Msg("Stored schema is malformed")
		return nil, fmt.Errorf("parsing stored schema: %w", err)
	}
	return doc, nil
}

// SetSchema writes the document, replacing any previous one atomically
func (s *FileStore) SetSchema(ctx context.Context, agentID string, dir Direction, doc *schema.Document) error {
	if err := checkKey(agentID, dir); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		doc = &schema.Document{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling schema: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(agentID, dir)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating agent directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+string(dir)+"-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing schema: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing schema: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing schema: %w", err)
	}

	log.Debug().Str("agent_id", agentID).Str("direction", dir.String()).Str("path", path).Msg("Schema written")
	return nil
}

// DeleteSchema removes the stored document and, once both directions are
// gone, the agent directory.
func (s *FileStore) DeleteSchema(ctx context.Context, agentID string, dir Direction) error {
	if err := checkKey(agentID, dir); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(agentID, dir)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrSchemaNotFound
		}
		return fmt.Errorf("removing schema: %w", err)
	}

	// Fails harmlessly while the other direction still exists.
	_ = os.Remove(filepath.Dir(path))
	return nil
}

// ListAgents returns the ids of agent directories holding at least one
// schema file
func (s *FileStore) ListAgents(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("listing store directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || ValidateAgentID(entry.Name()) != nil {
			continue
		}
		for _, dir := range Directions() {
			if _, err := os.Stat(s.Path(entry.Name(), dir)); err == nil {
				ids = append(ids, entry.Name())
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}
