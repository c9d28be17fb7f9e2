// Package contract ties the schema store to the validation engine: it looks
// up the contract an agent declared for a payload direction and checks
// payloads against it.
package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lacquerai/contracts/internal/schema"
	"github.com/lacquerai/contracts/internal/store"
	"github.com/lacquerai/contracts/internal/validation"
)

// DefaultBatchConcurrency bounds the validations a batch runs at once.
const DefaultBatchConcurrency = 8

// ErrNoSchema is returned when an agent has no schema for the requested
// payload direction. It is a precondition failure, never an empty but
// valid result.
var ErrNoSchema = errors.New("no schema defined for this payload direction")

// LintError rejects a schema document that failed meta-validation.
type LintError struct {
	Issues []schema.Issue
}

func (e *LintError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("invalid schema: %s", e.Issues[0])
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("invalid schema: %d issues: %s", len(e.Issues), strings.Join(msgs, "; "))
}

// Service validates agent payloads against stored contracts.
type Service struct {
	store            store.Store
	options          validation.Options
	batchConcurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithValidationOptions sets the engine options used for every validation.
func WithValidationOptions(opts validation.Options) Option {
	return func(s *Service) {
		s.options = opts
	}
}

// WithBatchConcurrency bounds concurrent validations in ValidateBatch.
// Values below one select DefaultBatchConcurrency.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		s.batchConcurrency = n
	}
}

// NewService creates a contract service on top of st
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:            st,
		options:          validation.DefaultOptions(),
		batchConcurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.batchConcurrency < 1 {
		s.batchConcurrency = DefaultBatchConcurrency
	}
	return s
}

// Schema returns the contract for an agent and direction.
func (s *Service) Schema(ctx context.Context, agentID string, dir store.Direction) (*schema.Document, error) {
	doc, err := s.store.GetSchema(ctx, agentID, dir)
	if err != nil {
		if errors.Is(err, store.ErrSchemaNotFound) {
			return nil, fmt.Errorf("%w: agent %q, direction %s", ErrNoSchema, agentID, dir)
		}
		return nil, fmt.Errorf("getting schema: %w", err)
	}
	return doc, nil
}

// Validate checks one payload against the agent's contract.
func (s *Service) Validate(ctx context.Context, agentID string, dir store.Direction, data any) (*validation.Result, error) {
	doc, err := s.Schema(ctx, agentID, dir)
	if err != nil {
		return nil, err
	}
	return validation.ValidateWithOptions(data, doc, s.options), nil
}

// ValidateBatch checks every payload against the same contract. Results are
// returned in input order. Cancelling ctx stops validations not yet started
// and fails the batch.
func (s *Service) ValidateBatch(ctx context.Context, agentID string, dir store.Direction, payloads []any) ([]*validation.Result, error) {
	doc, err := s.Schema(ctx, agentID, dir)
	if err != nil {
		return nil, err
	}

	results := make([]*validation.Result, len(payloads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)

	for i, payload := range payloads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = validation.ValidateWithOptions(payload, doc, s.options)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validating batch: %w", err)
	}
	return results, nil
}

// Examples returns the examples attached to the contract verbatim.
func (s *Service) Examples(ctx context.Context, agentID string, dir store.Direction) ([]schema.Example, error) {
	doc, err := s.Schema(ctx, agentID, dir)
	if err != nil {
		return nil, err
	}
	if doc.Examples == nil {
		return []schema.Example{}, nil
	}
	return doc.Examples, nil
}

// SetSchema lints, parses and stores a raw JSON or YAML contract document.
// Documents that fail linting are rejected with a *LintError and never
// reach the store.
func (s *Service) SetSchema(ctx context.Context, agentID string, dir store.Direction, raw []byte) (*schema.Document, error) {
	issues, err := schema.Lint(raw)
	if err != nil {
		return nil, fmt.Errorf("linting schema: %w", err)
	}
	if len(issues) > 0 {
		log.Warn().Str("agent_id", agentID).Str("direction", dir.String()).Int("issues", len(issues)).Msg("Rejected malformed schema")
		return nil, &LintError{Issues: issues}
	}

	doc, err := schema.ParseDocument(raw)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetSchema(ctx, agentID, dir, doc); err != nil {
		return nil, fmt.Errorf("storing schema: %w", err)
	}

	log.Info().Str("agent_id", agentID).Str("direction", dir.String()).Int("properties", len(doc.Properties)).Msg("Schema updated")
	return doc, nil
}

// DeleteSchema removes the contract for an agent and direction.
func (s *Service) DeleteSchema(ctx context.Context, agentID string, dir store.Direction) error {
	if err := s.store.DeleteSchema(ctx, agentID, dir); err != nil {
		if errors.Is(err, store.ErrSchemaNotFound) {
			return fmt.Errorf("%w: agent %q, direction %s", ErrNoSchema, agentID, dir)
		}
		return fmt.Errorf("deleting schema: %w", err)
	}
	log.Info().Str("agent_id", agentID).Str("direction", dir.String()).Msg("Schema deleted")
	return nil
}

// Agents lists agents with at least one contract.
func (s *Service) Agents(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	return ids, nil
}
