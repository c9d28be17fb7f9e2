package server

import (
	"time"

	"github.com/lacquerai/contracts/internal/schema"
	"github.com/lacquerai/contracts/internal/validation"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error  string         `json:"error"`
	Issues []schema.Issue `json:"issues,omitempty"`
}

// AgentsResponse lists agents with at least one schema.
type AgentsResponse struct {
	Agents []string `json:"agents"`
}

// ExamplesResponse carries a schema's examples verbatim.
type ExamplesResponse struct {
	Examples []schema.Example `json:"examples"`
}

// BatchRequest is the body of a batch validation.
type BatchRequest struct {
	Payloads []any `json:"payloads"`
}

// BatchResponse holds one result per payload, in request order.
type BatchResponse struct {
	Results []*validation.Result `json:"results"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Agents    int       `json:"agents"`
	Timestamp time.Time `json:"timestamp"`
}
