package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/lacquerai/contracts/internal/contract"
	"github.com/lacquerai/contracts/internal/schema"
	"github.com/lacquerai/contracts/internal/store"
	"github.com/lacquerai/contracts/internal/validation"
)

// HTTP Handlers

// listAgents returns the agents that have a schema
func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	ids, err := s.service.Agents(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AgentsResponse{Agents: ids})
}

// getSchema returns the schema document for an agent and direction
func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	agentID, dir, ok := s.target(w, r)
	if !ok {
		return
	}

	doc, err := s.service.Schema(r.Context(), agentID, dir)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// putSchema replaces the schema document after linting it
func (s *Server) putSchema(w http.ResponseWriter, r *http.Request) {
	agentID, dir, ok := s.target(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(s.limitBody(w, r))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "reading request body: " + err.Error()})
		return
	}
	if len(raw) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "schema document is required"})
		return
	}

	doc, err := s.service.SetSchema(r.Context(), agentID, dir, raw)
	s.metrics.observeSchemaUpdate(dir.String(), err)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// deleteSchema removes the schema document
func (s *Server) deleteSchema(w http.ResponseWriter, r *http.Request) {
	agentID, dir, ok := s.target(w, r)
	if !ok {
		return
	}

	if err := s.service.DeleteSchema(r.Context(), agentID, dir); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getExamples returns the examples attached to a schema
func (s *Server) getExamples(w http.ResponseWriter, r *http.Request) {
	agentID, dir, ok := s.target(w, r)
	if !ok {
		return
	}

	examples, err := s.service.Examples(r.Context(), agentID, dir)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExamplesResponse{Examples: examples})
}

// validatePayload validates the request body against the agent's contract.
// An invalid payload is still a 200: the report is the response.
func (s *Server) validatePayload(w http.ResponseWriter, r *http.Request) {
	agentID, dir, ok := s.target(w, r)
	if !ok {
		return
	}

	data, err := validation.ReadPayload(s.limitBody(w, r))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	result, err := s.service.Validate(r.Context(), agentID, dir, data)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.metrics.observeValidation(dir.String(), len(result.Errors), time.Since(start))

	writeJSON(w, http.StatusOK, result)
}

// validateBatch validates every payload of a batch request
func (s *Server) validateBatch(w http.ResponseWriter, r *http.Request) {
	agentID, dir, ok := s.target(w, r)
	if !ok {
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(s.limitBody(w, r)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON: " + err.Error()})
		return
	}
	if req.Payloads == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "payloads is required"})
		return
	}

	start := time.Now()
	results, err := s.service.ValidateBatch(r.Context(), agentID, dir, req.Payloads)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	elapsed := time.Since(start)
	for _, result := range results {
		s.metrics.observeValidation(dir.String(), len(result.Errors), elapsed/time.Duration(len(results)))
	}

	writeJSON(w, http.StatusOK, BatchResponse{Results: results})
}

// streamValidation validates every websocket text frame as one payload and
// replies with its result
func (s *Server) streamValidation(w http.ResponseWriter, r *http.Request) {
	agentID, dir, ok := s.target(w, r)
	if !ok {
		return
	}

	// Refuse the upgrade when there is nothing to validate against.
	if _, err := s.service.Schema(r.Context(), agentID, dir); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s.metrics.activeStreams.Inc()
	defer s.metrics.activeStreams.Dec()

	logger := log.With().Str("request_id", RequestID(r.Context())).Str("agent_id", agentID).Str("direction", dir.String()).Logger()
	logger.Debug().Msg("Validation stream opened")

	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("Validation stream closed unexpectedly")
			}
			break
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		var reply any
		data, err := validation.DecodePayload(frame)
		if err != nil {
			reply = ErrorResponse{Error: err.Error()}
		} else {
			start := time.Now()
			result, err := s.service.Validate(r.Context(), agentID, dir, data)
			if err != nil {
				reply = ErrorResponse{Error: err.Error()}
			} else {
				s.metrics.observeValidation(dir.String(), len(result.Errors), time.Since(start))
				reply = result
			}
		}

		payload, err := json.Marshal(reply)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to encode stream reply")
			break
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}

	logger.Debug().Msg("Validation stream closed")
}

// healthCheck returns server health status
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ids, err := s.service.Agents(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Agents:    len(ids),
		Timestamp: time.Now(),
	})
}

// target extracts the agent id and payload direction from the route
func (s *Server) target(w http.ResponseWriter, r *http.Request) (string, store.Direction, bool) {
	vars := mux.Vars(r)

	agentID := vars["id"]
	if err := store.ValidateAgentID(agentID); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return "", "", false
	}

	dir, err := store.ParseDirection(vars["direction"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return "", "", false
	}

	return agentID, dir, true
}

func (s *Server) limitBody(w http.ResponseWriter, r *http.Request) io.Reader {
	if s.config.MaxBodyBytes <= 0 {
		return r.Body
	}
	return http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
}

// writeServiceError maps contract service errors onto HTTP statuses
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		lintErr      *contract.LintError
		malformedErr *schema.MalformedError
	)

	switch {
	case errors.Is(err, contract.ErrNoSchema):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: contract.ErrNoSchema.Error()})
	case errors.As(err, &lintErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid schema", Issues: lintErr.Issues})
	case errors.As(err, &malformedErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "invalid schema",
			Issues: []schema.Issue{{Path: malformedErr.Path, Message: malformedErr.Reason}},
		})
	case errors.Is(err, store.ErrInvalidAgentID), errors.Is(err, store.ErrInvalidDirection):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
