package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/lacquerai/contracts/internal/contract"
)

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	EnableMetrics   bool
	EnableCORS      bool
	MaxBodyBytes    int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            8080,
		EnableMetrics:   true,
		EnableCORS:      true,
		MaxBodyBytes:    10 << 20,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Metrics records validation traffic
type Metrics struct {
	validations   *prometheus.CounterVec
	violations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	schemaUpdates *prometheus.CounterVec
	activeStreams prometheus.Gauge
	gatherer      prometheus.Gatherer
}

// NewMetrics creates metrics registered with the default Prometheus registry
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates metrics registered with a custom registry.
// A nil registerer leaves the metrics unregistered.
func NewMetricsWithRegistry(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laqc_validations_total",
			Help: "Total payload validations by direction and verdict",
		}, []string{"direction", "result"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laqc_validation_violations_total",
			Help: "Total violations reported by payload validations",
		}, []string{"direction"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "laqc_validation_duration_seconds",
			Help:    "Payload validation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"direction"}),
		schemaUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laqc_schema_updates_total",
			Help: "Total schema writes by direction and outcome",
		}, []string{"direction", "outcome"}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "laqc_validation_streams_active",
			Help: "Number of open validation websocket streams",
		}),
		gatherer: prometheus.DefaultGatherer,
	}

	if registerer != nil {
		registerer.MustRegister(m.validations)
		registerer.MustRegister(m.violations)
		registerer.MustRegister(m.duration)
		registerer.MustRegister(m.schemaUpdates)
		registerer.MustRegister(m.activeStreams)
	}
	if g, ok := registerer.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	return m
}

func (m *Metrics) observeValidation(direction string, violations int, elapsed time.Duration) {
	result := "valid"
	if violations > 0 {
		result = "invalid"
	}
	m.validations.WithLabelValues(direction, result).Inc()
	m.violations.WithLabelValues(direction).Add(float64(violations))
	m.duration.WithLabelValues(direction).Observe(elapsed.Seconds())
}

func (m *Metrics) observeSchemaUpdate(direction string, err error) {
	outcome := "stored"
	if err != nil {
		outcome = "rejected"
	}
	m.schemaUpdates.WithLabelValues(direction, outcome).Inc()
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Server exposes the contract service over HTTP
type Server struct {
	config   *Config
	service  *contract.Service
	metrics  *Metrics
	server   *http.Server
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	addr string
}

// Option configures a Server
type Option func(*Server)

// WithMetrics replaces the metrics the server records into
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a new contract server
func New(config *Config, service *contract.Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("contract service is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	server := &Server{
		config:  config,
		service: service,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return config.EnableCORS // Allow all origins if CORS enabled
			},
		},
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.metrics == nil {
		server.metrics = NewMetrics()
	}

	return server, nil
}

// Handler builds the router with every route and middleware installed
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.requestIDMiddleware)

	if s.config.EnableCORS {
		router.Use(s.corsMiddleware)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.loggingMiddleware)

	api.HandleFunc("/agents", s.listAgents).Methods("GET")

	// Schema endpoints
	api.HandleFunc("/agents/{id}/schemas/{direction}", s.getSchema).Methods("GET")
	api.HandleFunc("/agents/{id}/schemas/{direction}", s.putSchema).Methods("PUT")
	api.HandleFunc("/agents/{id}/schemas/{direction}", s.deleteSchema).Methods("DELETE")
	api.HandleFunc("/agents/{id}/schemas/{direction}/examples", s.getExamples).Methods("GET")

	// Validation endpoints
	api.HandleFunc("/agents/{id}/validate/{direction}", s.validatePayload).Methods("POST")
	api.HandleFunc("/agents/{id}/validate/{direction}/batch", s.validateBatch).Methods("POST")
	api.HandleFunc("/agents/{id}/validate/{direction}/stream", s.streamValidation).Methods("GET")

	if s.config.EnableCORS {
		api.Methods("OPTIONS").HandlerFunc(s.handleOptions)
	}

	if s.config.EnableMetrics {
		router.Handle("/metrics", s.metrics.Handler())
	}

	router.HandleFunc("/health", s.healthCheck)

	return router
}

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	srv := s.server
	s.mu.Unlock()

	log.Info().
		Str("addr", srv.Addr).
		Bool("metrics", s.config.EnableMetrics).
		Bool("cors", s.config.EnableCORS).
		Msg("Starting contract server")

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Server stopped unexpectedly")
		}
	}()

	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}

	log.Info().Msg("Shutting down server...")
	return srv.Shutdown(ctx)
}

// StartWithGracefulShutdown starts the server and blocks until SIGINT or
// SIGTERM, then drains connections
func (s *Server) StartWithGracefulShutdown() error {
	if err := s.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	<-sigChan
	log.Info().Msg("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
		return err
	}

	log.Info().Msg("Server shutdown complete")
	return nil
}

// GetAddr returns the bound address once started, the configured one before
func (s *Server) GetAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.addr != "" {
		return s.addr
	}
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// handleOptions handles CORS preflight requests
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	// CORS headers are already set by middleware
	w.WriteHeader(http.StatusOK)
}
