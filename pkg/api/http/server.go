package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aescanero/seismo/internal/application/telemetry"
	"github.com/aescanero/seismo/pkg/ports"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultMaxBodyBytes = 10 << 20

// Server represents the HTTP API server
type Server struct {
	router       *gin.Engine
	server       *http.Server
	telemetry    *telemetry.Service
	logger       *zap.Logger
	version      string
	maxBodyBytes int64
	now          func() time.Time
}

// Config holds HTTP server configuration
type Config struct {
	Addr              string
	Version           string
	MaxBodyBytes      int64
	AllowedOrigins    []string
	ReadHeaderTimeout time.Duration
	Telemetry         *telemetry.Service
	Metrics           ports.MetricsCollector
	// MetricsHandler serves /metrics when set
	MetricsHandler http.Handler
	Logger         *zap.Logger
}

// NewServer creates a new HTTP server. Routes and middleware are fixed here
// and never change afterwards.
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	s := &Server{
		telemetry:    cfg.Telemetry,
		logger:       cfg.Logger,
		version:      cfg.Version,
		maxBodyBytes: maxBody,
		now:          time.Now,
	}

	router := gin.New()
	router.HandleMethodNotAllowed = false
	router.Use(gin.CustomRecovery(s.handlePanic))
	router.Use(requestID())
	router.Use(requestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(requestMetrics(cfg.Metrics))
	}
	router.Use(corsMiddleware(cfg.AllowedOrigins))
	s.router = router

	s.setupRoutes(cfg.MetricsHandler)

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(metricsHandler http.Handler) {
	s.router.GET("/", s.handleRoot)
	s.router.GET(PathHealth, s.handleHealth)
	s.router.POST(PathAccelerometerData, s.handleAccelerometerData)

	if metricsHandler != nil {
		s.router.GET(PathMetrics, gin.WrapH(metricsHandler))
	}

	s.router.NoRoute(s.handleNotFound)
}

// SetupStream mounts the live sample stream
func (s *Server) SetupStream(handler interface {
	HandleSampleStream(*gin.Context)
}) {
	s.router.GET(PathStream, handler.HandleSampleStream)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until shutdown
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return s.Serve(ln)
}

// Serve serves HTTP on ln until shutdown
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))

	if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

func (s *Server) timestamp() string {
	return formatTimestamp(s.now())
}
