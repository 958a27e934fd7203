// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application
// service calls; all authorization and state rules live below it.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/service"
	appwf "github.com/garyjia/rfq-procurement/internal/application/workflow"
	"github.com/garyjia/rfq-procurement/internal/currency"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// zapLogger adapts a zap logger to the Logger interface
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps a zap logger for use by the server
func NewZapLogger(logger *zap.Logger) Logger {
	return &zapLogger{sugar: logger.Sugar()}
}

func (l *zapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *zapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// DefaultInvitationTTL applies to invitations created without an
	// explicit validity window.
	DefaultInvitationTTL time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:                 "0.0.0.0",
		Port:                 8080,
		ReadTimeout:          30 * time.Second,
		WriteTimeout:         30 * time.Second,
		DefaultInvitationTTL: 7 * 24 * time.Hour,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config             ServerConfig
	httpServer         *http.Server
	router             *gin.Engine
	rfqService         service.RfqService
	orderService       service.OrderService
	negotiationService service.NegotiationSession
	engine             appwf.Engine
	converter          *currency.Converter
	logger             Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	rfqService service.RfqService,
	orderService service.OrderService,
	negotiationService service.NegotiationSession,
	engine appwf.Engine,
	converter *currency.Converter,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:             config,
		router:             router,
		rfqService:         rfqService,
		orderService:       orderService,
		negotiationService: negotiationService,
		engine:             engine,
		converter:          converter,
		logger:             logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.rfqService, s.orderService, s.negotiationService,
		s.engine, s.converter, s.config.DefaultInvitationTTL, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	// API routes; every mutating route requires the actor headers
	api := s.router.Group("/api")
	api.Use(actorMiddleware())
	{
		// RFQs
		api.POST("/rfqs", handlers.CreateRfq)
		api.GET("/rfqs/:id", handlers.GetRfq)
		api.POST("/rfqs/:id/items", handlers.AddRfqItem)
		api.POST("/rfqs/:id/publish", handlers.PublishRfq)
		api.POST("/rfqs/:id/close", handlers.CloseBidding)
		api.POST("/rfqs/:id/cancel", handlers.CancelRfq)
		api.GET("/rfqs/:id/bids", handlers.ListBids)
		api.POST("/rfqs/:id/invitations", handlers.InviteSupplier)

		// Bids
		api.POST("/bids", handlers.CreateBid)
		api.POST("/bids/:id/submit", handlers.SubmitBid)
		api.POST("/bids/:id/review", handlers.ReviewBid)
		api.POST("/bids/:id/reject", handlers.RejectBid)
		api.POST("/bids/:id/award", handlers.AwardBid)

		// Invitations
		api.POST("/invitations/:token/accept", handlers.AcceptInvitation)

		// Negotiations
		api.POST("/negotiations", handlers.OpenNegotiation)
		api.GET("/negotiations/:id", handlers.GetNegotiation)
		api.POST("/negotiations/:id/messages", handlers.PostNegotiationMessage)
		api.GET("/negotiations/:id/messages", handlers.ListNegotiationMessages)
		api.GET("/negotiations/:id/terms", handlers.CurrentTerms)
		api.POST("/negotiations/:id/accept", handlers.AcceptNegotiation)
		api.POST("/negotiations/:id/reject", handlers.RejectNegotiation)

		// Purchase orders
		api.GET("/orders/:id", handlers.GetOrder)
		api.POST("/orders/:id/send", handlers.SendOrder)
		api.POST("/orders/:id/start", handlers.StartOrder)
		api.POST("/orders/:id/deliver", handlers.MarkOrderDelivered)
		api.POST("/orders/:id/confirm", handlers.ConfirmOrder)
		api.POST("/orders/:id/modifications", handlers.ProposeModification)
		api.GET("/orders/:id/modifications", handlers.ListModifications)
		api.POST("/modifications/:id/approve", handlers.ApproveModification)
		api.POST("/modifications/:id/reject", handlers.RejectModification)

		// Transition history
		api.GET("/history/:entityType/:id", handlers.EntityHistory)

		// Currency conversion
		api.POST("/currency/convert", handlers.ConvertAmount)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
