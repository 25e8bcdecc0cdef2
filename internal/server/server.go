// Package server is the console's HTTP surface: the login endpoints, the
// session state endpoint and the admin API behind the route guard.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/rs/zerolog"

	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/config"
	"github.com/freightdesk/console/internal/identity"
	"github.com/freightdesk/console/internal/session"
)

// Marketplace hands out token-bound actors for the admin domain calls
type Marketplace interface {
	Actor(token string) (*backend.Actor, error)
}

// Deps are the collaborators the server is built from
type Deps struct {
	Sessions    *session.Manager
	Identity    identity.Provider
	Marketplace Marketplace
}

// Server represents the console HTTP server
type Server struct {
	router   *gin.Engine
	config   *config.Config
	logger   zerolog.Logger
	sessions *session.Manager
	identity identity.Provider
	market   Marketplace
	version  string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, deps Deps, version string) *Server {
	server := &Server{
		config:   cfg,
		logger:   zlog,
		sessions: deps.Sessions,
		identity: deps.Identity,
		market:   deps.Marketplace,
		version:  version,
	}

	server.setupRouter()

	return server
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	// Register custom validators on gin's binding engine
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Rejects whitespace-only credentials as well as empty ones
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	}

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no session required)
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")
	api.Use(s.sessionMiddleware())
	{
		// Public auth endpoints
		api.POST("/auth/login", s.login)
		api.POST("/auth/logout", s.logout)
		api.GET("/auth/state", s.authState)
		api.POST("/auth/retry", s.retryAuth)

		// Admin console (route guard)
		admin := api.Group("/admin")
		admin.Use(s.requireAdmin())
		{
			admin.GET("/me", s.currentAdmin)

			admin.GET("/loads", s.listLoads)
			admin.POST("/loads/:id/approve", s.approveLoad)

			admin.GET("/transporters", s.listTransporters)
			admin.POST("/transporters/:id/verify", s.verifyTransporter)

			admin.GET("/contact-messages", s.listContactMessages)

			admin.GET("/settings/status-text", s.getStatusText)
			admin.PUT("/settings/status-text", s.updateStatusText)
			admin.GET("/settings/apk-link", s.getAPKLink)
			admin.PUT("/settings/apk-link", s.updateAPKLink)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "freightdesk-console",
		"version":   s.version,
		"sessions":  s.sessions.Len(),
	})
}

// Start runs the HTTP server until SIGINT or SIGTERM
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.HTTP.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := s.sessions.Start(); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.HTTP.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.sessions.Stop(shutdownCtx)
	s.logger.Info().Msg("Server shutdown complete")

	return nil
}
