// Package devbackend is a development stand-in for the marketplace backend.
// It serves the same RPC surface the console calls, backed by SQLite.
package devbackend

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/freightdesk/console/internal/backend"
)

type access int

const (
	accessPublic access = iota
	accessPrincipal
	accessToken
	accessAdmin
)

// caller is the authenticated party of one RPC call
type caller struct {
	account   *Account
	principal string
}

type method struct {
	access  access
	handler func(c *gin.Context, who *caller)
}

// Server represents the development backend HTTP server
type Server struct {
	router  *gin.Engine
	db      *gorm.DB
	tokens  *Tokens
	logger  zerolog.Logger
	methods map[string]method
}

// New creates a new development backend
func New(db *gorm.DB, tokens *Tokens, zlog zerolog.Logger) *Server {
	s := &Server{
		db:     db,
		tokens: tokens,
		logger: zlog,
	}

	s.methods = map[string]method{
		"loginAdmin":           {accessPublic, s.loginAdmin},
		"isCallerAdmin":        {accessToken, s.isCallerAdmin},
		"getCallerUserProfile": {accessPrincipal, s.getCallerUserProfile},
		"getCallerUserRole":    {accessPrincipal, s.getCallerUserRole},
		"listLoads":            {accessAdmin, s.listLoads},
		"approveLoad":          {accessAdmin, s.approveLoad},
		"listTransporters":     {accessAdmin, s.listTransporters},
		"verifyTransporter":    {accessAdmin, s.verifyTransporter},
		"listContactMessages":  {accessAdmin, s.listContactMessages},
		"getStatusText":        {accessAdmin, s.getSetting(settingStatusText)},
		"setStatusText":        {accessAdmin, s.setSetting(settingStatusText)},
		"getApkLink":           {accessAdmin, s.getSetting(settingAPKLink)},
		"setApkLink":           {accessAdmin, s.setSetting(settingAPKLink)},
		"updateLiveLocation":   {accessToken, s.updateLiveLocation},
	}

	s.setupRouter()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("rpc", c.Param("method")).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("RPC call")
	})

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "online", "service": "freightdesk-devbackend"})
	})
	s.router.POST("/rpc/:method", s.dispatch)
}

func (s *Server) dispatch(c *gin.Context) {
	m, ok := s.methods[c.Param("method")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown method"})
		return
	}

	who := &caller{}
	switch m.access {
	case accessPrincipal:
		who.principal = strings.ToLower(strings.TrimSpace(c.GetHeader(backend.PrincipalHeader)))
		if who.principal == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing principal"})
			return
		}

	case accessToken, accessAdmin:
		account, err := s.authenticate(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if m.access == accessAdmin && !account.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		who.account = account
	}

	m.handler(c, who)
}

func (s *Server) authenticate(c *gin.Context) (*Account, error) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := s.db.Where("id = ?", claims.AccountID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Server) internalError(c *gin.Context, err error, message string) {
	s.logger.Error().Err(err).Msg(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// Start runs the backend on addr until SIGINT or SIGTERM
func (s *Server) Start(addr string) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting development backend")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
