package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/freightdesk/console/internal/auth"
	"github.com/freightdesk/console/internal/session"
)

const (
	sessionContextKey = "session"
	viewContextKey    = "auth_view"
)

func setSession(c *gin.Context, s *session.Session) {
	c.Set(sessionContextKey, s)
}

// GetSession returns the console session attached to the request
func GetSession(c *gin.Context) (*session.Session, bool) {
	v, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}

	s, ok := v.(*session.Session)
	return s, ok
}

func getView(c *gin.Context) (auth.View, bool) {
	v, exists := c.Get(viewContextKey)
	if !exists {
		return auth.View{}, false
	}

	view, ok := v.(auth.View)
	return view, ok
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// sessionMiddleware attaches the browser's console session, starting a new
// one when the cookie is missing or the session has ended. The cookie has no
// Max-Age so it dies with the browser session.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := s.config.Session.CookieName

		var sess *session.Session
		if id, err := c.Cookie(name); err == nil && id != "" {
			sess, _ = s.sessions.Lookup(id)
		}
		if sess == nil {
			sess = s.sessions.Create()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(name, sess.ID, 0, "/", "", s.config.Session.CookieSecure, true)
		}

		setSession(c, sess)
		c.Next()
	}
}

// requireAdmin is the route guard for the admin console. It waits a bounded
// time for the auth view to settle, then lets the request through only for
// a verified password admin.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := GetSession(c)
		if !ok {
			respondWithError(c, s.logger, http.StatusInternalServerError, nil, "Session missing")
			return
		}

		in := sess.Inputs(s.identity.Resolve(c.Request))

		ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.Auth.GuardSettleTimeout)
		view, _ := sess.Aggregator.Settle(ctx, in)
		cancel()

		decision := sess.Guard.Observe(view)
		log := s.logger.With().Str("session_id", sess.ID).Str("guard_state", decision.State.String()).Logger()

		switch decision.State {
		case auth.StateAuthorized:
			c.Set(viewContextKey, view)
			c.Next()

		case auth.StateLoading:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{"state": decision.State.String()})

		case auth.StateError:
			_, message := describeError(decision.Err)
			log.Warn().Err(decision.Err).Msg("Authorization check failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"state": decision.State.String(),
				"error": message,
				"retry": "/api/auth/retry",
			})

		case auth.StateUnauthorized:
			if decision.Redirect {
				log.Info().Msg("Admin token no longer authorized, redirecting to login")
				if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
					c.Redirect(http.StatusSeeOther, s.config.Auth.LoginPath)
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"state":    decision.State.String(),
					"error":    "Admin access required",
					"redirect": s.config.Auth.LoginPath,
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"state": decision.State.String(),
				"error": "Sign in with an admin account to continue",
				"login": s.config.Auth.LoginPath,
			})
		}
	}
}
