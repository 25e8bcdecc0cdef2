package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freightdesk/console/internal/auth"
	"github.com/freightdesk/console/internal/backend"
)

// LoginRequest represents the admin password login request
type LoginRequest struct {
	Username string `json:"username" binding:"notblank"`
	Password string `json:"password" binding:"notblank"`
}

// LoginResponse represents the login success response
type LoginResponse struct {
	Redirect string `json:"redirect"`
}

// AuthStateResponse is the aggregated authorization view of the session
type AuthStateResponse struct {
	State            string           `json:"state"`
	IsAuthenticated  bool             `json:"is_authenticated"`
	HasPasswordAdmin bool             `json:"has_password_admin"`
	IsAdmin          bool             `json:"is_admin"`
	IsLoading        bool             `json:"is_loading"`
	Error            string           `json:"error,omitempty"`
	ShowProfileSetup bool             `json:"show_profile_setup"`
	Profile          *backend.Profile `json:"profile,omitempty"`
	Role             backend.Role     `json:"role,omitempty"`
}

func newAuthStateResponse(v auth.View) AuthStateResponse {
	resp := AuthStateResponse{
		State:            auth.Evaluate(v).String(),
		IsAuthenticated:  v.IsAuthenticated,
		HasPasswordAdmin: v.HasPasswordAdmin,
		IsAdmin:          v.IsAdmin,
		IsLoading:        v.IsLoading,
		ShowProfileSetup: v.ShowProfileSetup,
		Profile:          v.Profile,
		Role:             v.Role,
	}
	if v.Err != nil {
		_, resp.Error = describeError(v.Err)
	}
	return resp
}

// @Summary Admin password login
// @Description Exchanges admin credentials for a token, verifies admin access and returns where to go next
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	sess, ok := GetSession(c)
	if !ok {
		respondWithError(c, s.logger, http.StatusInternalServerError, nil, "Session missing")
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	flow := sess.LoginFlow(s.config.Auth.LoginSettleDelay, s.config.Auth.DashboardPath)
	dest, err := flow.Submit(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		status, message := describeError(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Redirect: dest})
}

// @Summary Sign out
// @Description Clears the admin token of the current session
// @Tags auth
// @Produce json
// @Router /api/auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	sess, ok := GetSession(c)
	if !ok {
		respondWithError(c, s.logger, http.StatusInternalServerError, nil, "Session missing")
		return
	}

	sess.SignOut()
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// @Summary Authorization state
// @Description Returns the session's aggregated authorization view. With wait=true the call waits a bounded time for pending checks.
// @Tags auth
// @Produce json
// @Param wait query bool false "Wait for pending checks"
// @Success 200 {object} AuthStateResponse
// @Router /api/auth/state [get]
func (s *Server) authState(c *gin.Context) {
	sess, ok := GetSession(c)
	if !ok {
		respondWithError(c, s.logger, http.StatusInternalServerError, nil, "Session missing")
		return
	}

	in := sess.Inputs(s.identity.Resolve(c.Request))

	var view auth.View
	if c.Query("wait") == "true" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.Auth.GuardSettleTimeout)
		view, _ = sess.Aggregator.Settle(ctx, in)
		cancel()
	} else {
		view = sess.Aggregator.View(c.Request.Context(), in)
	}

	c.JSON(http.StatusOK, newAuthStateResponse(view))
}

// @Summary Retry authorization checks
// @Description Re-issues the failed checks behind the current view without clearing the token
// @Tags auth
// @Produce json
// @Success 202 {object} AuthStateResponse
// @Router /api/auth/retry [post]
func (s *Server) retryAuth(c *gin.Context) {
	sess, ok := GetSession(c)
	if !ok {
		respondWithError(c, s.logger, http.StatusInternalServerError, nil, "Session missing")
		return
	}

	in := sess.Inputs(s.identity.Resolve(c.Request))
	sess.Aggregator.Retry(in)

	view := sess.Aggregator.View(c.Request.Context(), in)
	s.logger.Info().Str("session_id", sess.ID).Msg("Authorization checks retried")

	c.JSON(http.StatusAccepted, newAuthStateResponse(view))
}
