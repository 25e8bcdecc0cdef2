package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freightdesk/console/internal/backend"
)

// StatusTextRequest updates the public status banner
type StatusTextRequest struct {
	Value string `json:"value" binding:"max=280"`
}

// APKLinkRequest updates the driver app download link
type APKLinkRequest struct {
	Value string `json:"value" binding:"required,url"`
}

// actor returns the token-bound backend actor for the request, writing the
// error response itself when none is available
func (s *Server) actor(c *gin.Context) (*backend.Actor, bool) {
	sess, ok := GetSession(c)
	if !ok {
		respondWithError(c, s.logger, http.StatusInternalServerError, nil, "Session missing")
		return nil, false
	}

	token, _ := sess.Hook.Refresh()
	a, err := s.market.Actor(token)
	if err != nil {
		s.backendError(c, err, "Failed to open backend actor")
		return nil, false
	}
	return a, true
}

func (s *Server) backendError(c *gin.Context, err error, logMessage string) {
	status, message := describeError(err)
	s.logger.Error().Err(err).Int("status", status).Msg(logMessage)
	c.JSON(status, gin.H{"error": message})
}

// @Summary Current admin
// @Description Returns the authorization view of the signed-in admin
// @Tags admin
// @Produce json
// @Success 200 {object} AuthStateResponse
// @Router /api/admin/me [get]
func (s *Server) currentAdmin(c *gin.Context) {
	view, ok := getView(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, newAuthStateResponse(view))
}

// @Summary List loads
// @Tags admin
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {array} backend.Load
// @Router /api/admin/loads [get]
func (s *Server) listLoads(c *gin.Context) {
	a, ok := s.actor(c)
	if !ok {
		return
	}

	loads, err := a.ListLoads(c.Request.Context(), c.Query("status"))
	if err != nil {
		s.backendError(c, err, "Failed to list loads")
		return
	}
	c.JSON(http.StatusOK, loads)
}

// @Summary Approve load
// @Tags admin
// @Produce json
// @Param id path string true "Load ID"
// @Success 200 {object} backend.Load
// @Router /api/admin/loads/{id}/approve [post]
func (s *Server) approveLoad(c *gin.Context) {
	a, ok := s.actor(c)
	if !ok {
		return
	}

	load, err := a.ApproveLoad(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.backendError(c, err, "Failed to approve load")
		return
	}

	s.logger.Info().Str("load_id", load.ID).Msg("Load approved")
	c.JSON(http.StatusOK, load)
}

func (s *Server) listTransporters(c *gin.Context) {
	a, ok := s.actor(c)
	if !ok {
		return
	}

	transporters, err := a.ListTransporters(c.Request.Context())
	if err != nil {
		s.backendError(c, err, "Failed to list transporters")
		return
	}
	c.JSON(http.StatusOK, transporters)
}

func (s *Server) verifyTransporter(c *gin.Context) {
	a, ok := s.actor(c)
	if !ok {
		return
	}

	t, err := a.VerifyTransporter(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.backendError(c, err, "Failed to verify transporter")
		return
	}

	s.logger.Info().Str("transporter_id", t.ID).Msg("Transporter verified")
	c.JSON(http.StatusOK, t)
}

func (s *Server) listContactMessages(c *gin.Context) {
	a, ok := s.actor(c)
	if !ok {
		return
	}

	messages, err := a.ListContactMessages(c.Request.Context())
	if err != nil {
		s.backendError(c, err, "Failed to list contact messages")
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) getStatusText(c *gin.Context) {
	a, ok := s.actor(c)
	if !ok {
		return
	}

	text, err := a.StatusText(c.Request.Context())
	if err != nil {
		s.backendError(c, err, "Failed to get status text")
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": text})
}

// @Summary Update status text
// @Description Sets the banner text shown on the public site
// @Tags admin
// @Accept json
// @Produce json
// @Param request body StatusTextRequest true "New status text"
// @Router /api/admin/settings/status-text [put]
func (s *Server) updateStatusText(c *gin.Context) {
	var req StatusTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, ok := s.actor(c)
	if !ok {
		return
	}

	if err := a.SetStatusText(c.Request.Context(), req.Value); err != nil {
		s.backendError(c, err, "Failed to update status text")
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": req.Value})
}

func (s *Server) getAPKLink(c *gin.Context) {
	a, ok := s.actor(c)
	if !ok {
		return
	}

	link, err := a.APKLink(c.Request.Context())
	if err != nil {
		s.backendError(c, err, "Failed to get APK link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": link})
}

func (s *Server) updateAPKLink(c *gin.Context) {
	var req APKLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, ok := s.actor(c)
	if !ok {
		return
	}

	if err := a.SetAPKLink(c.Request.Context(), req.Value); err != nil {
		s.backendError(c, err, "Failed to update APK link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": req.Value})
}
