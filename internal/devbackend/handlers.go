package devbackend

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freightdesk/console/internal/backend"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) loginAdmin(c *gin.Context, _ *caller) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var account Account
	if err := s.db.Where("username = ?", req.Username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		s.internalError(c, err, "Failed to query account")
		return
	}

	if err := VerifyPassword(req.Password, account.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	// Non-admin accounts get a token too; isCallerAdmin answers for them.
	token, err := s.tokens.Issue(&account)
	if err != nil {
		s.internalError(c, err, "Failed to issue token")
		return
	}

	s.logger.Info().Str("username", account.Username).Bool("is_admin", account.IsAdmin).Msg("Account logged in")
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) isCallerAdmin(c *gin.Context, who *caller) {
	c.JSON(http.StatusOK, gin.H{"is_admin": who.account.IsAdmin})
}

func (s *Server) findProfile(c *gin.Context, principal string) (*UserProfile, bool) {
	var profile UserProfile
	err := s.db.Where("principal = ?", principal).First(&profile).Error
	switch {
	case err == nil:
		return &profile, true
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, true
	default:
		s.internalError(c, err, "Failed to query profile")
		return nil, false
	}
}

func (s *Server) getCallerUserProfile(c *gin.Context, who *caller) {
	profile, ok := s.findProfile(c, who.principal)
	if !ok {
		return
	}
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{"profile": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile.toBackend()})
}

func (s *Server) getCallerUserRole(c *gin.Context, who *caller) {
	profile, ok := s.findProfile(c, who.principal)
	if !ok {
		return
	}
	role := backend.RoleGuest
	if profile != nil {
		role = backend.Role(profile.Role)
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}

type listLoadsRequest struct {
	Status string `json:"status" binding:"omitempty,oneof=pending approved assigned delivered"`
}

func (s *Server) listLoads(c *gin.Context, _ *caller) {
	var req listLoadsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	query := s.db.Order("created_at DESC")
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var loads []Load
	if err := query.Find(&loads).Error; err != nil {
		s.internalError(c, err, "Failed to list loads")
		return
	}

	out := make([]backend.Load, 0, len(loads))
	for i := range loads {
		out = append(out, loads[i].toBackend())
	}
	c.JSON(http.StatusOK, out)
}

type idRequest struct {
	ID string `json:"id" binding:"required"`
}

func (s *Server) approveLoad(c *gin.Context, who *caller) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var load Load
	if err := s.db.Where("id = ?", req.ID).First(&load).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Load not found"})
			return
		}
		s.internalError(c, err, "Failed to query load")
		return
	}

	if load.Status != "pending" {
		c.JSON(http.StatusConflict, gin.H{"error": "Load is not pending approval"})
		return
	}

	if err := s.db.Model(&load).Update("status", "approved").Error; err != nil {
		s.internalError(c, err, "Failed to approve load")
		return
	}
	load.Status = "approved"

	s.logger.Info().Str("load_id", load.ID).Str("approved_by", who.account.Username).Msg("Load approved")
	c.JSON(http.StatusOK, load.toBackend())
}

func (s *Server) listTransporters(c *gin.Context, _ *caller) {
	var transporters []Transporter
	if err := s.db.Order("created_at DESC").Find(&transporters).Error; err != nil {
		s.internalError(c, err, "Failed to list transporters")
		return
	}

	out := make([]backend.Transporter, 0, len(transporters))
	for i := range transporters {
		out = append(out, transporters[i].toBackend())
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) verifyTransporter(c *gin.Context, _ *caller) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var transporter Transporter
	if err := s.db.Where("id = ?", req.ID).First(&transporter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transporter not found"})
			return
		}
		s.internalError(c, err, "Failed to query transporter")
		return
	}

	if err := s.db.Model(&transporter).Update("verified", true).Error; err != nil {
		s.internalError(c, err, "Failed to verify transporter")
		return
	}
	transporter.Verified = true
	c.JSON(http.StatusOK, transporter.toBackend())
}

func (s *Server) listContactMessages(c *gin.Context, _ *caller) {
	var messages []ContactMessage
	if err := s.db.Order("created_at DESC").Find(&messages).Error; err != nil {
		s.internalError(c, err, "Failed to list contact messages")
		return
	}

	out := make([]backend.ContactMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, backend.ContactMessage{
			ID:        m.ID,
			Name:      m.Name,
			Email:     m.Email,
			Message:   m.Message,
			CreatedAt: m.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getSetting(key string) func(*gin.Context, *caller) {
	return func(c *gin.Context, _ *caller) {
		var setting Setting
		err := s.db.Where("name = ?", key).First(&setting).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.internalError(c, err, "Failed to read setting")
			return
		}
		c.JSON(http.StatusOK, gin.H{"value": setting.Value})
	}
}

type valueRequest struct {
	Value string `json:"value"`
}

func (s *Server) setSetting(key string) func(*gin.Context, *caller) {
	return func(c *gin.Context, _ *caller) {
		var req valueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		setting := Setting{Name: key, Value: req.Value}
		err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&setting).Error
		if err != nil {
			s.internalError(c, err, "Failed to save setting")
			return
		}
		c.JSON(http.StatusOK, gin.H{"value": req.Value})
	}
}

type locationRequest struct {
	TransporterID string    `json:"transporter_id" binding:"required"`
	Latitude      float64   `json:"latitude" binding:"min=-90,max=90"`
	Longitude     float64   `json:"longitude" binding:"min=-180,max=180"`
	RecordedAt    time.Time `json:"recorded_at"`
}

func (s *Server) updateLiveLocation(c *gin.Context, _ *caller) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := s.db.Model(&Transporter{}).Where("id = ?", req.TransporterID).Count(&count).Error; err != nil {
		s.internalError(c, err, "Failed to query transporter")
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transporter not found"})
		return
	}

	if req.RecordedAt.IsZero() {
		req.RecordedAt = time.Now().UTC()
	}

	loc := LiveLocation{
		TransporterID: req.TransporterID,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		RecordedAt:    req.RecordedAt,
	}
	if err := s.db.Save(&loc).Error; err != nil {
		s.internalError(c, err, "Failed to save live location")
		return
	}
	c.Status(http.StatusNoContent)
}
