// Package backend binds the marketplace backend's RPC surface.
//
// The session gate only depends on the narrow Gateway, Conn and Directory
// interfaces; Client implements all of them over JSON/HTTP.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRejected is returned when the backend refuses a credential exchange
	ErrRejected = errors.New("credentials rejected")
	// ErrUnavailable wraps transport failures reaching the backend
	ErrUnavailable = errors.New("backend unavailable")
	// ErrNotReady is returned when no connection exists for the current token
	ErrNotReady = errors.New("backend connection not ready")
)

// StatusError is a non-2xx backend answer that is not a credential rejection
type StatusError struct {
	Method  string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Method, e.Code, e.Message)
}

// Retryable reports whether a read that failed with err may be retried.
// Credential rejections and 4xx answers are definitive.
func Retryable(err error) bool {
	if errors.Is(err, ErrRejected) || errors.Is(err, ErrNotReady) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return true
}

// Gateway exchanges credentials and opens token-bound connections
type Gateway interface {
	LoginAdmin(ctx context.Context, username, password string) (string, error)
	Connect(ctx context.Context, token string) (Conn, error)
}

// Conn is a connection bound to one admin token
type Conn interface {
	Token() string
	IsCallerAdmin(ctx context.Context) (bool, error)
}

// Directory answers profile and role questions for identity-provider users
type Directory interface {
	// CallerProfile returns nil when the caller has no profile yet
	CallerProfile(ctx context.Context, principal string) (*Profile, error)
	CallerRole(ctx context.Context, principal string) (Role, error)
}

// Role is the marketplace role of an identity-provider user
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleClient      Role = "client"
	RoleTransporter Role = "transporter"
	RoleGuest       Role = "guest"
)

// Profile is a marketplace user profile
type Profile struct {
	Principal string `json:"principal"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
}

// Load is a shipment posted by a client
type Load struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	WeightKg    float64   `json:"weight_kg"`
	Price       float64   `json:"price"`
	Status      string    `json:"status"` // pending, approved, assigned, delivered
	CreatedAt   time.Time `json:"created_at"`
}

// Transporter is a carrier account
type Transporter struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactMessage is a message left through the public contact form
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Location is a transporter's reported position
type Location struct {
	TransporterID string    `json:"transporter_id"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	RecordedAt    time.Time `json:"recorded_at"`
}
