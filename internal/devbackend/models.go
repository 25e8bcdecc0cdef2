package devbackend

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/freightdesk/console/internal/backend"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Account is a password login for the admin console
type Account struct {
	BaseModel
	Username     string    `gorm:"unique;not null"`
	PasswordHash string    `gorm:"not null"`
	IsAdmin      bool      `gorm:"not null;default:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// UserProfile is an identity-provider user known to the marketplace
type UserProfile struct {
	BaseModel
	Principal string `gorm:"unique;not null"`
	Name      string
	Email     string
	Phone     string
	Company   string
	Role      string `gorm:"not null;default:guest"`
}

func (p *UserProfile) toBackend() *backend.Profile {
	return &backend.Profile{
		Principal: p.Principal,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Company:   p.Company,
	}
}

// Load is a shipment posted by a client
type Load struct {
	BaseModel
	ClientID    string  `gorm:"not null"`
	Origin      string  `gorm:"not null"`
	Destination string  `gorm:"not null"`
	WeightKg    float64 `gorm:"not null"`
	Price       float64 `gorm:"not null"`
	Status      string  `gorm:"not null;default:pending;index"` // pending, approved, assigned, delivered
}

func (l *Load) toBackend() backend.Load {
	return backend.Load{
		ID:          l.ID,
		ClientID:    l.ClientID,
		Origin:      l.Origin,
		Destination: l.Destination,
		WeightKg:    l.WeightKg,
		Price:       l.Price,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt,
	}
}

// Transporter is a carrier that can be assigned loads
type Transporter struct {
	BaseModel
	Name     string `gorm:"not null"`
	Phone    string
	Verified bool `gorm:"not null;default:false"`
}

func (t *Transporter) toBackend() backend.Transporter {
	return backend.Transporter{
		ID:        t.ID,
		Name:      t.Name,
		Phone:     t.Phone,
		Verified:  t.Verified,
		CreatedAt: t.CreatedAt,
	}
}

// ContactMessage is a message left through the public contact form
type ContactMessage struct {
	BaseModel
	Name    string
	Email   string
	Message string `gorm:"type:text"`
}

// Setting is a key/value site setting (status text, APK link)
type Setting struct {
	Name      string    `gorm:"primaryKey"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// LiveLocation is the last reported position of a transporter
type LiveLocation struct {
	TransporterID string `gorm:"primaryKey;type:varchar(26)"`
	Latitude      float64
	Longitude     float64
	RecordedAt    time.Time
}

const (
	settingStatusText = "status_text"
	settingAPKLink    = "apk_link"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Account{}, &UserProfile{}, &Load{}, &Transporter{}, &ContactMessage{}, &Setting{}, &LiveLocation{},
	}

	return db.AutoMigrate(models...)
}
