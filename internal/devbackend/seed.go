package devbackend

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed is the initial content of a development database
type Seed struct {
	Accounts []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Admin    bool   `yaml:"admin"`
	} `yaml:"accounts"`

	Profiles []struct {
		Principal string `yaml:"principal"`
		Name      string `yaml:"name"`
		Email     string `yaml:"email"`
		Phone     string `yaml:"phone"`
		Company   string `yaml:"company"`
		Role      string `yaml:"role"`
	} `yaml:"profiles"`

	Transporters []struct {
		Name     string `yaml:"name"`
		Phone    string `yaml:"phone"`
		Verified bool   `yaml:"verified"`
	} `yaml:"transporters"`

	Loads []struct {
		Client      string  `yaml:"client"`
		Origin      string  `yaml:"origin"`
		Destination string  `yaml:"destination"`
		WeightKg    float64 `yaml:"weight_kg"`
		Price       float64 `yaml:"price"`
		Status      string  `yaml:"status"`
	} `yaml:"loads"`

	Settings map[string]string `yaml:"settings"`
}

// DefaultSeed is used when no seed file is configured
const DefaultSeed = `
accounts:
  - username: admin
    password: admin
    admin: true
  - username: dispatcher
    password: dispatcher
profiles:
  - principal: ops@freightdesk.test
    name: Ops Desk
    email: ops@freightdesk.test
    role: admin
transporters:
  - name: Northline Haulage
    phone: "+254700000001"
loads:
  - client: acme-foods
    origin: Nairobi
    destination: Mombasa
    weight_kg: 12000
    price: 85000
settings:
  status_text: All systems normal
`

var errInvalidSeed = errors.New("invalid seed")

// LoadSeedFile reads a YAML seed file, or the default seed when path is empty
func LoadSeedFile(path string) (*Seed, error) {
	data := []byte(DefaultSeed)
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed document
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidSeed, err)
	}
	for _, a := range seed.Accounts {
		if a.Username == "" || a.Password == "" {
			return nil, fmt.Errorf("%w: account needs username and password", errInvalidSeed)
		}
	}
	return &seed, nil
}

// Apply inserts the seed into an empty database. Existing accounts, profiles
// and settings are left alone so restarts keep local edits.
func (s *Seed) Apply(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, a := range s.Accounts {
			hash, err := HashPassword(a.Password)
			if err != nil {
				return err
			}
			account := Account{Username: a.Username, PasswordHash: hash, IsAdmin: a.Admin}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&account).Error; err != nil {
				return fmt.Errorf("failed to seed account %s: %w", a.Username, err)
			}
		}

		for _, p := range s.Profiles {
			role := p.Role
			if role == "" {
				role = "guest"
			}
			profile := UserProfile{Principal: p.Principal, Name: p.Name, Email: p.Email, Phone: p.Phone, Company: p.Company, Role: role}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&profile).Error; err != nil {
				return fmt.Errorf("failed to seed profile %s: %w", p.Principal, err)
			}
		}

		var count int64
		if err := tx.Model(&Transporter{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			for _, t := range s.Transporters {
				if err := tx.Create(&Transporter{Name: t.Name, Phone: t.Phone, Verified: t.Verified}).Error; err != nil {
					return fmt.Errorf("failed to seed transporter %s: %w", t.Name, err)
				}
			}
		}

		if err := tx.Model(&Load{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			for _, l := range s.Loads {
				status := l.Status
				if status == "" {
					status = "pending"
				}
				load := Load{ClientID: l.Client, Origin: l.Origin, Destination: l.Destination, WeightKg: l.WeightKg, Price: l.Price, Status: status}
				if err := tx.Create(&load).Error; err != nil {
					return fmt.Errorf("failed to seed load: %w", err)
				}
			}
		}

		for key, value := range s.Settings {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&Setting{Name: key, Value: value}).Error; err != nil {
				return fmt.Errorf("failed to seed setting %s: %w", key, err)
			}
		}

		return nil
	})
}
