package models

import (
	"time"
)

const (
	SendMethodSMS   = "sms"
	SendMethodEmail = "email"
)

// SettingsID is the primary key of the single settings row.
const SettingsID = 1

// WorkSite is the location clock-in is checked against.
type WorkSite struct {
	Address      string   `json:"address"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RadiusMeters float64  `gorm:"default:50" json:"radius_meters"`
}

// IsSet reports whether coordinates are configured
func (w WorkSite) IsSet() bool {
	return w.Latitude != nil && w.Longitude != nil
}

// Settings is the singleton user configuration
type Settings struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserName       string `json:"user_name"`
	RecipientPhone string `json:"recipient_phone"`
	RecipientEmail string `json:"recipient_email"`
	SendMethod     string `gorm:"default:sms" json:"send_method"` // sms, email

	WorkSite WorkSite `gorm:"embedded;embeddedPrefix:work_" json:"work_site"`
}
