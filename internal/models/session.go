package models

import (
	"time"
)

// Session is a persisted work session. DepartureTime is nil while the session is
// open; Duration is set together with it.
type Session struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ArrivalTime   time.Time  `gorm:"not null" json:"arrival_time"`
	DepartureTime *time.Time `json:"departure_time"`
	Duration      *int       `json:"duration"` // whole minutes
	Date          string     `gorm:"not null;index" json:"date"`
}

// IsOpen reports whether the session has no departure yet
func (s Session) IsOpen() bool {
	return s.DepartureTime == nil
}
