package models

import (
	"time"
)

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusPast     Status = "past"
)

// DateLayout is the calendar date format stored in Event.Date.
const DateLayout = "2006-01-02"

type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"not null" json:"description"`
	Date        string    `gorm:"not null;index" json:"date"`
	Time        string    `gorm:"not null" json:"time"`
	Location    string    `gorm:"not null" json:"location"`
	Organizer   string    `gorm:"not null" json:"organizer"`
	Category    string    `gorm:"not null" json:"category"`
	Image       *string   `json:"image,omitempty"`
	Attendees   int       `gorm:"not null;default:0" json:"attendees"`
	Status      Status    `gorm:"not null;default:upcoming" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime;<-:create" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Active reports whether the event belongs in the upcoming listing.
func (s Status) Active() bool {
	return s == StatusUpcoming || s == StatusOngoing
}

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusPast:
		return true
	}
	return false
}
