package models

import (
	"time"
)

// EventAttendee records that a user registered for an event.
type EventAttendee struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   uint      `gorm:"not null;uniqueIndex:idx_event_user" json:"eventId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_event_user;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (EventAttendee) TableName() string {
	return "event_attendees"
}
