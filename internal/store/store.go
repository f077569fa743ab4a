// Package store persists events, users and registrations. Two implementations
// satisfy Store: MemoryStore for tests and throwaway runs, GormStore for
// SQLite and Postgres.
package store

import (
	"context"

	"github.com/gdg-garage/events-api/internal/models"
)

type EventStore interface {
	// ListEvents returns every event ordered by date, then id.
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	// UpdateEvent writes the editable fields of event. Attendees and
	// CreatedAt are never touched.
	UpdateEvent(ctx context.Context, event *models.Event) error
	// DeleteEvent removes the event and its registrations.
	DeleteEvent(ctx context.Context, id uint) error
	UpdateEventStatus(ctx context.Context, id uint, status models.Status) error
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	// DeleteUser removes the user and its registrations, decrementing the
	// attendee counters of the affected events.
	DeleteUser(ctx context.Context, id uint) error
}

type RegistrationLedger interface {
	// Register records userID as attending eventID and increments the
	// event's attendee counter, atomically. A repeated pair fails with
	// apperr.ErrDuplicateRegistration and changes nothing.
	Register(ctx context.Context, eventID, userID uint) (*models.EventAttendee, error)
	// ListEventsForUser returns the events userID is registered for, ordered
	// by date, then id.
	ListEventsForUser(ctx context.Context, userID uint) ([]models.Event, error)
	IsRegistered(ctx context.Context, eventID, userID uint) (bool, error)
	CountAttendees(ctx context.Context, eventID uint) (int64, error)
}

type Store interface {
	EventStore
	UserStore
	RegistrationLedger
}
