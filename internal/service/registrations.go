package service

import (
	"context"

	"github.com/gdg-garage/events-api/internal/models"
)

// Register records userID as attending eventID. The caller has already been
// authenticated; a second attempt for the same pair fails with
// apperr.ErrDuplicateRegistration.
func (s *EventService) Register(ctx context.Context, eventID, userID uint) (*models.EventAttendee, error) {
	reg, err := s.store.Register(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "registration created", "event_id", eventID, "user_id", userID)

	if s.notifier != nil {
		s.background(func(ctx context.Context) {
			s.notifyRegistration(ctx, eventID, userID)
		})
	}
	return reg, nil
}

func (s *EventService) notifyRegistration(ctx context.Context, eventID, userID uint) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "registration notification skipped", "user_id", userID, "error", err)
		return
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		s.logger.WarnContext(ctx, "registration notification skipped", "event_id", eventID, "error", err)
		return
	}
	if err := s.notifier.NotifyRegistration(ctx, *user, *event); err != nil {
		s.logger.WarnContext(ctx, "registration notification failed", "event_id", eventID, "error", err)
	}
}

// RegisteredEvents lists the events userID is registered for, ordered by date.
func (s *EventService) RegisteredEvents(ctx context.Context, userID uint) ([]models.Event, error) {
	events, err := s.store.ListEventsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.resolve(events)
	return events, nil
}

func (s *EventService) IsRegistered(ctx context.Context, eventID, userID uint) (bool, error) {
	return s.store.IsRegistered(ctx, eventID, userID)
}
