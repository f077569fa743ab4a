package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gdg-garage/events-api/internal/apperr"
	"github.com/gdg-garage/events-api/internal/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in maps guarded by a single mutex.
type MemoryStore struct {
	mu sync.Mutex

	events    map[uint]models.Event
	users     map[uint]models.User
	attendees map[uint]models.EventAttendee

	nextEventID    uint
	nextUserID     uint
	nextAttendeeID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:    make(map[uint]models.Event),
		users:     make(map[uint]models.User),
		attendees: make(map[uint]models.EventAttendee),
	}
}

func sortEvents(events []models.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].ID < events[j].ID
	})
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sortEvents(out)
	return out, nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id uint) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, apperr.ErrEventNotFound
	}
	return &e, nil
}

func (s *MemoryStore) CreateEvent(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	now := time.Now()
	event.ID = s.nextEventID
	event.Attendees = 0
	event.CreatedAt = now
	event.UpdatedAt = now
	s.events[event.ID] = *event
	return nil
}

func (s *MemoryStore) UpdateEvent(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[event.ID]
	if !ok {
		return apperr.ErrEventNotFound
	}
	event.Attendees = existing.Attendees
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = time.Now()
	s.events[event.ID] = *event
	return nil
}

func (s *MemoryStore) DeleteEvent(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return apperr.ErrEventNotFound
	}
	for aid, a := range s.attendees {
		if a.EventID == id {
			delete(s.attendees, aid)
		}
	}
	delete(s.events, id)
	return nil
}

func (s *MemoryStore) UpdateEventStatus(_ context.Context, id uint, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return apperr.ErrEventNotFound
	}
	e.Status = status
	s.events[id] = e
	return nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

func (s *MemoryStore) GetUserByExternalID(_ context.Context, externalID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ExternalID != nil && *u.ExternalID == externalID {
			return &u, nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

// uniqueLocked reports a conflict with any user other than user itself.
func (s *MemoryStore) uniqueLocked(user *models.User) error {
	for _, u := range s.users {
		if u.ID == user.ID {
			continue
		}
		if u.Username == user.Username {
			return apperr.ErrUsernameTaken
		}
		if user.ExternalID != nil && u.ExternalID != nil && *u.ExternalID == *user.ExternalID {
			return apperr.ErrConflict
		}
	}
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = 0
	if err := s.uniqueLocked(user); err != nil {
		return err
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	s.nextUserID++
	now := time.Now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return apperr.ErrUserNotFound
	}
	if err := s.uniqueLocked(user); err != nil {
		return err
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return apperr.ErrUserNotFound
	}
	for aid, a := range s.attendees {
		if a.UserID != id {
			continue
		}
		if e, ok := s.events[a.EventID]; ok && e.Attendees > 0 {
			e.Attendees--
			s.events[a.EventID] = e
		}
		delete(s.attendees, aid)
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) Register(_ context.Context, eventID, userID uint) (*models.EventAttendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return nil, apperr.ErrEventNotFound
	}
	for _, a := range s.attendees {
		if a.EventID == eventID && a.UserID == userID {
			return nil, apperr.ErrDuplicateRegistration
		}
	}

	e.Attendees++
	s.events[eventID] = e

	s.nextAttendeeID++
	reg := models.EventAttendee{
		ID:        s.nextAttendeeID,
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	s.attendees[reg.ID] = reg
	return &reg, nil
}

func (s *MemoryStore) ListEventsForUser(_ context.Context, userID uint) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Event, 0)
	for _, a := range s.attendees {
		if a.UserID != userID {
			continue
		}
		if e, ok := s.events[a.EventID]; ok {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *MemoryStore) IsRegistered(_ context.Context, eventID, userID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.attendees {
		if a.EventID == eventID && a.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CountAttendees(_ context.Context, eventID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, a := range s.attendees {
		if a.EventID == eventID {
			n++
		}
	}
	return n, nil
}
