package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gdg-garage/events-api/internal/apperr"
	"github.com/gdg-garage/events-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newGormStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.Event{}, &models.EventAttendee{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewGormStore(db)
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("Memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("Gorm", func(t *testing.T) { fn(t, newGormStore(t)) })
}

func seedEvent(t *testing.T, s Store, title, date string) *models.Event {
	t.Helper()
	e := &models.Event{
		Title:       title,
		Description: "A description long enough",
		Date:        date,
		Time:        "09:00 - 18:00",
		Location:    "Main hall",
		Organizer:   "Tech Community",
		Category:    "workshop",
		Status:      models.StatusUpcoming,
	}
	if err := s.CreateEvent(context.Background(), e); err != nil {
		t.Fatalf("CreateEvent(%s): %v", title, err)
	}
	return e
}

func seedUser(t *testing.T, s Store, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Role: models.RoleUser}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

func TestRegister_Duplicate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		event := seedEvent(t, s, "Workshop", "2025-06-01")
		user := seedUser(t, s, "alice")

		reg, err := s.Register(ctx, event.ID, user.ID)
		if err != nil {
			t.Fatalf("first Register returned error: %v", err)
		}
		if reg.ID == 0 || reg.EventID != event.ID || reg.UserID != user.ID {
			t.Errorf("unexpected registration record: %+v", reg)
		}

		got, _ := s.GetEvent(ctx, event.ID)
		if got.Attendees != 1 {
			t.Fatalf("expected 1 attendee after first registration, got %d", got.Attendees)
		}

		_, err = s.Register(ctx, event.ID, user.ID)
		if !errors.Is(err, apperr.ErrDuplicateRegistration) {
			t.Fatalf("expected ErrDuplicateRegistration, got %v", err)
		}

		got, _ = s.GetEvent(ctx, event.ID)
		if got.Attendees != 1 {
			t.Errorf("attendee count changed on duplicate: got %d", got.Attendees)
		}
		count, err := s.CountAttendees(ctx, event.ID)
		if err != nil || count != 1 {
			t.Errorf("expected 1 registration row, got %d (err %v)", count, err)
		}
	})
}

func TestRegister_EventNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		user := seedUser(t, s, "bob")
		_, err := s.Register(context.Background(), 999, user.ID)
		if !errors.Is(err, apperr.ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("expected ErrEventNotFound to match ErrNotFound")
		}
	})
}

func TestRegister_Concurrent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		event := seedEvent(t, s, "Hackathon", "2025-06-01")
		user := seedUser(t, s, "carol")

		const attempts = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Register(ctx, event.ID, user.ID)
				if err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				} else if !errors.Is(err, apperr.ErrDuplicateRegistration) {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if successes != 1 {
			t.Errorf("expected exactly one successful registration, got %d", successes)
		}
		got, _ := s.GetEvent(ctx, event.ID)
		if got.Attendees != 1 {
			t.Errorf("expected attendees 1, got %d", got.Attendees)
		}
	})
}

func TestListEventsForUser(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		late := seedEvent(t, s, "Late", "2025-09-01")
		early := seedEvent(t, s, "Early", "2025-03-01")
		other := seedEvent(t, s, "Other", "2025-05-01")
		alice := seedUser(t, s, "alice")
		bob := seedUser(t, s, "bob")

		for _, id := range []uint{late.ID, early.ID} {
			if _, err := s.Register(ctx, id, alice.ID); err != nil {
				t.Fatalf("Register: %v", err)
			}
		}
		if _, err := s.Register(ctx, other.ID, bob.ID); err != nil {
			t.Fatalf("Register: %v", err)
		}

		events, err := s.ListEventsForUser(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListEventsForUser: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[0].ID != early.ID || events[1].ID != late.ID {
			t.Errorf("expected events ordered by date, got %s then %s", events[0].Title, events[1].Title)
		}

		ok, _ := s.IsRegistered(ctx, other.ID, alice.ID)
		if ok {
			t.Errorf("alice should not be registered for %q", other.Title)
		}

		carol := seedUser(t, s, "carol")
		none, err := s.ListEventsForUser(ctx, carol.ID)
		if err != nil {
			t.Fatalf("ListEventsForUser: %v", err)
		}
		if none == nil || len(none) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", none)
		}
	})
}

func TestDeleteEvent_Cascades(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		event := seedEvent(t, s, "Seminar", "2025-06-01")
		user := seedUser(t, s, "dave")
		if _, err := s.Register(ctx, event.ID, user.ID); err != nil {
			t.Fatalf("Register: %v", err)
		}

		if err := s.DeleteEvent(ctx, event.ID); err != nil {
			t.Fatalf("DeleteEvent: %v", err)
		}
		if _, err := s.GetEvent(ctx, event.ID); !errors.Is(err, apperr.ErrEventNotFound) {
			t.Errorf("expected ErrEventNotFound after delete, got %v", err)
		}
		events, _ := s.ListEventsForUser(ctx, user.ID)
		if len(events) != 0 {
			t.Errorf("expected no registrations after cascade, got %d", len(events))
		}
		if count, _ := s.CountAttendees(ctx, event.ID); count != 0 {
			t.Errorf("expected registration rows to be removed, got %d", count)
		}
		if err := s.DeleteEvent(ctx, event.ID); !errors.Is(err, apperr.ErrEventNotFound) {
			t.Errorf("expected ErrEventNotFound on second delete, got %v", err)
		}
	})
}

func TestDeleteUser_KeepsCountersConsistent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		event := seedEvent(t, s, "Conference", "2025-06-01")
		alice := seedUser(t, s, "alice")
		bob := seedUser(t, s, "bob")
		for _, u := range []*models.User{alice, bob} {
			if _, err := s.Register(ctx, event.ID, u.ID); err != nil {
				t.Fatalf("Register: %v", err)
			}
		}

		if err := s.DeleteUser(ctx, alice.ID); err != nil {
			t.Fatalf("DeleteUser: %v", err)
		}

		got, _ := s.GetEvent(ctx, event.ID)
		count, _ := s.CountAttendees(ctx, event.ID)
		if got.Attendees != 1 || count != 1 {
			t.Errorf("expected counter 1 and 1 row, got counter %d rows %d", got.Attendees, count)
		}
		if _, err := s.GetUser(ctx, alice.ID); !errors.Is(err, apperr.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestUpdateEvent_PreservesCounterAndCreatedAt(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		event := seedEvent(t, s, "Meetup", "2025-06-01")
		user := seedUser(t, s, "erin")
		if _, err := s.Register(ctx, event.ID, user.ID); err != nil {
			t.Fatalf("Register: %v", err)
		}
		created := event.CreatedAt

		update := *event
		update.Title = "Renamed meetup"
		update.Attendees = 500
		if err := s.UpdateEvent(ctx, &update); err != nil {
			t.Fatalf("UpdateEvent: %v", err)
		}

		got, _ := s.GetEvent(ctx, event.ID)
		if got.Title != "Renamed meetup" {
			t.Errorf("expected title to change, got %q", got.Title)
		}
		if got.Attendees != 1 {
			t.Errorf("expected attendees to stay 1, got %d", got.Attendees)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("createdAt changed from %v to %v", created, got.CreatedAt)
		}

		missing := update
		missing.ID = 999
		if err := s.UpdateEvent(ctx, &missing); !errors.Is(err, apperr.ErrEventNotFound) {
			t.Errorf("expected ErrEventNotFound, got %v", err)
		}
	})
}

func TestUsers_Uniqueness(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedUser(t, s, "frank")

		err := s.CreateUser(ctx, &models.User{Username: "frank"})
		if !errors.Is(err, apperr.ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}

		ext := "42:1234"
		linked := &models.User{Username: "grace", ExternalID: &ext}
		if err := s.CreateUser(ctx, linked); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		found, err := s.GetUserByExternalID(ctx, ext)
		if err != nil || found.ID != linked.ID {
			t.Fatalf("GetUserByExternalID: got %+v, err %v", found, err)
		}
		if found.Role != models.RoleUser {
			t.Errorf("expected default role user, got %q", found.Role)
		}
		if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, apperr.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestUpdateEventStatus(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		event := seedEvent(t, s, "Talk", "2025-06-01")
		if err := s.UpdateEventStatus(ctx, event.ID, models.StatusPast); err != nil {
			t.Fatalf("UpdateEventStatus: %v", err)
		}
		got, _ := s.GetEvent(ctx, event.ID)
		if got.Status != models.StatusPast {
			t.Errorf("expected status past, got %s", got.Status)
		}
	})
}

func TestGormStore_UsernameConflictReportsStorageErrors(t *testing.T) {
	s := newGormStore(t).(*GormStore)
	ctx := context.Background()
	taken := seedUser(t, s, "alice")

	if err := s.usernameConflict(ctx, &models.User{Username: taken.Username}); !errors.Is(err, apperr.ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
	if err := s.usernameConflict(ctx, &models.User{Username: "bob"}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.Close()

	err = s.usernameConflict(ctx, &models.User{Username: "bob"})
	var se *apperr.StorageError
	if !errors.As(err, &se) {
		t.Errorf("expected StorageError when the lookup fails, got %v", err)
	}
}
