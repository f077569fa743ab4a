package store

import (
	"context"
	"errors"
	"strings"

	"github.com/gdg-garage/events-api/internal/apperr"
	"github.com/gdg-garage/events-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

func (s *GormStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := s.db.WithContext(ctx).Order("date ASC, id ASC").Find(&events).Error; err != nil {
		return nil, apperr.Storage("list events", err)
	}
	return events, nil
}

func (s *GormStore) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, apperr.Storage("get event", notFound(err, apperr.ErrEventNotFound))
	}
	return &event, nil
}

func (s *GormStore) CreateEvent(ctx context.Context, event *models.Event) error {
	event.ID = 0
	event.Attendees = 0
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return apperr.Storage("create event", err)
	}
	return nil
}

func (s *GormStore) UpdateEvent(ctx context.Context, event *models.Event) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Event
		if err := tx.First(&existing, event.ID).Error; err != nil {
			return notFound(err, apperr.ErrEventNotFound)
		}

		err := tx.Model(&existing).Updates(map[string]any{
			"title":       event.Title,
			"description": event.Description,
			"date":        event.Date,
			"time":        event.Time,
			"location":    event.Location,
			"organizer":   event.Organizer,
			"category":    event.Category,
			"image":       event.Image,
			"status":      event.Status,
		}).Error
		if err != nil {
			return err
		}
		return tx.First(event, event.ID).Error
	})
	return apperr.Storage("update event", err)
}

func (s *GormStore) DeleteEvent(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventAttendee{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrEventNotFound
		}
		return nil
	})
	return apperr.Storage("delete event", err)
}

func (s *GormStore) UpdateEventStatus(ctx context.Context, id uint, status models.Status) error {
	res := s.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).UpdateColumn("status", status)
	if res.Error != nil {
		return apperr.Storage("update event status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrEventNotFound
	}
	return nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, apperr.Storage("list users", err)
	}
	return users, nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, apperr.Storage("get user", notFound(err, apperr.ErrUserNotFound))
	}
	return &user, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, apperr.Storage("get user by username", notFound(err, apperr.ErrUserNotFound))
	}
	return &user, nil
}

func (s *GormStore) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, apperr.Storage("get user by external id", notFound(err, apperr.ErrUserNotFound))
	}
	return &user, nil
}

// usernameConflict distinguishes a taken username from other unique
// violations after a failed write.
func (s *GormStore) usernameConflict(ctx context.Context, user *models.User) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND id <> ?", user.Username, user.ID).
		Count(&count).Error
	if err != nil {
		return apperr.Storage("check username", err)
	}
	if count > 0 {
		return apperr.ErrUsernameTaken
	}
	return apperr.ErrConflict
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = 0
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return s.usernameConflict(ctx, user)
		}
		return apperr.Storage("create user", err)
	}
	return nil
}

func (s *GormStore) UpdateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		if err := tx.First(&existing, user.ID).Error; err != nil {
			return notFound(err, apperr.ErrUserNotFound)
		}

		err := tx.Model(&existing).Updates(map[string]any{
			"username":     user.Username,
			"password":     user.Password,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"external_id":  user.ExternalID,
			"role":         user.Role,
		}).Error
		if err != nil {
			return err
		}
		return tx.First(user, user.ID).Error
	})
	if err != nil && !errors.Is(err, apperr.ErrNotFound) && isUniqueViolation(err) {
		return s.usernameConflict(ctx, user)
	}
	return apperr.Storage("update user", err)
}

func (s *GormStore) DeleteUser(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, apperr.ErrUserNotFound)
		}

		registered := tx.Model(&models.EventAttendee{}).Select("event_id").Where("user_id = ?", id)
		err := tx.Model(&models.Event{}).
			Where("id IN (?) AND attendees > 0", registered).
			UpdateColumn("attendees", gorm.Expr("attendees - 1")).Error
		if err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.EventAttendee{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	return apperr.Storage("delete user", err)
}

func (s *GormStore) Register(ctx context.Context, eventID, userID uint) (*models.EventAttendee, error) {
	var reg models.EventAttendee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var event models.Event
		if err := q.First(&event, eventID).Error; err != nil {
			return notFound(err, apperr.ErrEventNotFound)
		}

		var existing int64
		if err := tx.Model(&models.EventAttendee{}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.ErrDuplicateRegistration
		}

		if err := tx.Model(&models.Event{}).Where("id = ?", eventID).
			UpdateColumn("attendees", gorm.Expr("attendees + ?", 1)).Error; err != nil {
			return err
		}

		// The unique index settles races the existence check above misses.
		reg = models.EventAttendee{EventID: eventID, UserID: userID}
		if err := tx.Create(&reg).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.ErrDuplicateRegistration
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage("register", err)
	}
	return &reg, nil
}

func (s *GormStore) ListEventsForUser(ctx context.Context, userID uint) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Joins("JOIN event_attendees ON event_attendees.event_id = events.id").
		Where("event_attendees.user_id = ?", userID).
		Order("events.date ASC, events.id ASC").
		Find(&events).Error
	if err != nil {
		return nil, apperr.Storage("list events for user", err)
	}
	return events, nil
}

func (s *GormStore) IsRegistered(ctx context.Context, eventID, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.EventAttendee{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Storage("check registration", err)
	}
	return count > 0, nil
}

func (s *GormStore) CountAttendees(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.EventAttendee{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Storage("count attendees", err)
	}
	return count, nil
}
