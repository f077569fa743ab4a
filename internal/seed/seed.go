// Package seed loads development fixtures into the store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gdg-garage/events-api/internal/apperr"
	"github.com/gdg-garage/events-api/internal/models"
	"github.com/gdg-garage/events-api/internal/service"
	"github.com/gdg-garage/events-api/internal/store"
	"gopkg.in/yaml.v3"
)

type User struct {
	Username    string      `yaml:"username"`
	Password    string      `yaml:"password"`
	Email       string      `yaml:"email"`
	DisplayName string      `yaml:"displayName"`
	Role        models.Role `yaml:"role"`
}

type Event struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Date        string `yaml:"date"`
	Time        string `yaml:"time"`
	Location    string `yaml:"location"`
	Organizer   string `yaml:"organizer"`
	Category    string `yaml:"category"`
	Image       string `yaml:"image"`
}

type Fixture struct {
	Users  []User  `yaml:"users"`
	Events []Event `yaml:"events"`
}

func Load(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (*Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &fx, nil
}

// Result counts what Apply inserted and skipped.
type Result struct {
	UsersCreated  int
	UsersSkipped  int
	EventsCreated int
	EventsSkipped int
}

// Apply inserts the fixture's users and events that are not present yet.
// Users are matched by username, events by title and date.
func Apply(ctx context.Context, st store.Store, fx *Fixture, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	users := service.NewUserService(st, logger)
	events := service.NewEventService(st, nil, nil, logger)
	defer events.Close()

	var res Result
	for _, u := range fx.Users {
		_, err := st.GetUserByUsername(ctx, u.Username)
		if err == nil {
			res.UsersSkipped++
			continue
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return res, err
		}
		_, err = users.Create(ctx, service.CreateUserInput{
			Username:    u.Username,
			Password:    u.Password,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Role:        u.Role,
		})
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		res.UsersCreated++
	}

	existing, err := st.ListEvents(ctx)
	if err != nil {
		return res, err
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.Title+"|"+e.Date] = true
	}

	for _, e := range fx.Events {
		key := e.Title + "|" + e.Date
		if seen[key] {
			res.EventsSkipped++
			continue
		}
		in := service.EventInput{
			Title:       e.Title,
			Description: e.Description,
			Date:        e.Date,
			Time:        e.Time,
			Location:    e.Location,
			Organizer:   e.Organizer,
			Category:    e.Category,
		}
		if e.Image != "" {
			image := e.Image
			in.Image = &image
		}
		if _, err := events.Create(ctx, in); err != nil {
			return res, fmt.Errorf("seed event %q: %w", e.Title, err)
		}
		seen[key] = true
		res.EventsCreated++
	}
	return res, nil
}
