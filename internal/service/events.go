package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gdg-garage/events-api/internal/apperr"
	"github.com/gdg-garage/events-api/internal/models"
	"github.com/gdg-garage/events-api/internal/notifier"
	"github.com/gdg-garage/events-api/internal/status"
	"github.com/gdg-garage/events-api/internal/store"
)

// backgroundTimeout bounds status write-backs and notifications.
const backgroundTimeout = 10 * time.Second

type Clock func() time.Time

type EventService struct {
	store    store.Store
	notifier notifier.Notifier
	resolver *status.Resolver
	now      Clock
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewEventService wires the event and registration operations. n may be nil.
func NewEventService(st store.Store, n notifier.Notifier, now Clock, logger *slog.Logger) *EventService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		store:    st,
		notifier: n,
		resolver: status.NewResolver(logger),
		now:      now,
		logger:   logger.With("component", "events"),
	}
}

// EventInput accepts unknown fields such as attendees or status and ignores
// them.
type EventInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Title       string  `json:"title" required:"false" validate:"required,min=3" doc:"Event title"`
	Description string  `json:"description" required:"false" validate:"required,min=10" doc:"Event description"`
	Date        string  `json:"date" required:"false" validate:"required,datetime=2006-01-02" doc:"Calendar date (YYYY-MM-DD)" example:"2025-09-15"`
	Time        string  `json:"time" required:"false" validate:"required" doc:"Start time or range, e.g. 14:00 or 09:00 - 18:00" example:"09:00 - 18:00"`
	Location    string  `json:"location" required:"false" validate:"required,min=3" doc:"Where the event takes place"`
	Organizer   string  `json:"organizer" required:"false" validate:"required,min=2" doc:"Organizing group"`
	Category    string  `json:"category" required:"false" validate:"required" doc:"Event category" example:"workshop"`
	Image       *string `json:"image,omitempty" validate:"omitempty,uri" doc:"Optional image URL"`
}

type EventPatch struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Title       *string `json:"title,omitempty" validate:"omitempty,min=3"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=10"`
	Date        *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time        *string `json:"time,omitempty" validate:"omitempty"`
	Location    *string `json:"location,omitempty" validate:"omitempty,min=3"`
	Organizer   *string `json:"organizer,omitempty" validate:"omitempty,min=2"`
	Category    *string `json:"category,omitempty" validate:"omitempty"`
	Image       *string `json:"image,omitempty" validate:"omitempty,uri" doc:"Empty string removes the image"`
}

type EventFilter struct {
	// Query matches title or description, case-insensitively.
	Query string
	// Status is upcoming, ongoing, past, or empty / "all".
	Status string
}

type statusUpdate struct {
	id     uint
	status models.Status
}

// resolve recomputes the status of every event in place and schedules a
// write-back for the ones whose stored status is stale.
func (s *EventService) resolve(events []models.Event) {
	now := s.now()
	var stale []statusUpdate
	for i := range events {
		fresh := s.resolver.Resolve(events[i].Date, events[i].Time, now)
		if fresh != events[i].Status {
			stale = append(stale, statusUpdate{id: events[i].ID, status: fresh})
			events[i].Status = fresh
		}
	}
	if len(stale) > 0 {
		s.background(func(ctx context.Context) {
			for _, u := range stale {
				err := s.store.UpdateEventStatus(ctx, u.id, u.status)
				if err != nil && !errors.Is(err, apperr.ErrNotFound) {
					s.logger.WarnContext(ctx, "status write-back failed", "event_id", u.id, "error", err)
				}
			}
		})
	}
}

func (s *EventService) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Close waits for in-flight background work.
func (s *EventService) Close() {
	s.wg.Wait()
}

func (s *EventService) List(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	want := models.Status(strings.ToLower(strings.TrimSpace(filter.Status)))
	if want == "all" {
		want = ""
	}
	if want != "" && !want.Valid() {
		return nil, apperr.Invalid("status", "must be one of: all upcoming ongoing past", filter.Status)
	}

	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	s.resolve(events)

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if want != "" && e.Status != want {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(e.Title), query) &&
			!strings.Contains(strings.ToLower(e.Description), query) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Upcoming returns events that are upcoming or ongoing.
func (s *EventService) Upcoming(ctx context.Context) ([]models.Event, error) {
	return s.listWhere(ctx, models.Status.Active)
}

func (s *EventService) Past(ctx context.Context) ([]models.Event, error) {
	return s.listWhere(ctx, func(st models.Status) bool { return st == models.StatusPast })
}

func (s *EventService) listWhere(ctx context.Context, keep func(models.Status) bool) ([]models.Event, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	s.resolve(events)
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if keep(e.Status) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EventService) Get(ctx context.Context, id uint) (*models.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	events := []models.Event{*event}
	s.resolve(events)
	return &events[0], nil
}

func (s *EventService) Create(ctx context.Context, in EventInput) (*models.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.Location = strings.TrimSpace(in.Location)
	in.Organizer = strings.TrimSpace(in.Organizer)
	in.Category = strings.TrimSpace(in.Category)
	in.Image = trimmed(in.Image)
	if in.Image != nil && *in.Image == "" {
		in.Image = nil
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Time:        in.Time,
		Location:    in.Location,
		Organizer:   in.Organizer,
		Category:    in.Category,
		Image:       in.Image,
	}
	event.Status = s.resolver.Resolve(event.Date, event.Time, s.now())
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "event created", "event_id", event.ID, "title", event.Title)
	return event, nil
}

func (s *EventService) Update(ctx context.Context, id uint, patch EventPatch) (*models.Event, error) {
	var blank []apperr.FieldError
	trim := func(field string, v **string) {
		*v = trimmed(*v)
		if *v != nil && **v == "" {
			blank = append(blank, apperr.FieldError{Field: field, Message: "must not be empty", Value: ""})
		}
	}
	trim("title", &patch.Title)
	trim("description", &patch.Description)
	trim("date", &patch.Date)
	trim("time", &patch.Time)
	trim("location", &patch.Location)
	trim("organizer", &patch.Organizer)
	trim("category", &patch.Category)
	if len(blank) > 0 {
		return nil, &apperr.ValidationError{Fields: blank}
	}
	patch.Image = trimmed(patch.Image)
	clearImage := patch.Image != nil && *patch.Image == ""
	if clearImage {
		patch.Image = nil
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&event.Title, patch.Title)
	set(&event.Description, patch.Description)
	set(&event.Date, patch.Date)
	set(&event.Time, patch.Time)
	set(&event.Location, patch.Location)
	set(&event.Organizer, patch.Organizer)
	set(&event.Category, patch.Category)
	switch {
	case clearImage:
		event.Image = nil
	case patch.Image != nil:
		event.Image = patch.Image
	}
	event.Status = s.resolver.Resolve(event.Date, event.Time, s.now())

	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// trimmed returns a copy of p with surrounding whitespace removed.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func (s *EventService) Delete(ctx context.Context, id uint) error {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "event deleted", "event_id", id)
	return nil
}
