package handlers

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/events-api/internal/auth"
	"github.com/gdg-garage/events-api/internal/models"
	"github.com/gdg-garage/events-api/internal/service"
)

type EventHandler struct {
	events *service.EventService
	logger *slog.Logger
}

func NewEventHandler(events *service.EventService, logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{events: events, logger: logger}
}

type EventListInput struct {
	Query  string `query:"q" doc:"Case-insensitive match on title or description"`
	Status string `query:"status" doc:"all, upcoming, ongoing or past"`
}

type EventListOutput struct {
	Body []models.Event
}

type EventIDInput struct {
	ID uint `path:"id" doc:"Event ID"`
}

type EventOutput struct {
	Body *models.Event
}

type CreateEventInput struct {
	Body service.EventInput
}

type UpdateEventInput struct {
	ID   uint `path:"id" doc:"Event ID"`
	Body service.EventPatch
}

type MessageOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

func message(msg string) *MessageOutput {
	out := &MessageOutput{}
	out.Body.Message = msg
	return out
}

func (h *EventHandler) HandleList(ctx context.Context, input *EventListInput) (*EventListOutput, error) {
	events, err := h.events.List(ctx, service.EventFilter{Query: input.Query, Status: input.Status})
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &EventListOutput{Body: events}, nil
}

func (h *EventHandler) HandleUpcoming(ctx context.Context, _ *struct{}) (*EventListOutput, error) {
	events, err := h.events.Upcoming(ctx)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &EventListOutput{Body: events}, nil
}

func (h *EventHandler) HandlePast(ctx context.Context, _ *struct{}) (*EventListOutput, error) {
	events, err := h.events.Past(ctx)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &EventListOutput{Body: events}, nil
}

func (h *EventHandler) HandleGet(ctx context.Context, input *EventIDInput) (*EventOutput, error) {
	event, err := h.events.Get(ctx, input.ID)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &EventOutput{Body: event}, nil
}

func (h *EventHandler) HandleCreate(ctx context.Context, input *CreateEventInput) (*EventOutput, error) {
	event, err := h.events.Create(ctx, input.Body)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &EventOutput{Body: event}, nil
}

func (h *EventHandler) HandleUpdate(ctx context.Context, input *UpdateEventInput) (*EventOutput, error) {
	event, err := h.events.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &EventOutput{Body: event}, nil
}

func (h *EventHandler) HandleDelete(ctx context.Context, input *EventIDInput) (*MessageOutput, error) {
	if err := h.events.Delete(ctx, input.ID); err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return message("Event deleted successfully"), nil
}

type RegistrationOutput struct {
	Body *models.EventAttendee
}

// HandleRegister registers the calling user for an event.
func (h *EventHandler) HandleRegister(ctx context.Context, input *EventIDInput) (*RegistrationOutput, error) {
	p := auth.PrincipalFromContext(ctx)
	if p == nil {
		return nil, huma.Error401Unauthorized("authentication required")
	}
	reg, err := h.events.Register(ctx, input.ID, p.UserID)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &RegistrationOutput{Body: reg}, nil
}

// HandleMyRegistrations lists the events the calling user registered for.
func (h *EventHandler) HandleMyRegistrations(ctx context.Context, _ *struct{}) (*EventListOutput, error) {
	p := auth.PrincipalFromContext(ctx)
	if p == nil {
		return nil, huma.Error401Unauthorized("authentication required")
	}
	events, err := h.events.RegisteredEvents(ctx, p.UserID)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &EventListOutput{Body: events}, nil
}
