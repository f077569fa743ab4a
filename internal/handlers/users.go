package handlers

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/events-api/internal/auth"
	"github.com/gdg-garage/events-api/internal/models"
	"github.com/gdg-garage/events-api/internal/service"
)

type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

type UserListOutput struct {
	Body []models.User
}

type UserOutput struct {
	Body *models.User
}

type UserIDInput struct {
	ID uint `path:"id" doc:"User ID"`
}

type CreateUserInput struct {
	Body service.CreateUserInput
}

type UpdateUserInput struct {
	ID   uint `path:"id" doc:"User ID"`
	Body service.UpdateUserInput
}

type UpdateProfileInput struct {
	Body service.ProfileInput
}

func (h *UserHandler) HandleList(ctx context.Context, _ *struct{}) (*UserListOutput, error) {
	users, err := h.users.List(ctx)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &UserListOutput{Body: users}, nil
}

func (h *UserHandler) HandleCreate(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	user, err := h.users.Create(ctx, input.Body)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &UserOutput{Body: user}, nil
}

func (h *UserHandler) HandleUpdate(ctx context.Context, input *UpdateUserInput) (*UserOutput, error) {
	user, err := h.users.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &UserOutput{Body: user}, nil
}

func (h *UserHandler) HandleDelete(ctx context.Context, input *UserIDInput) (*MessageOutput, error) {
	if err := h.users.Delete(ctx, input.ID); err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return message("User deleted successfully"), nil
}

func (h *UserHandler) HandleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	p := auth.PrincipalFromContext(ctx)
	if p == nil {
		return nil, huma.Error401Unauthorized("authentication required")
	}
	user, err := h.users.UpdateProfile(ctx, p.UserID, input.Body)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return &UserOutput{Body: user}, nil
}
