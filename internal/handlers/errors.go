package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/events-api/internal/apperr"
)

// httpError translates the apperr taxonomy into huma errors. Anything not in
// the taxonomy is logged and reported as a generic 500.
func httpError(ctx context.Context, logger *slog.Logger, err error) error {
	var verr *apperr.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		details := make([]error, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, &huma.ErrorDetail{
				Message:  f.Message,
				Location: "body." + f.Field,
				Value:    f.Value,
			})
		}
		return huma.Error400BadRequest("validation failed", details...)
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return huma.Error401Unauthorized(apperr.ErrInvalidCredentials.Error())
	case errors.Is(err, apperr.ErrUnauthenticated):
		return huma.Error401Unauthorized(apperr.ErrUnauthenticated.Error())
	case errors.Is(err, apperr.ErrForbidden):
		return huma.Error403Forbidden(apperr.ErrForbidden.Error())
	case errors.Is(err, apperr.ErrEventNotFound):
		return huma.Error404NotFound("event not found")
	case errors.Is(err, apperr.ErrUserNotFound):
		return huma.Error404NotFound("user not found")
	case errors.Is(err, apperr.ErrNotFound):
		return huma.Error404NotFound("not found")
	case errors.Is(err, apperr.ErrDuplicateRegistration):
		return huma.Error409Conflict(apperr.ErrDuplicateRegistration.Error())
	case errors.Is(err, apperr.ErrUsernameTaken):
		return huma.Error409Conflict("username already taken")
	case errors.Is(err, apperr.ErrConflict):
		return huma.Error409Conflict("conflict")
	}

	logger.ErrorContext(ctx, "request failed", "error", err)
	return huma.Error500InternalServerError("internal server error")
}
