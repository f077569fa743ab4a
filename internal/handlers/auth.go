package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/events-api/internal/auth"
	"github.com/gdg-garage/events-api/internal/models"
	"github.com/gdg-garage/events-api/internal/service"
	"github.com/google/uuid"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
)

type AuthHandler struct {
	users       *service.UserService
	sessions    *auth.SessionManager
	providers   auth.Providers
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(users *service.UserService, sessions *auth.SessionManager, providers auth.Providers, frontendURL string, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		users:       users,
		sessions:    sessions,
		providers:   providers,
		frontendURL: frontendURL,
		logger:      logger.With("component", "auth"),
	}
}

type LoginInput struct {
	Body struct {
		Username string `json:"username" required:"false"`
		Password string `json:"password" required:"false"`
	}
}

type SignupInput struct {
	Body service.SignupInput
}

type SessionOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		User *models.User `json:"user"`
	}
}

type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Success bool `json:"success"`
	}
}

type StatusOutput struct {
	Body struct {
		IsAuthenticated bool         `json:"isAuthenticated"`
		User            *models.User `json:"user,omitempty"`
	}
}

type ProviderInput struct {
	Provider string `path:"provider" doc:"OAuth provider (42 or discord)"`
}

type CallbackInput struct {
	Provider    string `path:"provider" doc:"OAuth provider (42 or discord)"`
	Code        string `query:"code"`
	State       string `query:"state"`
	StateCookie string `cookie:"oauth_state"`
}

type RedirectOutput struct {
	Status    int
	Location  string        `header:"Location"`
	SetCookie []http.Cookie `header:"Set-Cookie"`
}

func (h *AuthHandler) startSession(user *models.User) (*SessionOutput, error) {
	cookie, err := h.sessions.NewSession(user.ID)
	if err != nil {
		return nil, err
	}
	out := &SessionOutput{SetCookie: cookie}
	out.Body.User = user
	return out, nil
}

func (h *AuthHandler) HandleLogin(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
	user, err := h.users.Authenticate(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	out, err := h.startSession(user)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	h.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return out, nil
}

// HandleSignup creates a regular account and logs it in.
func (h *AuthHandler) HandleSignup(ctx context.Context, input *SignupInput) (*SessionOutput, error) {
	user, err := h.users.Signup(ctx, input.Body)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	out, err := h.startSession(user)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	return out, nil
}

func (h *AuthHandler) HandleLogout(ctx context.Context, _ *struct{}) (*LogoutOutput, error) {
	if p := auth.PrincipalFromContext(ctx); p != nil {
		if err := h.sessions.Revoke(ctx, p.SessionID, p.ExpiresAt); err != nil {
			h.logger.ErrorContext(ctx, "session revocation failed", "user_id", p.UserID, "error", err)
			return nil, huma.Error500InternalServerError("Error logging out")
		}
		h.logger.InfoContext(ctx, "user logged out", "user_id", p.UserID)
	}
	out := &LogoutOutput{SetCookie: h.sessions.ClearCookie()}
	out.Body.Success = true
	return out, nil
}

func (h *AuthHandler) HandleStatus(ctx context.Context, _ *struct{}) (*StatusOutput, error) {
	out := &StatusOutput{}
	p := auth.PrincipalFromContext(ctx)
	if p == nil {
		return out, nil
	}
	user, err := h.users.Get(ctx, p.UserID)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	out.Body.IsAuthenticated = true
	out.Body.User = user
	return out, nil
}

// HandleProviderLogin redirects to the provider's consent page with a fresh
// state value bound to a short-lived cookie.
func (h *AuthHandler) HandleProviderLogin(ctx context.Context, input *ProviderInput) (*RedirectOutput, error) {
	provider, err := h.providers.Get(input.Provider)
	if err != nil {
		return nil, huma.Error404NotFound("unknown provider")
	}
	state := uuid.NewString()
	return &RedirectOutput{
		Status:   http.StatusFound,
		Location: provider.AuthCodeURL(state),
		SetCookie: []http.Cookie{{
			Name:     stateCookieName,
			Value:    state,
			Path:     "/auth",
			Expires:  time.Now().Add(stateTTL),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}},
	}, nil
}

func (h *AuthHandler) HandleProviderCallback(ctx context.Context, input *CallbackInput) (*RedirectOutput, error) {
	provider, err := h.providers.Get(input.Provider)
	if err != nil {
		return nil, huma.Error404NotFound("unknown provider")
	}
	if input.Code == "" {
		return nil, huma.Error400BadRequest("code not found")
	}
	if input.State == "" || input.State != input.StateCookie {
		return nil, huma.Error400BadRequest("invalid oauth state")
	}

	profile, err := provider.Exchange(ctx, input.Code)
	if err != nil {
		if errors.Is(err, auth.ErrNotGuildMember) {
			return nil, huma.Error403Forbidden("Access denied: you are not a member of the required guild")
		}
		h.logger.WarnContext(ctx, "oauth exchange failed", "provider", provider.Name, "error", err)
		return nil, huma.Error401Unauthorized("authentication failed")
	}

	user, err := h.users.LinkExternal(ctx, profile)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	session, err := h.sessions.NewSession(user.ID)
	if err != nil {
		return nil, httpError(ctx, h.logger, err)
	}
	h.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "provider", provider.Name)

	return &RedirectOutput{
		Status:   http.StatusFound,
		Location: h.frontendURL,
		SetCookie: []http.Cookie{
			session,
			{Name: stateCookieName, Value: "", Path: "/auth", MaxAge: -1, HttpOnly: true},
		},
	}, nil
}
