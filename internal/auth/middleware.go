package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/events-api/internal/apperr"
	"github.com/gdg-garage/events-api/internal/models"
)

// UserLookup loads the current role for a session's user.
type UserLookup interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// SessionMiddleware resolves the caller from the session cookie. A missing,
// invalid or revoked token leaves the request anonymous; the guards decide
// whether that is acceptable.
func SessionMiddleware(sessions *SessionManager, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := sessions.Parse(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			revoked, err := sessions.IsRevoked(ctx, claims.ID)
			if err != nil {
				logger.WarnContext(ctx, "revocation lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if revoked {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUser(ctx, claims.UserID)
			if err != nil {
				if !errors.Is(err, apperr.ErrNotFound) {
					logger.ErrorContext(ctx, "session user lookup failed", "user_id", claims.UserID, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			principal := &Principal{
				UserID:    user.ID,
				Role:      user.Role,
				SessionID: claims.ID,
				ExpiresAt: claims.ExpiresAt.Time,
			}

			// Sliding session: refresh once less than half the lifetime remains.
			// The replaced token is revoked so only the fresh one stays valid.
			if claims.ExpiresAt.Time.Sub(sessions.now()) < sessions.TTL()/2 {
				token, fresh, err := sessions.Issue(user.ID)
				if err == nil {
					err = sessions.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
				}
				if err != nil {
					logger.WarnContext(ctx, "session refresh failed", "user_id", user.ID, "error", err)
				} else {
					c := sessions.Cookie(token, fresh.ExpiresAt.Time)
					http.SetCookie(w, &c)
					principal.SessionID = fresh.ID
					principal.ExpiresAt = fresh.ExpiresAt.Time
				}
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

// RequireAuthenticated rejects anonymous callers with 401.
func RequireAuthenticated(api huma.API) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if PrincipalFromContext(ctx.Context()) == nil {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, apperr.ErrUnauthenticated.Error())
			return
		}
		next(ctx)
	}
}

// RequireAdmin rejects anonymous callers with 401 and non-admins with 403.
func RequireAdmin(api huma.API) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		p := PrincipalFromContext(ctx.Context())
		if p == nil {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, apperr.ErrUnauthenticated.Error())
			return
		}
		if !p.IsAdmin() {
			_ = huma.WriteErr(api, ctx, http.StatusForbidden, apperr.ErrForbidden.Error())
			return
		}
		next(ctx)
	}
}
