package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gdg-garage/events-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CookieName = "auth_token"

var ErrInvalidToken = errors.New("invalid session token")

// Claims is the payload of the session cookie.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Principal is the caller resolved for the current request.
type Principal struct {
	UserID    uint
	Role      models.Role
	SessionID string
	ExpiresAt time.Time
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

type contextKey string

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

type SessionManager struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	revoked RevocationStore
	now     func() time.Time
}

func NewSessionManager(secret string, ttl time.Duration, secure bool, revoked RevocationStore) *SessionManager {
	if revoked == nil {
		revoked = NewMemoryRevocationStore()
	}
	return &SessionManager{
		secret:  []byte(secret),
		ttl:     ttl,
		secure:  secure,
		revoked: revoked,
		now:     time.Now,
	}
}

func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Issue signs a new session for userID with a fresh session id.
func (m *SessionManager) Issue(userID uint) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies the signature and expiry of a session token.
func (m *SessionManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == 0 || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke invalidates a session until it would have expired anyway.
func (m *SessionManager) Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if sessionID == "" {
		return nil
	}
	return m.revoked.Revoke(ctx, sessionID, expiresAt)
}

func (m *SessionManager) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	return m.revoked.IsRevoked(ctx, sessionID)
}

func (m *SessionManager) Cookie(token string, expires time.Time) http.Cookie {
	return http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
}

func (m *SessionManager) ClearCookie() http.Cookie {
	return http.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
}

// NewSession issues a token and returns it as a cookie ready to set.
func (m *SessionManager) NewSession(userID uint) (http.Cookie, error) {
	token, claims, err := m.Issue(userID)
	if err != nil {
		return http.Cookie{}, err
	}
	return m.Cookie(token, claims.ExpiresAt.Time), nil
}
