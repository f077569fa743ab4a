package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gdg-garage/events-api/internal/apperr"
	"github.com/gdg-garage/events-api/internal/auth/password"
	"github.com/gdg-garage/events-api/internal/models"
	"github.com/gdg-garage/events-api/internal/store"
)

type UserService struct {
	store  store.UserStore
	logger *slog.Logger
}

func NewUserService(st store.UserStore, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{store: st, logger: logger.With("component", "users")}
}

// SignupInput ignores unknown fields; in particular a requested role.
type SignupInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Username    string `json:"username" required:"false" validate:"required,min=3,max=64"`
	Password    string `json:"password" required:"false" validate:"required,min=6,max=128"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	DisplayName string `json:"displayName,omitempty" validate:"omitempty,max=100"`
}

type CreateUserInput struct {
	Username    string      `json:"username" required:"false" validate:"required,min=3,max=64"`
	Password    string      `json:"password,omitempty" validate:"omitempty,min=6,max=128" doc:"Leave empty for accounts that only sign in through OAuth"`
	Email       string      `json:"email,omitempty" validate:"omitempty,email"`
	DisplayName string      `json:"displayName,omitempty" validate:"omitempty,max=100"`
	Role        models.Role `json:"role,omitempty" validate:"omitempty,oneof=user admin" enum:"user,admin"`
}

type UpdateUserInput struct {
	Username    *string      `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Password    *string      `json:"password,omitempty" validate:"omitempty,min=6,max=128"`
	Email       *string      `json:"email,omitempty" validate:"omitempty,email"`
	DisplayName *string      `json:"displayName,omitempty" validate:"omitempty,max=100"`
	Role        *models.Role `json:"role,omitempty" validate:"omitempty,oneof=user admin" enum:"user,admin"`
}

type ProfileInput struct {
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,max=100"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6,max=128"`
}

// ExternalProfile is the identity an OAuth provider reports for a user.
type ExternalProfile struct {
	Provider    string
	ID          string
	Username    string
	DisplayName string
	Email       string
}

func (p ExternalProfile) ExternalID() string {
	return p.Provider + ":" + p.ID
}

func hashPassword(plain string) (*string, error) {
	hashed, err := password.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &hashed, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// Signup creates a regular user account. The role is never taken from input.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	return s.Create(ctx, CreateUserInput{
		Username:    in.Username,
		Password:    in.Password,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Role:        models.RoleUser,
	})
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Role:        in.Role,
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if in.Password != "" {
		hashed, err := hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, in UpdateUserInput) (*models.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return nil, apperr.Invalid("username", "must not be empty", *in.Username)
		}
		user.Username = name
	}
	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*in.DisplayName)
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.Password != nil && *in.Password != "" {
		if user.Password, err = hashPassword(*in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile lets a user change their own contact details and password.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	return s.Update(ctx, userID, UpdateUserInput{
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Password:    in.Password,
	})
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// equalizeTiming spends the same KDF work as a real comparison so unknown
// usernames are not distinguishable by response time.
func equalizeTiming(plain string) {
	dummyOnce.Do(func() {
		dummyHash, _ = password.Hash("not-a-real-password")
	})
	password.Verify(dummyHash, plain)
}

// Authenticate checks local credentials. Unknown users, accounts without a
// password and wrong passwords all yield apperr.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, plain string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			equalizeTiming(plain)
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.HasPassword() {
		equalizeTiming(plain)
		return nil, apperr.ErrInvalidCredentials
	}
	if !password.Verify(*user.Password, plain) {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

// LinkExternal returns the user bound to an OAuth identity, creating it on
// first login.
func (s *UserService) LinkExternal(ctx context.Context, p ExternalProfile) (*models.User, error) {
	if p.Provider == "" || p.ID == "" {
		return nil, apperr.Invalid("externalId", "provider and id are required", p.ExternalID())
	}
	externalID := p.ExternalID()

	user, err := s.store.GetUserByExternalID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	username := strings.TrimSpace(p.Username)
	if username == "" {
		username = p.Provider + "-" + p.ID
	}
	user = &models.User{
		Username:    username,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		ExternalID:  &externalID,
		Role:        models.RoleUser,
	}
	if user.DisplayName == "" {
		user.DisplayName = username
	}

	err = s.store.CreateUser(ctx, user)
	if errors.Is(err, apperr.ErrUsernameTaken) {
		user.Username = username + "-" + p.ID
		err = s.store.CreateUser(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user created from oauth", "user_id", user.ID, "provider", p.Provider)
	return user, nil
}

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
func (s *UserService) EnsureAdmin(ctx context.Context, username, plain string) error {
	if username == "" || plain == "" {
		return nil
	}
	_, err := s.store.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	_, err = s.Create(ctx, CreateUserInput{Username: username, Password: plain, Role: models.RoleAdmin})
	return err
}
