package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gdg-garage/events-api/internal/apperr"
	"github.com/gdg-garage/events-api/internal/models"
	"github.com/gdg-garage/events-api/internal/store"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(store.NewMemoryStore(), nil)
}

func TestSignupAndAuthenticate(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupInput{Username: "jdoe", Password: "secret123", Email: "jdoe@example.com"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if u.Role != models.RoleUser {
		t.Errorf("expected role user, got %s", u.Role)
	}
	if u.Password == nil || strings.Contains(*u.Password, "secret123") {
		t.Fatalf("password must be stored hashed")
	}

	got, err := svc.Authenticate(ctx, "jdoe", "secret123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated wrong user: %d", got.ID)
	}

	if _, err := svc.Authenticate(ctx, "jdoe", "wrong-password"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "secret123"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestSignup_DuplicateUsername(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Username: "jdoe", Password: "secret123"}); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	_, err := svc.Signup(ctx, SignupInput{Username: "jdoe", Password: "other-secret"})
	if !errors.Is(err, apperr.ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestSignup_Validation(t *testing.T) {
	svc := newUserService(t)
	_, err := svc.Signup(context.Background(), SignupInput{Username: "jd", Password: "123", Email: "not-an-email"})

	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Errorf("expected 3 field errors, got %+v", verr.Fields)
	}
}

func TestAuthenticate_OAuthOnlyAccount(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	u, err := svc.LinkExternal(ctx, ExternalProfile{Provider: "42", ID: "1001", Username: "jdoe"})
	if err != nil {
		t.Fatalf("LinkExternal: %v", err)
	}
	if u.HasPassword() {
		t.Fatal("OAuth-created account must not have a password")
	}

	for _, pw := range []string{"", "anything"} {
		if _, err := svc.Authenticate(ctx, "jdoe", pw); !errors.Is(err, apperr.ErrInvalidCredentials) {
			t.Errorf("password %q: expected ErrInvalidCredentials, got %v", pw, err)
		}
	}
}

func TestLinkExternal(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	first, err := svc.LinkExternal(ctx, ExternalProfile{Provider: "discord", ID: "77", Username: "jdoe", DisplayName: "Jane"})
	if err != nil {
		t.Fatalf("LinkExternal: %v", err)
	}
	if first.ExternalID == nil || *first.ExternalID != "discord:77" {
		t.Fatalf("unexpected external id: %v", first.ExternalID)
	}

	again, err := svc.LinkExternal(ctx, ExternalProfile{Provider: "discord", ID: "77", Username: "renamed"})
	if err != nil {
		t.Fatalf("LinkExternal (second): %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("expected the same user on second login, got %d and %d", first.ID, again.ID)
	}

	// Same username from another provider gets a suffixed name.
	other, err := svc.LinkExternal(ctx, ExternalProfile{Provider: "42", ID: "5", Username: "jdoe"})
	if err != nil {
		t.Fatalf("LinkExternal (collision): %v", err)
	}
	if other.Username != "jdoe-5" {
		t.Errorf("expected suffixed username jdoe-5, got %s", other.Username)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupInput{Username: "jdoe", Password: "secret123"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	name, pw := "Jane Doe", "new-secret"
	updated, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{DisplayName: &name, Password: &pw})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.DisplayName != "Jane Doe" || updated.Role != models.RoleUser {
		t.Errorf("unexpected profile: %+v", updated)
	}
	if _, err := svc.Authenticate(ctx, "jdoe", "new-secret"); err != nil {
		t.Errorf("expected new password to work: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "jdoe", "secret123"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("old password still accepted")
	}
}

func TestEnsureAdmin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin", "admin-secret"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "admin", "admin-secret"); err != nil {
		t.Fatalf("EnsureAdmin (second call): %v", err)
	}

	users, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 1 || !users[0].IsAdmin() {
		t.Errorf("expected exactly one admin, got %+v", users)
	}
}

func TestDeleteUser(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateUserInput{Username: "temp", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, u.ID); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
