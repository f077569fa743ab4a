package models

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null" json:"username"`
	Password    *string   `json:"-"` // salt:hash, nil for OAuth-only accounts
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	ExternalID  *string   `gorm:"uniqueIndex" json:"-"`
	Role        Role      `gorm:"not null;default:user" json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPassword reports whether the account can use local login.
func (u User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// Linked reports whether the account is tied to an OAuth identity.
func (u User) Linked() bool {
	return u.ExternalID != nil && *u.ExternalID != ""
}

// MarshalJSON exposes whether the account is OAuth-linked without leaking the
// external id itself.
func (u User) MarshalJSON() ([]byte, error) {
	type user User
	return json.Marshal(struct {
		user
		Linked bool `json:"linked"`
	}{user(u), u.Linked()})
}
