package domain

import "time"

// UserStatus enumerates possible account states.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User mirrors the persisted representation in the external user-profile
// store. The lifecycle engine only reads identity, status, and the password
// hash; everything else belongs to the profile service.
type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	Status        UserStatus
	IsActive      bool
	EmailVerified bool
	Roles         []string
	RegisteredAt  time.Time
	LastLogin     *time.Time
}

// CanAuthenticate reports whether the account may hold live credentials.
// Pending accounts keep their token families until verification completes;
// only disabled or deactivated accounts are locked out.
func (u User) CanAuthenticate() bool {
	return u.IsActive && u.Status != UserStatusDisabled
}
