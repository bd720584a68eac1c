package domain

import "time"

// UserRegisteredEvent represents the payload for auth.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Username     string
	Email        string
	Platform     Platform
	RegisteredAt time.Time
	Metadata     map[string]any
}

// UserLoggedInEvent represents the payload for auth.user.logged_in messages.
type UserLoggedInEvent struct {
	EventID    string
	UserID     string
	Username   string
	Platform   Platform
	DeviceID   string
	IP         string
	LoggedInAt time.Time
}

// PasswordChangedEvent represents the payload for auth.user.password.changed messages.
type PasswordChangedEvent struct {
	EventID       string
	UserID        string
	ChangedAt     time.Time
	ChangedBy     string
	TokensRevoked int
	Metadata      map[string]any
}

// PasswordResetRequestedEvent represents the payload for
// auth.user.password.reset_requested messages.
type PasswordResetRequestedEvent struct {
	EventID           string
	UserID            string
	RequestedAt       time.Time
	MaskedDestination string
	ExpiresAt         time.Time
	Metadata          map[string]any
}

// EmailVerifiedEvent represents the payload for auth.user.email.verified messages.
type EmailVerifiedEvent struct {
	EventID    string
	UserID     string
	Email      string
	VerifiedAt time.Time
}

// TokensRevokedEvent represents the payload for auth.tokens.revoked messages,
// emitted on logout, logout-all, and forced revocations.
type TokensRevokedEvent struct {
	EventID       string
	UserID        string
	Platform      Platform
	Reason        string
	TokensRevoked int
	RevokedAt     time.Time
}
