package domain

import "time"

// RefreshTokenRecord mirrors the signed refresh token claims inside the
// refresh registry, keyed by (userID, token digest).
type RefreshTokenRecord struct {
	UserID     string    `json:"user_id"`
	TokenHash  string    `json:"-"`
	Family     string    `json:"family"`
	Platform   Platform  `json:"platform"`
	DeviceID   string    `json:"device_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// IsExpired reports whether the record has elapsed its validity window.
func (r RefreshTokenRecord) IsExpired(at time.Time, ttl time.Duration) bool {
	return !r.CreatedAt.Add(ttl).After(at)
}

// AccessTokenJTI tracks an issued access token identifier for future
// blacklisting. Only the identifier and issuance context are stored.
type AccessTokenJTI struct {
	JTI       string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BlacklistEntry marks a revoked access token identifier for the remainder of
// the token's natural lifetime.
type BlacklistEntry struct {
	JTI           string    `json:"-"`
	BlacklistedAt time.Time `json:"blacklisted_at"`
	Reason        string    `json:"reason,omitempty"`
}

// ResetPurpose distinguishes the two reset-class token flavors.
type ResetPurpose string

const (
	ResetPurposePassword ResetPurpose = "password-reset"
	ResetPurposeEmail    ResetPurpose = "email-verification"
)

// IsValid reports whether the purpose is a known reset-class flavor.
func (p ResetPurpose) IsValid() bool {
	return p == ResetPurposePassword || p == ResetPurposeEmail
}

// ResetTokenRecord tracks an issued reset/verification token.
type ResetTokenRecord struct {
	TokenHash string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ResetTokenUsage records the single consumption of a reset-class token.
type ResetTokenUsage struct {
	UsedAt time.Time `json:"used_at"`
}
