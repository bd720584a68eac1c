package security

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
)

// AccessTokenClaims augments registered claims with identity and platform
// context. The registered ID claim carries the jti used for blacklisting.
type AccessTokenClaims struct {
	Username    string          `json:"username"`
	Email       string          `json:"email,omitempty"`
	Roles       []string        `json:"roles,omitempty"`
	Permissions []string        `json:"permissions,omitempty"`
	Platform    domain.Platform `json:"platform"`
	DeviceID    string          `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}

// RefreshTokenClaims carries the rotation lineage: every refresh token
// belongs to a family and embeds the family version it was minted at.
type RefreshTokenClaims struct {
	Username    string          `json:"username"`
	Platform    domain.Platform `json:"platform"`
	DeviceID    string          `json:"device_id,omitempty"`
	TokenFamily string          `json:"token_family"`
	Version     int64           `json:"version"`
	jwt.RegisteredClaims
}

// ResetTokenClaims carries the short-lived reset/verification token payload.
type ResetTokenClaims struct {
	Email      string              `json:"email"`
	Purpose    domain.ResetPurpose `json:"type"`
	OneTimeUse bool                `json:"one_time_use"`
	jwt.RegisteredClaims
}
