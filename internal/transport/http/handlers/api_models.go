package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/transport/http/middleware"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response carrying the request's trace ID.
func NewErrorResponse(c *gin.Context, msg string) ErrorResponse {
	return ErrorResponse{
		Error:   msg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary describes the minimal view of a user returned by the API.
type UserSummary struct {
	ID            string            `json:"id"`
	Username      string            `json:"username"`
	Email         string            `json:"email,omitempty"`
	Status        domain.UserStatus `json:"status"`
	EmailVerified bool              `json:"email_verified"`
	Roles         []string          `json:"roles,omitempty"`
}

func newUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		Status:        user.Status,
		EmailVerified: user.EmailVerified,
		Roles:         user.Roles,
	}
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// SessionSummary provides a compact view of a session.
type SessionSummary struct {
	ID        string    `json:"id"`
	Platform  string    `json:"platform"`
	DeviceID  string    `json:"device_id,omitempty"`
	IP        string    `json:"ip,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newSessionSummary(session *domain.Session) SessionSummary {
	return SessionSummary{
		ID:        session.ID,
		Platform:  string(session.Platform),
		DeviceID:  session.DeviceID,
		IP:        session.IP,
		CreatedAt: session.CreatedAt,
		LastSeen:  session.LastSeen,
		ExpiresAt: session.ExpiresAt,
	}
}

// LoginResponse describes the response returned for a successful login.
// Session is only populated for web clients.
type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"`
	User         UserSummary     `json:"user"`
	Session      *SessionSummary `json:"session,omitempty"`
}

// RefreshRequest represents the payload to rotate a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse contains the fresh pair issued by rotation.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// RevocationResponse reports how many credentials a revocation touched.
type RevocationResponse struct {
	Message       string `json:"message"`
	TokensRevoked int    `json:"tokens_revoked"`
}

// RegisterRequest defines the account registration payload.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// RegisterResponse contains the created account, its first token pair, and
// next steps.
type RegisterResponse struct {
	User                 UserSummary `json:"user"`
	AccessToken          string      `json:"access_token"`
	RefreshToken         string      `json:"refresh_token"`
	TokenType            string      `json:"token_type"`
	ExpiresIn            int         `json:"expires_in"`
	RequiresVerification bool        `json:"requires_verification"`
	Message              string      `json:"message,omitempty"`
	// DevToken is only populated in development environments; in production
	// the verification token travels through the delivery pipeline.
	DevToken string `json:"dev_token,omitempty"`
}

// VerifyEmailRequest holds the email verification payload.
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// PasswordChangeRequest holds the authenticated password change payload.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// PasswordResetRequest asks for a reset token to be delivered.
type PasswordResetRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// PasswordResetResponse acknowledges a reset request. The same body is
// returned whether or not the identifier matched an account.
type PasswordResetResponse struct {
	Message     string `json:"message"`
	Destination string `json:"destination,omitempty"`
	// DevToken is only populated in development environments.
	DevToken string `json:"dev_token,omitempty"`
}

// PasswordResetConfirmRequest consumes a reset token and installs a password.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// SessionListResponse lists the caller's live sessions.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
	Total    int              `json:"total"`
}

// HealthResponse reports liveness and dependency status.
type HealthResponse struct {
	Status    string            `json:"status"`
	StartedAt time.Time         `json:"started_at"`
	Checks    map[string]string `json:"checks,omitempty"`
}
