package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs auth.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"username":      event.Username,
		"email":         event.Email,
		"platform":      event.Platform,
		"registered_at": event.RegisteredAt,
		"metadata":      event.Metadata,
	}
	p.logEvent("auth.user.registered", event.UserID, event.RegisteredAt, payload)
	return nil
}

// PublishUserLoggedIn logs auth.user.logged_in events.
func (p *StubPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	payload := map[string]any{
		"user_id":      event.UserID,
		"username":     event.Username,
		"platform":     event.Platform,
		"device_id":    event.DeviceID,
		"ip_address":   event.IP,
		"logged_in_at": event.LoggedInAt,
	}
	p.logEvent("auth.user.logged_in", event.UserID, event.LoggedInAt, payload)
	return nil
}

// PublishPasswordChanged logs auth.user.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"user_id":        event.UserID,
		"changed_at":     event.ChangedAt,
		"changed_by":     event.ChangedBy,
		"tokens_revoked": event.TokensRevoked,
		"metadata":       event.Metadata,
	}
	p.logEvent("auth.user.password.changed", event.UserID, event.ChangedAt, payload)
	return nil
}

// PublishPasswordResetRequested logs auth.user.password.reset_requested events.
func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := map[string]any{
		"user_id":            event.UserID,
		"requested_at":       event.RequestedAt,
		"masked_destination": event.MaskedDestination,
		"expires_at":         event.ExpiresAt,
		"metadata":           event.Metadata,
	}
	p.logEvent("auth.user.password.reset_requested", event.UserID, event.RequestedAt, payload)
	return nil
}

// PublishEmailVerified logs auth.user.email.verified events.
func (p *StubPublisher) PublishEmailVerified(_ context.Context, event domain.EmailVerifiedEvent) error {
	payload := map[string]any{
		"user_id":     event.UserID,
		"email":       event.Email,
		"verified_at": event.VerifiedAt,
	}
	p.logEvent("auth.user.email.verified", event.UserID, event.VerifiedAt, payload)
	return nil
}

// PublishTokensRevoked logs auth.tokens.revoked events.
func (p *StubPublisher) PublishTokensRevoked(_ context.Context, event domain.TokensRevokedEvent) error {
	payload := map[string]any{
		"user_id":        event.UserID,
		"platform":       event.Platform,
		"reason":         event.Reason,
		"tokens_revoked": event.TokensRevoked,
		"revoked_at":     event.RevokedAt,
	}
	p.logEvent("auth.tokens.revoked", event.UserID, event.RevokedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
