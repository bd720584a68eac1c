package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/port"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: envelopeMetadata{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes auth.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string         `json:"user_id"`
		Username     string         `json:"username"`
		Email        string         `json:"email,omitempty"`
		Platform     string         `json:"platform"`
		RegisteredAt time.Time      `json:"registered_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		UserID:       event.UserID,
		Username:     event.Username,
		Email:        event.Email,
		Platform:     string(event.Platform),
		RegisteredAt: event.RegisteredAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.user.registered", event.UserID, event.RegisteredAt, payload)
}

// PublishUserLoggedIn publishes auth.user.logged_in events.
func (p *EventPublisher) PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		Username   string    `json:"username"`
		Platform   string    `json:"platform"`
		DeviceID   string    `json:"device_id,omitempty"`
		IP         string    `json:"ip_address,omitempty"`
		LoggedInAt time.Time `json:"logged_in_at"`
	}{
		UserID:     event.UserID,
		Username:   event.Username,
		Platform:   string(event.Platform),
		DeviceID:   event.DeviceID,
		IP:         event.IP,
		LoggedInAt: event.LoggedInAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.user.logged_in", event.UserID, event.LoggedInAt, payload)
}

// PublishPasswordChanged publishes auth.user.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		UserID        string         `json:"user_id"`
		ChangedAt     time.Time      `json:"changed_at"`
		ChangedBy     string         `json:"changed_by"`
		TokensRevoked int            `json:"tokens_revoked"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		UserID:        event.UserID,
		ChangedAt:     event.ChangedAt.UTC(),
		ChangedBy:     event.ChangedBy,
		TokensRevoked: event.TokensRevoked,
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.user.password.changed", event.UserID, event.ChangedAt, payload)
}

// PublishPasswordResetRequested publishes auth.user.password.reset_requested events.
func (p *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := struct {
		UserID            string         `json:"user_id"`
		RequestedAt       time.Time      `json:"requested_at"`
		MaskedDestination string         `json:"masked_destination,omitempty"`
		ExpiresAt         time.Time      `json:"expires_at"`
		Metadata          map[string]any `json:"metadata,omitempty"`
	}{
		UserID:            event.UserID,
		RequestedAt:       event.RequestedAt.UTC(),
		MaskedDestination: event.MaskedDestination,
		ExpiresAt:         event.ExpiresAt.UTC(),
		Metadata:          event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.user.password.reset_requested", event.UserID, event.RequestedAt, payload)
}

// PublishEmailVerified publishes auth.user.email.verified events.
func (p *EventPublisher) PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		Email      string    `json:"email"`
		VerifiedAt time.Time `json:"verified_at"`
	}{
		UserID:     event.UserID,
		Email:      event.Email,
		VerifiedAt: event.VerifiedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.user.email.verified", event.UserID, event.VerifiedAt, payload)
}

// PublishTokensRevoked publishes auth.tokens.revoked events.
func (p *EventPublisher) PublishTokensRevoked(ctx context.Context, event domain.TokensRevokedEvent) error {
	payload := struct {
		UserID        string    `json:"user_id"`
		Platform      string    `json:"platform,omitempty"`
		Reason        string    `json:"reason"`
		TokensRevoked int       `json:"tokens_revoked"`
		RevokedAt     time.Time `json:"revoked_at"`
	}{
		UserID:        event.UserID,
		Platform:      string(event.Platform),
		Reason:        event.Reason,
		TokensRevoked: event.TokensRevoked,
		RevokedAt:     event.RevokedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.tokens.revoked", event.UserID, event.RevokedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
