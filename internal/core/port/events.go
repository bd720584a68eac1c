package port

import (
	"context"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus. Delivery is
// fire-and-forget; callers must not fail their primary outcome on publish
// errors.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishEmailVerified(ctx context.Context, event domain.EmailVerifiedEvent) error
	PublishTokensRevoked(ctx context.Context, event domain.TokensRevokedEvent) error
}
