package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/port"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/config"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/logger"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/security"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/repository"
)

// ResetRequestResult carries the reset token handed to the delivery pipeline
// and the masked destination echoed to the caller.
type ResetRequestResult struct {
	Token             string
	MaskedDestination string
	ExpiresAt         time.Time
}

// PasswordService drives password reset and change flows. Every successful
// credential change revokes all live tokens and sessions everywhere.
type PasswordService struct {
	cfg       *config.AppConfig
	users     port.UserRepository
	tokens    *TokenService
	refresh   port.RefreshTokenStore
	sessions  port.SessionStore
	validator *security.PasswordValidator
	hasher    port.PasswordHasher
	publisher port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewPasswordService constructs a PasswordService instance.
func NewPasswordService(
	cfg *config.AppConfig,
	users port.UserRepository,
	tokens *TokenService,
	refresh port.RefreshTokenStore,
	sessions port.SessionStore,
	validator *security.PasswordValidator,
	hasher port.PasswordHasher,
	publisher port.EventPublisher,
	log *zap.Logger,
) *PasswordService {
	if log == nil {
		log = zap.NewNop()
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}

	service := &PasswordService{
		cfg:       cfg,
		users:     users,
		tokens:    tokens,
		refresh:   refresh,
		sessions:  sessions,
		validator: validator,
		hasher:    hasher,
		publisher: publisher,
		logger:    log,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *PasswordService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// RequestReset issues a one-time password-reset token. An unknown identifier
// returns ErrUserNotFound so the transport can collapse it into the same
// response as success and avoid account enumeration.
func (s *PasswordService) RequestReset(ctx context.Context, identifier string) (*ResetRequestResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrUserNotFound
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	token, claims, err := s.tokens.IssueResetToken(ctx, user, domain.ResetPurposePassword)
	if err != nil {
		return nil, fmt.Errorf("issue reset token: %w", err)
	}

	now := s.now()
	expiresAt := claims.ExpiresAt.Time
	masked := logger.MaskEmail(user.Email)

	s.publish(func() error {
		return s.publisher.PublishPasswordResetRequested(ctx, domain.PasswordResetRequestedEvent{
			EventID:           uuid.NewString(),
			UserID:            user.ID,
			RequestedAt:       now,
			MaskedDestination: masked,
			ExpiresAt:         expiresAt,
		})
	})

	return &ResetRequestResult{
		Token:             token,
		MaskedDestination: masked,
		ExpiresAt:         expiresAt,
	}, nil
}

// ConfirmReset consumes a reset token and installs the new password, then
// revokes every live credential the user holds.
func (s *PasswordService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.ValidateResetToken(ctx, token, domain.ResetPurposePassword)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	if err := s.tokens.MarkResetTokenUsed(ctx, token); err != nil {
		return err
	}

	return s.installPassword(ctx, claims.Subject, newPassword, "password_reset")
}

// ChangePassword verifies the current password before installing the new one
// and revoking every live credential.
func (s *PasswordService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !ok {
		return ErrCurrentPasswordInvalid
	}

	if err := s.validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	return s.installPassword(ctx, userID, newPassword, "password_change")
}

func (s *PasswordService) installPassword(ctx context.Context, userID, newPassword, changedBy string) error {
	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	if err := s.users.UpdatePassword(ctx, userID, passwordHash, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	tokensRevoked, err := s.refresh.RevokeAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	sessionsRevoked, err := s.sessions.RevokeAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	s.logger.Info("password changed",
		zap.String("user_id", userID),
		zap.String("changed_by", changedBy),
		zap.Int("tokens_revoked", tokensRevoked),
		zap.Int("sessions_revoked", sessionsRevoked),
	)

	s.publish(func() error {
		return s.publisher.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
			EventID:       uuid.NewString(),
			UserID:        userID,
			ChangedAt:     now,
			ChangedBy:     changedBy,
			TokensRevoked: tokensRevoked + sessionsRevoked,
		})
	})

	return nil
}

func (s *PasswordService) publish(fn func() error) {
	if s.publisher == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("publish event failed", zap.Error(err))
	}
}
