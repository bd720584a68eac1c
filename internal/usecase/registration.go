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

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Device   domain.DeviceInfo
}

// RegisterResult carries the created user, their first token pair, and the
// email-verification token handed to the delivery pipeline.
type RegisterResult struct {
	User              *domain.User
	AccessToken       string
	RefreshToken      string
	VerificationToken string
}

// RegistrationService creates accounts and drives email verification.
type RegistrationService struct {
	cfg       *config.AppConfig
	users     port.UserRepository
	tokens    *TokenService
	validator *security.PasswordValidator
	hasher    port.PasswordHasher
	publisher port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistrationService constructs a RegistrationService instance.
func NewRegistrationService(
	cfg *config.AppConfig,
	users port.UserRepository,
	tokens *TokenService,
	validator *security.PasswordValidator,
	hasher port.PasswordHasher,
	publisher port.EventPublisher,
	log *zap.Logger,
) *RegistrationService {
	if log == nil {
		log = zap.NewNop()
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}

	service := &RegistrationService{
		cfg:       cfg,
		users:     users,
		tokens:    tokens,
		validator: validator,
		hasher:    hasher,
		publisher: publisher,
		logger:    log,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *RegistrationService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Register creates a pending account, mints its first access/refresh pair,
// and issues the email-verification token. The account stays pending until
// VerifyEmail runs, but its credentials are live immediately.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if username == "" || email == "" {
		return nil, errors.New("username and email are required")
	}

	if err := s.validator.Validate(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	for _, identifier := range []string{username, email} {
		_, err := s.users.GetByIdentifier(ctx, identifier)
		if err == nil {
			return nil, ErrUserExists
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("check existing user: %w", err)
		}
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       domain.UserStatusPending,
		IsActive:     true,
		Roles:        []string{"user"},
		RegisteredAt: now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	refreshToken, _, err := s.tokens.IssueRefreshToken(ctx, &user, input.Device, "")
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	accessToken, _, err := s.tokens.IssueAccessToken(ctx, &user, input.Device)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	verificationToken, _, err := s.tokens.IssueResetToken(ctx, &user, domain.ResetPurposeEmail)
	if err != nil {
		return nil, fmt.Errorf("issue verification token: %w", err)
	}

	s.logger.Info("registered user",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(email)),
	)

	s.publish(func() error {
		return s.publisher.PublishUserRegistered(ctx, domain.UserRegisteredEvent{
			EventID:      uuid.NewString(),
			UserID:       user.ID,
			Username:     user.Username,
			Email:        user.Email,
			Platform:     input.Device.Platform,
			RegisteredAt: now,
		})
	})

	return &RegisterResult{
		User:              &user,
		AccessToken:       accessToken,
		RefreshToken:      refreshToken,
		VerificationToken: verificationToken,
	}, nil
}

// VerifyEmail consumes an email-verification token and marks the address
// verified, activating pending accounts.
func (s *RegistrationService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.ValidateResetToken(ctx, token, domain.ResetPurposeEmail)
	if err != nil {
		return err
	}

	if err := s.tokens.MarkResetTokenUsed(ctx, token); err != nil {
		return err
	}

	now := s.now()
	if err := s.users.SetEmailVerified(ctx, claims.Subject, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set email verified: %w", err)
	}

	s.publish(func() error {
		return s.publisher.PublishEmailVerified(ctx, domain.EmailVerifiedEvent{
			EventID:    uuid.NewString(),
			UserID:     claims.Subject,
			Email:      claims.Email,
			VerifiedAt: now,
		})
	})

	return nil
}

func (s *RegistrationService) publish(fn func() error) {
	if s.publisher == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("publish event failed", zap.Error(err))
	}
}
