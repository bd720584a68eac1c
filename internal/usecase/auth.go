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

// LoginInput carries the credentials and request context for a login attempt.
type LoginInput struct {
	Identifier string
	Password   string
	Device     domain.DeviceInfo
	IP         string
	UserAgent  string
}

// LoginResult carries the artifacts of a successful login. Session is only
// populated for web clients.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Session      *domain.Session
	User         *domain.User
}

// LogoutInput identifies what to tear down on logout.
type LogoutInput struct {
	AccessClaims *security.AccessTokenClaims
	SessionID    string
}

// AuthService orchestrates login, refresh, and logout across the token,
// session, and user stores.
type AuthService struct {
	cfg       *config.AppConfig
	users     port.UserRepository
	tokens    *TokenService
	rotation  *RotationService
	refresh   port.RefreshTokenStore
	sessions  port.SessionStore
	hasher    port.PasswordHasher
	publisher port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	users port.UserRepository,
	tokens *TokenService,
	rotation *RotationService,
	refresh port.RefreshTokenStore,
	sessions port.SessionStore,
	hasher port.PasswordHasher,
	publisher port.EventPublisher,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}

	service := &AuthService{
		cfg:       cfg,
		users:     users,
		tokens:    tokens,
		rotation:  rotation,
		refresh:   refresh,
		sessions:  sessions,
		hasher:    hasher,
		publisher: publisher,
		logger:    log,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Login verifies credentials and mints a fresh token pair in a new family.
// Web clients additionally get a cookie session.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Info("failed login attempt",
			zap.String("identifier", logger.MaskString(identifier)),
			zap.String("ip", logger.MaskIP(input.IP)),
		)
		return nil, ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		return nil, ErrInactiveAccount
	}

	refreshToken, _, err := s.tokens.IssueRefreshToken(ctx, user, input.Device, "")
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	accessToken, _, err := s.tokens.IssueAccessToken(ctx, user, input.Device)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	result := &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}

	if input.Device.Platform == domain.PlatformWeb {
		session, sessErr := s.createSession(ctx, user.ID, input)
		if sessErr != nil {
			return nil, sessErr
		}
		result.Session = session
	}

	now := s.now()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("record login failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.publish(func() error {
		return s.publisher.PublishUserLoggedIn(ctx, domain.UserLoggedInEvent{
			EventID:    uuid.NewString(),
			UserID:     user.ID,
			Username:   user.Username,
			Platform:   input.Device.Platform,
			DeviceID:   input.Device.DeviceID,
			IP:         input.IP,
			LoggedInAt: now,
		})
	})

	return result, nil
}

// Refresh exchanges a refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RotationResult, error) {
	return s.rotation.Rotate(ctx, refreshToken)
}

// Logout revokes the presented access token, the user's refresh tokens on
// the same platform, and the web session if one is attached.
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) (int, error) {
	if input.AccessClaims == nil {
		return 0, ErrInvalidAccessToken
	}

	userID := strings.TrimSpace(input.AccessClaims.Subject)
	if userID == "" {
		return 0, ErrInvalidAccessToken
	}

	if err := s.tokens.RevokeAccessToken(ctx, input.AccessClaims, "user_logout"); err != nil {
		return 0, err
	}

	revoked, err := s.refresh.RevokeForPlatform(ctx, userID, input.AccessClaims.Platform)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens: %w", err)
	}

	if sessionID := strings.TrimSpace(input.SessionID); sessionID != "" {
		if err := s.sessions.Delete(ctx, userID, sessionID); err != nil {
			s.logger.Warn("delete session on logout failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	s.publish(func() error {
		return s.publisher.PublishTokensRevoked(ctx, domain.TokensRevokedEvent{
			EventID:       uuid.NewString(),
			UserID:        userID,
			Platform:      input.AccessClaims.Platform,
			Reason:        "user_logout",
			TokensRevoked: revoked,
			RevokedAt:     s.now(),
		})
	})

	return revoked, nil
}

// LogoutAll revokes every refresh token and destroys every session the user
// holds, across all platforms.
func (s *AuthService) LogoutAll(ctx context.Context, userID, reason string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, errors.New("user id is required")
	}
	if reason == "" {
		reason = "logout_all"
	}

	revoked, err := s.refresh.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens: %w", err)
	}

	sessionsRevoked, err := s.sessions.RevokeAllForUser(ctx, userID)
	if err != nil {
		return revoked, fmt.Errorf("revoke sessions: %w", err)
	}

	s.logger.Info("revoked all credentials",
		zap.String("user_id", userID),
		zap.String("reason", reason),
		zap.Int("tokens_revoked", revoked),
		zap.Int("sessions_revoked", sessionsRevoked),
	)

	s.publish(func() error {
		return s.publisher.PublishTokensRevoked(ctx, domain.TokensRevokedEvent{
			EventID:       uuid.NewString(),
			UserID:        userID,
			Reason:        reason,
			TokensRevoked: revoked + sessionsRevoked,
			RevokedAt:     s.now(),
		})
	})

	return revoked + sessionsRevoked, nil
}

// ValidateSession resolves a session and refreshes its activity stamp.
func (s *AuthService) ValidateSession(ctx context.Context, sessionID, ip string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	now := s.now()
	if !session.IsActive(now) {
		return nil, ErrSessionExpired
	}

	session.Touch(now, ip)
	if err := s.sessions.Save(ctx, *session); err != nil {
		s.logger.Warn("refresh session activity failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}

	return session, nil
}

func (s *AuthService) createSession(ctx context.Context, userID string, input LoginInput) (*domain.Session, error) {
	now := s.now()
	ttl := 24 * time.Hour
	if s.cfg != nil && s.cfg.Session.TTL > 0 {
		ttl = s.cfg.Session.TTL
	}

	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Platform:  input.Device.Platform,
		DeviceID:  input.Device.DeviceID,
		IP:        input.IP,
		UserAgent: input.UserAgent,
		CreatedAt: now,
		LastSeen:  now,
		ExpiresAt: now.Add(ttl),
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &session, nil
}

// publish runs a fire-and-forget event publication; failures are logged and
// never fail the caller's primary outcome.
func (s *AuthService) publish(fn func() error) {
	if s.publisher == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("publish event failed", zap.Error(err))
	}
}
