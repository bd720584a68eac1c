package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/port"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/security"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/telemetry"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/repository"
)

// RotationResult carries the fresh token pair minted by a rotation.
type RotationResult struct {
	AccessToken   string
	RefreshToken  string
	AccessClaims  *security.AccessTokenClaims
	RefreshClaims *security.RefreshTokenClaims
	User          *domain.User
}

// RotationService exchanges a live refresh token for a fresh pair. The old
// token is consumed first; under concurrent rotation of the same token
// exactly one caller wins the delete and the rest get an invalid-token error.
type RotationService struct {
	tokens  *TokenService
	refresh port.RefreshTokenStore
	users   port.UserRepository
	metrics *telemetry.Provider
	logger  *zap.Logger
	now     func() time.Time
}

// NewRotationService constructs a RotationService instance.
func NewRotationService(
	tokens *TokenService,
	refresh port.RefreshTokenStore,
	users port.UserRepository,
	logger *zap.Logger,
) *RotationService {
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &RotationService{
		tokens:  tokens,
		refresh: refresh,
		users:   users,
		logger:  logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *RotationService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithTelemetry attaches the metrics provider.
func (s *RotationService) WithTelemetry(provider *telemetry.Provider) {
	s.metrics = provider
}

// Rotate validates the presented refresh token, consumes it, and mints a new
// pair in the same family. Replay of a superseded token revokes the whole
// family before the error is returned.
func (s *RotationService) Rotate(ctx context.Context, refreshToken string) (*RotationResult, error) {
	claims, record, err := s.tokens.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenReplay) && claims != nil {
			s.metrics.ReplayDetected()
			s.revokeFamily(ctx, claims.Subject, claims.TokenFamily)
		}
		if errors.Is(err, ErrTokenFamilyMismatch) && claims != nil {
			s.revokeFamily(ctx, claims.Subject, claims.TokenFamily)
		}
		return nil, err
	}

	// Consume the presented token. The delete count arbitrates concurrent
	// rotations: only the winner proceeds.
	deleted, err := s.refresh.Delete(ctx, record.UserID, record.TokenHash)
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if !deleted {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.CanAuthenticate() {
		// The account went inactive since issuance; drop the lineage too.
		s.revokeFamily(ctx, user.ID, record.Family)
		return nil, ErrInactiveAccount
	}

	device := domain.DeviceInfo{Platform: record.Platform, DeviceID: record.DeviceID}

	newRefresh, refreshClaims, err := s.tokens.IssueRefreshToken(ctx, user, device, record.Family)
	if err != nil {
		return nil, fmt.Errorf("issue rotated refresh token: %w", err)
	}

	accessToken, accessClaims, err := s.tokens.IssueAccessToken(ctx, user, device)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.logger.Debug("rotated refresh token",
		zap.String("user_id", user.ID),
		zap.String("family", record.Family),
		zap.Int64("version", refreshClaims.Version),
	)

	return &RotationResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefresh,
		AccessClaims:  accessClaims,
		RefreshClaims: refreshClaims,
		User:          user,
	}, nil
}

func (s *RotationService) revokeFamily(ctx context.Context, userID, family string) {
	if userID == "" || family == "" {
		return
	}

	revoked, err := s.refresh.RevokeFamily(ctx, userID, family)
	if err != nil {
		s.logger.Error("revoke compromised token family failed",
			zap.String("user_id", userID),
			zap.String("family", family),
			zap.Error(err),
		)
		return
	}

	s.metrics.TokensRevoked("family_replay", revoked)

	s.logger.Warn("revoked compromised token family",
		zap.String("user_id", userID),
		zap.String("family", family),
		zap.Int("tokens_revoked", revoked),
	)
}
