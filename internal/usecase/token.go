package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/port"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/config"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/security"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/telemetry"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/repository"
)

// TokenService mints and validates the three token kinds. Each kind is signed
// with its own secret, so a refresh token can never pass as an access token.
type TokenService struct {
	cfg       *config.AppConfig
	blacklist port.BlacklistStore
	refresh   port.RefreshTokenStore
	resets    port.ResetTokenStore
	metrics   *telemetry.Provider
	logger    *zap.Logger
	now       func() time.Time
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(
	cfg *config.AppConfig,
	blacklist port.BlacklistStore,
	refresh port.RefreshTokenStore,
	resets port.ResetTokenStore,
	logger *zap.Logger,
) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &TokenService{
		cfg:       cfg,
		blacklist: blacklist,
		refresh:   refresh,
		resets:    resets,
		logger:    logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *TokenService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithTelemetry attaches the metrics provider. Counters stay silent when no
// provider is attached.
func (s *TokenService) WithTelemetry(provider *telemetry.Provider) {
	s.metrics = provider
}

// IssueAccessToken mints a short-lived access token for the user and tracks
// its jti so it can be blacklisted on logout.
func (s *TokenService) IssueAccessToken(ctx context.Context, user *domain.User, device domain.DeviceInfo) (string, *security.AccessTokenClaims, error) {
	if user == nil {
		return "", nil, errors.New("user is required")
	}

	now := s.now()
	jti := uuid.NewString()
	ttl := s.accessTokenTTL()

	claims := &security.AccessTokenClaims{
		Username: user.Username,
		Email:    user.Email,
		Roles:    copyRoles(user.Roles),
		Platform: device.Platform,
		DeviceID: device.DeviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID,
			Issuer:    s.issuer(),
			Audience:  jwt.ClaimStrings{s.issuer()},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := s.sign(claims, s.cfg.JWT.AccessSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign access token: %w", err)
	}

	record := domain.AccessTokenJTI{JTI: jti, UserID: user.ID, CreatedAt: now}
	if err := s.blacklist.TrackJTI(ctx, record, ttl); err != nil {
		return "", nil, fmt.Errorf("track jti: %w", err)
	}

	s.metrics.TokenIssued("access")

	return token, claims, nil
}

// ValidateAccessToken verifies signature and expiry, then checks the
// blacklist. A blacklist lookup failure rejects the token: a store outage
// must not let revoked tokens back in.
func (s *TokenService) ValidateAccessToken(ctx context.Context, token string) (*security.AccessTokenClaims, error) {
	claims := &security.AccessTokenClaims{}
	if err := s.parse(token, s.cfg.JWT.AccessSecret, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidAccessToken
	}

	jti := strings.TrimSpace(claims.RegisteredClaims.ID)
	if jti == "" {
		return nil, ErrInvalidAccessToken
	}

	blacklisted, err := s.blacklist.IsBlacklisted(ctx, jti)
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if blacklisted {
		return nil, ErrRevokedAccessToken
	}

	return claims, nil
}

// RevokeAccessToken blacklists the token's jti for exactly its remaining
// lifetime.
func (s *TokenService) RevokeAccessToken(ctx context.Context, claims *security.AccessTokenClaims, reason string) error {
	if claims == nil {
		return errors.New("claims are required")
	}

	jti := strings.TrimSpace(claims.RegisteredClaims.ID)
	if jti == "" {
		return ErrInvalidAccessToken
	}

	ttl := s.accessTokenTTL()
	if claims.RegisteredClaims.ExpiresAt != nil {
		if remaining := claims.RegisteredClaims.ExpiresAt.Time.Sub(s.now()); remaining > 0 {
			ttl = remaining
		} else {
			// Already expired; nothing left to revoke.
			return nil
		}
	}

	if err := s.blacklist.Blacklist(ctx, jti, reason, ttl); err != nil {
		return fmt.Errorf("blacklist jti: %w", err)
	}

	s.metrics.TokensRevoked(reason, 1)

	return nil
}

// IssueRefreshToken mints a refresh token and registers its digest in the
// user's bounded device registry. An empty family starts a new lineage;
// passing the prior family continues it at the next version.
func (s *TokenService) IssueRefreshToken(ctx context.Context, user *domain.User, device domain.DeviceInfo, family string) (string, *security.RefreshTokenClaims, error) {
	if user == nil {
		return "", nil, errors.New("user is required")
	}

	family = strings.TrimSpace(family)
	if family == "" {
		family = uuid.NewString()
	}

	version, err := s.refresh.NextFamilyVersion(ctx, user.ID, family)
	if err != nil {
		return "", nil, fmt.Errorf("advance family version: %w", err)
	}

	now := s.now()
	ttl := s.refreshTokenTTL()

	claims := &security.RefreshTokenClaims{
		Username:    user.Username,
		Platform:    device.Platform,
		DeviceID:    device.DeviceID,
		TokenFamily: family,
		Version:     version,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    s.issuer(),
			Audience:  jwt.ClaimStrings{s.issuer()},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := s.sign(claims, s.cfg.JWT.RefreshSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign refresh token: %w", err)
	}

	record := domain.RefreshTokenRecord{
		UserID:     user.ID,
		TokenHash:  security.HashToken(token),
		Family:     family,
		Platform:   device.Platform,
		DeviceID:   device.DeviceID,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if err := s.refresh.Save(ctx, record); err != nil {
		return "", nil, fmt.Errorf("save refresh token record: %w", err)
	}

	s.metrics.TokenIssued("refresh")

	return token, claims, nil
}

// ValidateRefreshToken verifies signature and expiry and resolves the stored
// record. A valid signature with no live record is the replay signal: when
// the family counter has moved past the presented version, someone is
// replaying a superseded token.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, token string) (*security.RefreshTokenClaims, *domain.RefreshTokenRecord, error) {
	claims := &security.RefreshTokenClaims{}
	if err := s.parse(token, s.cfg.JWT.RefreshSecret, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, ErrExpiredRefreshToken
		}
		return nil, nil, ErrInvalidRefreshToken
	}

	userID := strings.TrimSpace(claims.Subject)
	if userID == "" || claims.TokenFamily == "" {
		return nil, nil, ErrInvalidRefreshToken
	}

	record, err := s.refresh.Get(ctx, userID, security.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			current, verErr := s.refresh.FamilyVersion(ctx, userID, claims.TokenFamily)
			if verErr != nil {
				return nil, nil, fmt.Errorf("resolve family version: %w", verErr)
			}
			if current > claims.Version {
				return claims, nil, ErrRefreshTokenReplay
			}
			return nil, nil, ErrInvalidRefreshToken
		}
		return nil, nil, fmt.Errorf("get refresh token record: %w", err)
	}

	if record.Family != claims.TokenFamily {
		return claims, record, ErrTokenFamilyMismatch
	}

	return claims, record, nil
}

// IssueResetToken mints a one-time reset or verification token and tracks
// its digest for consumption bookkeeping.
func (s *TokenService) IssueResetToken(ctx context.Context, user *domain.User, purpose domain.ResetPurpose) (string, *security.ResetTokenClaims, error) {
	if user == nil {
		return "", nil, errors.New("user is required")
	}
	if !purpose.IsValid() {
		return "", nil, fmt.Errorf("invalid reset purpose %q", purpose)
	}

	now := s.now()
	ttl := s.resetTokenTTL()

	claims := &security.ResetTokenClaims{
		Email:      user.Email,
		Purpose:    purpose,
		OneTimeUse: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    s.issuer(),
			Audience:  jwt.ClaimStrings{s.issuer()},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := s.sign(claims, s.cfg.JWT.ResetSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign reset token: %w", err)
	}

	record := domain.ResetTokenRecord{
		TokenHash: security.HashToken(token),
		UserID:    user.ID,
		CreatedAt: now,
	}
	if err := s.resets.Track(ctx, record, ttl); err != nil {
		return "", nil, fmt.Errorf("track reset token: %w", err)
	}

	s.metrics.TokenIssued("reset")

	return token, claims, nil
}

// ValidateResetToken checks consumption state before anything else, then
// verifies signature, expiry, and purpose. The used-check comes first so a
// consumed token is rejected even if crypto validation would also fail.
func (s *TokenService) ValidateResetToken(ctx context.Context, token string, purpose domain.ResetPurpose) (*security.ResetTokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidResetToken
	}

	used, err := s.resets.IsUsed(ctx, security.HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("check reset token usage: %w", err)
	}
	if used {
		return nil, ErrResetTokenUsed
	}

	claims := &security.ResetTokenClaims{}
	if err := s.parse(token, s.cfg.JWT.ResetSecret, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredResetToken
		}
		return nil, ErrInvalidResetToken
	}

	if strings.TrimSpace(claims.Subject) == "" || claims.Purpose != purpose {
		return nil, ErrInvalidResetToken
	}

	return claims, nil
}

// MarkResetTokenUsed consumes a one-time token. The flag lives as long as the
// token could still be presented.
func (s *TokenService) MarkResetTokenUsed(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}

	if err := s.resets.MarkUsed(ctx, security.HashToken(token), s.resetTokenTTL()); err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}

	return nil
}

func (s *TokenService) sign(claims jwt.Claims, secret string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("signing secret not configured")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *TokenService) parse(token, secret string, claims jwt.Claims) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return jwt.ErrTokenMalformed
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(s.now),
	}
	if issuer := s.issuer(); issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, parserOptions...)
	if err != nil {
		return err
	}
	if parsed == nil || !parsed.Valid {
		return jwt.ErrTokenUnverifiable
	}

	return nil
}

func (s *TokenService) issuer() string {
	if s.cfg == nil {
		return ""
	}
	return strings.TrimSpace(s.cfg.App.Name)
}

func (s *TokenService) accessTokenTTL() time.Duration {
	if s.cfg != nil && s.cfg.JWT.AccessTokenTTL > 0 {
		return s.cfg.JWT.AccessTokenTTL
	}
	return 15 * time.Minute
}

func (s *TokenService) refreshTokenTTL() time.Duration {
	if s.cfg != nil && s.cfg.JWT.RefreshTokenTTL > 0 {
		return s.cfg.JWT.RefreshTokenTTL
	}
	return 7 * 24 * time.Hour
}

func (s *TokenService) resetTokenTTL() time.Duration {
	if s.cfg != nil && s.cfg.JWT.ResetTokenTTL > 0 {
		return s.cfg.JWT.ResetTokenTTL
	}
	return time.Hour
}

func copyRoles(input []string) []string {
	if len(input) == 0 {
		return nil
	}
	result := make([]string, len(input))
	copy(result, input)
	return result
}
