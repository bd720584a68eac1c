package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/port"
)

const (
	resetKeyPrefix     = "reset"
	resetUsedKeyPrefix = "reset_used"
)

// ResetTokenRepository tracks reset/verification token issuance and single
// consumption in Redis. Consumption flags carry their own short TTL.
type ResetTokenRepository struct {
	client *red.Client
	prefix string
	now    func() time.Time
}

// NewResetTokenRepository constructs a reset token repository.
func NewResetTokenRepository(client *red.Client, keyPrefix string) *ResetTokenRepository {
	return &ResetTokenRepository{
		client: client,
		prefix: strings.TrimSpace(keyPrefix),
		now:    time.Now,
	}
}

// WithClock overrides the repository clock, used in tests.
func (r *ResetTokenRepository) WithClock(clock func() time.Time) {
	if clock != nil {
		r.now = clock
	}
}

// Track registers an issued reset-class token.
func (r *ResetTokenRepository) Track(ctx context.Context, record domain.ResetTokenRecord, ttl time.Duration) error {
	if record.TokenHash == "" {
		return errors.New("token hash is required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal reset token record: %w", err)
	}

	if err := r.client.Set(ctx, buildKey(r.prefix, resetKeyPrefix, record.TokenHash), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set reset token: %w", err)
	}

	return nil
}

// MarkUsed idempotently flags the token as consumed. SetNX keeps the first
// consumption timestamp when called twice.
func (r *ResetTokenRepository) MarkUsed(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if tokenHash == "" {
		return errors.New("token hash is required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	usage := domain.ResetTokenUsage{UsedAt: r.now().UTC()}
	payload, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("marshal reset token usage: %w", err)
	}

	if err := r.client.SetNX(ctx, buildKey(r.prefix, resetUsedKeyPrefix, tokenHash), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx reset token usage: %w", err)
	}

	return nil
}

// IsUsed reports whether the token has already been consumed.
func (r *ResetTokenRepository) IsUsed(ctx context.Context, tokenHash string) (bool, error) {
	if tokenHash == "" {
		return false, errors.New("token hash is required")
	}

	count, err := r.client.Exists(ctx, buildKey(r.prefix, resetUsedKeyPrefix, tokenHash)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists reset token usage: %w", err)
	}

	return count > 0, nil
}

var _ port.ResetTokenStore = (*ResetTokenRepository)(nil)
