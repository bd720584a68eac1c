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
	jtiKeyPrefix       = "jti"
	blacklistKeyPrefix = "blacklist"
)

// BlacklistRepository records issued and revoked access-token identifiers in
// Redis. Blacklist entries carry a TTL equal to the remaining lifetime of the
// token they belong to, never longer and never shorter.
type BlacklistRepository struct {
	client *red.Client
	prefix string
}

// NewBlacklistRepository wires a Redis client into a blacklist repository.
// keyPrefix optionally namespaces every key (multi-tenant deployments).
func NewBlacklistRepository(client *red.Client, keyPrefix string) *BlacklistRepository {
	return &BlacklistRepository{client: client, prefix: strings.TrimSpace(keyPrefix)}
}

// TrackJTI registers a freshly issued jti so it can be blacklisted later.
func (r *BlacklistRepository) TrackJTI(ctx context.Context, record domain.AccessTokenJTI, ttl time.Duration) error {
	if strings.TrimSpace(record.JTI) == "" {
		return errors.New("jti must not be empty")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal jti record: %w", err)
	}

	if err := r.client.Set(ctx, buildKey(r.prefix, jtiKeyPrefix, record.JTI), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set jti: %w", err)
	}

	return nil
}

// Blacklist marks the supplied jti as revoked for exactly the remaining token
// lifetime.
func (r *BlacklistRepository) Blacklist(ctx context.Context, jti string, reason string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return errors.New("jti must not be empty")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	entry := domain.BlacklistEntry{
		JTI:           jti,
		BlacklistedAt: time.Now().UTC(),
		Reason:        strings.TrimSpace(reason),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal blacklist entry: %w", err)
	}

	if err := r.client.Set(ctx, buildKey(r.prefix, blacklistKeyPrefix, jti), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set blacklisted jti: %w", err)
	}

	return nil
}

// IsBlacklisted reports whether the jti has been revoked.
func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return false, errors.New("jti must not be empty")
	}

	count, err := r.client.Exists(ctx, buildKey(r.prefix, blacklistKeyPrefix, jti)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists blacklisted jti: %w", err)
	}

	return count > 0, nil
}

var _ port.BlacklistStore = (*BlacklistRepository)(nil)

func buildKey(prefix string, parts ...string) string {
	joined := strings.Join(parts, ":")
	if prefix == "" {
		return joined
	}
	return prefix + ":" + joined
}
