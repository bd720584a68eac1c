package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/port"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/repository"
)

const (
	refreshKeyPrefix     = "refresh"
	userTokensKeyPrefix  = "user_tokens"
	tokenFamilyKeyPrefix = "token_family"

	defaultRefreshTokenCap = 5
)

// RefreshTokenRepository is the Redis-backed refresh registry: one record per
// live token, a bounded ordered list of token digests per user, and a version
// counter per (user, family).
type RefreshTokenRepository struct {
	client *red.Client
	prefix string
	ttl    time.Duration
	cap    int
	logger *zap.Logger
}

// NewRefreshTokenRepository constructs the registry. ttl is the refresh token
// lifetime; cap bounds the per-user list (oldest entry evicted first).
func NewRefreshTokenRepository(client *red.Client, keyPrefix string, ttl time.Duration, cap int, logger *zap.Logger) *RefreshTokenRepository {
	if cap <= 0 {
		cap = defaultRefreshTokenCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RefreshTokenRepository{
		client: client,
		prefix: strings.TrimSpace(keyPrefix),
		ttl:    ttl,
		cap:    cap,
		logger: logger,
	}
}

// Save writes the record and appends its digest to the user's ordered list.
// When the list grows past the cap the oldest digest is popped and its record
// deleted, so the evicted token can never validate again.
func (r *RefreshTokenRepository) Save(ctx context.Context, record domain.RefreshTokenRecord) error {
	if record.UserID == "" || record.TokenHash == "" {
		return errors.New("user id and token hash are required")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal refresh token record: %w", err)
	}

	recordKey := r.recordKey(record.UserID, record.TokenHash)
	listKey := r.listKey(record.UserID)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, recordKey, payload, r.ttl)
	pipe.RPush(ctx, listKey, record.TokenHash)
	pipe.Expire(ctx, listKey, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store refresh token: %w", err)
	}

	return r.evictOverflow(ctx, record.UserID)
}

// evictOverflow pops oldest digests until the list is back under the cap and
// deletes their records. FIFO by insertion order, not LRU.
func (r *RefreshTokenRepository) evictOverflow(ctx context.Context, userID string) error {
	listKey := r.listKey(userID)

	length, err := r.client.LLen(ctx, listKey).Result()
	if err != nil {
		return fmt.Errorf("redis llen user tokens: %w", err)
	}

	for length > int64(r.cap) {
		oldest, popErr := r.client.LPop(ctx, listKey).Result()
		if popErr != nil {
			if errors.Is(popErr, red.Nil) {
				return nil
			}
			return fmt.Errorf("redis lpop user tokens: %w", popErr)
		}
		if delErr := r.client.Del(ctx, r.recordKey(userID, oldest)).Err(); delErr != nil {
			return fmt.Errorf("redis delete evicted refresh token: %w", delErr)
		}
		r.logger.Debug("evicted oldest refresh token",
			zap.String("user_id", userID),
		)
		length--
	}

	return nil
}

// Get retrieves the record stored under (userID, tokenHash).
func (r *RefreshTokenRepository) Get(ctx context.Context, userID, tokenHash string) (*domain.RefreshTokenRecord, error) {
	if userID == "" || tokenHash == "" {
		return nil, errors.New("user id and token hash are required")
	}

	raw, err := r.client.Get(ctx, r.recordKey(userID, tokenHash)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get refresh token: %w", err)
	}

	var record domain.RefreshTokenRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("unmarshal refresh token record: %w", err)
	}
	record.UserID = userID
	record.TokenHash = tokenHash

	return &record, nil
}

// Delete removes the record and its list entry. The delete count is the
// arbiter for concurrent rotations of the same token: exactly one caller
// observes a deletion.
func (r *RefreshTokenRepository) Delete(ctx context.Context, userID, tokenHash string) (bool, error) {
	if userID == "" || tokenHash == "" {
		return false, errors.New("user id and token hash are required")
	}

	deleted, err := r.client.Del(ctx, r.recordKey(userID, tokenHash)).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete refresh token: %w", err)
	}

	if err := r.client.LRem(ctx, r.listKey(userID), 0, tokenHash).Err(); err != nil {
		return deleted > 0, fmt.Errorf("redis lrem user tokens: %w", err)
	}

	return deleted > 0, nil
}

// ListForUser returns the user's live token digests in insertion order.
func (r *RefreshTokenRepository) ListForUser(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	hashes, err := r.client.LRange(ctx, r.listKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange user tokens: %w", err)
	}
	return hashes, nil
}

// RevokeAllForUser invalidates every live refresh token for the user and
// clears the list.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	hashes, err := r.ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, hash := range hashes {
		deleted, delErr := r.client.Del(ctx, r.recordKey(userID, hash)).Result()
		if delErr != nil {
			return revoked, fmt.Errorf("redis delete refresh token: %w", delErr)
		}
		revoked += int(deleted)
	}

	if err := r.client.Del(ctx, r.listKey(userID)).Err(); err != nil {
		return revoked, fmt.Errorf("redis delete user tokens list: %w", err)
	}

	return revoked, nil
}

// RevokeForPlatform invalidates only the user's tokens issued for the supplied
// platform, leaving other platforms' tokens intact.
func (r *RefreshTokenRepository) RevokeForPlatform(ctx context.Context, userID string, platform domain.Platform) (int, error) {
	return r.revokeMatching(ctx, userID, func(record *domain.RefreshTokenRecord) bool {
		return record.Platform == platform
	})
}

// RevokeFamily invalidates every live token of the user belonging to the
// supplied family.
func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, userID, family string) (int, error) {
	if family == "" {
		return 0, errors.New("family is required")
	}
	return r.revokeMatching(ctx, userID, func(record *domain.RefreshTokenRecord) bool {
		return record.Family == family
	})
}

func (r *RefreshTokenRepository) revokeMatching(ctx context.Context, userID string, match func(*domain.RefreshTokenRecord) bool) (int, error) {
	hashes, err := r.ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, hash := range hashes {
		record, getErr := r.Get(ctx, userID, hash)
		if getErr != nil {
			if errors.Is(getErr, repository.ErrNotFound) {
				// Record expired underneath the list; drop the dangling entry.
				_ = r.client.LRem(ctx, r.listKey(userID), 0, hash).Err()
				continue
			}
			return revoked, getErr
		}
		if !match(record) {
			continue
		}

		deleted, delErr := r.Delete(ctx, userID, hash)
		if delErr != nil {
			return revoked, delErr
		}
		if deleted {
			revoked++
		}
	}

	return revoked, nil
}

// NextFamilyVersion atomically increments and returns the version counter for
// (userID, family).
func (r *RefreshTokenRepository) NextFamilyVersion(ctx context.Context, userID, family string) (int64, error) {
	if userID == "" || family == "" {
		return 0, errors.New("user id and family are required")
	}

	key := r.familyKey(userID, family)
	version, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr token family: %w", err)
	}
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return version, fmt.Errorf("redis expire token family: %w", err)
	}

	return version, nil
}

// FamilyVersion returns the current counter for (userID, family), zero when
// the family is unknown.
func (r *RefreshTokenRepository) FamilyVersion(ctx context.Context, userID, family string) (int64, error) {
	if userID == "" || family == "" {
		return 0, errors.New("user id and family are required")
	}

	raw, err := r.client.Get(ctx, r.familyKey(userID, family)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get token family: %w", err)
	}

	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token family version: %w", err)
	}

	return version, nil
}

func (r *RefreshTokenRepository) recordKey(userID, tokenHash string) string {
	return buildKey(r.prefix, refreshKeyPrefix, userID, tokenHash)
}

func (r *RefreshTokenRepository) listKey(userID string) string {
	return buildKey(r.prefix, userTokensKeyPrefix, userID)
}

func (r *RefreshTokenRepository) familyKey(userID, family string) string {
	return buildKey(r.prefix, tokenFamilyKeyPrefix, userID, family)
}

var _ port.RefreshTokenStore = (*RefreshTokenRepository)(nil)
