package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/port"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/repository"
)

const (
	sessionKeyPrefix      = "session"
	userSessionsKeyPrefix = "user_sessions"

	defaultSessionCap = 3

	// The per-user session index outlives any single session by a day so
	// logout-all can still find stragglers.
	userSessionsTTL = 24 * time.Hour
)

// SessionRepository is the Redis-backed session registry used by the
// web/cookie path, independent of the refresh registry.
type SessionRepository struct {
	client *red.Client
	prefix string
	cap    int
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionRepository constructs the registry. cap bounds the per-user
// session list (oldest evicted first).
func NewSessionRepository(client *red.Client, keyPrefix string, cap int, logger *zap.Logger) *SessionRepository {
	if cap <= 0 {
		cap = defaultSessionCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SessionRepository{
		client: client,
		prefix: strings.TrimSpace(keyPrefix),
		cap:    cap,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the repository clock, used in tests.
func (r *SessionRepository) WithClock(clock func() time.Time) {
	if clock != nil {
		r.now = clock
	}
}

// Save writes the session payload (TTL until its expiry) and appends the id
// to the user's ordered list, evicting the oldest session when over the cap.
func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	if session.ID == "" || session.UserID == "" {
		return errors.New("session id and user id are required")
	}

	ttl := session.ExpiresAt.Sub(r.now().UTC())
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	listKey := r.listKey(session.UserID)

	// LRem first makes Save idempotent: re-saving a touched session moves
	// its id to the tail instead of duplicating it.
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(session.ID), payload, ttl)
	pipe.LRem(ctx, listKey, 0, session.ID)
	pipe.RPush(ctx, listKey, session.ID)
	pipe.Expire(ctx, listKey, userSessionsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store session: %w", err)
	}

	length, err := r.client.LLen(ctx, listKey).Result()
	if err != nil {
		return fmt.Errorf("redis llen user sessions: %w", err)
	}

	for length > int64(r.cap) {
		oldest, popErr := r.client.LPop(ctx, listKey).Result()
		if popErr != nil {
			if errors.Is(popErr, red.Nil) {
				return nil
			}
			return fmt.Errorf("redis lpop user sessions: %w", popErr)
		}
		if delErr := r.client.Del(ctx, r.sessionKey(oldest)).Err(); delErr != nil {
			return fmt.Errorf("redis delete evicted session: %w", delErr)
		}
		r.logger.Debug("evicted oldest session", zap.String("user_id", session.UserID))
		length--
	}

	return nil
}

// Get retrieves a session by id.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	raw, err := r.client.Get(ctx, r.sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &session, nil
}

// Delete removes the session payload and its list entry.
func (r *SessionRepository) Delete(ctx context.Context, userID, sessionID string) error {
	if userID == "" || sessionID == "" {
		return errors.New("user id and session id are required")
	}

	if err := r.client.Del(ctx, r.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	if err := r.client.LRem(ctx, r.listKey(userID), 0, sessionID).Err(); err != nil {
		return fmt.Errorf("redis lrem user sessions: %w", err)
	}

	return nil
}

// ListForUser returns the user's live session ids in insertion order.
func (r *SessionRepository) ListForUser(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	ids, err := r.client.LRange(ctx, r.listKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange user sessions: %w", err)
	}
	return ids, nil
}

// RevokeAllForUser destroys every session for the user and clears the list.
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	ids, err := r.ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, id := range ids {
		deleted, delErr := r.client.Del(ctx, r.sessionKey(id)).Result()
		if delErr != nil {
			return revoked, fmt.Errorf("redis delete session: %w", delErr)
		}
		revoked += int(deleted)
	}

	if err := r.client.Del(ctx, r.listKey(userID)).Err(); err != nil {
		return revoked, fmt.Errorf("redis delete user sessions list: %w", err)
	}

	return revoked, nil
}

func (r *SessionRepository) sessionKey(sessionID string) string {
	return buildKey(r.prefix, sessionKeyPrefix, sessionID)
}

func (r *SessionRepository) listKey(userID string) string {
	return buildKey(r.prefix, userSessionsKeyPrefix, userID)
}

var _ port.SessionStore = (*SessionRepository)(nil)
