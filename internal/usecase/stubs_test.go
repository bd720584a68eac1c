package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/config"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/repository"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		App: config.AppSettings{Name: "token-engine", Env: "test"},
		JWT: config.JWTSettings{
			AccessSecret:    "access-secret-for-tests",
			RefreshSecret:   "refresh-secret-for-tests",
			ResetSecret:     "reset-secret-for-tests",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			ResetTokenTTL:   time.Hour,
		},
		Session: config.SessionSettings{CookieName: "session_id", TTL: 24 * time.Hour},
		Limits:  config.LimitSettings{MaxRefreshTokensPerUser: 5, MaxSessionsPerUser: 3},
	}
}

func activeUser() *domain.User {
	return &domain.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hashed:correct-password",
		Status:       domain.UserStatusActive,
		IsActive:     true,
		Roles:        []string{"user"},
		RegisteredAt: time.Now().UTC().Add(-time.Hour),
	}
}

type stubBlacklist struct {
	mu          sync.Mutex
	tracked     map[string]domain.AccessTokenJTI
	blacklisted map[string]string
	checkErr    error
}

func newStubBlacklist() *stubBlacklist {
	return &stubBlacklist{
		tracked:     make(map[string]domain.AccessTokenJTI),
		blacklisted: make(map[string]string),
	}
}

func (s *stubBlacklist) TrackJTI(_ context.Context, record domain.AccessTokenJTI, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked[record.JTI] = record
	return nil
}

func (s *stubBlacklist) Blacklist(_ context.Context, jti, reason string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklisted[jti] = reason
	return nil
}

func (s *stubBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkErr != nil {
		return false, s.checkErr
	}
	_, ok := s.blacklisted[jti]
	return ok, nil
}

type stubRefreshStore struct {
	mu       sync.Mutex
	records  map[string]domain.RefreshTokenRecord // keyed userID+":"+hash
	order    map[string][]string                  // userID -> hashes in insertion order
	families map[string]int64                     // userID+":"+family -> version
}

func newStubRefreshStore() *stubRefreshStore {
	return &stubRefreshStore{
		records:  make(map[string]domain.RefreshTokenRecord),
		order:    make(map[string][]string),
		families: make(map[string]int64),
	}
}

func (s *stubRefreshStore) key(userID, hash string) string { return userID + ":" + hash }

func (s *stubRefreshStore) Save(_ context.Context, record domain.RefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[s.key(record.UserID, record.TokenHash)] = record
	s.order[record.UserID] = append(s.order[record.UserID], record.TokenHash)
	return nil
}

func (s *stubRefreshStore) Get(_ context.Context, userID, hash string) (*domain.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[s.key(userID, hash)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := record
	return &copied, nil
}

func (s *stubRefreshStore) Delete(_ context.Context, userID, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(userID, hash)
	if _, ok := s.records[key]; !ok {
		return false, nil
	}
	delete(s.records, key)
	s.removeFromOrder(userID, hash)
	return true, nil
}

func (s *stubRefreshStore) removeFromOrder(userID, hash string) {
	hashes := s.order[userID]
	for i, h := range hashes {
		if h == hash {
			s.order[userID] = append(hashes[:i], hashes[i+1:]...)
			return
		}
	}
}

func (s *stubRefreshStore) ListForUser(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hashes := make([]string, len(s.order[userID]))
	copy(hashes, s.order[userID])
	return hashes, nil
}

func (s *stubRefreshStore) RevokeAllForUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	revoked := 0
	for _, hash := range s.order[userID] {
		if _, ok := s.records[s.key(userID, hash)]; ok {
			delete(s.records, s.key(userID, hash))
			revoked++
		}
	}
	s.order[userID] = nil
	return revoked, nil
}

func (s *stubRefreshStore) revokeMatching(userID string, match func(domain.RefreshTokenRecord) bool) int {
	revoked := 0
	remaining := s.order[userID][:0]
	for _, hash := range s.order[userID] {
		record, ok := s.records[s.key(userID, hash)]
		if ok && match(record) {
			delete(s.records, s.key(userID, hash))
			revoked++
			continue
		}
		remaining = append(remaining, hash)
	}
	s.order[userID] = remaining
	return revoked
}

func (s *stubRefreshStore) RevokeForPlatform(_ context.Context, userID string, platform domain.Platform) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revokeMatching(userID, func(r domain.RefreshTokenRecord) bool {
		return r.Platform == platform
	}), nil
}

func (s *stubRefreshStore) RevokeFamily(_ context.Context, userID, family string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revokeMatching(userID, func(r domain.RefreshTokenRecord) bool {
		return r.Family == family
	}), nil
}

func (s *stubRefreshStore) NextFamilyVersion(_ context.Context, userID, family string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[s.key(userID, family)]++
	return s.families[s.key(userID, family)], nil
}

func (s *stubRefreshStore) FamilyVersion(_ context.Context, userID, family string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.families[s.key(userID, family)], nil
}

type stubResetStore struct {
	mu      sync.Mutex
	tracked map[string]domain.ResetTokenRecord
	used    map[string]time.Time
}

func newStubResetStore() *stubResetStore {
	return &stubResetStore{
		tracked: make(map[string]domain.ResetTokenRecord),
		used:    make(map[string]time.Time),
	}
}

func (s *stubResetStore) Track(_ context.Context, record domain.ResetTokenRecord, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked[record.TokenHash] = record
	return nil
}

func (s *stubResetStore) MarkUsed(_ context.Context, hash string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.used[hash]; !ok {
		s.used[hash] = time.Now().UTC()
	}
	return nil
}

func (s *stubResetStore) IsUsed(_ context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.used[hash]
	return ok, nil
}

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	byUser   map[string][]string
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{
		sessions: make(map[string]domain.Session),
		byUser:   make(map[string][]string),
	}
}

func (s *stubSessionStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		s.byUser[session.UserID] = append(s.byUser[session.UserID], session.ID)
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := session
	return &copied, nil
}

func (s *stubSessionStore) Delete(_ context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	ids := s.byUser[userID]
	for i, id := range ids {
		if id == sessionID {
			s.byUser[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *stubSessionStore) ListForUser(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.byUser[userID]))
	copy(ids, s.byUser[userID])
	return ids, nil
}

func (s *stubSessionStore) RevokeAllForUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	revoked := 0
	for _, id := range s.byUser[userID] {
		if _, ok := s.sessions[id]; ok {
			delete(s.sessions, id)
			revoked++
		}
	}
	s.byUser[userID] = nil
	return revoked, nil
}

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	repo := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		copied := *user
		repo.users[user.ID] = &copied
	}
	return repo
}

func (s *stubUserRepo) Create(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = &user
	return nil
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserRepo) GetByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepo) UpdatePassword(_ context.Context, id, passwordHash string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (s *stubUserRepo) SetEmailVerified(_ context.Context, id string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.EmailVerified = true
	if user.Status == domain.UserStatusPending {
		user.Status = domain.UserStatusActive
	}
	return nil
}

func (s *stubUserRepo) RecordLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.LastLogin = &at
	return nil
}

// stubHasher avoids Argon2 cost in tests; "hashed:" + password stands in for
// a real digest.
type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (stubHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed:"+password, nil
}

type publishedEvent struct {
	kind    string
	userID  string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) record(kind, userID string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{kind: kind, userID: userID, payload: payload})
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]string, 0, len(p.events))
	for _, event := range p.events {
		kinds = append(kinds, event.kind)
	}
	return kinds
}

func (p *recordingPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.record("user.registered", event.UserID, event)
	return nil
}

func (p *recordingPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	p.record("user.logged_in", event.UserID, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.record("password.changed", event.UserID, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.record("password.reset_requested", event.UserID, event)
	return nil
}

func (p *recordingPublisher) PublishEmailVerified(_ context.Context, event domain.EmailVerifiedEvent) error {
	p.record("email.verified", event.UserID, event)
	return nil
}

func (p *recordingPublisher) PublishTokensRevoked(_ context.Context, event domain.TokensRevokedEvent) error {
	p.record("tokens.revoked", event.UserID, event)
	return nil
}
