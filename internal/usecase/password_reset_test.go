package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
)

type passwordFixture struct {
	service   *PasswordService
	tokens    *TokenService
	refresh   *stubRefreshStore
	sessions  *stubSessionStore
	users     *stubUserRepo
	publisher *recordingPublisher
}

func newPasswordFixture(users *stubUserRepo) *passwordFixture {
	cfg := testConfig()
	refresh := newStubRefreshStore()
	sessions := newStubSessionStore()
	publisher := &recordingPublisher{}
	tokens := NewTokenService(cfg, newStubBlacklist(), refresh, newStubResetStore(), nil)
	service := NewPasswordService(cfg, users, tokens, refresh, sessions, nil, stubHasher{}, publisher, nil)

	return &passwordFixture{
		service:   service,
		tokens:    tokens,
		refresh:   refresh,
		sessions:  sessions,
		users:     users,
		publisher: publisher,
	}
}

func TestRequestResetIssuesToken(t *testing.T) {
	fixture := newPasswordFixture(newStubUserRepo(activeUser()))
	ctx := context.Background()

	result, err := fixture.service.RequestReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if result.Token == "" {
		t.Fatalf("expected a reset token")
	}
	if result.MaskedDestination != "ali***@example.com" {
		t.Fatalf("unexpected masked destination %q", result.MaskedDestination)
	}

	claims, err := fixture.tokens.ValidateResetToken(ctx, result.Token, domain.ResetPurposePassword)
	if err != nil {
		t.Fatalf("reset token failed validation: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("reset token bound to wrong user")
	}

	kinds := fixture.publisher.kinds()
	if len(kinds) != 1 || kinds[0] != "password.reset_requested" {
		t.Fatalf("unexpected events %v", kinds)
	}
}

func TestRequestResetUnknownIdentifier(t *testing.T) {
	fixture := newPasswordFixture(newStubUserRepo())

	_, err := fixture.service.RequestReset(context.Background(), "ghost@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(fixture.publisher.kinds()) != 0 {
		t.Fatalf("no events expected for unknown identifiers")
	}
}

func TestConfirmResetRevokesEverything(t *testing.T) {
	user := activeUser()
	fixture := newPasswordFixture(newStubUserRepo(user))
	ctx := context.Background()

	// Live credentials on two platforms plus a web session.
	if _, _, err := fixture.tokens.IssueRefreshToken(ctx, user, mobileDevice(), ""); err != nil {
		t.Fatalf("IssueRefreshToken returned error: %v", err)
	}
	if _, _, err := fixture.tokens.IssueRefreshToken(ctx, user, domain.DeviceInfo{Platform: domain.PlatformWeb}, ""); err != nil {
		t.Fatalf("IssueRefreshToken returned error: %v", err)
	}
	if err := fixture.sessions.Save(ctx, domain.Session{ID: "sess-1", UserID: user.ID}); err != nil {
		t.Fatalf("Save session returned error: %v", err)
	}

	request, err := fixture.service.RequestReset(ctx, "alice")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if err := fixture.service.ConfirmReset(ctx, request.Token, "N3w!Passphrase"); err != nil {
		t.Fatalf("ConfirmReset returned error: %v", err)
	}

	updated, _ := fixture.users.GetByID(ctx, user.ID)
	if updated.PasswordHash != "hashed:N3w!Passphrase" {
		t.Fatalf("password not updated: %q", updated.PasswordHash)
	}

	hashes, _ := fixture.refresh.ListForUser(ctx, user.ID)
	if len(hashes) != 0 {
		t.Fatalf("expected all refresh tokens revoked, got %v", hashes)
	}
	ids, _ := fixture.sessions.ListForUser(ctx, user.ID)
	if len(ids) != 0 {
		t.Fatalf("expected all sessions revoked, got %v", ids)
	}

	// The consumed token cannot be presented again.
	if err := fixture.service.ConfirmReset(ctx, request.Token, "An0ther!Passphrase"); !errors.Is(err, ErrResetTokenUsed) {
		t.Fatalf("expected ErrResetTokenUsed, got %v", err)
	}
}

func TestConfirmResetRejectsWeakPassword(t *testing.T) {
	fixture := newPasswordFixture(newStubUserRepo(activeUser()))
	ctx := context.Background()

	request, err := fixture.service.RequestReset(ctx, "alice")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if err := fixture.service.ConfirmReset(ctx, request.Token, "password"); !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}

	// A rejected candidate must not consume the token.
	if err := fixture.service.ConfirmReset(ctx, request.Token, "N3w!Passphrase"); err != nil {
		t.Fatalf("expected token still usable after policy rejection, got %v", err)
	}
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	fixture := newPasswordFixture(newStubUserRepo(activeUser()))
	ctx := context.Background()

	err := fixture.service.ChangePassword(ctx, "user-1", "wrong-current", "N3w!Passphrase")
	if !errors.Is(err, ErrCurrentPasswordInvalid) {
		t.Fatalf("expected ErrCurrentPasswordInvalid, got %v", err)
	}
}

func TestChangePasswordRevokesEverywhere(t *testing.T) {
	user := activeUser()
	fixture := newPasswordFixture(newStubUserRepo(user))
	ctx := context.Background()

	if _, _, err := fixture.tokens.IssueRefreshToken(ctx, user, mobileDevice(), ""); err != nil {
		t.Fatalf("IssueRefreshToken returned error: %v", err)
	}
	if err := fixture.sessions.Save(ctx, domain.Session{ID: "sess-1", UserID: user.ID}); err != nil {
		t.Fatalf("Save session returned error: %v", err)
	}

	if err := fixture.service.ChangePassword(ctx, user.ID, "correct-password", "N3w!Passphrase"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	hashes, _ := fixture.refresh.ListForUser(ctx, user.ID)
	if len(hashes) != 0 {
		t.Fatalf("expected refresh tokens revoked, got %v", hashes)
	}
	ids, _ := fixture.sessions.ListForUser(ctx, user.ID)
	if len(ids) != 0 {
		t.Fatalf("expected sessions revoked, got %v", ids)
	}

	kinds := fixture.publisher.kinds()
	if len(kinds) != 1 || kinds[0] != "password.changed" {
		t.Fatalf("unexpected events %v", kinds)
	}
}
