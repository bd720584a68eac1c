package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
)

type registrationFixture struct {
	service   *RegistrationService
	tokens    *TokenService
	rotation  *RotationService
	refresh   *stubRefreshStore
	publisher *recordingPublisher
}

func newRegistrationFixture(users *stubUserRepo) *registrationFixture {
	cfg := testConfig()
	refresh := newStubRefreshStore()
	tokens := NewTokenService(cfg, newStubBlacklist(), refresh, newStubResetStore(), nil)
	publisher := &recordingPublisher{}
	service := NewRegistrationService(cfg, users, tokens, nil, stubHasher{}, publisher, nil)
	return &registrationFixture{
		service:   service,
		tokens:    tokens,
		rotation:  NewRotationService(tokens, refresh, users, nil),
		refresh:   refresh,
		publisher: publisher,
	}
}

func TestRegisterCreatesPendingAccount(t *testing.T) {
	users := newStubUserRepo()
	fixture := newRegistrationFixture(users)
	ctx := context.Background()

	result, err := fixture.service.Register(ctx, RegisterInput{
		Username: "bob",
		Email:    "Bob@Example.com",
		Password: "Str0ng!Passphrase",
		Device:   domain.DeviceInfo{Platform: domain.PlatformWeb},
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if result.User.Status != domain.UserStatusPending {
		t.Fatalf("expected pending status, got %q", result.User.Status)
	}
	if result.User.Email != "bob@example.com" {
		t.Fatalf("expected normalized email, got %q", result.User.Email)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatalf("expected a token pair")
	}
	if result.VerificationToken == "" {
		t.Fatalf("expected a verification token")
	}

	claims, err := fixture.tokens.ValidateResetToken(ctx, result.VerificationToken, domain.ResetPurposeEmail)
	if err != nil {
		t.Fatalf("verification token failed validation: %v", err)
	}
	if claims.Subject != result.User.ID {
		t.Fatalf("verification token bound to wrong user")
	}

	kinds := fixture.publisher.kinds()
	if len(kinds) != 1 || kinds[0] != "user.registered" {
		t.Fatalf("unexpected events %v", kinds)
	}
}

func TestRegisterIssuesUsableTokenPair(t *testing.T) {
	users := newStubUserRepo()
	fixture := newRegistrationFixture(users)
	ctx := context.Background()

	result, err := fixture.service.Register(ctx, RegisterInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "Str0ng!Passphrase",
		Device:   domain.DeviceInfo{Platform: domain.PlatformMobile, DeviceID: "device-9"},
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	claims, err := fixture.tokens.ValidateAccessToken(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("registration access token failed validation: %v", err)
	}
	if claims.Subject != result.User.ID {
		t.Fatalf("access token bound to wrong user")
	}

	hashes, err := fixture.refresh.ListForUser(ctx, result.User.ID)
	if err != nil {
		t.Fatalf("ListForUser returned error: %v", err)
	}
	if len(hashes) != 1 {
		t.Fatalf("expected one live refresh record, got %d", len(hashes))
	}

	// The account is still pending, yet its refresh token rotates without
	// tripping the inactive-account revocation.
	rotated, err := fixture.rotation.Rotate(ctx, result.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == "" {
		t.Fatalf("expected a rotated token pair")
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	fixture := newRegistrationFixture(newStubUserRepo())

	_, err := fixture.service.Register(context.Background(), RegisterInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "password",
	})
	if !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	fixture := newRegistrationFixture(newStubUserRepo(activeUser()))

	_, err := fixture.service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "new@example.com",
		Password: "Str0ng!Passphrase",
	})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestVerifyEmailActivatesAccount(t *testing.T) {
	users := newStubUserRepo()
	fixture := newRegistrationFixture(users)
	ctx := context.Background()

	result, err := fixture.service.Register(ctx, RegisterInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "Str0ng!Passphrase",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if err := fixture.service.VerifyEmail(ctx, result.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}

	user, err := users.GetByID(ctx, result.User.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if !user.EmailVerified || user.Status != domain.UserStatusActive {
		t.Fatalf("expected verified active account, got %+v", user)
	}

	// The verification token is single use.
	if err := fixture.service.VerifyEmail(ctx, result.VerificationToken); !errors.Is(err, ErrResetTokenUsed) {
		t.Fatalf("expected ErrResetTokenUsed on second use, got %v", err)
	}

	kinds := fixture.publisher.kinds()
	if len(kinds) != 2 || kinds[1] != "email.verified" {
		t.Fatalf("unexpected events %v", kinds)
	}
}
