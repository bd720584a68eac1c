package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/repository"
)

func newRefreshRepo(t *testing.T, cap int) *RefreshTokenRepository {
	t.Helper()
	client, _ := newTestRedis(t)
	return NewRefreshTokenRepository(client, "", 7*24*time.Hour, cap, nil)
}

func sampleRecord(userID, hash string) domain.RefreshTokenRecord {
	now := time.Now().UTC()
	return domain.RefreshTokenRecord{
		UserID:     userID,
		TokenHash:  hash,
		Family:     "fam-1",
		Platform:   domain.PlatformMobile,
		DeviceID:   "device-1",
		CreatedAt:  now,
		LastUsedAt: now,
	}
}

func TestRefreshTokenRepository_SaveAndGet(t *testing.T) {
	repo := newRefreshRepo(t, 5)
	ctx := context.Background()

	record := sampleRecord("user-1", "hash-a")
	if err := repo.Save(ctx, record); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := repo.Get(ctx, "user-1", "hash-a")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Family != "fam-1" || got.Platform != domain.PlatformMobile || got.DeviceID != "device-1" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.UserID != "user-1" || got.TokenHash != "hash-a" {
		t.Fatalf("expected identity fields rehydrated from the key, got %+v", got)
	}

	hashes, err := repo.ListForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListForUser returned error: %v", err)
	}
	if len(hashes) != 1 || hashes[0] != "hash-a" {
		t.Fatalf("unexpected list %v", hashes)
	}
}

func TestRefreshTokenRepository_GetMiss(t *testing.T) {
	repo := newRefreshRepo(t, 5)

	_, err := repo.Get(context.Background(), "user-1", "nope")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshTokenRepository_DeleteIsSingleWinner(t *testing.T) {
	repo := newRefreshRepo(t, 5)
	ctx := context.Background()

	if err := repo.Save(ctx, sampleRecord("user-1", "hash-a")); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	deleted, err := repo.Delete(ctx, "user-1", "hash-a")
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !deleted {
		t.Fatalf("expected first delete to win")
	}

	deleted, err = repo.Delete(ctx, "user-1", "hash-a")
	if err != nil {
		t.Fatalf("second Delete returned error: %v", err)
	}
	if deleted {
		t.Fatalf("expected second delete to lose")
	}

	hashes, err := repo.ListForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListForUser returned error: %v", err)
	}
	if len(hashes) != 0 {
		t.Fatalf("expected empty list after delete, got %v", hashes)
	}
}

func TestRefreshTokenRepository_EvictsOldestAtCap(t *testing.T) {
	repo := newRefreshRepo(t, 3)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		record := sampleRecord("user-1", fmt.Sprintf("hash-%d", i))
		if err := repo.Save(ctx, record); err != nil {
			t.Fatalf("Save %d returned error: %v", i, err)
		}
	}

	hashes, err := repo.ListForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListForUser returned error: %v", err)
	}
	if len(hashes) != 3 {
		t.Fatalf("expected registry bounded at 3, got %d entries", len(hashes))
	}
	if hashes[0] != "hash-1" || hashes[2] != "hash-3" {
		t.Fatalf("expected oldest entry evicted first, got %v", hashes)
	}

	if _, err := repo.Get(ctx, "user-1", "hash-0"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected evicted token record gone, got %v", err)
	}
	if _, err := repo.Get(ctx, "user-1", "hash-3"); err != nil {
		t.Fatalf("expected newest token to survive, got %v", err)
	}
}

func TestRefreshTokenRepository_RevokeAllForUser(t *testing.T) {
	repo := newRefreshRepo(t, 5)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Save(ctx, sampleRecord("user-1", fmt.Sprintf("hash-%d", i))); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}
	}
	if err := repo.Save(ctx, sampleRecord("user-2", "other")); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	revoked, err := repo.RevokeAllForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("RevokeAllForUser returned error: %v", err)
	}
	if revoked != 3 {
		t.Fatalf("expected 3 revoked, got %d", revoked)
	}

	hashes, err := repo.ListForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListForUser returned error: %v", err)
	}
	if len(hashes) != 0 {
		t.Fatalf("expected empty list, got %v", hashes)
	}

	if _, err := repo.Get(ctx, "user-2", "other"); err != nil {
		t.Fatalf("expected user-2 token untouched, got %v", err)
	}
}

func TestRefreshTokenRepository_RevokeForPlatform(t *testing.T) {
	repo := newRefreshRepo(t, 5)
	ctx := context.Background()

	mobile := sampleRecord("user-1", "hash-mobile")
	web := sampleRecord("user-1", "hash-web")
	web.Platform = domain.PlatformWeb
	web.DeviceID = ""

	if err := repo.Save(ctx, mobile); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := repo.Save(ctx, web); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	revoked, err := repo.RevokeForPlatform(ctx, "user-1", domain.PlatformWeb)
	if err != nil {
		t.Fatalf("RevokeForPlatform returned error: %v", err)
	}
	if revoked != 1 {
		t.Fatalf("expected 1 revoked, got %d", revoked)
	}

	if _, err := repo.Get(ctx, "user-1", "hash-web"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected web token revoked, got %v", err)
	}
	if _, err := repo.Get(ctx, "user-1", "hash-mobile"); err != nil {
		t.Fatalf("expected mobile token to survive, got %v", err)
	}
}

func TestRefreshTokenRepository_RevokeFamily(t *testing.T) {
	repo := newRefreshRepo(t, 5)
	ctx := context.Background()

	first := sampleRecord("user-1", "hash-a")
	second := sampleRecord("user-1", "hash-b")
	second.Family = "fam-2"

	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	revoked, err := repo.RevokeFamily(ctx, "user-1", "fam-1")
	if err != nil {
		t.Fatalf("RevokeFamily returned error: %v", err)
	}
	if revoked != 1 {
		t.Fatalf("expected 1 revoked, got %d", revoked)
	}

	if _, err := repo.Get(ctx, "user-1", "hash-a"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected fam-1 token revoked, got %v", err)
	}
	if _, err := repo.Get(ctx, "user-1", "hash-b"); err != nil {
		t.Fatalf("expected fam-2 token to survive, got %v", err)
	}
}

func TestRefreshTokenRepository_FamilyVersionCounter(t *testing.T) {
	repo := newRefreshRepo(t, 5)
	ctx := context.Background()

	current, err := repo.FamilyVersion(ctx, "user-1", "fam-1")
	if err != nil {
		t.Fatalf("FamilyVersion returned error: %v", err)
	}
	if current != 0 {
		t.Fatalf("expected unknown family at version 0, got %d", current)
	}

	for want := int64(1); want <= 3; want++ {
		got, incrErr := repo.NextFamilyVersion(ctx, "user-1", "fam-1")
		if incrErr != nil {
			t.Fatalf("NextFamilyVersion returned error: %v", incrErr)
		}
		if got != want {
			t.Fatalf("expected version %d, got %d", want, got)
		}
	}

	current, err = repo.FamilyVersion(ctx, "user-1", "fam-1")
	if err != nil {
		t.Fatalf("FamilyVersion returned error: %v", err)
	}
	if current != 3 {
		t.Fatalf("expected counter at 3, got %d", current)
	}
}

func TestRefreshTokenRepository_RecordExpires(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRefreshTokenRepository(client, "", time.Hour, 5, nil)
	ctx := context.Background()

	if err := repo.Save(ctx, sampleRecord("user-1", "hash-a")); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	server.FastForward(2 * time.Hour)

	if _, err := repo.Get(ctx, "user-1", "hash-a"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected expired record to vanish, got %v", err)
	}
}
