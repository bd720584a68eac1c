package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
)

func TestResetTokenRepository_TrackWritesRecord(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewResetTokenRepository(client, "")

	record := domain.ResetTokenRecord{
		TokenHash: "hash-a",
		UserID:    "user-1",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Track(context.Background(), record, time.Hour); err != nil {
		t.Fatalf("Track returned error: %v", err)
	}

	if !server.Exists("reset:hash-a") {
		t.Fatalf("expected reset record key to be written")
	}
	remaining := server.TTL("reset:hash-a")
	if remaining <= 0 || remaining > time.Hour {
		t.Fatalf("expected ttl within (0, 1h], got %v", remaining)
	}
}

func TestResetTokenRepository_MarkUsedOnce(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewResetTokenRepository(client, "")
	ctx := context.Background()

	first := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo.WithClock(func() time.Time { return first })

	used, err := repo.IsUsed(ctx, "hash-a")
	if err != nil {
		t.Fatalf("IsUsed returned error: %v", err)
	}
	if used {
		t.Fatalf("expected fresh token to be unused")
	}

	if err := repo.MarkUsed(ctx, "hash-a", time.Hour); err != nil {
		t.Fatalf("MarkUsed returned error: %v", err)
	}

	used, err = repo.IsUsed(ctx, "hash-a")
	if err != nil {
		t.Fatalf("IsUsed returned error: %v", err)
	}
	if !used {
		t.Fatalf("expected token marked as used")
	}

	// A second consumption attempt must not overwrite the original timestamp.
	repo.WithClock(func() time.Time { return first.Add(10 * time.Minute) })
	if err := repo.MarkUsed(ctx, "hash-a", time.Hour); err != nil {
		t.Fatalf("second MarkUsed returned error: %v", err)
	}

	raw, err := server.Get("reset_used:hash-a")
	if err != nil {
		t.Fatalf("miniredis get: %v", err)
	}
	var usage domain.ResetTokenUsage
	if err := json.Unmarshal([]byte(raw), &usage); err != nil {
		t.Fatalf("unmarshal usage: %v", err)
	}
	if !usage.UsedAt.Equal(first) {
		t.Fatalf("expected first consumption timestamp kept, got %v", usage.UsedAt)
	}
}

func TestResetTokenRepository_UsageFlagExpires(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewResetTokenRepository(client, "")
	ctx := context.Background()

	if err := repo.MarkUsed(ctx, "hash-a", time.Hour); err != nil {
		t.Fatalf("MarkUsed returned error: %v", err)
	}

	server.FastForward(2 * time.Hour)

	used, err := repo.IsUsed(ctx, "hash-a")
	if err != nil {
		t.Fatalf("IsUsed returned error: %v", err)
	}
	if used {
		t.Fatalf("expected usage flag to expire with the token lifetime")
	}
}

func TestResetTokenRepository_InvalidInput(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewResetTokenRepository(client, "")
	ctx := context.Background()

	if err := repo.Track(ctx, domain.ResetTokenRecord{}, time.Hour); err == nil {
		t.Fatalf("expected error for empty token hash")
	}
	if err := repo.Track(ctx, domain.ResetTokenRecord{TokenHash: "h"}, 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
	if err := repo.MarkUsed(ctx, "", time.Hour); err == nil {
		t.Fatalf("expected error for empty token hash in MarkUsed")
	}
	if _, err := repo.IsUsed(ctx, ""); err == nil {
		t.Fatalf("expected error for empty token hash in IsUsed")
	}
}
