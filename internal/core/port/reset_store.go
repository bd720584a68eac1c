package port

import (
	"context"
	"time"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
)

// ResetTokenStore tracks issuance and single consumption of reset-class
// tokens (password reset and email verification).
type ResetTokenStore interface {
	Track(ctx context.Context, record domain.ResetTokenRecord, ttl time.Duration) error

	// MarkUsed idempotently records consumption under its own short TTL.
	MarkUsed(ctx context.Context, tokenHash string, ttl time.Duration) error

	IsUsed(ctx context.Context, tokenHash string) (bool, error)
}
