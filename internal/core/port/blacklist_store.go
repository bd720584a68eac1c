package port

import (
	"context"
	"time"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
)

// BlacklistStore records revoked access-token identifiers. Entries live
// exactly as long as the remaining lifetime of the token they belong to.
type BlacklistStore interface {
	TrackJTI(ctx context.Context, record domain.AccessTokenJTI, ttl time.Duration) error
	Blacklist(ctx context.Context, jti string, reason string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
