package port

import (
	"context"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
)

// RefreshTokenStore is the refresh registry: per-token records, the bounded
// per-user ordered list of live tokens, and the per-(user, family) version
// counter. All state lives in the shared key-value store.
type RefreshTokenStore interface {
	// Save writes the record and appends the token digest to the user's
	// ordered list, evicting (and fully invalidating) the oldest entry when
	// the list exceeds the configured cap.
	Save(ctx context.Context, record domain.RefreshTokenRecord) error

	// Get retrieves the record stored under (userID, tokenHash).
	Get(ctx context.Context, userID, tokenHash string) (*domain.RefreshTokenRecord, error)

	// Delete removes the record and its list entry. Reports whether a record
	// was actually deleted, so concurrent rotations can be told apart.
	Delete(ctx context.Context, userID, tokenHash string) (bool, error)

	// ListForUser returns the user's live token digests in insertion order.
	ListForUser(ctx context.Context, userID string) ([]string, error)

	// RevokeAllForUser invalidates every live refresh token for the user and
	// clears the list. Returns the number of invalidated tokens.
	RevokeAllForUser(ctx context.Context, userID string) (int, error)

	// RevokeForPlatform invalidates only the user's tokens issued for the
	// supplied platform, leaving other platforms intact.
	RevokeForPlatform(ctx context.Context, userID string, platform domain.Platform) (int, error)

	// RevokeFamily invalidates every live token of the user belonging to the
	// supplied family.
	RevokeFamily(ctx context.Context, userID, family string) (int, error)

	// NextFamilyVersion atomically increments and returns the version counter
	// for (userID, family).
	NextFamilyVersion(ctx context.Context, userID, family string) (int64, error)

	// FamilyVersion returns the current counter for (userID, family), zero
	// when the family is unknown.
	FamilyVersion(ctx context.Context, userID, family string) (int64, error)
}
