package port

import (
	"context"
	"time"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
)

// UserRepository is the boundary to the external user-profile store. The
// lifecycle engine only needs identity lookups, creation at registration, and
// the two credential-adjacent mutations.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	SetEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
}
