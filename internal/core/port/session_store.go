package port

import (
	"context"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/domain"
)

// SessionStore is the session registry for the web/cookie path: session
// payloads plus a bounded ordered list of session ids per user.
type SessionStore interface {
	// Save writes the session and appends its id to the user's list, evicting
	// and deleting the oldest session when the list exceeds the cap.
	Save(ctx context.Context, session domain.Session) error

	Get(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session payload and its list entry.
	Delete(ctx context.Context, userID, sessionID string) error

	// ListForUser returns the user's live session ids in insertion order.
	ListForUser(ctx context.Context, userID string) ([]string, error)

	// RevokeAllForUser destroys every session for the user and clears the
	// list. Returns the number of destroyed sessions.
	RevokeAllForUser(ctx context.Context, userID string) (int, error)
}
