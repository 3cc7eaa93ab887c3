package ports

import (
	"context"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
)

// ConversationStore persists conversation snapshots between sessions.
type ConversationStore interface {
	// Save persists the snapshot under the given conversation ID.
	Save(ctx context.Context, id string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a conversation ID.
	// Returns domain.ErrConversationNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a conversation ID.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored conversations.
	List(ctx context.Context) ([]string, error)
}
