package repository

import (
	"context"

	"khilat/internal/domain/entity"
)

// SnapshotCache is the durable fallback store for last-known cart snapshots.
// It is strictly best-effort: cache failures never fail a cart operation.
type SnapshotCache interface {
	// Load returns the cached snapshot for the guest, or nil when absent.
	Load(ctx context.Context, guestID string) (*entity.Cart, error)

	// Store persists the snapshot for the guest.
	Store(ctx context.Context, cart *entity.Cart) error

	// Delete drops the cached snapshot for the guest.
	Delete(ctx context.Context, guestID string) error
}
