// Package usecase defines the application use case interfaces.
package usecase

import (
	"context"

	"khilat/internal/domain/entity"
)

// CartUsecase owns the authoritative in-memory cart snapshot per guest and
// keeps it in sync with the cart backend. Mutations are never applied
// optimistically: the cache is replaced wholesale with the backend's
// response, and calls for the same guest are serialized in call order.
type CartUsecase interface {
	// Snapshot returns the current cached cart without a network round trip.
	Snapshot(guestID string) *entity.Cart

	// Refresh fetches the backend's cart and replaces the cache. Used on
	// checkout entry so totals are computed against server truth.
	Refresh(ctx context.Context, guestID string) (*entity.Cart, error)

	// Add upserts a line with merge semantics: adding a product that is
	// already present increases its quantity server-side.
	Add(ctx context.Context, guestID, productID string, quantity int) (*entity.Cart, error)

	// Increment raises the product's quantity by one.
	Increment(ctx context.Context, guestID, productID string) (*entity.Cart, error)

	// Decrement lowers the product's quantity by one; at quantity one the
	// line is removed instead of persisting a zero-quantity line.
	Decrement(ctx context.Context, guestID, productID string) (*entity.Cart, error)

	// Remove deletes the line. On transport failure the line is dropped
	// from the local cache anyway (documented best-effort fallback).
	Remove(ctx context.Context, guestID, productID string) (*entity.Cart, error)

	// Clear empties the cart. On transport failure the local cache is
	// cleared anyway: completion must never leave stale items visible.
	Clear(ctx context.Context, guestID string) error

	// Subscribe registers an observer for cart snapshots. The returned
	// cancel function must be called on screen teardown; it is safe to
	// call more than once.
	Subscribe(guestID string) (<-chan *entity.Cart, func())

	// Derived accessors over the cached snapshot.
	ItemCount(guestID string) int
	TotalPrice(guestID string) int64
	IsInCart(guestID, productID string) bool
	QuantityOf(guestID, productID string) int
}
