// Package repository defines the outbound data ports of the storefront.
package repository

import (
	"context"

	"khilat/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrCartNotFound is returned when the backend has no cart for the guest.
var ErrCartNotFound = errors.New("cart not found")

// CartRepository is the thin transport to the cart backend. The backend is
// the source of truth for quantity merging and stock validation, so every
// mutation returns the full authoritative line set rather than a delta.
type CartRepository interface {
	// FetchCart reads the guest's cart. Returns ErrCartNotFound when the
	// guest has never added anything.
	FetchCart(ctx context.Context, guestID string) ([]entity.CartLine, error)

	// UpsertLine applies a signed quantity delta for the product (merge
	// semantics server-side) and returns the resulting line set.
	UpsertLine(ctx context.Context, guestID, productID string, quantityDelta int) ([]entity.CartLine, error)

	// RemoveLine deletes the product's line server-side.
	RemoveLine(ctx context.Context, guestID, productID string) error

	// ClearCart empties the guest's cart server-side. The cart entity
	// itself is not destroyed.
	ClearCart(ctx context.Context, guestID string) error
}
