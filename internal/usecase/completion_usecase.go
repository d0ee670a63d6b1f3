package usecase

import (
	"context"
	"net/url"

	"khilat/internal/domain/entity"
)

// CompletionUsecase classifies the completion screen load exactly once and
// performs the success side effects (cart clear, order event). The resolver
// must work from the navigation token and URL query alone: the orchestrator
// instance that started the payment does not survive a provider redirect.
type CompletionUsecase interface {
	// Resolve inspects the signed navigation token (may be empty) and the
	// URL query parameters, classifies the outcome, and on a resolved
	// success clears the cart and publishes the order-completed event.
	// Cart clearing is idempotent; re-resolving an already-cleared cart
	// yields the same outcome without error.
	Resolve(ctx context.Context, guestID, markerToken string, query url.Values) *entity.CompletionResult
}
