// Package service defines outbound service ports used by the use cases.
package service

import "context"

// ConfirmStatus is the provider's answer to a confirmation attempt.
type ConfirmStatus string

const (
	// ConfirmSucceeded means the payment settled synchronously in-page.
	ConfirmSucceeded ConfirmStatus = "succeeded"

	// ConfirmProcessing means the provider accepted the attempt but has
	// not settled it yet.
	ConfirmProcessing ConfirmStatus = "processing"

	// ConfirmRequiresRedirect means the method needs a full-page redirect;
	// control leaves the application until the provider navigates back.
	ConfirmRequiresRedirect ConfirmStatus = "requires_redirect"
)

// ConfirmResult describes the outcome of one confirmation call.
type ConfirmResult struct {
	Status          ConfirmStatus
	PaymentIntentID string
	// RedirectURL is set only for ConfirmRequiresRedirect; the shopper's
	// browser must be sent there and will land back on the return URL with
	// outcome query parameters.
	RedirectURL string
}

// PaymentGateway drives one confirmation attempt against the third-party
// payment provider using the intent's client secret. A declined or otherwise
// provider-rejected attempt surfaces as *apperrors.PaymentError and leaves
// the same intent retryable.
type PaymentGateway interface {
	ConfirmIntent(ctx context.Context, clientSecret, returnURL string) (*ConfirmResult, error)
}
