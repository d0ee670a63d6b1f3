package usecase

import (
	"context"

	"khilat/internal/domain/entity"
	"khilat/internal/domain/service"
)

// ConfirmOutcome describes what should happen after one confirmation call.
type ConfirmOutcome struct {
	// Result is the provider's answer.
	Result *service.ConfirmResult

	// CompletionURL is where the shopper should be navigated next. For an
	// in-page success it points at the completion screen carrying the
	// signed marker token; for a processing answer it carries the
	// redirect-status query parameters; for a redirect answer it is the
	// provider's own URL and control leaves the application.
	CompletionURL string
}

// CheckoutUsecase drives the ordered checkout steps for one guest:
// form capture -> intent creation -> provider confirmation.
//
// The orchestrator state lives only for the checkout session. It does not
// survive a full-page redirect; the completion screen is resolved from the
// URL by CompletionUsecase instead.
type CheckoutUsecase interface {
	// Attempt returns the guest's current checkout attempt, creating the
	// initial form-entry attempt when none exists.
	Attempt(guestID string) *entity.CheckoutAttempt

	// SubmitForm validates the form and requests a payment intent. A
	// validation failure keeps the attempt at form entry with field-level
	// errors; an intent creation failure also returns to form entry so
	// the same form can be retried.
	SubmitForm(ctx context.Context, guestID string, form entity.CheckoutForm) (*entity.CheckoutAttempt, error)

	// EditDetails returns from awaiting-confirmation to form entry and
	// discards the in-flight intent. A later resubmission must request a
	// fresh intent; reusing a stale one across edited details is not
	// allowed.
	EditDetails(guestID string) (*entity.CheckoutAttempt, error)

	// Confirm drives one confirmation attempt with the current intent's
	// client secret. A payment error leaves the same intent retryable.
	Confirm(ctx context.Context, guestID string) (*ConfirmOutcome, error)

	// PaymentQR renders the pending provider redirect URL as a QR code
	// for scanning from another device.
	PaymentQR(guestID string) ([]byte, error)
}
