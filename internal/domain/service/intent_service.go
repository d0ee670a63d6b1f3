package service

import (
	"context"

	"khilat/internal/domain/entity"
)

// CreateIntentInput carries everything the checkout backend needs to open a
// payment intent for one checkout attempt.
type CreateIntentInput struct {
	GuestID  string
	Currency string
	Amount   int64
	Customer entity.CheckoutForm
}

// IntentService obtains a payment intent from the checkout backend. Exactly
// one intent exists per checkout attempt; going back to the form discards it
// and a resubmission must request a fresh one.
type IntentService interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*entity.PaymentIntent, error)
}
