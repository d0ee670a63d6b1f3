package entity

import (
	"strings"

	"github.com/pkg/errors"
)

// CheckoutState identifies where a guest's checkout attempt currently is in
// the form -> intent -> confirmation progression. The terminal state is
// implicit: it is reached on the completion screen, outside the orchestrator.
type CheckoutState string

const (
	// StateFormEntry is the initial state: the shopper is editing the form.
	StateFormEntry CheckoutState = "form_entry"

	// StateCreatingIntent means the form passed validation and a payment
	// intent is being requested from the checkout backend.
	StateCreatingIntent CheckoutState = "creating_intent"

	// StateAwaitingConfirmation means an intent exists and the provider
	// confirmation is being driven with its client secret.
	StateAwaitingConfirmation CheckoutState = "awaiting_confirmation"
)

// CheckoutForm carries the customer contact and shipping address fields.
// It is validated before an intent is created and becomes immutable for the
// lifetime of that intent; editing requires discarding the intent first.
type CheckoutForm struct {
	FullName     string `json:"full_name" validate:"required"`
	Email        string `json:"email" validate:"required,email_strict"`
	Phone        string `json:"phone" validate:"required,len=10,digits"`
	AddressLine1 string `json:"address_line1" validate:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	Pincode      string `json:"pincode" validate:"required,len=6,digits"`
}

// PaymentIntent is the capability the provider hands out for one
// confirmation attempt. The client secret is sufficient to drive exactly
// that attempt; a fresh attempt needs a fresh intent.
type PaymentIntent struct {
	ClientSecret     string `json:"client_secret"`
	ProviderIntentID string `json:"provider_intent_id"`
	Status           string `json:"status"`
}

// IntentIDFromClientSecret extracts the provider intent id from a client
// secret of the form "pi_xxx_secret_yyy". A secret without that shape carries
// no usable id and is rejected rather than passed along.
func IntentIDFromClientSecret(clientSecret string) (string, error) {
	idx := strings.Index(clientSecret, "_secret_")
	if idx <= 0 {
		return "", errors.New("client secret carries no intent id")
	}

	return clientSecret[:idx], nil
}

// CheckoutAttempt is the per-guest orchestrator state. It lives only for the
// duration of the checkout session and is never persisted.
type CheckoutAttempt struct {
	State  CheckoutState  `json:"state"`
	Form   *CheckoutForm  `json:"form,omitempty"`
	Intent *PaymentIntent `json:"intent,omitempty"`
	Amount int64          `json:"amount"`
}
