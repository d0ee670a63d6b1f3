package entity

// CompletionOutcome classifies what the completion screen should show for
// this page load. It is derived once per load and never persisted.
type CompletionOutcome string

const (
	// OutcomeSucceeded means payment is final and the cart must be cleared.
	OutcomeSucceeded CompletionOutcome = "succeeded"

	// OutcomeProcessing means the provider is still settling the payment;
	// the cart is kept until a later load resolves the final state.
	OutcomeProcessing CompletionOutcome = "processing"

	// OutcomeFailed means the provider reported a non-success redirect
	// status; the shopper is offered a retry back at the form.
	OutcomeFailed CompletionOutcome = "failed"

	// OutcomeInvalid means the screen was opened without any completion
	// evidence (direct navigation); same retry affordance as failed.
	OutcomeInvalid CompletionOutcome = "invalid"
)

// CompletionMarker is the in-memory navigation channel: the orchestrator
// issues it after an in-page card confirmation and it is carried through the
// client-side navigation to the completion screen as a signed one-time token.
type CompletionMarker struct {
	Status          string `json:"status"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// CompletionResult is what the resolver hands the completion screen.
type CompletionResult struct {
	Outcome         CompletionOutcome `json:"outcome"`
	PaymentIntentID string            `json:"payment_intent_id,omitempty"`
	Message         string            `json:"message,omitempty"`
}
