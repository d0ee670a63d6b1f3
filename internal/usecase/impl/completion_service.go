package impl

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"khilat/internal/domain/entity"
	"khilat/internal/domain/service"
	"khilat/internal/usecase"

	deliverycontext "khilat/internal/delivery/context"

	"go.uber.org/fx"
)

type completionService struct {
	cartUC    usecase.CartUsecase
	tokens    service.CompletionTokenService
	publisher service.EventPublisher
	logger    *slog.Logger
}

// CompletionServiceParams holds dependencies for CompletionService, injected by Fx.
type CompletionServiceParams struct {
	fx.In

	CartUC    usecase.CartUsecase
	Tokens    service.CompletionTokenService
	Publisher service.EventPublisher
	Logger    *slog.Logger
}

// NewCompletionService creates the completion resolver.
func NewCompletionService(params CompletionServiceParams) usecase.CompletionUsecase {
	return &completionService{
		cartUC:    params.CartUC,
		tokens:    params.Tokens,
		publisher: params.Publisher,
		logger:    params.Logger,
	}
}

// Classify derives the completion outcome from the navigation marker and the
// URL query alone. It has no side effects and every call with the same
// inputs yields the same answer.
//
// Precedence, first match wins:
//  1. marker with succeeded status and an intent id
//  2. redirect_status=succeeded with a payment_intent parameter
//  3. redirect_status=processing
//  4. any other redirect_status value
//  5. nothing at all (direct navigation)
func Classify(marker *entity.CompletionMarker, query url.Values) *entity.CompletionResult {
	if marker != nil && marker.Status == "succeeded" && marker.PaymentIntentID != "" {
		return &entity.CompletionResult{
			Outcome:         entity.OutcomeSucceeded,
			PaymentIntentID: marker.PaymentIntentID,
		}
	}

	intentID := query.Get("payment_intent")
	redirectStatus := query.Get("redirect_status")

	if redirectStatus == "succeeded" && intentID != "" {
		return &entity.CompletionResult{
			Outcome:         entity.OutcomeSucceeded,
			PaymentIntentID: intentID,
		}
	}

	if redirectStatus == "processing" {
		return &entity.CompletionResult{
			Outcome:         entity.OutcomeProcessing,
			PaymentIntentID: intentID,
			Message:         "Your payment is being processed. We will confirm your order shortly.",
		}
	}

	// A succeeded redirect without an intent id matches nothing above and
	// is an invalid session, not a failed payment.
	if redirectStatus != "" && redirectStatus != "succeeded" {
		return &entity.CompletionResult{
			Outcome:         entity.OutcomeFailed,
			PaymentIntentID: intentID,
			Message:         "Payment was not completed. Please try again.",
		}
	}

	return &entity.CompletionResult{
		Outcome: entity.OutcomeInvalid,
		Message: "Invalid order session.",
	}
}

// Resolve classifies this completion screen load and, on a resolved success,
// clears the cart and publishes the order-completed event. A tampered or
// expired token is treated the same as an absent one; the query parameters
// still get their chance to classify the load.
func (s *completionService) Resolve(ctx context.Context, guestID, markerToken string, query url.Values) *entity.CompletionResult {
	var marker *entity.CompletionMarker
	if markerToken != "" {
		m, err := s.tokens.Verify(markerToken)
		if err != nil {
			s.logger.Warn("Completion token rejected",
				slog.String("guest_id", guestID),
				slog.Any("error", err),
			)
		} else {
			marker = m
		}
	}

	result := Classify(marker, query)

	if result.Outcome == entity.OutcomeSucceeded {
		// Clear is idempotent; a reload of an already-resolved success
		// re-clears an already-empty cart without error.
		if err := s.cartUC.Clear(ctx, guestID); err != nil {
			s.logger.Warn("Cart clear after successful payment failed",
				slog.String("guest_id", guestID),
				slog.Any("error", err),
			)
		}

		event := &service.OrderCompletedEvent{
			RequestID:       deliverycontext.GetRequestIDFromContext(ctx),
			GuestID:         guestID,
			PaymentIntentID: result.PaymentIntentID,
			CompletedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.publisher.PublishOrderCompleted(ctx, event); err != nil {
			s.logger.Warn("Order completed event publish failed",
				slog.String("guest_id", guestID),
				slog.String("payment_intent_id", result.PaymentIntentID),
				slog.Any("error", err),
			)
		}

		s.logger.Info("Order completed",
			slog.String("guest_id", guestID),
			slog.String("payment_intent_id", result.PaymentIntentID),
		)
	}

	return result
}
