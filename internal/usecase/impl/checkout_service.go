package impl

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"khilat/config"
	httpvalidator "khilat/internal/delivery/http/validator"
	"khilat/internal/domain/constants"
	"khilat/internal/domain/entity"
	apperrors "khilat/internal/domain/errors"
	"khilat/internal/domain/service"
	"khilat/internal/usecase"

	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
)

type checkoutService struct {
	cartUC   usecase.CartUsecase
	intents  service.IntentService
	gateway  service.PaymentGateway
	tokens   service.CompletionTokenService
	qr       service.QRCodeService
	validate *validator.Validate
	cfg      *config.Config
	logger   *slog.Logger

	mu       sync.Mutex
	attempts map[string]*guestAttempt
}

// guestAttempt pairs the orchestrator state with the pending provider
// redirect URL, kept so the QR endpoint can render it while the shopper
// decides which device to pay from. The per-guest mutex is held across the
// backend round trips, serializing one guest's checkout calls without
// blocking other guests.
type guestAttempt struct {
	mu          sync.Mutex
	attempt     *entity.CheckoutAttempt
	redirectURL string
}

// CheckoutServiceParams holds dependencies for CheckoutService, injected by Fx.
type CheckoutServiceParams struct {
	fx.In

	CartUC  usecase.CartUsecase
	Intents service.IntentService
	Gateway service.PaymentGateway
	Tokens  service.CompletionTokenService
	QR      service.QRCodeService
	Config  *config.Config
	Logger  *slog.Logger
}

// NewCheckoutService creates the checkout orchestrator. The form validator
// carries the same custom rules the request validator registers.
func NewCheckoutService(params CheckoutServiceParams) usecase.CheckoutUsecase {
	return &checkoutService{
		cartUC:   params.CartUC,
		intents:  params.Intents,
		gateway:  params.Gateway,
		tokens:   params.Tokens,
		qr:       params.QR,
		validate: httpvalidator.NewValidate(),
		cfg:      params.Config,
		logger:   params.Logger,
		attempts: make(map[string]*guestAttempt),
	}
}

// Attempt returns the guest's current attempt, creating the form-entry one
// on first access.
func (s *checkoutService) Attempt(guestID string) *entity.CheckoutAttempt {
	ga := s.attemptFor(guestID)
	ga.mu.Lock()
	defer ga.mu.Unlock()

	return ga.attempt
}

func (s *checkoutService) attemptFor(guestID string) *guestAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()

	ga, ok := s.attempts[guestID]
	if !ok {
		ga = &guestAttempt{attempt: &entity.CheckoutAttempt{State: entity.StateFormEntry}}
		s.attempts[guestID] = ga
	}

	return ga
}

// reset returns the guest's attempt to a fresh form entry once payment has
// left the orchestrator's hands.
func (s *checkoutService) reset(ga *guestAttempt) {
	ga.attempt = &entity.CheckoutAttempt{State: entity.StateFormEntry}
	ga.redirectURL = ""
}

// SubmitForm validates the form, refreshes the cart for server-truth totals
// and requests a payment intent for exactly that amount.
func (s *checkoutService) SubmitForm(ctx context.Context, guestID string, form entity.CheckoutForm) (*entity.CheckoutAttempt, error) {
	ga := s.attemptFor(guestID)
	ga.mu.Lock()
	defer ga.mu.Unlock()
	if ga.attempt.State != entity.StateFormEntry {
		return ga.attempt, apperrors.ErrCheckoutOrder.WithDetails("a payment intent already exists; edit details to discard it first")
	}

	if err := s.validate.Struct(form); err != nil {
		return ga.attempt, apperrors.NewValidationError(fieldMessages(err))
	}

	cart, err := s.cartUC.Refresh(ctx, guestID)
	if err != nil {
		return ga.attempt, err
	}
	if cart.IsEmpty() {
		return ga.attempt, apperrors.ErrCartEmpty
	}

	ga.attempt = &entity.CheckoutAttempt{
		State:  entity.StateCreatingIntent,
		Form:   &form,
		Amount: cart.Total,
	}

	intent, err := s.intents.CreateIntent(ctx, service.CreateIntentInput{
		GuestID:  guestID,
		Currency: constants.CurrencyINR,
		Amount:   cart.Total,
		Customer: form,
	})
	if err != nil {
		// Fall back to form entry with the form kept, so the shopper can
		// simply resubmit without retyping anything.
		ga.attempt = &entity.CheckoutAttempt{
			State: entity.StateFormEntry,
			Form:  &form,
		}

		return ga.attempt, apperrors.NewTransportError("create payment intent", err)
	}

	ga.attempt = &entity.CheckoutAttempt{
		State:  entity.StateAwaitingConfirmation,
		Form:   &form,
		Intent: intent,
		Amount: cart.Total,
	}
	ga.redirectURL = ""

	s.logger.Info("Payment intent created",
		slog.String("guest_id", guestID),
		slog.String("payment_intent_id", intent.ProviderIntentID),
		slog.Int64("amount", cart.Total),
	)

	return ga.attempt, nil
}

// EditDetails discards the in-flight intent and returns to form entry. The
// form fields are kept for editing; the next submission creates a fresh
// intent.
func (s *checkoutService) EditDetails(guestID string) (*entity.CheckoutAttempt, error) {
	ga := s.attemptFor(guestID)
	ga.mu.Lock()
	defer ga.mu.Unlock()
	if ga.attempt.State != entity.StateAwaitingConfirmation {
		return ga.attempt, apperrors.ErrCheckoutOrder.WithDetails("nothing to edit back from")
	}

	ga.attempt = &entity.CheckoutAttempt{
		State: entity.StateFormEntry,
		Form:  ga.attempt.Form,
	}
	ga.redirectURL = ""

	return ga.attempt, nil
}

// Confirm drives one confirmation attempt against the provider. A payment
// error leaves the attempt untouched so the same intent can be retried.
func (s *checkoutService) Confirm(ctx context.Context, guestID string) (*usecase.ConfirmOutcome, error) {
	ga := s.attemptFor(guestID)
	ga.mu.Lock()
	defer ga.mu.Unlock()

	if ga.attempt.State != entity.StateAwaitingConfirmation || ga.attempt.Intent == nil {
		return nil, apperrors.ErrNoActiveIntent
	}

	result, err := s.gateway.ConfirmIntent(ctx, ga.attempt.Intent.ClientSecret, s.cfg.Payment.ReturnURL)
	if err != nil {
		var payErr *apperrors.PaymentError
		if errors.As(err, &payErr) {
			s.logger.Info("Payment confirmation declined",
				slog.String("guest_id", guestID),
				slog.String("provider_code", payErr.ProviderCode()),
			)

			return nil, payErr
		}

		return nil, apperrors.NewTransportError("confirm payment intent", err)
	}

	switch result.Status {
	case service.ConfirmSucceeded:
		token, err := s.tokens.Issue(entity.CompletionMarker{
			Status:          string(service.ConfirmSucceeded),
			PaymentIntentID: result.PaymentIntentID,
		})
		if err != nil {
			return nil, apperrors.ErrInternalError.WithDetails("completion token issue failed")
		}

		// The attempt is done; the completion screen takes over from here.
		s.reset(ga)

		return &usecase.ConfirmOutcome{
			Result:        result,
			CompletionURL: s.cfg.Payment.ReturnURL + "?token=" + url.QueryEscape(token),
		}, nil

	case service.ConfirmProcessing:
		s.reset(ga)

		query := url.Values{}
		query.Set("payment_intent", result.PaymentIntentID)
		query.Set("redirect_status", "processing")

		return &usecase.ConfirmOutcome{
			Result:        result,
			CompletionURL: s.cfg.Payment.ReturnURL + "?" + query.Encode(),
		}, nil

	case service.ConfirmRequiresRedirect:
		// Control leaves the application; the provider navigates back to
		// the return URL with the outcome parameters.
		ga.redirectURL = result.RedirectURL

		return &usecase.ConfirmOutcome{
			Result:        result,
			CompletionURL: result.RedirectURL,
		}, nil

	default:
		return nil, apperrors.ErrInternalError.WithDetails("unknown confirmation status " + string(result.Status))
	}
}

// PaymentQR renders the pending provider redirect URL as a PNG QR code.
func (s *checkoutService) PaymentQR(guestID string) ([]byte, error) {
	ga := s.attemptFor(guestID)
	ga.mu.Lock()
	redirectURL := ga.redirectURL
	ga.mu.Unlock()

	if redirectURL == "" {
		return nil, apperrors.ErrNoActiveIntent.WithDetails("no redirect confirmation is pending")
	}

	return s.qr.GeneratePaymentQR(redirectURL)
}

// fieldMessages flattens validator errors into per-field messages keyed by
// the struct field's JSON-ish lowercase name.
func fieldMessages(err error) map[string]string {
	fields := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["form"] = err.Error()

		return fields
	}

	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "this field is required"
		case "email_strict":
			msg = "enter a valid email address"
		case "len":
			msg = "must be exactly " + fe.Param() + " characters"
		case "digits":
			msg = "must contain digits only"
		default:
			msg = "invalid value"
		}
		fields[fe.Field()] = msg
	}

	return fields
}
