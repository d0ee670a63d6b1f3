package impl

import (
	"context"
	"strings"
	"testing"

	"khilat/internal/domain/entity"
	apperrors "khilat/internal/domain/errors"
	"khilat/internal/domain/service"
	"khilat/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutServiceFixtures struct {
	service usecase.CheckoutUsecase
	cartUC  usecase.CartUsecase
	repo    *fakeCartRepository
	intents *fakeIntentService
	gateway *fakePaymentGateway
	tokens  *fakeTokenService
	qr      *fakeQRCodeService
}

func createTestCheckoutService(t *testing.T) checkoutServiceFixtures {
	t.Helper()

	repo := newFakeCartRepository()
	cartUC := NewCartService(CartServiceParams{
		Repo:   repo,
		Cache:  newFakeSnapshotCache(),
		Config: newTestConfig(),
		Logger: newDiscardLogger(),
	})

	intents := &fakeIntentService{}
	gateway := &fakePaymentGateway{}
	tokens := &fakeTokenService{}
	qr := &fakeQRCodeService{}

	service := NewCheckoutService(CheckoutServiceParams{
		CartUC:  cartUC,
		Intents: intents,
		Gateway: gateway,
		Tokens:  tokens,
		QR:      qr,
		Config:  newTestConfig(),
		Logger:  newDiscardLogger(),
	})

	return checkoutServiceFixtures{
		service: service,
		cartUC:  cartUC,
		repo:    repo,
		intents: intents,
		gateway: gateway,
		tokens:  tokens,
		qr:      qr,
	}
}

func validForm() entity.CheckoutForm {
	return entity.CheckoutForm{
		FullName:     "Ayesha Khan",
		Email:        "ayesha@example.com",
		Phone:        "9876543210",
		AddressLine1: "14 Clifton Road",
		City:         "Hyderabad",
		State:        "Telangana",
		Pincode:      "500001",
	}
}

func fillCart(t *testing.T, fx checkoutServiceFixtures) {
	t.Helper()

	_, err := fx.cartUC.Add(context.Background(), "guest-1", "kurta", 2)
	require.NoError(t, err)
}

func TestCheckoutService_Attempt_StartsAtFormEntry(t *testing.T) {
	fx := createTestCheckoutService(t)

	attempt := fx.service.Attempt("guest-1")
	assert.Equal(t, entity.StateFormEntry, attempt.State)
	assert.Nil(t, attempt.Intent)
}

func TestCheckoutService_SubmitForm_CreatesIntentForCartTotal(t *testing.T) {
	fx := createTestCheckoutService(t)
	fillCart(t, fx)

	attempt, err := fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	require.NoError(t, err)

	assert.Equal(t, entity.StateAwaitingConfirmation, attempt.State)
	require.NotNil(t, attempt.Intent)
	assert.Equal(t, "pi_1", attempt.Intent.ProviderIntentID)
	assert.Equal(t, int64(1000), attempt.Amount)

	require.Len(t, fx.intents.inputs, 1)
	assert.Equal(t, int64(1000), fx.intents.inputs[0].Amount)
	assert.Equal(t, "inr", fx.intents.inputs[0].Currency)
}

func TestCheckoutService_SubmitForm_RejectsDotlessEmailDomain(t *testing.T) {
	fx := createTestCheckoutService(t)
	fillCart(t, fx)

	form := validForm()
	form.Email = "a@b"

	attempt, err := fx.service.SubmitForm(context.Background(), "guest-1", form)

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields(), "Email")
	assert.Equal(t, entity.StateFormEntry, attempt.State)
	assert.Zero(t, fx.intents.created)
}

func TestCheckoutService_SubmitForm_AcceptsDottedEmailDomain(t *testing.T) {
	fx := createTestCheckoutService(t)
	fillCart(t, fx)

	form := validForm()
	form.Email = "a@b.com"

	_, err := fx.service.SubmitForm(context.Background(), "guest-1", form)
	require.NoError(t, err)
}

func TestCheckoutService_SubmitForm_FieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.CheckoutForm)
		field  string
	}{
		{"missing name", func(f *entity.CheckoutForm) { f.FullName = "" }, "FullName"},
		{"short phone", func(f *entity.CheckoutForm) { f.Phone = "12345" }, "Phone"},
		{"alpha phone", func(f *entity.CheckoutForm) { f.Phone = "98765abcde" }, "Phone"},
		{"decimal phone", func(f *entity.CheckoutForm) { f.Phone = "12345678.9" }, "Phone"},
		{"signed phone", func(f *entity.CheckoutForm) { f.Phone = "+919876543" }, "Phone"},
		{"short pincode", func(f *entity.CheckoutForm) { f.Pincode = "5001" }, "Pincode"},
		{"alpha pincode", func(f *entity.CheckoutForm) { f.Pincode = "50000a" }, "Pincode"},
		{"signed pincode", func(f *entity.CheckoutForm) { f.Pincode = "-12345" }, "Pincode"},
		{"decimal pincode", func(f *entity.CheckoutForm) { f.Pincode = "50.001" }, "Pincode"},
		{"missing address", func(f *entity.CheckoutForm) { f.AddressLine1 = "" }, "AddressLine1"},
		{"missing city", func(f *entity.CheckoutForm) { f.City = "" }, "City"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestCheckoutService(t)
			fillCart(t, fx)

			form := validForm()
			tt.mutate(&form)

			_, err := fx.service.SubmitForm(context.Background(), "guest-1", form)

			var validationErr *apperrors.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Fields(), tt.field)
			assert.Zero(t, fx.intents.created)
		})
	}
}

func TestCheckoutService_SubmitForm_EmptyCartBlocked(t *testing.T) {
	fx := createTestCheckoutService(t)

	_, err := fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	assert.ErrorIs(t, err, apperrors.ErrCartEmpty)
	assert.Zero(t, fx.intents.created)
}

func TestCheckoutService_SubmitForm_IntentFailureReturnsToForm(t *testing.T) {
	fx := createTestCheckoutService(t)
	fillCart(t, fx)

	fx.intents.fail = true
	attempt, err := fx.service.SubmitForm(context.Background(), "guest-1", validForm())

	var transportErr *apperrors.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, entity.StateFormEntry, attempt.State)
	require.NotNil(t, attempt.Form)
	assert.Equal(t, "Ayesha Khan", attempt.Form.FullName)

	// The same form can simply be resubmitted once the backend recovers.
	fx.intents.fail = false
	attempt, err = fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	require.NoError(t, err)
	assert.Equal(t, entity.StateAwaitingConfirmation, attempt.State)
}

func TestCheckoutService_SubmitForm_RejectedWhileAwaitingConfirmation(t *testing.T) {
	fx := createTestCheckoutService(t)
	fillCart(t, fx)

	_, err := fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	require.NoError(t, err)

	_, err = fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	assert.ErrorIs(t, err, apperrors.ErrCheckoutOrder)
	assert.Equal(t, 1, fx.intents.created)
}

func TestCheckoutService_EditDetails_DiscardsIntent(t *testing.T) {
	fx := createTestCheckoutService(t)
	fillCart(t, fx)

	_, err := fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	require.NoError(t, err)

	attempt, err := fx.service.EditDetails("guest-1")
	require.NoError(t, err)

	assert.Equal(t, entity.StateFormEntry, attempt.State)
	assert.Nil(t, attempt.Intent)
	require.NotNil(t, attempt.Form)
	assert.Equal(t, "Ayesha Khan", attempt.Form.FullName)
}

func TestCheckoutService_EditThenResubmitUsesFreshIntent(t *testing.T) {
	fx := createTestCheckoutService(t)
	fillCart(t, fx)

	first, err := fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	require.NoError(t, err)

	_, err = fx.service.EditDetails("guest-1")
	require.NoError(t, err)

	second, err := fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	require.NoError(t, err)

	assert.Equal(t, 2, fx.intents.created)
	assert.NotEqual(t, first.Intent.ClientSecret, second.Intent.ClientSecret)
}

func TestCheckoutService_EditDetails_OnlyFromAwaitingConfirmation(t *testing.T) {
	fx := createTestCheckoutService(t)

	_, err := fx.service.EditDetails("guest-1")
	assert.ErrorIs(t, err, apperrors.ErrCheckoutOrder)
}

func TestCheckoutService_Confirm_WithoutIntent(t *testing.T) {
	fx := createTestCheckoutService(t)

	_, err := fx.service.Confirm(context.Background(), "guest-1")
	assert.ErrorIs(t, err, apperrors.ErrNoActiveIntent)
}

func TestCheckoutService_Confirm_SucceededIssuesCompletionToken(t *testing.T) {
	fx := createTestCheckoutService(t)
	fillCart(t, fx)

	_, err := fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	require.NoError(t, err)

	fx.gateway.result = &service.ConfirmResult{
		Status:          service.ConfirmSucceeded,
		PaymentIntentID: "pi_1",
	}

	outcome, err := fx.service.Confirm(context.Background(), "guest-1")
	require.NoError(t, err)

	require.Len(t, fx.tokens.issued, 1)
	assert.Equal(t, "succeeded", fx.tokens.issued[0].Status)
	assert.Equal(t, "pi_1", fx.tokens.issued[0].PaymentIntentID)
	assert.True(t, strings.HasPrefix(outcome.CompletionURL, "https://shop.example/order/complete?token="))

	// The attempt is done; going back to checkout starts fresh.
	assert.Equal(t, entity.StateFormEntry, fx.service.Attempt("guest-1").State)
}

func TestCheckoutService_Confirm_ProcessingCarriesRedirectStatus(t *testing.T) {
	fx := createTestCheckoutService(t)
	fillCart(t, fx)

	_, err := fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	require.NoError(t, err)

	fx.gateway.result = &service.ConfirmResult{
		Status:          service.ConfirmProcessing,
		PaymentIntentID: "pi_1",
	}

	outcome, err := fx.service.Confirm(context.Background(), "guest-1")
	require.NoError(t, err)

	assert.Contains(t, outcome.CompletionURL, "payment_intent=pi_1")
	assert.Contains(t, outcome.CompletionURL, "redirect_status=processing")
	assert.Empty(t, fx.tokens.issued)
}

func TestCheckoutService_Confirm_PaymentErrorKeepsSameIntent(t *testing.T) {
	fx := createTestCheckoutService(t)
	fillCart(t, fx)

	first, err := fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	require.NoError(t, err)

	fx.gateway.err = apperrors.NewPaymentError("card_declined", "Your card was declined")
	_, err = fx.service.Confirm(context.Background(), "guest-1")

	var payErr *apperrors.PaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, "card_declined", payErr.ProviderCode())

	// Retry drives the very same client secret, no fresh intent.
	fx.gateway.err = nil
	fx.gateway.result = &service.ConfirmResult{
		Status:          service.ConfirmSucceeded,
		PaymentIntentID: "pi_1",
	}
	_, err = fx.service.Confirm(context.Background(), "guest-1")
	require.NoError(t, err)

	assert.Equal(t, 1, fx.intents.created)
	require.Len(t, fx.gateway.secrets, 2)
	assert.Equal(t, first.Intent.ClientSecret, fx.gateway.secrets[0])
	assert.Equal(t, fx.gateway.secrets[0], fx.gateway.secrets[1])
}

func TestCheckoutService_Confirm_RedirectExposesQR(t *testing.T) {
	fx := createTestCheckoutService(t)
	fillCart(t, fx)

	_, err := fx.service.SubmitForm(context.Background(), "guest-1", validForm())
	require.NoError(t, err)

	fx.gateway.result = &service.ConfirmResult{
		Status:          service.ConfirmRequiresRedirect,
		PaymentIntentID: "pi_1",
		RedirectURL:     "https://pay.example/upi/session-9",
	}

	outcome, err := fx.service.Confirm(context.Background(), "guest-1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/upi/session-9", outcome.CompletionURL)

	png, err := fx.service.PaymentQR("guest-1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/upi/session-9", string(png))
}

func TestCheckoutService_PaymentQR_WithoutPendingRedirect(t *testing.T) {
	fx := createTestCheckoutService(t)

	_, err := fx.service.PaymentQR("guest-1")
	assert.ErrorIs(t, err, apperrors.ErrNoActiveIntent)
}
