package handler

import (
	"log/slog"
	"net/http"

	httpmiddleware "khilat/internal/delivery/http/middleware"
	"khilat/internal/delivery/http/response"
	"khilat/internal/domain/entity"
	apperrors "khilat/internal/domain/errors"
	"khilat/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CheckoutHandlerParams holds dependencies for CheckoutHandler, injected by Fx.
type CheckoutHandlerParams struct {
	fx.In

	CheckoutUC usecase.CheckoutUsecase
	CartUC     usecase.CartUsecase
	Logger     *slog.Logger
}

// CheckoutHandler holds dependencies for checkout-related handlers
type CheckoutHandler struct {
	checkoutUC usecase.CheckoutUsecase
	cartUC     usecase.CartUsecase
	logger     *slog.Logger
}

// NewCheckoutHandler is the constructor for CheckoutHandler
func NewCheckoutHandler(params CheckoutHandlerParams) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutUC: params.CheckoutUC,
		cartUC:     params.CartUC,
		logger:     params.Logger,
	}
}

// checkoutView is what the checkout screen renders from.
type checkoutView struct {
	Attempt *entity.CheckoutAttempt `json:"attempt"`
	Cart    *entity.Cart            `json:"cart"`
}

// EnterCheckout opens the checkout screen. The cart is refreshed first so
// the order summary reflects server truth, and an empty cart bounces the
// shopper back instead of letting them reach payment.
func (h *CheckoutHandler) EnterCheckout(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	cart, err := h.cartUC.Refresh(c.Request().Context(), guestID)
	if err != nil {
		return err
	}
	if cart.IsEmpty() {
		return apperrors.ErrCartEmpty
	}

	return response.Success(c, http.StatusOK, checkoutView{
		Attempt: h.checkoutUC.Attempt(guestID),
		Cart:    cart,
	}, "Checkout session")
}

// SubmitForm validates the shipping details and creates a payment intent.
// Validation and binding failures never advance the checkout state.
func (h *CheckoutHandler) SubmitForm(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	var form entity.CheckoutForm
	if err := c.Bind(&form); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid checkout form input")
	}

	attempt, err := h.checkoutUC.SubmitForm(c.Request().Context(), guestID, form)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, attempt, "Payment intent created")
}

// EditDetails returns from the payment step to the form and discards the
// in-flight intent.
func (h *CheckoutHandler) EditDetails(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	attempt, err := h.checkoutUC.EditDetails(guestID)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, attempt, "Returned to details")
}

// Confirm drives one provider confirmation attempt with the current intent.
func (h *CheckoutHandler) Confirm(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	outcome, err := h.checkoutUC.Confirm(c.Request().Context(), guestID)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, outcome, "Confirmation attempted")
}

// PaymentQR renders the pending provider redirect URL as a PNG QR code so
// the payment can be finished from another device.
func (h *CheckoutHandler) PaymentQR(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	png, err := h.checkoutUC.PaymentQR(guestID)
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, "image/png", png)
}
