package handler

import (
	"log/slog"
	"net/http"

	httpmiddleware "khilat/internal/delivery/http/middleware"
	"khilat/internal/delivery/http/response"
	"khilat/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CompletionHandlerParams holds dependencies for CompletionHandler, injected by Fx.
type CompletionHandlerParams struct {
	fx.In

	CompletionUC usecase.CompletionUsecase
	Logger       *slog.Logger
}

// CompletionHandler holds dependencies for the order completion screen
type CompletionHandler struct {
	completionUC usecase.CompletionUsecase
	logger       *slog.Logger
}

// NewCompletionHandler is the constructor for CompletionHandler
func NewCompletionHandler(params CompletionHandlerParams) *CompletionHandler {
	return &CompletionHandler{
		completionUC: params.CompletionUC,
		logger:       params.Logger,
	}
}

// Complete resolves the order completion screen. Both navigation channels
// land here: the in-page success carries the signed token, the provider
// redirect carries payment_intent and redirect_status query parameters.
// Opening the URL with neither resolves to an invalid session, never an
// error page.
func (h *CompletionHandler) Complete(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)
	query := c.Request().URL.Query()
	token := query.Get("token")

	result := h.completionUC.Resolve(c.Request().Context(), guestID, token, query)

	return response.Success(c, http.StatusOK, result, "Order completion resolved")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
