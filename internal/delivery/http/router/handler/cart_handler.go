// Package handler contains the HTTP handlers for the storefront session API.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	httpmiddleware "khilat/internal/delivery/http/middleware"
	"khilat/internal/delivery/http/response"
	"khilat/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CartHandlerParams holds dependencies for CartHandler, injected by Fx.
type CartHandlerParams struct {
	fx.In

	CartUC usecase.CartUsecase
	Logger *slog.Logger
}

// CartHandler holds dependencies for cart-related handlers
type CartHandler struct {
	cartUC usecase.CartUsecase
	logger *slog.Logger
}

// NewCartHandler is the constructor for CartHandler
func NewCartHandler(params CartHandlerParams) *CartHandler {
	return &CartHandler{
		cartUC: params.CartUC,
		logger: params.Logger,
	}
}

// AddItemRequest represents the request body for adding a cart line
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// GetCart returns the cached cart snapshot without a backend round trip.
func (h *CartHandler) GetCart(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	return response.Success(c, http.StatusOK, h.cartUC.Snapshot(guestID), "Cart retrieved")
}

// RefreshCart fetches the backend cart and replaces the cached snapshot.
func (h *CartHandler) RefreshCart(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	cart, err := h.cartUC.Refresh(c.Request().Context(), guestID)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, cart, "Cart refreshed")
}

// AddItem adds a product to the cart with merge semantics.
func (h *CartHandler) AddItem(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	var req AddItemRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid cart item input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	cart, err := h.cartUC.Add(c.Request().Context(), guestID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, cart, "Item added to cart")
}

// IncrementItem raises the product's quantity by one.
func (h *CartHandler) IncrementItem(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	cart, err := h.cartUC.Increment(c.Request().Context(), guestID, c.Param("productID"))
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, cart, "Quantity increased")
}

// DecrementItem lowers the product's quantity by one, removing the line when
// it would reach zero.
func (h *CartHandler) DecrementItem(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	cart, err := h.cartUC.Decrement(c.Request().Context(), guestID, c.Param("productID"))
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, cart, "Quantity decreased")
}

// RemoveItem deletes the product's line from the cart.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	cart, err := h.cartUC.Remove(c.Request().Context(), guestID, c.Param("productID"))
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, cart, "Item removed from cart")
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	if err := h.cartUC.Clear(c.Request().Context(), guestID); err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, h.cartUC.Snapshot(guestID), "Cart cleared")
}

// StreamCart pushes cart snapshots over Server-Sent Events. The current
// snapshot goes out immediately so the consumer never waits for the first
// mutation, then every accepted mutation follows.
func (h *CartHandler) StreamCart(c echo.Context) error {
	guestID := httpmiddleware.GetGuestID(c)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	updates, cancel := h.cartUC.Subscribe(guestID)
	defer cancel()

	if err := writeCartEvent(res, h.cartUC.Snapshot(guestID)); err != nil {
		return err
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case cart, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeCartEvent(res, cart); err != nil {
				return err
			}
		}
	}
}

func writeCartEvent(res *echo.Response, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()

	return nil
}
