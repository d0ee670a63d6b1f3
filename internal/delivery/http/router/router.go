// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	httpmiddleware "khilat/internal/delivery/http/middleware"
	"khilat/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	CartHandler       *handler.CartHandler
	CheckoutHandler   *handler.CheckoutHandler
	CompletionHandler *handler.CompletionHandler
	GuestMiddleware   *httpmiddleware.GuestMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	cartHandler       *handler.CartHandler
	checkoutHandler   *handler.CheckoutHandler
	completionHandler *handler.CompletionHandler
	guestMiddleware   *httpmiddleware.GuestMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		cartHandler:       params.CartHandler,
		checkoutHandler:   params.CheckoutHandler,
		completionHandler: params.CompletionHandler,
		guestMiddleware:   params.GuestMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Every shopper-facing route needs a resolved guest identity
	identified := e.Group("", r.guestMiddleware.Identify)

	cartGroup := identified.Group("/cart")
	{
		cartGroup.GET("", r.cartHandler.GetCart)
		cartGroup.POST("/refresh", r.cartHandler.RefreshCart)
		cartGroup.GET("/stream", r.cartHandler.StreamCart)
		cartGroup.POST("/items", r.cartHandler.AddItem)
		cartGroup.POST("/items/:productID/increment", r.cartHandler.IncrementItem)
		cartGroup.POST("/items/:productID/decrement", r.cartHandler.DecrementItem)
		cartGroup.DELETE("/items/:productID", r.cartHandler.RemoveItem)
		cartGroup.DELETE("", r.cartHandler.ClearCart)
	}

	checkoutGroup := identified.Group("/checkout")
	{
		checkoutGroup.GET("", r.checkoutHandler.EnterCheckout)
		checkoutGroup.POST("", r.checkoutHandler.SubmitForm)
		checkoutGroup.POST("/edit", r.checkoutHandler.EditDetails)
		checkoutGroup.POST("/confirm", r.checkoutHandler.Confirm)
		checkoutGroup.GET("/qr", r.checkoutHandler.PaymentQR)
	}

	// The payment provider redirects the browser back here
	identified.GET("/order/complete", r.completionHandler.Complete)
}
