package middleware

import (
	"log/slog"
	"net/http"
	"time"

	deliverycontext "khilat/internal/delivery/context"
	"khilat/internal/domain/constants"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// guestCookieMaxAge keeps the guest identity stable across visits.
const guestCookieMaxAge = 365 * 24 * time.Hour

// GuestMiddleware resolves the guest identity from the persistent cookie,
// minting a fresh one on first visit. A shopper whose client refuses the
// cookie still works: they get a fresh identity on every request and an
// effectively empty cart, which degrades gracefully instead of failing.
type GuestMiddleware struct {
	logger *slog.Logger
}

// NewGuestMiddleware creates a new guest identity middleware
func NewGuestMiddleware(logger *slog.Logger) *GuestMiddleware {
	return &GuestMiddleware{
		logger: logger,
	}
}

// Identify resolves or mints the guest ID and stores it in the context.
func (m *GuestMiddleware) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		guestID := ""

		if cookie, err := c.Cookie(constants.GuestCookieName); err == nil {
			if _, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
				guestID = cookie.Value
			}
		}

		if guestID == "" {
			guestID = uuid.New().String()
			c.SetCookie(&http.Cookie{
				Name:     constants.GuestCookieName,
				Value:    guestID,
				Path:     "/",
				MaxAge:   int(guestCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			m.logger.Debug("Minted guest identity",
				slog.String("guest_id", guestID),
			)
		}

		c.Set(string(deliverycontext.KeyGuestID), guestID)

		return next(c)
	}
}

// GetGuestID extracts the resolved guest ID from echo.Context.
func GetGuestID(c echo.Context) string {
	if id, ok := c.Get(string(deliverycontext.KeyGuestID)).(string); ok {
		return id
	}

	return ""
}
