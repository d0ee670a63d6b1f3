// Package cartapi implements the cart backend transport over HTTP.
package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"khilat/config"
	"khilat/internal/domain/entity"
	"khilat/internal/domain/repository"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/fx"
)

// cartClient implements repository.CartRepository against the cart REST API.
// All calls go through a circuit breaker so a dead backend fails fast
// instead of stacking timeouts behind every click.
type cartClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]entity.CartLine]
	logger     *slog.Logger
}

// ClientParams holds dependencies for the cart client, injected by Fx.
type ClientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// cartPayload mirrors the cart backend's wire format.
type cartPayload struct {
	GuestID string        `json:"guest_id"`
	Items   []linePayload `json:"items"`
}

type linePayload struct {
	LineID    string `json:"line_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type upsertPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// NewClient creates the cart backend client.
func NewClient(params ClientParams) (repository.CartRepository, error) {
	cfg := params.Config.CartAPI
	if cfg == nil || strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("cart api base url must be configured")
	}

	settings := gobreaker.Settings{
		Name:        "cart-api",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.OpenTimeout,
	}
	if cfg.Breaker.ConsecutiveFailures > 0 {
		threshold := cfg.Breaker.ConsecutiveFailures
		settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		}
	}

	return &cartClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker[[]entity.CartLine](settings),
		logger:  params.Logger,
	}, nil
}

// FetchCart reads the guest's cart from the backend.
func (c *cartClient) FetchCart(ctx context.Context, guestID string) ([]entity.CartLine, error) {
	return c.breaker.Execute(func() ([]entity.CartLine, error) {
		return c.getCart(ctx, guestID)
	})
}

// UpsertLine applies a signed quantity delta and returns the authoritative
// line set the backend computed after merging.
func (c *cartClient) UpsertLine(ctx context.Context, guestID, productID string, quantityDelta int) ([]entity.CartLine, error) {
	return c.breaker.Execute(func() ([]entity.CartLine, error) {
		body, err := json.Marshal(upsertPayload{
			ProductID: productID,
			Quantity:  quantityDelta,
		})
		if err != nil {
			return nil, errors.WithStack(err)
		}

		endpoint := c.baseURL + "/carts/" + url.PathEscape(guestID) + "/items"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
			return nil, c.statusError("upsert line", res)
		}

		return decodeLines(res.Body)
	})
}

// RemoveLine deletes the product's line server-side.
func (c *cartClient) RemoveLine(ctx context.Context, guestID, productID string) error {
	_, err := c.breaker.Execute(func() ([]entity.CartLine, error) {
		endpoint := c.baseURL + "/carts/" + url.PathEscape(guestID) + "/items/" + url.PathEscape(productID)

		return nil, c.deleteRequest(ctx, "remove line", endpoint)
	})

	return err
}

// ClearCart empties the guest's cart server-side.
func (c *cartClient) ClearCart(ctx context.Context, guestID string) error {
	_, err := c.breaker.Execute(func() ([]entity.CartLine, error) {
		endpoint := c.baseURL + "/carts/" + url.PathEscape(guestID)

		return nil, c.deleteRequest(ctx, "clear cart", endpoint)
	})

	return err
}

func (c *cartClient) getCart(ctx context.Context, guestID string) ([]entity.CartLine, error) {
	endpoint := c.baseURL + "/carts/" + url.PathEscape(guestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, repository.ErrCartNotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, c.statusError("fetch cart", res)
	}

	return decodeLines(res.Body)
}

func (c *cartClient) deleteRequest(ctx context.Context, op, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		// Deleting what is already gone is not a failure for our callers.
		return nil
	default:
		return c.statusError(op, res)
	}
}

func (c *cartClient) statusError(op string, res *http.Response) error {
	var payload errorPayload
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
	_ = json.Unmarshal(raw, &payload)

	c.logger.Warn("Cart API call failed",
		slog.String("op", op),
		slog.Int("status", res.StatusCode),
		slog.String("error", payload.Error),
	)

	return errors.Errorf("cart api %s failed: status=%d error=%s", op, res.StatusCode, payload.Error)
}

func decodeLines(r io.Reader) ([]entity.CartLine, error) {
	var payload cartPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode cart payload")
	}

	lines := make([]entity.CartLine, 0, len(payload.Items))
	for _, item := range payload.Items {
		lines = append(lines, entity.CartLine{
			LineID:    item.LineID,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	return lines, nil
}
