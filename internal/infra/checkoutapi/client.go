// Package checkoutapi implements the checkout backend transport over HTTP.
package checkoutapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"khilat/config"
	"khilat/internal/domain/entity"
	"khilat/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// intentClient implements service.IntentService against the checkout REST API.
type intentClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientParams holds dependencies for the intent client, injected by Fx.
type ClientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

type createIntentPayload struct {
	GuestID  string          `json:"guest_id"`
	Currency string          `json:"currency"`
	Amount   int64           `json:"amount"`
	Customer customerPayload `json:"customer"`
}

type customerPayload struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
}

type createIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	Error        string `json:"error,omitempty"`
}

// NewClient creates the checkout backend client.
func NewClient(params ClientParams) (service.IntentService, error) {
	cfg := params.Config.CheckoutAPI
	if cfg == nil || strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("checkout api base url must be configured")
	}

	return &intentClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: params.Logger,
	}, nil
}

// CreateIntent opens a payment intent for one checkout attempt.
func (c *intentClient) CreateIntent(ctx context.Context, input service.CreateIntentInput) (*entity.PaymentIntent, error) {
	body, err := json.Marshal(createIntentPayload{
		GuestID:  input.GuestID,
		Currency: input.Currency,
		Amount:   input.Amount,
		Customer: customerPayload{
			FullName:     input.Customer.FullName,
			Email:        input.Customer.Email,
			Phone:        input.Customer.Phone,
			AddressLine1: input.Customer.AddressLine1,
			AddressLine2: input.Customer.AddressLine2,
			City:         input.Customer.City,
			State:        input.Customer.State,
			Pincode:      input.Customer.Pincode,
		},
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments/intents", bytes.NewReader(body))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer res.Body.Close()

	var payload createIntentResponse
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decode intent payload")
	}

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		c.logger.Warn("Intent creation rejected",
			slog.Int("status", res.StatusCode),
			slog.String("error", payload.Error),
		)

		return nil, errors.Errorf("create intent failed: status=%d error=%s", res.StatusCode, payload.Error)
	}

	if payload.ClientSecret == "" {
		return nil, errors.New("create intent returned no client secret")
	}

	intentID, err := entity.IntentIDFromClientSecret(payload.ClientSecret)
	if err != nil {
		return nil, errors.Wrap(err, "create intent response")
	}

	return &entity.PaymentIntent{
		ClientSecret:     payload.ClientSecret,
		ProviderIntentID: intentID,
		Status:           "requires_confirmation",
	}, nil
}
