// Package payment adapts the third-party payment provider's REST API.
package payment

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"khilat/config"
	"khilat/internal/domain/entity"
	apperrors "khilat/internal/domain/errors"
	"khilat/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// stripeClient drives payment intent confirmation the way the provider's
// browser SDK does under the hood: a publishable-key-authenticated confirm
// call carrying the client secret and a return URL. The secret key never
// touches this service.
type stripeClient struct {
	baseURL        string
	publishableKey string
	returnURL      string
	httpClient     *http.Client
	logger         *slog.Logger
}

// ClientParams holds dependencies for the payment client, injected by Fx.
type ClientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

type confirmResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	NextAction *struct {
		Type          string `json:"type"`
		RedirectToURL *struct {
			URL string `json:"url"`
		} `json:"redirect_to_url"`
	} `json:"next_action"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates the payment provider adapter.
func NewClient(params ClientParams) (service.PaymentGateway, error) {
	cfg := params.Config.Payment
	if cfg == nil || strings.TrimSpace(cfg.PublishableKey) == "" {
		return nil, errors.New("payment publishable key must be configured")
	}
	if strings.TrimSpace(cfg.ReturnURL) == "" {
		return nil, errors.New("payment return url must be configured")
	}

	return &stripeClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		publishableKey: cfg.PublishableKey,
		returnURL:      cfg.ReturnURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: params.Logger,
	}, nil
}

// ConfirmIntent submits one confirmation attempt for the intent behind the
// client secret. The same secret may be retried after a PaymentError; a
// requires_redirect result hands control to the browser until the provider
// navigates back to the return URL.
func (c *stripeClient) ConfirmIntent(ctx context.Context, clientSecret, returnURL string) (*service.ConfirmResult, error) {
	intentID, err := entity.IntentIDFromClientSecret(clientSecret)
	if err != nil {
		return nil, err
	}

	if returnURL == "" {
		returnURL = c.returnURL
	}

	form := url.Values{}
	form.Set("key", c.publishableKey)
	form.Set("client_secret", clientSecret)
	form.Set("return_url", returnURL)

	endpoint := c.baseURL + "/v1/payment_intents/" + url.PathEscape(intentID) + "/confirm"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer res.Body.Close()

	var payload confirmResponse
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decode confirm payload")
	}

	if payload.Error != nil {
		c.logger.Info("Provider declined confirmation",
			slog.String("intent_id", intentID),
			slog.String("code", payload.Error.Code),
		)

		return nil, apperrors.NewPaymentError(payload.Error.Code, payload.Error.Message)
	}

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("confirm failed: status=%d", res.StatusCode)
	}

	switch payload.Status {
	case "succeeded":
		return &service.ConfirmResult{
			Status:          service.ConfirmSucceeded,
			PaymentIntentID: payload.ID,
		}, nil

	case "processing":
		return &service.ConfirmResult{
			Status:          service.ConfirmProcessing,
			PaymentIntentID: payload.ID,
		}, nil

	case "requires_action":
		if payload.NextAction == nil || payload.NextAction.RedirectToURL == nil {
			return nil, errors.New("requires_action without redirect url")
		}

		return &service.ConfirmResult{
			Status:          service.ConfirmRequiresRedirect,
			PaymentIntentID: payload.ID,
			RedirectURL:     payload.NextAction.RedirectToURL.URL,
		}, nil

	default:
		return nil, errors.Errorf("unexpected intent status %q", payload.Status)
	}
}
