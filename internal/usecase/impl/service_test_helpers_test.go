package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"khilat/config"
	"khilat/internal/domain/entity"
	"khilat/internal/domain/repository"
	"khilat/internal/domain/service"

	"github.com/pkg/errors"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Payment: &config.PaymentConfig{
			PublishableKey: "pk_test_123",
			ReturnURL:      "https://shop.example/order/complete",
		},
	}
	cfg.Shipping.FreeThreshold = 999
	cfg.Shipping.FlatFee = 99

	return cfg
}

func testPolicy() entity.ShippingPolicy {
	return entity.ShippingPolicy{FreeThreshold: 999, FlatFee: 99}
}

// fakeCartRepository is an in-memory cart backend with a per-product catalog
// and switchable failure injection.
type fakeCartRepository struct {
	mu     sync.Mutex
	lines  map[string][]entity.CartLine
	prices map[string]int64
	names  map[string]string

	failAll     bool
	fetchCalls  int
	upsertCalls int
	removeCalls int
	clearCalls  int
}

func newFakeCartRepository() *fakeCartRepository {
	return &fakeCartRepository{
		lines: make(map[string][]entity.CartLine),
		prices: map[string]int64{
			"kurta": 500,
			"shawl": 300,
			"cap":   150,
		},
		names: map[string]string{
			"kurta": "Embroidered Kurta",
			"shawl": "Wool Shawl",
			"cap":   "Sindhi Cap",
		},
	}
}

var errBackendDown = errors.New("backend unreachable")

func (f *fakeCartRepository) FetchCart(_ context.Context, guestID string) ([]entity.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.failAll {
		return nil, errBackendDown
	}

	lines, ok := f.lines[guestID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}

	return append([]entity.CartLine(nil), lines...), nil
}

func (f *fakeCartRepository) UpsertLine(_ context.Context, guestID, productID string, quantityDelta int) ([]entity.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	if f.failAll {
		return nil, errBackendDown
	}

	lines := f.lines[guestID]
	found := false
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += quantityDelta
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, entity.CartLine{
			LineID:    "line-" + productID,
			ProductID: productID,
			Name:      f.names[productID],
			UnitPrice: f.prices[productID],
			Quantity:  quantityDelta,
		})
	}
	f.lines[guestID] = lines

	return append([]entity.CartLine(nil), lines...), nil
}

func (f *fakeCartRepository) RemoveLine(_ context.Context, guestID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	if f.failAll {
		return errBackendDown
	}

	lines := f.lines[guestID]
	kept := lines[:0]
	for _, line := range lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	f.lines[guestID] = kept

	return nil
}

func (f *fakeCartRepository) ClearCart(_ context.Context, guestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	if f.failAll {
		return errBackendDown
	}

	delete(f.lines, guestID)

	return nil
}

// fakeSnapshotCache records stores and serves preloaded snapshots.
type fakeSnapshotCache struct {
	mu      sync.Mutex
	carts   map[string]*entity.Cart
	deletes int
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{carts: make(map[string]*entity.Cart)}
}

func (f *fakeSnapshotCache) Load(_ context.Context, guestID string) (*entity.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.carts[guestID], nil
}

func (f *fakeSnapshotCache) Store(_ context.Context, cart *entity.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[cart.GuestID] = cart

	return nil
}

func (f *fakeSnapshotCache) Delete(_ context.Context, guestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, guestID)
	f.deletes++

	return nil
}

// fakeIntentService mints predictable intents and can fail on demand.
type fakeIntentService struct {
	mu      sync.Mutex
	created int
	fail    bool
	inputs  []service.CreateIntentInput
}

func (f *fakeIntentService) CreateIntent(_ context.Context, input service.CreateIntentInput) (*entity.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errBackendDown
	}

	f.created++
	f.inputs = append(f.inputs, input)
	id := "pi_" + string(rune('0'+f.created))

	return &entity.PaymentIntent{
		ClientSecret:     id + "_secret_xyz",
		ProviderIntentID: id,
		Status:           "requires_confirmation",
	}, nil
}

// fakePaymentGateway replays a scripted confirmation outcome.
type fakePaymentGateway struct {
	mu      sync.Mutex
	result  *service.ConfirmResult
	err     error
	calls   int
	secrets []string
}

func (f *fakePaymentGateway) ConfirmIntent(_ context.Context, clientSecret, _ string) (*service.ConfirmResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.secrets = append(f.secrets, clientSecret)
	if f.err != nil {
		return nil, f.err
	}

	return f.result, nil
}

// fakeTokenService issues transparent tokens for inspection.
type fakeTokenService struct {
	issued []entity.CompletionMarker
	bad    map[string]bool
}

func (f *fakeTokenService) Issue(marker entity.CompletionMarker) (string, error) {
	f.issued = append(f.issued, marker)

	return "tok:" + marker.Status + ":" + marker.PaymentIntentID, nil
}

func (f *fakeTokenService) Verify(token string) (*entity.CompletionMarker, error) {
	if f.bad[token] {
		return nil, errors.New("token rejected")
	}

	var status, intentID string
	if n := len("tok:"); len(token) > n && token[:n] == "tok:" {
		rest := token[n:]
		for i := 0; i < len(rest); i++ {
			if rest[i] == ':' {
				status = rest[:i]
				intentID = rest[i+1:]
				break
			}
		}
	}
	if status == "" {
		return nil, errors.New("malformed token")
	}

	return &entity.CompletionMarker{Status: status, PaymentIntentID: intentID}, nil
}

// fakeQRCodeService returns the URL bytes instead of a PNG.
type fakeQRCodeService struct {
	lastURL string
}

func (f *fakeQRCodeService) GeneratePaymentQR(redirectURL string) ([]byte, error) {
	f.lastURL = redirectURL

	return []byte(redirectURL), nil
}

// fakeEventPublisher records published events.
type fakeEventPublisher struct {
	mu     sync.Mutex
	events []*service.OrderCompletedEvent
	err    error
}

func (f *fakeEventPublisher) PublishOrderCompleted(_ context.Context, event *service.OrderCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)

	return nil
}

func (f *fakeEventPublisher) Close() error {
	return nil
}
