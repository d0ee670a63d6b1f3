// Package impl contains the use case implementations.
package impl

import (
	"context"
	"log/slog"
	"sync"

	"khilat/config"
	"khilat/internal/domain/entity"
	apperrors "khilat/internal/domain/errors"
	"khilat/internal/domain/repository"
	"khilat/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// cartSession holds one guest's cached snapshot and its observers. The
// mutex is held across the backend round trip, which is what serializes
// rapid mutations for the same guest in call order.
type cartSession struct {
	mu       sync.Mutex
	cart     *entity.Cart
	subs     map[int]chan *entity.Cart
	nextSub  int
	subsLock sync.Mutex
}

type cartService struct {
	repo   repository.CartRepository
	cache  repository.SnapshotCache
	policy entity.ShippingPolicy
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*cartSession
}

// CartServiceParams holds dependencies for CartService, injected by Fx.
type CartServiceParams struct {
	fx.In

	Repo   repository.CartRepository
	Cache  repository.SnapshotCache
	Config *config.Config
	Logger *slog.Logger
}

// NewCartService creates the cart store.
func NewCartService(params CartServiceParams) usecase.CartUsecase {
	return &cartService{
		repo: params.Repo,
		cache: params.Cache,
		policy: entity.ShippingPolicy{
			FreeThreshold: params.Config.Shipping.FreeThreshold,
			FlatFee:       params.Config.Shipping.FlatFee,
		},
		logger:   params.Logger,
		sessions: make(map[string]*cartSession),
	}
}

// session returns the guest's session, creating it on first use. A new
// session starts from the durable snapshot cache when one exists, so a
// restarted process still shows the last-known cart before the first
// refresh lands.
func (s *cartService) session(guestID string) *cartSession {
	s.mu.RLock()
	sess, ok := s.sessions[guestID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[guestID]; ok {
		return sess
	}

	sess = &cartSession{
		cart: entity.EmptyCart(guestID, s.policy),
		subs: make(map[int]chan *entity.Cart),
	}

	if cached, err := s.cache.Load(context.Background(), guestID); err != nil {
		s.logger.Warn("Snapshot cache load failed",
			slog.String("guest_id", guestID),
			slog.Any("error", err),
		)
	} else if cached != nil {
		sess.cart = cached
	}

	s.sessions[guestID] = sess

	return sess
}

// Snapshot returns the cached cart without a network round trip.
func (s *cartService) Snapshot(guestID string) *entity.Cart {
	sess := s.session(guestID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return sess.cart
}

// Refresh replaces the cache with the backend's cart.
func (s *cartService) Refresh(ctx context.Context, guestID string) (*entity.Cart, error) {
	sess := s.session(guestID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	lines, err := s.repo.FetchCart(ctx, guestID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			// The guest never added anything; an absent cart is empty.
			return s.replace(ctx, sess, guestID, nil), nil
		}

		return nil, apperrors.NewTransportError("refresh cart", err)
	}

	return s.replace(ctx, sess, guestID, lines), nil
}

// Add requests the backend to upsert the line and replaces the cache with
// the authoritative response. Deliberately not optimistic: the backend owns
// quantity merging and stock validation.
func (s *cartService) Add(ctx context.Context, guestID, productID string, quantity int) (*entity.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.NewValidationError(map[string]string{
			"quantity": "must be at least 1",
		})
	}

	sess := s.session(guestID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return s.upsert(ctx, sess, guestID, productID, quantity)
}

// Increment raises the product's quantity by one.
func (s *cartService) Increment(ctx context.Context, guestID, productID string) (*entity.Cart, error) {
	sess := s.session(guestID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return s.upsert(ctx, sess, guestID, productID, 1)
}

// Decrement lowers the product's quantity by one. A decrement that would
// reach zero turns into a remove; the backend never sees quantity 0.
func (s *cartService) Decrement(ctx context.Context, guestID, productID string) (*entity.Cart, error) {
	sess := s.session(guestID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	qty := sess.cart.QuantityOf(productID)
	if qty == 0 {
		return nil, apperrors.ErrLineNotFound
	}
	if qty <= 1 {
		return s.removeLocked(ctx, sess, guestID, productID), nil
	}

	return s.upsert(ctx, sess, guestID, productID, -1)
}

// Remove deletes the line server-side, falling back to a local removal when
// the backend cannot be reached so the row does not stay visibly stuck.
func (s *cartService) Remove(ctx context.Context, guestID, productID string) (*entity.Cart, error) {
	sess := s.session(guestID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.cart.IsInCart(productID) {
		return nil, apperrors.ErrLineNotFound
	}

	return s.removeLocked(ctx, sess, guestID, productID), nil
}

// Clear empties the cart. The local cache is cleared even when the backend
// delete fails: after a completed payment no stale items may stay visible.
func (s *cartService) Clear(ctx context.Context, guestID string) error {
	sess := s.session(guestID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.repo.ClearCart(ctx, guestID); err != nil {
		s.logger.Warn("Backend cart clear failed, clearing local cache anyway",
			slog.String("guest_id", guestID),
			slog.Any("error", err),
		)
	}

	s.replace(ctx, sess, guestID, nil)

	if err := s.cache.Delete(ctx, guestID); err != nil {
		s.logger.Warn("Snapshot cache delete failed",
			slog.String("guest_id", guestID),
			slog.Any("error", err),
		)
	}

	return nil
}

// Subscribe registers a snapshot observer. The channel holds the latest
// snapshot only; a slow consumer sees the freshest state, not every
// intermediate one. The cancel function is idempotent.
func (s *cartService) Subscribe(guestID string) (<-chan *entity.Cart, func()) {
	sess := s.session(guestID)

	sess.subsLock.Lock()
	id := sess.nextSub
	sess.nextSub++
	ch := make(chan *entity.Cart, 1)
	sess.subs[id] = ch
	sess.subsLock.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			sess.subsLock.Lock()
			delete(sess.subs, id)
			sess.subsLock.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// ItemCount returns the total number of units in the cached cart.
func (s *cartService) ItemCount(guestID string) int {
	return s.Snapshot(guestID).ItemCount()
}

// TotalPrice returns the cached cart total.
func (s *cartService) TotalPrice(guestID string) int64 {
	return s.Snapshot(guestID).Total
}

// IsInCart reports whether the product has a line in the cached cart.
func (s *cartService) IsInCart(guestID, productID string) bool {
	return s.Snapshot(guestID).IsInCart(productID)
}

// QuantityOf returns the product's cached quantity.
func (s *cartService) QuantityOf(guestID, productID string) int {
	return s.Snapshot(guestID).QuantityOf(productID)
}

func (s *cartService) upsert(ctx context.Context, sess *cartSession, guestID, productID string, delta int) (*entity.Cart, error) {
	lines, err := s.repo.UpsertLine(ctx, guestID, productID, delta)
	if err != nil {
		return nil, apperrors.NewTransportError("upsert cart line", err)
	}

	return s.replace(ctx, sess, guestID, lines), nil
}

func (s *cartService) removeLocked(ctx context.Context, sess *cartSession, guestID, productID string) *entity.Cart {
	if err := s.repo.RemoveLine(ctx, guestID, productID); err != nil {
		s.logger.Warn("Backend line remove failed, dropping line locally",
			slog.String("guest_id", guestID),
			slog.String("product_id", productID),
			slog.Any("error", err),
		)
	}

	cart := sess.cart.WithoutLine(productID, s.policy)
	s.install(ctx, sess, cart)

	return cart
}

// replace rebuilds the snapshot from backend lines and installs it.
func (s *cartService) replace(ctx context.Context, sess *cartSession, guestID string, lines []entity.CartLine) *entity.Cart {
	cart := entity.NewCart(guestID, lines, s.policy)
	s.install(ctx, sess, cart)

	return cart
}

// install stores the snapshot, persists it best-effort and notifies
// observers with the latest value.
func (s *cartService) install(ctx context.Context, sess *cartSession, cart *entity.Cart) {
	sess.cart = cart

	if err := s.cache.Store(ctx, cart); err != nil {
		s.logger.Warn("Snapshot cache store failed",
			slog.String("guest_id", cart.GuestID),
			slog.Any("error", err),
		)
	}

	sess.subsLock.Lock()
	defer sess.subsLock.Unlock()
	for _, ch := range sess.subs {
		// Keep only the freshest snapshot in the buffer.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- cart:
		default:
		}
	}
}
