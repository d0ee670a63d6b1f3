package impl

import (
	"context"
	"testing"

	"khilat/internal/domain/entity"
	apperrors "khilat/internal/domain/errors"
	"khilat/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartServiceFixtures struct {
	service usecase.CartUsecase
	repo    *fakeCartRepository
	cache   *fakeSnapshotCache
}

func createTestCartService(t *testing.T) cartServiceFixtures {
	t.Helper()

	repo := newFakeCartRepository()
	cache := newFakeSnapshotCache()
	service := NewCartService(CartServiceParams{
		Repo:   repo,
		Cache:  cache,
		Config: newTestConfig(),
		Logger: newDiscardLogger(),
	})

	return cartServiceFixtures{service: service, repo: repo, cache: cache}
}

func TestCartService_Snapshot_StartsEmpty(t *testing.T) {
	fx := createTestCartService(t)

	cart := fx.service.Snapshot("guest-1")
	assert.True(t, cart.IsEmpty())
	assert.Zero(t, cart.Subtotal)
	assert.Zero(t, cart.Total)
}

func TestCartService_Add_ReplacesCacheFromBackend(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	cart, err := fx.service.Add(ctx, "guest-1", "kurta", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.QuantityOf("kurta"))
	assert.Equal(t, int64(1000), cart.Subtotal)

	// The cached snapshot is the backend's answer, not a local merge.
	assert.Equal(t, cart, fx.service.Snapshot("guest-1"))
}

func TestCartService_Add_RejectsZeroQuantity(t *testing.T) {
	fx := createTestCartService(t)

	_, err := fx.service.Add(context.Background(), "guest-1", "kurta", 0)

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Zero(t, fx.repo.upsertCalls)
}

func TestCartService_Add_MergesExistingLine(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	_, err := fx.service.Add(ctx, "guest-1", "kurta", 1)
	require.NoError(t, err)

	cart, err := fx.service.Add(ctx, "guest-1", "kurta", 3)
	require.NoError(t, err)

	assert.Equal(t, 4, cart.QuantityOf("kurta"))
	assert.Len(t, cart.Lines, 1)
}

func TestCartService_QuantityAlgebra(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	_, err := fx.service.Add(ctx, "guest-1", "shawl", 1)
	require.NoError(t, err)

	_, err = fx.service.Increment(ctx, "guest-1", "shawl")
	require.NoError(t, err)
	_, err = fx.service.Increment(ctx, "guest-1", "shawl")
	require.NoError(t, err)

	cart, err := fx.service.Decrement(ctx, "guest-1", "shawl")
	require.NoError(t, err)

	assert.Equal(t, 2, cart.QuantityOf("shawl"))
}

func TestCartService_Decrement_AtOneRemovesLine(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	_, err := fx.service.Add(ctx, "guest-1", "cap", 1)
	require.NoError(t, err)

	cart, err := fx.service.Decrement(ctx, "guest-1", "cap")
	require.NoError(t, err)

	assert.False(t, cart.IsInCart("cap"))
	assert.Equal(t, 1, fx.repo.removeCalls)
	// The backend never saw a zero-quantity upsert.
	assert.Equal(t, 1, fx.repo.upsertCalls)
}

func TestCartService_Decrement_UnknownLine(t *testing.T) {
	fx := createTestCartService(t)

	_, err := fx.service.Decrement(context.Background(), "guest-1", "ghost")
	assert.ErrorIs(t, err, apperrors.ErrLineNotFound)
}

func TestCartService_ShippingChargeBelowThreshold(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	cart, err := fx.service.Add(ctx, "guest-1", "shawl", 2)
	require.NoError(t, err)

	assert.Equal(t, int64(600), cart.Subtotal)
	assert.Equal(t, int64(99), cart.ShippingCharge)
	assert.Equal(t, int64(699), cart.Total)
}

func TestCartService_ShippingFreeAtThreshold(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	_, err := fx.service.Add(ctx, "guest-1", "kurta", 2)
	require.NoError(t, err)

	cart, err := fx.service.Add(ctx, "guest-1", "shawl", 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1300), cart.Subtotal)
	assert.Zero(t, cart.ShippingCharge)
	assert.Equal(t, int64(1300), cart.Total)
}

func TestCartService_Refresh_AbsentCartIsEmpty(t *testing.T) {
	fx := createTestCartService(t)

	cart, err := fx.service.Refresh(context.Background(), "guest-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCartService_Refresh_TransportFailureKeepsCache(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	before, err := fx.service.Add(ctx, "guest-1", "kurta", 1)
	require.NoError(t, err)

	fx.repo.failAll = true
	_, err = fx.service.Refresh(ctx, "guest-1")

	var transportErr *apperrors.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, before, fx.service.Snapshot("guest-1"))
}

func TestCartService_Remove_TransportFailureDropsLocally(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	_, err := fx.service.Add(ctx, "guest-1", "kurta", 1)
	require.NoError(t, err)
	_, err = fx.service.Add(ctx, "guest-1", "shawl", 1)
	require.NoError(t, err)

	fx.repo.failAll = true
	cart, err := fx.service.Remove(ctx, "guest-1", "kurta")

	require.NoError(t, err)
	assert.False(t, cart.IsInCart("kurta"))
	assert.True(t, cart.IsInCart("shawl"))
	assert.Equal(t, int64(300), cart.Subtotal)
}

func TestCartService_Clear_TransportFailureClearsLocally(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	_, err := fx.service.Add(ctx, "guest-1", "kurta", 2)
	require.NoError(t, err)

	fx.repo.failAll = true
	err = fx.service.Clear(ctx, "guest-1")

	require.NoError(t, err)
	assert.True(t, fx.service.Snapshot("guest-1").IsEmpty())
}

func TestCartService_Clear_IsIdempotent(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	_, err := fx.service.Add(ctx, "guest-1", "cap", 1)
	require.NoError(t, err)

	require.NoError(t, fx.service.Clear(ctx, "guest-1"))
	require.NoError(t, fx.service.Clear(ctx, "guest-1"))
	assert.True(t, fx.service.Snapshot("guest-1").IsEmpty())
}

func TestCartService_Subscribe_ReceivesLatestSnapshot(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	updates, cancel := fx.service.Subscribe("guest-1")
	defer cancel()

	_, err := fx.service.Add(ctx, "guest-1", "kurta", 1)
	require.NoError(t, err)

	cart := <-updates
	assert.Equal(t, 1, cart.QuantityOf("kurta"))

	// Two quick mutations: the buffer keeps only the freshest state.
	_, err = fx.service.Increment(ctx, "guest-1", "kurta")
	require.NoError(t, err)
	_, err = fx.service.Increment(ctx, "guest-1", "kurta")
	require.NoError(t, err)

	cart = <-updates
	assert.Equal(t, 3, cart.QuantityOf("kurta"))
}

func TestCartService_Subscribe_CancelIsIdempotent(t *testing.T) {
	fx := createTestCartService(t)

	_, cancel := fx.service.Subscribe("guest-1")
	cancel()
	cancel()

	// A mutation after cancel must not panic on the closed channel.
	_, err := fx.service.Add(context.Background(), "guest-1", "kurta", 1)
	require.NoError(t, err)
}

func TestCartService_DerivedAccessors(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()

	_, err := fx.service.Add(ctx, "guest-1", "kurta", 2)
	require.NoError(t, err)
	_, err = fx.service.Add(ctx, "guest-1", "cap", 1)
	require.NoError(t, err)

	assert.Equal(t, 3, fx.service.ItemCount("guest-1"))
	assert.Equal(t, int64(1150), fx.service.TotalPrice("guest-1"))
	assert.True(t, fx.service.IsInCart("guest-1", "cap"))
	assert.False(t, fx.service.IsInCart("guest-1", "shawl"))
	assert.Equal(t, 2, fx.service.QuantityOf("guest-1", "kurta"))
}

func TestCartService_SessionRestoresFromSnapshotCache(t *testing.T) {
	repo := newFakeCartRepository()
	cache := newFakeSnapshotCache()
	policy := testPolicy()
	cached := entity.NewCart("guest-1", []entity.CartLine{
		{LineID: "line-kurta", ProductID: "kurta", Name: "Embroidered Kurta", UnitPrice: 500, Quantity: 1},
	}, policy)
	require.NoError(t, cache.Store(context.Background(), cached))

	service := NewCartService(CartServiceParams{
		Repo:   repo,
		Cache:  cache,
		Config: newTestConfig(),
		Logger: newDiscardLogger(),
	})

	cart := service.Snapshot("guest-1")
	assert.Equal(t, 1, cart.QuantityOf("kurta"))
	assert.Equal(t, int64(500), cart.Subtotal)
}
