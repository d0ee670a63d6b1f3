// Package cartcache stores last-known cart snapshots in a blob bucket.
package cartcache

import (
	"context"
	"encoding/json"
	"log/slog"

	"khilat/config"
	"khilat/internal/domain/entity"
	"khilat/internal/domain/repository"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // register the file:// bucket scheme
	"gocloud.dev/gcerrors"
)

// blobCache implements repository.SnapshotCache on a gocloud blob bucket.
// One object per guest under carts/{guestID}.json. Strictly best-effort.
type blobCache struct {
	bucket *blob.Bucket
	logger *slog.Logger
}

// noopCache is used when no bucket is configured.
type noopCache struct{}

func (noopCache) Load(ctx context.Context, guestID string) (*entity.Cart, error) { return nil, nil }
func (noopCache) Store(ctx context.Context, cart *entity.Cart) error             { return nil }
func (noopCache) Delete(ctx context.Context, guestID string) error               { return nil }

// CacheParams holds dependencies for the snapshot cache, injected by Fx.
type CacheParams struct {
	fx.In
	fx.Lifecycle

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewSnapshotCache opens the configured bucket, or returns a no-op cache
// when the snapshot cache is not configured.
func NewSnapshotCache(params CacheParams) (repository.SnapshotCache, error) {
	cfg := params.Config.SnapshotCache
	if cfg == nil || cfg.BucketURL == "" {
		params.Logger.Info("Snapshot cache not configured, using no-op cache")

		return noopCache{}, nil
	}

	bucket, err := blob.OpenBucket(params.Ctx, cfg.BucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "open snapshot bucket %s", cfg.BucketURL)
	}

	params.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return bucket.Close()
		},
	})

	return &blobCache{
		bucket: bucket,
		logger: params.Logger,
	}, nil
}

// Load returns the cached snapshot for the guest, or nil when absent.
func (c *blobCache) Load(ctx context.Context, guestID string) (*entity.Cart, error) {
	raw, err := c.bucket.ReadAll(ctx, key(guestID))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil
		}

		return nil, errors.Wrap(err, "read snapshot")
	}

	var cart entity.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}

	return &cart, nil
}

// Store persists the snapshot for the guest.
func (c *blobCache) Store(ctx context.Context, cart *entity.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := c.bucket.WriteAll(ctx, key(cart.GuestID), raw, nil); err != nil {
		return errors.Wrap(err, "write snapshot")
	}

	return nil
}

// Delete drops the cached snapshot for the guest.
func (c *blobCache) Delete(ctx context.Context, guestID string) error {
	if err := c.bucket.Delete(ctx, key(guestID)); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}

		return errors.Wrap(err, "delete snapshot")
	}

	return nil
}

func key(guestID string) string {
	return "carts/" + guestID + ".json"
}
