package rediscache

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/eshopgo/checkout-pipeline/internal/domain/basket"
)

var _ basket.Repository = (*CachedRepository)(nil)

// CachedRepository implements basket.Repository as explicit composition: a
// cache consulted first on reads, with the durable store as the source of
// truth. Writes go through the durable store first, then refresh the cache
// with the new value (update, not invalidate, so a concurrent read cannot
// repopulate a stale entry). Cache failures are logged and the operation
// falls through to the durable store.
type CachedRepository struct {
	cache Cache
	store basket.Repository
	sfg   singleflight.Group
}

// NewCachedRepository wraps the durable store with the cache tier.
func NewCachedRepository(cache Cache, store basket.Repository) *CachedRepository {
	return &CachedRepository{cache: cache, store: store}
}

// Get consults the cache; on a miss it loads from the durable store,
// populates the cache, and returns. Concurrent misses for the same user
// collapse into a single durable-store load.
func (r *CachedRepository) Get(ctx context.Context, userName string) (*basket.ShoppingCart, error) {
	v, err, _ := r.sfg.Do(userName, func() (any, error) {
		key := cacheKey(userName)

		data, err := r.cache.Get(ctx, key)
		if err == nil {
			var cart basket.ShoppingCart
			if err := json.Unmarshal(data, &cart); err == nil {
				return &cart, nil
			}
			// Corrupt entry: fall through to the durable store and let
			// the refresh below overwrite it.
			zctx.From(ctx).Warn("Corrupt basket cache entry", zap.String("user_name", userName))
		} else if !errors.Is(err, ErrMiss) {
			zctx.From(ctx).Warn("Basket cache read failed", zap.Error(err))
		}

		cart, err := r.store.Get(ctx, userName)
		if err != nil {
			return nil, err
		}

		r.refresh(ctx, cart)
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*basket.ShoppingCart), nil
}

// Store writes the durable store first, then refreshes the cache with the
// serialized new value.
func (r *CachedRepository) Store(ctx context.Context, cart *basket.ShoppingCart) (*basket.ShoppingCart, error) {
	stored, err := r.store.Store(ctx, cart)
	if err != nil {
		return nil, err
	}
	r.refresh(ctx, stored)
	return stored, nil
}

// Delete removes the cart from the durable store, then evicts the cache
// entry.
func (r *CachedRepository) Delete(ctx context.Context, userName string) error {
	if err := r.store.Delete(ctx, userName); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, cacheKey(userName)); err != nil {
		zctx.From(ctx).Warn("Basket cache evict failed", zap.Error(err))
	}
	return nil
}

// refresh best-effort updates the cache entry for the cart.
func (r *CachedRepository) refresh(ctx context.Context, cart *basket.ShoppingCart) {
	data, err := json.Marshal(cart)
	if err != nil {
		zctx.From(ctx).Warn("Basket cache marshal failed", zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, cacheKey(cart.UserName), data); err != nil {
		zctx.From(ctx).Warn("Basket cache write failed", zap.Error(err))
	}
}

func cacheKey(userName string) string {
	return "basket:" + userName
}
