package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
	"github.com/avelarm/shopyard-backend/pkg/redis"
)

type snapshotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SnapshotKey(token string) string
}

// SnapshotCache keeps per-visitor cart snapshots in Redis. The cache is an
// advisory projection of the store: misses and redis outages degrade to a
// store read, they never fail the request.
type SnapshotCache struct {
	store snapshotStore
	ttl   time.Duration
}

// NewSnapshotCache wires the cache over the shared redis client.
func NewSnapshotCache(store snapshotStore, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{store: store, ttl: ttl}
}

// Get returns the cached snapshot for the token, or nil on a miss.
func (c *SnapshotCache) Get(ctx context.Context, token string) (*Snapshot, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := c.store.Get(ctx, c.store.SnapshotKey(token))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart snapshot cache")
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		// corrupt entry, treat as a miss and drop it
		_ = c.store.Del(ctx, c.store.SnapshotKey(token))
		return nil, nil
	}
	return &snap, nil
}

// Put stores a snapshot under its own token. Transient snapshots carry no
// token and are rejected so empty placeholder carts never become cached state.
func (c *SnapshotCache) Put(ctx context.Context, snap Snapshot) error {
	if snap.Transient() {
		return pkgerrors.New(pkgerrors.CodeInternal, "refusing to cache transient cart snapshot")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}
	key := c.store.SnapshotKey(snap.Token.String())
	if err := c.store.Set(ctx, key, payload, c.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cart snapshot cache")
	}
	return nil
}

// Invalidate drops the cached snapshot for a token.
func (c *SnapshotCache) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := c.store.Del(ctx, c.store.SnapshotKey(token)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate cart snapshot cache")
	}
	return nil
}
