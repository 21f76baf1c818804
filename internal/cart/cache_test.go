package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelarm/shopyard-backend/pkg/enums"
	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
	"github.com/avelarm/shopyard-backend/pkg/redis"
)

type fakeSnapshotStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeSnapshotStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeSnapshotStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeSnapshotStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeSnapshotStore) SnapshotKey(token string) string {
	return "sy:cart_snapshot:" + token
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	t.Parallel()

	store := newFakeSnapshotStore()
	cache := NewSnapshotCache(store, 30*time.Minute)
	token := uuid.New()

	snap := Snapshot{
		Token:         token,
		Status:        enums.CartStatusActive,
		ExpiresAt:     time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		Items:         []SnapshotItem{{ProductID: uuid.New(), Slug: "tea", Name: "Tea", Quantity: 2, PriceAtTime: decimal.RequireFromString("3.25"), LineTotal: decimal.RequireFromString("6.50")}},
		TotalPrice:    decimal.RequireFromString("6.50"),
		TotalQuantity: 2,
	}
	if err := cache.Put(context.Background(), snap); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ttl := store.ttls[store.SnapshotKey(token.String())]; ttl != 30*time.Minute {
		t.Fatalf("expected configured ttl, got %s", ttl)
	}

	got, err := cache.Get(context.Background(), token.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected cache hit")
	}
	if got.Token != token || got.TotalQuantity != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.TotalPrice.Equal(snap.TotalPrice) {
		t.Fatalf("expected total %s, got %s", snap.TotalPrice, got.TotalPrice)
	}
}

func TestSnapshotCacheMiss(t *testing.T) {
	t.Parallel()

	cache := NewSnapshotCache(newFakeSnapshotStore(), time.Minute)
	got, err := cache.Get(context.Background(), uuid.New().String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected miss, got %+v", got)
	}
}

func TestSnapshotCacheRejectsTransientSnapshot(t *testing.T) {
	t.Parallel()

	cache := NewSnapshotCache(newFakeSnapshotStore(), time.Minute)
	err := cache.Put(context.Background(), EmptySnapshot(time.Now()))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected rejection of transient snapshot, got %v", err)
	}
}

func TestSnapshotCacheCorruptEntryReadsAsMiss(t *testing.T) {
	t.Parallel()

	store := newFakeSnapshotStore()
	cache := NewSnapshotCache(store, time.Minute)
	token := uuid.New()
	store.values[store.SnapshotKey(token.String())] = "{not json"

	got, err := cache.Get(context.Background(), token.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatal("corrupt entry must read as a miss")
	}
	if _, still := store.values[store.SnapshotKey(token.String())]; still {
		t.Fatal("corrupt entry must be dropped")
	}
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	t.Parallel()

	store := newFakeSnapshotStore()
	cache := NewSnapshotCache(store, time.Minute)
	token := uuid.New()

	snap := EmptySnapshot(time.Now())
	snap.Token = token
	if err := cache.Put(context.Background(), snap); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := cache.Invalidate(context.Background(), token.String()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	got, err := cache.Get(context.Background(), token.String())
	if err != nil || got != nil {
		t.Fatalf("expected miss after invalidation, got %+v err=%v", got, err)
	}
}
