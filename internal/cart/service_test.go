package cart

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelarm/shopyard-backend/pkg/db/models"
	"github.com/avelarm/shopyard-backend/pkg/enums"
	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo *stubCartRepo, cache *stubSnapshotCache) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Repo:          repo,
		TX:            stubTxRunner{},
		Cache:         cache,
		Products:      stubProductLoader{products: repo.products},
		TTL:           30 * 24 * time.Hour,
		TokenAttempts: 3,
	})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	svc.(*service).now = func() time.Time { return testNow }
	return svc
}

func makeProduct(price string, stock int, active bool) *models.Product {
	id := uuid.New()
	return &models.Product{
		ID:       id,
		Slug:     "test-product-" + id.String()[:8],
		Name:     "Test Product",
		Price:    decimal.RequireFromString(price),
		IsActive: active,
		Inventory: &models.InventoryItem{
			ProductID:    id,
			AvailableQty: stock,
		},
	}
}

func makeCart(token uuid.UUID, items ...models.CartItem) *models.Cart {
	return &models.Cart{
		ID:             uuid.New(),
		Token:          token,
		Status:         enums.CartStatusActive,
		ExpiresAt:      testNow.Add(24 * time.Hour),
		LastActivityAt: testNow.Add(-time.Hour),
		Items:          items,
	}
}

func TestGetCartWithoutTokenReturnsTransientView(t *testing.T) {
	t.Parallel()

	repo := newStubCartRepo()
	cache := newStubSnapshotCache()
	svc := newTestService(t, repo, cache)

	res, err := svc.GetCart(context.Background(), Visitor{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Snapshot.Transient() || !res.Snapshot.Empty() {
		t.Fatalf("expected transient empty snapshot, got %+v", res.Snapshot)
	}
	if res.IssuedToken != nil {
		t.Fatal("read path must never issue a token")
	}
	if repo.creates != 0 {
		t.Fatalf("read path created %d carts", repo.creates)
	}
	if cache.puts != 0 {
		t.Fatal("transient snapshot must not be cached")
	}
}

func TestGetCartCacheHitSkipsStore(t *testing.T) {
	t.Parallel()

	token := uuid.New()
	repo := newStubCartRepo()
	cache := newStubSnapshotCache()
	cache.entries[token.String()] = Snapshot{
		Token:      token,
		Status:     enums.CartStatusActive,
		ExpiresAt:  testNow.Add(time.Hour),
		Items:      []SnapshotItem{},
		TotalPrice: decimal.Zero,
		CapturedAt: testNow,
	}
	svc := newTestService(t, repo, cache)

	res, err := svc.GetCart(context.Background(), Visitor{Token: token, HasToken: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Snapshot.Token != token {
		t.Fatalf("expected cached snapshot, got token %s", res.Snapshot.Token)
	}
	if repo.finds != 0 {
		t.Fatalf("cache hit still touched the store %d times", repo.finds)
	}
}

func TestGetCartStoreHitRefreshesActivityAndCache(t *testing.T) {
	t.Parallel()

	product := makeProduct("19.99", 10, true)
	token := uuid.New()
	repo := newStubCartRepo(product)
	repo.cart = makeCart(token, models.CartItem{
		ID:          uuid.New(),
		ProductID:   product.ID,
		Quantity:    2,
		PriceAtTime: decimal.RequireFromString("19.99"),
	})
	cache := newStubSnapshotCache()
	svc := newTestService(t, repo, cache)

	res, err := svc.GetCart(context.Background(), Visitor{Token: token, HasToken: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Snapshot.TotalQuantity != 2 {
		t.Fatalf("expected quantity 2, got %d", res.Snapshot.TotalQuantity)
	}
	if want := decimal.RequireFromString("39.98"); !res.Snapshot.TotalPrice.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, res.Snapshot.TotalPrice)
	}
	if !repo.touched {
		t.Fatal("store hit must refresh last activity")
	}
	if repo.cart.ExpiresAt != testNow.Add(24*time.Hour) {
		t.Fatal("expiry must stay fixed at creation")
	}
	if _, ok := cache.entries[token.String()]; !ok {
		t.Fatal("store hit must repopulate the cache")
	}
}

func TestGetCartUnknownTokenNeverCreates(t *testing.T) {
	t.Parallel()

	repo := newStubCartRepo()
	cache := newStubSnapshotCache()
	svc := newTestService(t, repo, cache)

	res, err := svc.GetCart(context.Background(), Visitor{Token: uuid.New(), HasToken: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Snapshot.Transient() {
		t.Fatal("expected transient snapshot for unknown token")
	}
	if repo.creates != 0 {
		t.Fatal("read path must not create carts")
	}
}

func TestGetCartLazilyExpiresStaleCart(t *testing.T) {
	t.Parallel()

	token := uuid.New()
	repo := newStubCartRepo()
	repo.cart = makeCart(token)
	repo.cart.ExpiresAt = testNow.Add(-time.Minute)
	cache := newStubSnapshotCache()
	svc := newTestService(t, repo, cache)

	res, err := svc.GetCart(context.Background(), Visitor{Token: token, HasToken: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Snapshot.Transient() {
		t.Fatal("expired cart must resolve to a transient view")
	}
	if repo.cart.Status != enums.CartStatusExpired {
		t.Fatal("stale cart must flip to expired on access")
	}
	if len(cache.invalidated) == 0 {
		t.Fatal("expiry must drop the cached snapshot")
	}
	if repo.creates != 0 {
		t.Fatal("read path must not replace the expired cart")
	}
}

func TestGetCartStaleCacheEntryFallsThrough(t *testing.T) {
	t.Parallel()

	token := uuid.New()
	repo := newStubCartRepo()
	cache := newStubSnapshotCache()
	cache.entries[token.String()] = Snapshot{
		Token:     token,
		Status:    enums.CartStatusActive,
		ExpiresAt: testNow.Add(-time.Minute),
		Items:     []SnapshotItem{},
	}
	svc := newTestService(t, repo, cache)

	res, err := svc.GetCart(context.Background(), Visitor{Token: token, HasToken: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Snapshot.Transient() {
		t.Fatal("expected fallthrough to transient view")
	}
	if repo.finds == 0 {
		t.Fatal("stale cache entry must fall through to the store")
	}
}

func TestAddItemCreatesCartAndIssuesToken(t *testing.T) {
	t.Parallel()

	product := makeProduct("10.00", 5, true)
	repo := newStubCartRepo(product)
	cache := newStubSnapshotCache()
	svc := newTestService(t, repo, cache)

	res, err := svc.AddItem(context.Background(), Visitor{ClientIP: "203.0.113.9", UserAgent: "curl/8"}, product.ID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IssuedToken == nil {
		t.Fatal("creating a cart must surface the new token for the cookie")
	}
	if res.Snapshot.Token != *res.IssuedToken {
		t.Fatal("snapshot token must match the issued token")
	}
	if res.Snapshot.TotalQuantity != 2 {
		t.Fatalf("expected quantity 2, got %d", res.Snapshot.TotalQuantity)
	}
	if repo.cart.ClientIP == nil || *repo.cart.ClientIP != "203.0.113.9" {
		t.Fatal("client metadata not persisted")
	}
	if repo.cart.ExpiresAt != testNow.Add(30*24*time.Hour) {
		t.Fatal("expiry must be creation time plus the configured ttl")
	}
	if cache.puts != 1 {
		t.Fatalf("expected one cache write after commit, got %d", cache.puts)
	}
}

func TestAddItemMergeKeepsFirstCapturedPrice(t *testing.T) {
	t.Parallel()

	product := makeProduct("7.00", 10, true)
	token := uuid.New()
	repo := newStubCartRepo(product)
	repo.cart = makeCart(token, models.CartItem{
		ID:          uuid.New(),
		ProductID:   product.ID,
		Quantity:    1,
		PriceAtTime: decimal.RequireFromString("5.00"),
	})
	cache := newStubSnapshotCache()
	svc := newTestService(t, repo, cache)

	res, err := svc.AddItem(context.Background(), Visitor{Token: token, HasToken: true}, product.ID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IssuedToken != nil {
		t.Fatal("existing cart must not issue a new token")
	}
	line := res.Snapshot.Items[0]
	if line.Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", line.Quantity)
	}
	if want := decimal.RequireFromString("5.00"); !line.PriceAtTime.Equal(want) {
		t.Fatalf("incremental add must keep the first captured price, got %s", line.PriceAtTime)
	}
}

func TestAddItemInsufficientStockCountsHeldQuantity(t *testing.T) {
	t.Parallel()

	product := makeProduct("4.00", 3, true)
	token := uuid.New()
	repo := newStubCartRepo(product)
	repo.cart = makeCart(token, models.CartItem{
		ID:          uuid.New(),
		ProductID:   product.ID,
		Quantity:    2,
		PriceAtTime: decimal.RequireFromString("4.00"),
	})
	cache := newStubSnapshotCache()
	svc := newTestService(t, repo, cache)

	_, err := svc.AddItem(context.Background(), Visitor{Token: token, HasToken: true}, product.ID, 2)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if repo.cart.Items[0].Quantity != 2 {
		t.Fatal("failed mutation must not change the cart")
	}
	if cache.puts != 0 {
		t.Fatal("failed mutation must not touch the cache")
	}
}

func TestAddItemInactiveProduct(t *testing.T) {
	t.Parallel()

	product := makeProduct("4.00", 10, false)
	repo := newStubCartRepo(product)
	cache := newStubSnapshotCache()
	svc := newTestService(t, repo, cache)

	_, err := svc.AddItem(context.Background(), Visitor{}, product.ID, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeProductInactive {
		t.Fatalf("expected product inactive, got %v", err)
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	repo := newStubCartRepo()
	svc := newTestService(t, repo, newStubSnapshotCache())

	_, err := svc.AddItem(context.Background(), Visitor{}, uuid.New(), 0)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.creates != 0 {
		t.Fatal("invalid payload must not create a cart")
	}
}

func TestUpdateQuantityRecapturesCurrentPrice(t *testing.T) {
	t.Parallel()

	product := makeProduct("7.50", 10, true)
	token := uuid.New()
	repo := newStubCartRepo(product)
	repo.cart = makeCart(token, models.CartItem{
		ID:          uuid.New(),
		ProductID:   product.ID,
		Quantity:    1,
		PriceAtTime: decimal.RequireFromString("5.00"),
	})
	svc := newTestService(t, repo, newStubSnapshotCache())

	res, err := svc.UpdateItemQuantity(context.Background(), Visitor{Token: token, HasToken: true}, product.ID, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := res.Snapshot.Items[0]
	if line.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", line.Quantity)
	}
	if want := decimal.RequireFromString("7.50"); !line.PriceAtTime.Equal(want) {
		t.Fatalf("quantity replacement must re-capture the price, got %s", line.PriceAtTime)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	product := makeProduct("5.00", 10, true)
	token := uuid.New()
	repo := newStubCartRepo(product)
	repo.cart = makeCart(token, models.CartItem{
		ID:          uuid.New(),
		ProductID:   product.ID,
		Quantity:    2,
		PriceAtTime: decimal.RequireFromString("5.00"),
	})
	svc := newTestService(t, repo, newStubSnapshotCache())

	res, err := svc.UpdateItemQuantity(context.Background(), Visitor{Token: token, HasToken: true}, product.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Snapshot.Empty() {
		t.Fatal("zero quantity must remove the line")
	}
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	t.Parallel()

	token := uuid.New()
	repo := newStubCartRepo()
	repo.cart = makeCart(token)
	svc := newTestService(t, repo, newStubSnapshotCache())

	_, err := svc.UpdateItemQuantity(context.Background(), Visitor{Token: token, HasToken: true}, uuid.New(), 2)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveItemMissingLine(t *testing.T) {
	t.Parallel()

	token := uuid.New()
	repo := newStubCartRepo()
	repo.cart = makeCart(token)
	svc := newTestService(t, repo, newStubSnapshotCache())

	_, err := svc.RemoveItem(context.Background(), Visitor{Token: token, HasToken: true}, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClearCartKeepsIdentity(t *testing.T) {
	t.Parallel()

	product := makeProduct("5.00", 10, true)
	token := uuid.New()
	repo := newStubCartRepo(product)
	repo.cart = makeCart(token, models.CartItem{
		ID:          uuid.New(),
		ProductID:   product.ID,
		Quantity:    2,
		PriceAtTime: decimal.RequireFromString("5.00"),
	})
	svc := newTestService(t, repo, newStubSnapshotCache())

	res, err := svc.ClearCart(context.Background(), Visitor{Token: token, HasToken: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Snapshot.Empty() {
		t.Fatal("clear must drop every line")
	}
	if res.Snapshot.Token != token {
		t.Fatal("clear must keep the identity token")
	}
	if res.IssuedToken != nil {
		t.Fatal("clear on an existing cart must not issue a token")
	}
	if repo.cart.Status != enums.CartStatusActive {
		t.Fatal("cleared cart row must stay active")
	}
}

func TestMutationOnExpiredCartCreatesReplacement(t *testing.T) {
	t.Parallel()

	product := makeProduct("5.00", 10, true)
	oldToken := uuid.New()
	repo := newStubCartRepo(product)
	repo.cart = makeCart(oldToken)
	repo.cart.ExpiresAt = testNow.Add(-time.Minute)
	svc := newTestService(t, repo, newStubSnapshotCache())

	res, err := svc.AddItem(context.Background(), Visitor{Token: oldToken, HasToken: true}, product.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IssuedToken == nil {
		t.Fatal("replacement cart must issue a fresh token")
	}
	if *res.IssuedToken == oldToken {
		t.Fatal("replacement cart must not reuse the expired token")
	}
	if res.Snapshot.TotalQuantity != 1 {
		t.Fatal("replacement cart must start from the mutation only")
	}
}

func TestCreateCartRetriesTokenCollision(t *testing.T) {
	t.Parallel()

	product := makeProduct("5.00", 10, true)
	repo := newStubCartRepo(product)
	repo.createErrs = []error{uniqueViolation()}
	svc := newTestService(t, repo, newStubSnapshotCache())

	res, err := svc.AddItem(context.Background(), Visitor{}, product.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.creates != 2 {
		t.Fatalf("expected one retry after collision, got %d attempts", repo.creates)
	}
	if res.IssuedToken == nil {
		t.Fatal("successful retry must still issue the token")
	}
}

func TestCreateCartCollisionBudgetExhausted(t *testing.T) {
	t.Parallel()

	product := makeProduct("5.00", 10, true)
	repo := newStubCartRepo(product)
	repo.createErrs = []error{uniqueViolation(), uniqueViolation(), uniqueViolation()}
	svc := newTestService(t, repo, newStubSnapshotCache())

	_, err := svc.AddItem(context.Background(), Visitor{}, product.ID, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeIdentityCollision {
		t.Fatalf("expected identity collision, got %v", err)
	}
	if !pkgerrors.MetadataFor(typed.Code()).Retryable {
		t.Fatal("identity collision must be marked retryable")
	}
	if repo.creates != 3 {
		t.Fatalf("expected 3 attempts, got %d", repo.creates)
	}
}

func uniqueViolation() error {
	return errors.New(`duplicate key value violates unique constraint "idx_carts_token_active"`)
}

type stubCartRepo struct {
	cart       *models.Cart
	products   map[uuid.UUID]*models.Product
	createErrs []error

	creates int
	finds   int
	touched bool
}

func newStubCartRepo(products ...*models.Product) *stubCartRepo {
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &stubCartRepo{products: byID}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubCartRepo) FindActiveByToken(ctx context.Context, token uuid.UUID) (*models.Cart, error) {
	s.finds++
	if s.cart == nil || s.cart.Token != token || s.cart.Status != enums.CartStatusActive {
		return nil, nil
	}
	for i := range s.cart.Items {
		if p, ok := s.products[s.cart.Items[i].ProductID]; ok {
			s.cart.Items[i].Product = p
		}
	}
	return s.cart, nil
}

func (s *stubCartRepo) Create(ctx context.Context, cart *models.Cart) error {
	s.creates++
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return err
		}
	}
	cart.ID = uuid.New()
	s.cart = cart
	return nil
}

func (s *stubCartRepo) Touch(ctx context.Context, cartID uuid.UUID, at time.Time) error {
	s.touched = true
	if s.cart != nil && s.cart.ID == cartID {
		s.cart.LastActivityAt = at
	}
	return nil
}

func (s *stubCartRepo) Expire(ctx context.Context, cart *models.Cart) error {
	cart.Status = enums.CartStatusExpired
	return nil
}

func (s *stubCartRepo) CreateItem(ctx context.Context, item *models.CartItem) error {
	item.ID = uuid.New()
	s.cart.Items = append(s.cart.Items, *item)
	return nil
}

func (s *stubCartRepo) SaveItem(ctx context.Context, item *models.CartItem) error {
	for i := range s.cart.Items {
		if s.cart.Items[i].ID == item.ID {
			s.cart.Items[i].Quantity = item.Quantity
			s.cart.Items[i].PriceAtTime = item.PriceAtTime
			return nil
		}
	}
	return nil
}

func (s *stubCartRepo) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	kept := s.cart.Items[:0]
	for _, item := range s.cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.cart.Items = kept
	return nil
}

func (s *stubCartRepo) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	s.cart.Items = nil
	return nil
}

func (s *stubCartRepo) PurgeItemsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *stubCartRepo) PurgeCartsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubSnapshotCache struct {
	entries     map[string]Snapshot
	puts        int
	invalidated []string
}

func newStubSnapshotCache() *stubSnapshotCache {
	return &stubSnapshotCache{entries: map[string]Snapshot{}}
}

func (s *stubSnapshotCache) Get(ctx context.Context, token string) (*Snapshot, error) {
	if snap, ok := s.entries[token]; ok {
		return &snap, nil
	}
	return nil, nil
}

func (s *stubSnapshotCache) Put(ctx context.Context, snap Snapshot) error {
	s.puts++
	s.entries[snap.Token.String()] = snap
	return nil
}

func (s *stubSnapshotCache) Invalidate(ctx context.Context, token string) error {
	s.invalidated = append(s.invalidated, token)
	delete(s.entries, token)
	return nil
}

type stubProductLoader struct {
	products map[uuid.UUID]*models.Product
}

func (s stubProductLoader) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func TestTruncateKeepsUserAgentValidUTF8(t *testing.T) {
	t.Parallel()

	// 2-byte runes ensure the byte cut lands mid-rune
	agent := strings.Repeat("é", maxUserAgentLen)
	got := truncate(agent, maxUserAgentLen)

	if len(got) > maxUserAgentLen {
		t.Fatalf("truncate must respect the byte cap, got %d bytes", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncate must not leave a split rune behind")
	}
	if short := truncate("short", maxUserAgentLen); short != "short" {
		t.Fatalf("values under the cap must pass through, got %q", short)
	}
}
