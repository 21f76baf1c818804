package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/avelarm/shopyard-backend/internal/cart"
	"github.com/avelarm/shopyard-backend/pkg/enums"
	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
)

type stubCartService struct {
	resolution *cartsvc.Resolution
	err        error
	lastVisit  cartsvc.Visitor
}

func (s *stubCartService) GetCart(ctx context.Context, v cartsvc.Visitor) (*cartsvc.Resolution, error) {
	s.lastVisit = v
	return s.resolution, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, v cartsvc.Visitor, productID uuid.UUID, quantity int) (*cartsvc.Resolution, error) {
	s.lastVisit = v
	return s.resolution, s.err
}

func (s *stubCartService) UpdateItemQuantity(ctx context.Context, v cartsvc.Visitor, productID uuid.UUID, quantity int) (*cartsvc.Resolution, error) {
	s.lastVisit = v
	return s.resolution, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, v cartsvc.Visitor, productID uuid.UUID) (*cartsvc.Resolution, error) {
	s.lastVisit = v
	return s.resolution, s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, v cartsvc.Visitor) (*cartsvc.Resolution, error) {
	s.lastVisit = v
	return s.resolution, s.err
}

func testTokens() *cartsvc.TokenManager {
	return cartsvc.NewTokenManager("cart_id", 30*24*time.Hour, false)
}

func TestCartFetchReturnsEnvelope(t *testing.T) {
	t.Parallel()

	token := uuid.New()
	svc := &stubCartService{resolution: &cartsvc.Resolution{
		Snapshot: cartsvc.Snapshot{
			Token:      token,
			Status:     enums.CartStatusActive,
			ExpiresAt:  time.Now().Add(time.Hour),
			Items:      []cartsvc.SnapshotItem{},
			TotalPrice: decimal.Zero,
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "cart_id", Value: token.String()})
	rec := httptest.NewRecorder()

	CartFetch(svc, testTokens(), nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !svc.lastVisit.HasToken || svc.lastVisit.Token != token {
		t.Fatalf("cookie token must reach the service, got %+v", svc.lastVisit)
	}

	var body struct {
		Data CartResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Status != string(enums.CartStatusActive) {
		t.Fatalf("unexpected body: %+v", body.Data)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("read path must never set the identity cookie")
	}
}

func TestCartAddItemSetsCookieOnNewCart(t *testing.T) {
	t.Parallel()

	issued := uuid.New()
	svc := &stubCartService{resolution: &cartsvc.Resolution{
		Snapshot: cartsvc.Snapshot{
			Token:      issued,
			Status:     enums.CartStatusActive,
			Items:      []cartsvc.SnapshotItem{},
			TotalPrice: decimal.Zero,
		},
		IssuedToken: &issued,
	}}

	payload := `{"product_id":"` + uuid.NewString() + `","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	CartAddItem(svc, testTokens(), nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "cart_id" || cookies[0].Value != issued.String() {
		t.Fatalf("expected identity cookie for the new cart, got %+v", cookies)
	}
}

func TestCartAddItemValidationFailure(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"quantity":0}`))
	rec := httptest.NewRecorder()

	CartAddItem(svc, testTokens(), nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("failed request must not set a cookie")
	}
}

func TestCartAddItemMapsDomainErrors(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
		WithDetails(map[string]any{"available": 1})}

	payload := `{"product_id":"` + uuid.NewString() + `","quantity":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	CartAddItem(svc, testTokens(), nil)(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected error code %q", body.Error.Code)
	}
	if body.Error.Details["available"] != float64(1) {
		t.Fatalf("expected stock details, got %+v", body.Error.Details)
	}
}

func TestCartRemoveItemInvalidProductID(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	CartRemoveItem(svc, testTokens(), nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
