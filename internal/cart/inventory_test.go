package cart

import (
	"testing"

	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
)

func TestInventoryGuardAllowsWithinStock(t *testing.T) {
	t.Parallel()

	guard := NewInventoryGuard()
	product := makeProduct("9.99", 10, true)

	if err := guard.CheckAvailable(product, 4, 6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInventoryGuardInactiveProduct(t *testing.T) {
	t.Parallel()

	guard := NewInventoryGuard()
	product := makeProduct("9.99", 10, false)

	err := guard.CheckAvailable(product, 0, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeProductInactive {
		t.Fatalf("expected product inactive, got %v", err)
	}
}

func TestInventoryGuardCountsHeldQuantity(t *testing.T) {
	t.Parallel()

	guard := NewInventoryGuard()
	product := makeProduct("9.99", 10, true)

	err := guard.CheckAvailable(product, 8, 3)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected structured details, got %T", typed.Details())
	}
	if details["available"] != 10 || details["in_cart"] != 8 || details["requested"] != 3 {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestInventoryGuardMissingInventoryRowMeansZeroStock(t *testing.T) {
	t.Parallel()

	guard := NewInventoryGuard()
	product := makeProduct("9.99", 0, true)
	product.Inventory = nil

	err := guard.CheckAvailable(product, 0, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}
