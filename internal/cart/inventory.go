package cart

import (
	"github.com/avelarm/shopyard-backend/pkg/db/models"
	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
)

// InventoryGuard validates cart mutations against the catalog before they
// are persisted. It only reads stock; reservation happens at checkout, not
// here, so concurrent carts may still oversell between check and purchase.
type InventoryGuard struct{}

// NewInventoryGuard returns the stateless guard.
func NewInventoryGuard() *InventoryGuard {
	return &InventoryGuard{}
}

// CheckAvailable verifies the product is sellable and that the quantity the
// cart would hold after the mutation (heldQty already in the cart plus the
// requested delta) fits in available stock.
func (g *InventoryGuard) CheckAvailable(product *models.Product, heldQty, requestedQty int) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeProductInactive, "product is not available for sale").
			WithDetails(map[string]any{"product_id": product.ID})
	}

	available := product.StockQuantity()
	wanted := heldQty + requestedQty
	if wanted > available {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
			WithDetails(map[string]any{
				"product_id": product.ID,
				"available":  available,
				"requested":  requestedQty,
				"in_cart":    heldQty,
			})
	}
	return nil
}
