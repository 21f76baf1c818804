package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/avelarm/shopyard-backend/internal/cart"
)

// AddItemRequest is the payload for POST /cart/items.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// UpdateItemRequest is the payload for PATCH /cart/items/{productID}. A zero
// quantity removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// ItemResponse is one cart line as returned to the storefront.
type ItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	ImageRefs   []string        `json:"image_refs,omitempty"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// CartResponse is the storefront view of the resolved cart. The identity
// token never appears in the body; the cookie is its only channel.
type CartResponse struct {
	Status         string          `json:"status"`
	Items          []ItemResponse  `json:"items"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	TotalQuantity  int             `json:"total_quantity"`
	ItemCount      int             `json:"item_count"`
	IsEmpty        bool            `json:"is_empty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	LastActivityAt *time.Time      `json:"last_activity_at,omitempty"`
}

func newCartResponse(snap cartsvc.Snapshot) CartResponse {
	items := make([]ItemResponse, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, ItemResponse{
			ProductID:   item.ProductID,
			Slug:        item.Slug,
			Name:        item.Name,
			ImageRefs:   item.ImageRefs,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
			LineTotal:   item.LineTotal,
		})
	}

	res := CartResponse{
		Status:        string(snap.Status),
		Items:         items,
		TotalPrice:    snap.TotalPrice,
		TotalQuantity: snap.TotalQuantity,
		ItemCount:     snap.ItemCount(),
		IsEmpty:       snap.Empty(),
	}
	if !snap.Transient() {
		expiresAt := snap.ExpiresAt
		lastActivity := snap.LastActivityAt
		res.ExpiresAt = &expiresAt
		res.LastActivityAt = &lastActivity
	}
	return res
}
