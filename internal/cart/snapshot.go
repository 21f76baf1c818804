package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelarm/shopyard-backend/pkg/db/models"
	"github.com/avelarm/shopyard-backend/pkg/enums"
	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
)

// SnapshotItem is one fully resolved cart line: every product field is
// copied in, so nothing is left to lazy-load outside the transaction that
// built it.
type SnapshotItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	ImageRefs   []string        `json:"image_refs,omitempty"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Snapshot is the value-type cart state handed to the session cache and the
// view layer. A zero Token marks a transient placeholder that must never be
// cached or persisted.
type Snapshot struct {
	Token          uuid.UUID        `json:"token"`
	Status         enums.CartStatus `json:"status"`
	ExpiresAt      time.Time        `json:"expires_at"`
	LastActivityAt time.Time        `json:"last_activity_at"`
	Items          []SnapshotItem   `json:"items"`
	TotalPrice     decimal.Decimal  `json:"total_price"`
	TotalQuantity  int              `json:"total_quantity"`
	CapturedAt     time.Time        `json:"captured_at"`
}

// NewSnapshot materializes a persisted cart. It fails if any line's product
// is unresolved, which keeps half-loaded records out of the cache.
func NewSnapshot(cart *models.Cart, capturedAt time.Time) (Snapshot, error) {
	if cart == nil {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeInternal, "cannot snapshot nil cart")
	}
	if cart.Token == uuid.Nil {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeInternal, "cannot snapshot cart without identity token")
	}

	snap := Snapshot{
		Token:          cart.Token,
		Status:         cart.Status,
		ExpiresAt:      cart.ExpiresAt,
		LastActivityAt: cart.LastActivityAt,
		Items:          make([]SnapshotItem, 0, len(cart.Items)),
		TotalPrice:     decimal.Zero,
		CapturedAt:     capturedAt,
	}

	for i := range cart.Items {
		item := cart.Items[i]
		if item.Product == nil {
			return Snapshot{}, pkgerrors.New(pkgerrors.CodeInternal, "cart line has unresolved product")
		}
		lineTotal := item.LineTotal()
		snap.Items = append(snap.Items, SnapshotItem{
			ProductID:   item.ProductID,
			Slug:        item.Product.Slug,
			Name:        item.Product.Name,
			ImageRefs:   item.Product.ImageRefs,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
			LineTotal:   lineTotal,
		})
		snap.TotalPrice = snap.TotalPrice.Add(lineTotal)
		snap.TotalQuantity += item.Quantity
	}

	return snap, nil
}

// EmptySnapshot builds the transient placeholder returned when a pure read
// finds no cart. It carries no token, so the cache rejects it.
func EmptySnapshot(capturedAt time.Time) Snapshot {
	return Snapshot{
		Status:     enums.CartStatusActive,
		Items:      []SnapshotItem{},
		TotalPrice: decimal.Zero,
		CapturedAt: capturedAt,
	}
}

// Transient reports whether this snapshot was synthesized in memory only.
func (s Snapshot) Transient() bool {
	return s.Token == uuid.Nil
}

// Expired reports whether the underlying cart's expiration has passed.
// Transient snapshots never expire.
func (s Snapshot) Expired(now time.Time) bool {
	if s.Transient() || s.ExpiresAt.IsZero() {
		return false
	}
	return now.After(s.ExpiresAt)
}

// ItemCount returns the number of distinct lines.
func (s Snapshot) ItemCount() int {
	return len(s.Items)
}

// Empty reports whether the cart holds no lines.
func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}
