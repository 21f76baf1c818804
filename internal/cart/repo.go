package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarm/shopyard-backend/pkg/db/models"
	"github.com/avelarm/shopyard-backend/pkg/enums"
)

// Repository is the persistence surface for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository over the shared connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindActiveByToken loads the live cart for an identity token with every
// line's product and inventory resolved in the same query batch. Returns
// nil without error when no active cart exists.
func (r *Repository) FindActiveByToken(ctx context.Context, token uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.added_at ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Product.Inventory").
		Where("token = ? AND status = ?", token, enums.CartStatusActive).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Create inserts a new cart row. A unique violation on the active-token
// index surfaces unchanged so callers can retry with a fresh token.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Omit("Items").Create(cart).Error
}

// Touch refreshes the activity timestamp without rewriting the row.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("last_activity_at", at).Error
}

// Expire flips the cart to its terminal state. Expiry happens at most once
// per cart and is never reversed.
func (r *Repository) Expire(ctx context.Context, cart *models.Cart) error {
	cart.Status = enums.CartStatusExpired
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Update("status", enums.CartStatusExpired).Error
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Create(item).Error
}

// SaveItem persists quantity and captured-price changes on an existing line.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":      item.Quantity,
			"price_at_time": item.PriceAtTime,
		}).Error
}

// DeleteItem removes a single product line from a cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{}).Error
}

// ClearItems drops every line while keeping the cart row and its token.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// PurgeItemsExpiredBefore deletes lines belonging to carts whose expiry
// passed before the cutoff. Runs ahead of PurgeCartsExpiredBefore so the
// parent rows never orphan their lines mid-sweep.
func (r *Repository) PurgeItemsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id IN (?)",
			r.db.Model(&models.Cart{}).Select("id").Where("expires_at < ?", cutoff),
		).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// PurgeCartsExpiredBefore deletes cart rows whose expiry passed before the
// cutoff, regardless of status: lazy expiry never touches carts nobody
// revisits, so the sweep has to catch stale active rows too.
func (r *Repository) PurgeCartsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}
