package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarm/shopyard-backend/pkg/db/models"
)

// Repository encapsulates wishlist persistence. Entries hang directly off
// the visitor token, there is no parent row to manage.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a wishlist entry and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, token, productID uuid.UUID) error {
	if token == uuid.Nil || productID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO wishlist_items (id, token, product_id) VALUES (?, ?, ?) ON CONFLICT (token, product_id) DO NOTHING`,
			uuid.New(), token, productID).
		Error
}

// RemoveItem deletes the token-product entry and reports whether it existed.
func (r *Repository) RemoveItem(ctx context.Context, token, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("token = ? AND product_id = ?", token, productID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListByToken returns the visitor's wishlist newest-first with products and
// their stock resolved.
func (r *Repository) ListByToken(ctx context.Context, token uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Inventory").
		Where("token = ?", token).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Clear removes every entry held by the token.
func (r *Repository) Clear(ctx context.Context, token uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&models.WishlistItem{}).Error
}
