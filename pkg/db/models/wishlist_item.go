package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem is one saved product for an anonymous visitor, addressed by
// the same kind of client-held identity token the cart uses.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Token     uuid.UUID `gorm:"column:token;type:uuid;not null;uniqueIndex:idx_wishlist_token_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_wishlist_token_product"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
