package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelarm/shopyard-backend/pkg/enums"
)

// Cart is the persistent anonymous cart, addressed by the client-held
// identity token. At most one active cart may exist per token; the partial
// unique index backing that invariant lives in the migrations.
type Cart struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Token          uuid.UUID        `gorm:"column:token;type:uuid;not null;uniqueIndex:idx_carts_token_active,where:status = 'active'"`
	Status         enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	ExpiresAt      time.Time        `gorm:"column:expires_at;not null"`
	LastActivityAt time.Time        `gorm:"column:last_activity_at;not null"`
	ClientIP       *string          `gorm:"column:client_ip"`
	UserAgent      *string          `gorm:"column:user_agent"`
	Items          []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ExpiredAt reports whether the cart's expiration timestamp has passed at
// the supplied instant. ExpiresAt is fixed at creation and never refreshed.
func (c *Cart) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ItemFor returns the line holding the given product, or nil.
func (c *Cart) ItemFor(productID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
