package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks the live stock count per product. The cart subsystem
// only reads it; decrements happen at order creation elsewhere.
type InventoryItem struct {
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
