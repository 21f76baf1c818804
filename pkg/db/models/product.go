package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is the catalog listing consumed by the cart. The cart treats it as
// read-mostly: it captures price at mutation time and reads stock through
// the attached inventory row, but never decrements it.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug        string          `gorm:"column:slug;not null;uniqueIndex"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ImageRefs   pq.StringArray  `gorm:"column:image_refs;type:text[]"`
	// no default tag: gorm would omit a false value on insert and the
	// column default would flip the product back to active
	IsActive    bool            `gorm:"column:is_active;not null"`
	Inventory   *InventoryItem  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// StockQuantity returns the available stock, treating a missing inventory
// row as zero.
func (p *Product) StockQuantity() int {
	if p.Inventory == nil {
		return 0
	}
	return p.Inventory.AvailableQty
}
