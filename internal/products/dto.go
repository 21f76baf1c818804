package product

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelarm/shopyard-backend/pkg/db/models"
)

// ProductDTO is the catalog view returned to storefront clients.
type ProductDTO struct {
	ID           uuid.UUID       `json:"id"`
	Slug         string          `json:"slug"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	ImageRefs    []string        `json:"image_refs,omitempty"`
	IsActive     bool            `json:"is_active"`
	AvailableQty int             `json:"available_qty"`
	InStock      bool            `json:"in_stock"`
}

// FromModel projects a catalog row into its transport shape.
func FromModel(p *models.Product) ProductDTO {
	qty := p.StockQuantity()
	return ProductDTO{
		ID:           p.ID,
		Slug:         p.Slug,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		ImageRefs:    p.ImageRefs,
		IsActive:     p.IsActive,
		AvailableQty: qty,
		InStock:      qty > 0,
	}
}
