package wishlist

import (
	"time"

	"github.com/google/uuid"

	products "github.com/avelarm/shopyard-backend/internal/products"
	"github.com/avelarm/shopyard-backend/pkg/db/models"
)

// ItemDTO wraps the product view included in a wishlist row.
type ItemDTO struct {
	Product   products.ProductDTO `json:"product"`
	CreatedAt time.Time           `json:"created_at"`
}

// Resolution is the outcome of a wishlist operation. IssuedToken is set when
// the operation minted a fresh identity, signalling the controller to write
// the wishlist cookie.
type Resolution struct {
	Items       []ItemDTO
	IssuedToken *uuid.UUID
}

func toItemDTOs(rows []models.WishlistItem) []ItemDTO {
	items := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		if rows[i].Product == nil {
			continue
		}
		items = append(items, ItemDTO{
			Product:   products.FromModel(rows[i].Product),
			CreatedAt: rows[i].CreatedAt,
		})
	}
	return items
}
