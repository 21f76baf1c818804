package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarm/shopyard-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart
// service and the cleanup worker.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindActiveByToken(ctx context.Context, token uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Touch(ctx context.Context, cartID uuid.UUID, at time.Time) error
	Expire(ctx context.Context, cart *models.Cart) error
	CreateItem(ctx context.Context, item *models.CartItem) error
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	PurgeItemsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeCartsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

var _ CartRepository = (*Repository)(nil)
