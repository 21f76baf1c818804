package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/avelarm/shopyard-backend/internal/cart"
	"github.com/avelarm/shopyard-backend/pkg/logger"
)

const cartRetentionDays = 60

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CartCleanupJobParams configure the cart retention sweep.
type CartCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository cart.CartRepository
	Retention  int
}

// NewCartCleanupJob builds the job that physically deletes carts long past
// their expiry. Lazy expiry only flips status on access; this sweep is what
// actually reclaims storage, including carts nobody ever came back for.
func NewCartCleanupJob(params CartCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = cartRetentionDays
	}
	return &cartCleanupJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type cartCleanupJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      cart.CartRepository
	retention int
	now       func() time.Time
}

func (j *cartCleanupJob) Name() string { return "cart-cleanup" }

func (j *cartCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deletedItems, deletedCarts int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)
		items, err := repo.PurgeItemsExpiredBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("purge cart items: %w", err)
		}
		carts, err := repo.PurgeCartsExpiredBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("purge carts: %w", err)
		}
		deletedItems = items
		deletedCarts = carts
		return nil
	})
	if err != nil {
		return fmt.Errorf("cart cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"items_deleted":  deletedItems,
		"carts_deleted":  deletedCarts,
	})
	j.logg.Info(logCtx, "cart cleanup complete")
	return nil
}
