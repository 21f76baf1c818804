package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarm/shopyard-backend/pkg/db"
	"github.com/avelarm/shopyard-backend/pkg/db/models"
	"github.com/avelarm/shopyard-backend/pkg/enums"
	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
	"github.com/avelarm/shopyard-backend/pkg/logger"
)

const (
	defaultTokenAttempts = 3
	maxUserAgentLen      = 256
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type snapshotCache interface {
	Get(ctx context.Context, token string) (*Snapshot, error)
	Put(ctx context.Context, snap Snapshot) error
	Invalidate(ctx context.Context, token string) error
}

// Visitor carries the identity material extracted from the request. HasToken
// distinguishes "no cookie" from a zero token.
type Visitor struct {
	Token     uuid.UUID
	HasToken  bool
	ClientIP  string
	UserAgent string
}

// Resolution is the outcome of a cart operation. IssuedToken is set only
// when the operation created a cart inside its committed transaction; it is
// the controller's signal to write the identity cookie.
type Resolution struct {
	Snapshot    Snapshot
	IssuedToken *uuid.UUID
}

// Service coordinates the session cache, the identity cookie and the cart
// store so visitors always see one consistent cart.
type Service interface {
	GetCart(ctx context.Context, v Visitor) (*Resolution, error)
	AddItem(ctx context.Context, v Visitor, productID uuid.UUID, quantity int) (*Resolution, error)
	UpdateItemQuantity(ctx context.Context, v Visitor, productID uuid.UUID, quantity int) (*Resolution, error)
	RemoveItem(ctx context.Context, v Visitor, productID uuid.UUID) (*Resolution, error)
	ClearCart(ctx context.Context, v Visitor) (*Resolution, error)
}

type service struct {
	repo          CartRepository
	tx            txRunner
	cache         snapshotCache
	products      productLoader
	guard         *InventoryGuard
	logg          *logger.Logger
	ttl           time.Duration
	tokenAttempts int
	now           func() time.Time
}

// ServiceParams bundles the collaborators for NewService.
type ServiceParams struct {
	Repo          CartRepository
	TX            txRunner
	Cache         snapshotCache
	Products      productLoader
	Guard         *InventoryGuard
	Logger        *logger.Logger
	TTL           time.Duration
	TokenAttempts int
}

// NewService builds the cart coordinator backed by the provided stack.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if p.TX == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Cache == nil {
		return nil, fmt.Errorf("snapshot cache required")
	}
	if p.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if p.Guard == nil {
		p.Guard = NewInventoryGuard()
	}
	if p.TTL <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	attempts := p.TokenAttempts
	if attempts <= 0 {
		attempts = defaultTokenAttempts
	}
	return &service{
		repo:          p.Repo,
		tx:            p.TX,
		cache:         p.Cache,
		products:      p.Products,
		guard:         p.Guard,
		logg:          p.Logger,
		ttl:           p.TTL,
		tokenAttempts: attempts,
		now:           time.Now,
	}, nil
}

// GetCart resolves the visitor's cart without ever creating one: cache
// first, then the store, then a transient empty view.
func (s *service) GetCart(ctx context.Context, v Visitor) (*Resolution, error) {
	if !v.HasToken {
		return &Resolution{Snapshot: EmptySnapshot(s.now())}, nil
	}

	if snap, err := s.cache.Get(ctx, v.Token.String()); err != nil {
		s.warn(ctx, err, "cart snapshot cache read failed")
	} else if snap != nil {
		if !snap.Expired(s.now()) {
			return &Resolution{Snapshot: *snap}, nil
		}
		// cached copy outlived the cart, drop it and consult the store
		s.invalidate(ctx, v.Token)
	}

	cart, err := s.repo.FindActiveByToken(ctx, v.Token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return &Resolution{Snapshot: EmptySnapshot(s.now())}, nil
	}

	now := s.now()
	if cart.ExpiredAt(now) {
		if err := s.repo.Expire(ctx, cart); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire cart")
		}
		s.invalidate(ctx, v.Token)
		return &Resolution{Snapshot: EmptySnapshot(now)}, nil
	}

	if err := s.repo.Touch(ctx, cart.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
	}
	cart.LastActivityAt = now

	snap, err := NewSnapshot(cart, now)
	if err != nil {
		return nil, err
	}
	s.putCache(ctx, snap)
	return &Resolution{Snapshot: snap}, nil
}

// AddItem merges quantity into the visitor's cart, creating the cart when
// needed. An existing line keeps the price captured when it was first added.
func (s *service) AddItem(ctx context.Context, v Visitor, productID uuid.UUID, quantity int) (*Resolution, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	return s.mutate(ctx, v, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		product, err := s.loadProduct(ctx, productID)
		if err != nil {
			return err
		}

		line := cart.ItemFor(productID)
		held := 0
		if line != nil {
			held = line.Quantity
		}
		if err := s.guard.CheckAvailable(product, held, quantity); err != nil {
			return err
		}

		if line != nil {
			line.Quantity += quantity
			if err := repo.SaveItem(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
			return nil
		}

		item := &models.CartItem{
			CartID:      cart.ID,
			ProductID:   productID,
			Quantity:    quantity,
			PriceAtTime: product.Price,
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}
		return nil
	})
}

// UpdateItemQuantity replaces a line's quantity wholesale and re-captures
// the product's current price. A non-positive quantity removes the line.
func (s *service) UpdateItemQuantity(ctx context.Context, v Visitor, productID uuid.UUID, quantity int) (*Resolution, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, v, productID)
	}

	return s.mutate(ctx, v, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		line := cart.ItemFor(productID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}

		product, err := s.loadProduct(ctx, productID)
		if err != nil {
			return err
		}
		if err := s.guard.CheckAvailable(product, 0, quantity); err != nil {
			return err
		}

		line.Quantity = quantity
		line.PriceAtTime = product.Price
		if err := repo.SaveItem(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return nil
	})
}

// RemoveItem deletes a single line from the visitor's cart.
func (s *service) RemoveItem(ctx context.Context, v Visitor, productID uuid.UUID) (*Resolution, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	return s.mutate(ctx, v, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		if cart.ItemFor(productID) == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		if err := repo.DeleteItem(ctx, cart.ID, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		return nil
	})
}

// ClearCart empties the visitor's cart while keeping the cart row and the
// identity token intact.
func (s *service) ClearCart(ctx context.Context, v Visitor) (*Resolution, error) {
	return s.mutate(ctx, v, func(ctx context.Context, repo CartRepository, cart *models.Cart) error {
		if err := repo.ClearItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		return nil
	})
}

// mutate runs a cart mutation inside a single transaction: resolve or create
// the cart, apply the change, refresh activity, then rebuild the snapshot
// from the committed state. The cache is written strictly after commit so a
// rollback leaves no advisory state behind.
func (s *service) mutate(ctx context.Context, v Visitor, apply func(ctx context.Context, repo CartRepository, cart *models.Cart) error) (*Resolution, error) {
	var (
		snap   Snapshot
		issued *uuid.UUID
	)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, created, err := s.resolveForWrite(ctx, repo, v)
		if err != nil {
			return err
		}
		if created {
			token := cart.Token
			issued = &token
		}

		if err := apply(ctx, repo, cart); err != nil {
			return err
		}

		now := s.now()
		if err := repo.Touch(ctx, cart.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}

		committed, err := repo.FindActiveByToken(ctx, cart.Token)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		if committed == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "cart disappeared mid-transaction")
		}

		snap, err = NewSnapshot(committed, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.putCache(ctx, snap)
	return &Resolution{Snapshot: snap, IssuedToken: issued}, nil
}

// resolveForWrite returns the live cart for the visitor, lazily expiring a
// stale one, and creates a cart when none is usable. Only mutating paths
// reach this; pure reads never allocate identity.
func (s *service) resolveForWrite(ctx context.Context, repo CartRepository, v Visitor) (*models.Cart, bool, error) {
	if v.HasToken {
		cart, err := repo.FindActiveByToken(ctx, v.Token)
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if cart != nil {
			if !cart.ExpiredAt(s.now()) {
				return cart, false, nil
			}
			if err := repo.Expire(ctx, cart); err != nil {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire cart")
			}
			s.invalidate(ctx, v.Token)
		}
	}

	cart, err := s.createCart(ctx, repo, v)
	if err != nil {
		return nil, false, err
	}
	return cart, true, nil
}

// createCart mints tokens until an insert lands or the attempt budget runs
// out. Collisions on the active-token index are the only retried failure.
func (s *service) createCart(ctx context.Context, repo CartRepository, v Visitor) (*models.Cart, error) {
	now := s.now()
	for attempt := 1; attempt <= s.tokenAttempts; attempt++ {
		cart := &models.Cart{
			Token:          NewToken(),
			Status:         enums.CartStatusActive,
			ExpiresAt:      now.Add(s.ttl),
			LastActivityAt: now,
			ClientIP:       optionalString(v.ClientIP),
			UserAgent:      optionalString(truncate(v.UserAgent, maxUserAgentLen)),
		}
		err := repo.Create(ctx, cart)
		if err == nil {
			return cart, nil
		}
		if db.IsUniqueViolation(err, "idx_carts_token_active") {
			s.warn(ctx, err, "cart token collision, retrying with a fresh token")
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return nil, pkgerrors.New(pkgerrors.CodeIdentityCollision, "exhausted cart token attempts")
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// putCache refreshes the advisory snapshot; failures are logged, never
// surfaced, because the store already holds the committed truth.
func (s *service) putCache(ctx context.Context, snap Snapshot) {
	if snap.Transient() {
		return
	}
	if err := s.cache.Put(ctx, snap); err != nil {
		s.warn(ctx, err, "cart snapshot cache write failed")
	}
}

func (s *service) invalidate(ctx context.Context, token uuid.UUID) {
	if err := s.cache.Invalidate(ctx, token.String()); err != nil {
		s.warn(ctx, err, "cart snapshot cache invalidation failed")
	}
}

func (s *service) warn(ctx context.Context, err error, msg string) {
	if s.logg == nil {
		return
	}
	if err != nil {
		ctx = s.logg.WithField(ctx, "error", err.Error())
	}
	s.logg.Warn(ctx, msg)
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func truncate(v string, max int) string {
	if len(v) <= max {
		return v
	}
	// the byte cut may land inside a multi-byte rune; drop the fragment
	return strings.ToValidUTF8(v[:max], "")
}
