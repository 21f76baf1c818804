package wishlist

import (
	"context"

	"github.com/google/uuid"

	"github.com/avelarm/shopyard-backend/pkg/db/models"
	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
)

type wishlistRepo interface {
	AddItem(ctx context.Context, token, productID uuid.UUID) error
	RemoveItem(ctx context.Context, token, productID uuid.UUID) (bool, error)
	ListByToken(ctx context.Context, token uuid.UUID) ([]models.WishlistItem, error)
	Clear(ctx context.Context, token uuid.UUID) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo     wishlistRepo
	Products productLoader
}

// Service exposes business rules for the anonymous wishlist. It mirrors the
// cart's identity handling: reads never mint a token, mutations do.
type Service interface {
	Get(ctx context.Context, token uuid.UUID, hasToken bool) (*Resolution, error)
	AddItem(ctx context.Context, token uuid.UUID, hasToken bool, productID uuid.UUID) (*Resolution, error)
	RemoveItem(ctx context.Context, token uuid.UUID, hasToken bool, productID uuid.UUID) (*Resolution, error)
	Clear(ctx context.Context, token uuid.UUID, hasToken bool) (*Resolution, error)
}

type service struct {
	repo     wishlistRepo
	products productLoader
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product loader is required")
	}
	return &service{repo: params.Repo, products: params.Products}, nil
}

// Get returns the visitor's wishlist, or an empty view when no identity
// cookie accompanied the request.
func (s *service) Get(ctx context.Context, token uuid.UUID, hasToken bool) (*Resolution, error) {
	if !hasToken {
		return &Resolution{Items: []ItemDTO{}}, nil
	}
	rows, err := s.repo.ListByToken(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return &Resolution{Items: toItemDTOs(rows)}, nil
}

// AddItem verifies the product exists and records the like, minting a fresh
// identity token when the visitor has none yet.
func (s *service) AddItem(ctx context.Context, token uuid.UUID, hasToken bool, productID uuid.UUID) (*Resolution, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	var issued *uuid.UUID
	if !hasToken {
		token = uuid.New()
		issued = &token
	}
	if err := s.repo.AddItem(ctx, token, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}

	rows, err := s.repo.ListByToken(ctx, token)
	if err != nil {
		// the like is already persisted; erroring here would leave the row
		// under a token the client never receives, so serve the new entry
		// and let the cookie go out
		rows = []models.WishlistItem{{Token: token, ProductID: productID, Product: product}}
	}
	return &Resolution{Items: toItemDTOs(rows), IssuedToken: issued}, nil
}

// RemoveItem drops the like if present. Without a token there is nothing
// addressable, so the item cannot be in the list.
func (s *service) RemoveItem(ctx context.Context, token uuid.UUID, hasToken bool, productID uuid.UUID) (*Resolution, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !hasToken {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in wishlist")
	}
	removed, err := s.repo.RemoveItem(ctx, token, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in wishlist")
	}

	rows, err := s.repo.ListByToken(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return &Resolution{Items: toItemDTOs(rows)}, nil
}

// Clear empties the visitor's wishlist. A visitor without identity already
// has an empty list.
func (s *service) Clear(ctx context.Context, token uuid.UUID, hasToken bool) (*Resolution, error) {
	if !hasToken {
		return &Resolution{Items: []ItemDTO{}}, nil
	}
	if err := s.repo.Clear(ctx, token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear wishlist")
	}
	return &Resolution{Items: []ItemDTO{}}, nil
}
