package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/avelarm/shopyard-backend/api/responses"
	"github.com/avelarm/shopyard-backend/api/validators"
	cartsvc "github.com/avelarm/shopyard-backend/internal/cart"
	"github.com/avelarm/shopyard-backend/internal/wishlist"
	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
	"github.com/avelarm/shopyard-backend/pkg/logger"
)

// WishlistAddRequest is the payload for POST /wishlist/items.
type WishlistAddRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// WishlistResponse wraps the visitor's wishlist rows.
type WishlistResponse struct {
	Items []wishlist.ItemDTO `json:"items"`
}

// WishlistFetch returns the visitor's wishlist without minting identity.
func WishlistFetch(svc wishlist.Service, tokens *cartsvc.TokenManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := tokens.Read(r)
		res, err := svc.Get(r.Context(), token, ok)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, WishlistResponse{Items: res.Items})
	}
}

// WishlistAddItem records a like, minting the wishlist cookie on first use.
func WishlistAddItem(svc wishlist.Service, tokens *cartsvc.TokenManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload WishlistAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, ok := tokens.Read(r)
		res, err := svc.AddItem(r.Context(), token, ok, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if res.IssuedToken != nil {
			tokens.Issue(w, *res.IssuedToken)
		}
		responses.WriteSuccess(w, WishlistResponse{Items: res.Items})
	}
}

// WishlistRemoveItem drops a like.
func WishlistRemoveItem(svc wishlist.Service, tokens *cartsvc.TokenManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		token, ok := tokens.Read(r)
		res, err := svc.RemoveItem(r.Context(), token, ok, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, WishlistResponse{Items: res.Items})
	}
}

// WishlistClear empties the visitor's wishlist.
func WishlistClear(svc wishlist.Service, tokens *cartsvc.TokenManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := tokens.Read(r)
		res, err := svc.Clear(r.Context(), token, ok)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, WishlistResponse{Items: res.Items})
	}
}
